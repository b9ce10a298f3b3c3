package handlers

// Buttons
const (
	BtnFindPartner  = "🔎 Find partner"
	BtnPreferences  = "⚙️ Preferences"
	BtnRevealOn     = "🔓 Reveal: on"
	BtnRevealOff    = "🔒 Reveal: off"
	BtnHelp         = "❓ Help"
	BtnAdminStats   = "📊 Stats"
	BtnCancel       = "❌ Cancel"
	BtnMale         = "👨 Male"
	BtnFemale       = "👩 Female"
	BtnSeekMale     = "👨 Males"
	BtnSeekFemale   = "👩 Females"
	BtnSeekAny      = "🌐 Anyone"
	BtnSkipFeedback = "➡️ Skip"
)

// In-chat directives
const (
	CmdStop   = "!stop"
	CmdNext   = "!next"
	CmdReveal = "!reveal"
)

// Callback data prefixes
const (
	CbGender  = "gender:"
	CbSeeking = "seeking:"
	CbCancel  = "search:cancel"
	CbRate    = "rate:"
	CbReport  = "report:"
	CbFbSkip  = "fbskip:"
)

const (
	MsgWelcome          = "👋 Welcome to anonymous chat!\n\nYou will be paired with a random partner. Nobody sees who you are unless you both agree with !reveal."
	MsgWelcomeBack      = "👋 Welcome back!"
	MsgHelp             = "❓ <b>How it works</b>\n\n🔎 Find partner: join the queue\n⚙️ Preferences: your gender and who you want to meet\n🔓 Reveal: allow showing your profile after a mutual !reveal\n\nDuring a chat:\n!stop - end the chat\n!next - end and search for someone new\n!reveal - ask to reveal profiles\n\nSilent chats end automatically."
	MsgReadyToSearch    = "Tap «🔎 Find partner» to start."
	MsgAskGender        = "👤 Choose your gender:"
	MsgAskSeeking       = "💞 Who would you like to talk to?"
	MsgPreferencesSaved = "✅ Preferences saved."
	MsgNeedPreferences  = "⚙️ Set your preferences first, then search again."
	MsgSearching        = "🔎 Looking for a partner... You will be notified as soon as someone is found."
	MsgAlreadySearching = "⏳ You are already in the queue."
	MsgSearchCancelled  = "❌ Search cancelled."
	MsgNotSearching     = "⚠️ You are not searching right now."
	MsgAlreadyInChat    = "⚠️ You are already in a chat. Send !stop to end it."
	MsgMatchFound       = "🎉 Partner found! Say hi.\n\n⭐ Partner rating: %s\n\nCommands: !stop, !next, !reveal"
	MsgNoRatingYet      = "no ratings yet"

	MsgCommandsBlocked = "⚠️ Commands are disabled during a chat. Use !stop, !next or !reveal."
	MsgUnsupportedKind = "🚫 This attachment type is disabled in anonymous chat."
	MsgSlowDown        = "🐢 You are sending messages too fast. Slow down a little."
	MsgRelayFailed     = "❌ Message could not be delivered."

	MsgRevealReadyOn  = "🔓 Reveal enabled. Your profile can be shown after a mutual !reveal."
	MsgRevealReadyOff = "🔒 Reveal disabled."

	MsgRatePrompt      = "How was your partner? Rate them (1–5), report a problem or skip:"
	MsgRateThanks      = "🙏 Thanks! Your rating was saved."
	MsgRateDuplicate   = "You have already rated this chat."
	MsgReportThanks    = "🚩 Thanks, your report was sent to the moderators."
	MsgFeedbackSkipped = "👌 Skipped. Thanks!"
	MsgNotYourChat     = "This chat is not yours."

	MsgAdminOnly     = "❌ Admins only."
	MsgAdminStats    = "📊 <b>Stats</b>\n\n👥 Users: %d\n💬 Active sessions: %d (%d tracked)\n⏳ Queue: %d\n\n⚙️ inactivity_seconds=%d\n⚙️ block_rounds=%d"
	MsgSettingUsage  = "Usage: /setting &lt;key&gt; &lt;value&gt;\nKeys: %s"
	MsgSettingSaved  = "✅ %s = %s"
	MsgSettingFailed = "❌ %s"

	MsgError   = "❌ Something went wrong. Please try again."
	MsgUnknown = "🤔 I did not get that. Use the menu below."
)
