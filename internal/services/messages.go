package services

// User-facing texts sent by the session runtime and the disclosure protocol
const (
	MsgInactivityWarning = "⏳ The chat will end in %d sec due to inactivity. Send anything to keep it going."
	MsgCountdown         = "⏳ %d sec left..."
	MsgEndedByInactivity = "⌛ The chat ended due to inactivity."
	MsgYouEndedChat      = "✅ Chat ended. Tap «🔎 Find partner» to start a new one."
	MsgPartnerEndedChat  = "👋 Your partner ended the chat."
	MsgPartnerMovedOn    = "👋 Your partner moved on to the next chat. Tap «🔎 Find partner» to search again."

	MsgNoActiveChat       = "⚠️ You have no active chat."
	MsgRevealSelfNotReady = "🔒 Reveal is not possible: your profile is incomplete or reveal is turned off."
	MsgRevealPeerNotReady = "🔒 Reveal is not possible: your partner's profile is incomplete or reveal is turned off."
	MsgRevealPending      = "⏳ Reveal request already sent. Waiting for your partner."
	MsgRevealAlreadyDone  = "✅ You have already revealed profiles to each other."
	MsgRevealRequested    = "📨 Reveal request sent. Waiting for your partner to agree."
	MsgRevealInvite       = "🔓 Your partner wants to reveal profiles. Send !reveal to agree."
	MsgRevealCompleted    = "🤝 Mutual reveal done."
)
