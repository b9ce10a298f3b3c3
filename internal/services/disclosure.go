package services

import (
	"fmt"
	"strings"

	"github.com/mroshb/anon_chat/internal/metrics"
	"github.com/mroshb/anon_chat/internal/models"
	"github.com/mroshb/anon_chat/internal/security"
	"github.com/mroshb/anon_chat/pkg/logger"
)

type RevealOutcome string

const (
	RevealNoSession   RevealOutcome = "no_session"
	RevealNotReady    RevealOutcome = "not_ready"
	RevealPending     RevealOutcome = "pending"
	RevealAlreadyDone RevealOutcome = "already_revealed"
	RevealRequested   RevealOutcome = "requested"
	RevealCompleted   RevealOutcome = "completed"
)

const maxAboutLength = 300

// ProfileCard is a rendered profile: HTML text plus up to three photo file ids.
// The last photo carries the text as its caption.
type ProfileCard struct {
	Text   string
	Photos []string
}

// BuildProfileCard renders the user's full profile for a mutual reveal.
func BuildProfileCard(u *models.User) ProfileCard {
	var b strings.Builder

	b.WriteString("🪪 <b>Profile</b>\n\n")
	fmt.Fprintf(&b, "👤 Name: %s\n", security.SanitizeHTML(u.DisplayName()))
	if u.Username != "" {
		fmt.Fprintf(&b, "🔗 Username: @%s\n", security.SanitizeHTML(u.Username))
	}
	if u.Age > 0 {
		fmt.Fprintf(&b, "🎂 Age: %d\n", u.Age)
	}
	if u.Faculty != "" {
		fmt.Fprintf(&b, "🎓 Faculty: %s\n", security.SanitizeHTML(u.Faculty))
	}
	if about := strings.TrimSpace(u.About); about != "" {
		fmt.Fprintf(&b, "\n📝 %s", security.SanitizeHTML(security.TruncateRunes(about, maxAboutLength)))
	}

	return ProfileCard{
		Text:   strings.TrimRight(b.String(), "\n"),
		Photos: u.Photos(),
	}
}

// Disclosure runs the two-phase mutual reveal handshake.
type Disclosure struct {
	store     SessionStore
	profiles  ProfileStore
	runtime   *Runtime
	messenger Messenger
}

func NewDisclosure(store SessionStore, profiles ProfileStore, runtime *Runtime, messenger Messenger) *Disclosure {
	return &Disclosure{
		store:     store,
		profiles:  profiles,
		runtime:   runtime,
		messenger: messenger,
	}
}

// RequestReveal sets the requester's reveal flag and exchanges profile
// cards when both sides have agreed. Exactly one call per session returns
// RevealCompleted.
func (d *Disclosure) RequestReveal(me int64) (RevealOutcome, error) {
	outcome, err := d.requestReveal(me)
	if err == nil {
		metrics.Reveals.WithLabelValues(string(outcome)).Inc()
	}
	return outcome, err
}

func (d *Disclosure) requestReveal(me int64) (RevealOutcome, error) {
	peer, sessionID, ok, err := d.runtime.Materialize(me)
	if err != nil {
		return "", err
	}
	if !ok {
		d.messenger.SendMessage(me, MsgNoActiveChat, nil)
		return RevealNoSession, nil
	}

	ready, err := d.profiles.IsDisclosureReady(me)
	if err != nil {
		return "", err
	}
	if !ready {
		d.messenger.SendMessage(me, MsgRevealSelfNotReady, nil)
		return RevealNotReady, nil
	}

	ready, err = d.profiles.IsDisclosureReady(peer)
	if err != nil {
		return "", err
	}
	if !ready {
		d.messenger.SendMessage(me, MsgRevealPeerNotReady, nil)
		return RevealNotReady, nil
	}

	current, err := d.store.GetSession(sessionID)
	if err != nil {
		return "", err
	}
	if outcome, done := d.alreadyFlagged(me, current); done {
		return outcome, nil
	}

	session, changed, err := d.store.SetReveal(sessionID, me)
	if err != nil {
		return "", err
	}
	if !changed {
		outcome, _ := d.alreadyFlagged(me, session)
		return outcome, nil
	}

	if !session.BothRevealed() {
		d.messenger.SendMessage(me, MsgRevealRequested, nil)
		d.messenger.SendMessage(peer, MsgRevealInvite, nil)
		logger.Info("Reveal requested", "session_id", sessionID, "user_id", me)
		return RevealRequested, nil
	}

	if err := d.exchange(me, peer); err != nil {
		return "", err
	}
	logger.Info("Reveal completed", "session_id", sessionID)
	return RevealCompleted, nil
}

// alreadyFlagged reports pending or already revealed when me's flag is set.
func (d *Disclosure) alreadyFlagged(me int64, session *models.ChatSession) (RevealOutcome, bool) {
	if !session.RevealedBy(me) {
		return "", false
	}
	if session.BothRevealed() {
		d.messenger.SendMessage(me, MsgRevealAlreadyDone, nil)
		return RevealAlreadyDone, true
	}
	d.messenger.SendMessage(me, MsgRevealPending, nil)
	return RevealPending, true
}

func (d *Disclosure) exchange(me, peer int64) error {
	mine, err := d.profiles.GetProfile(me)
	if err != nil {
		return err
	}
	theirs, err := d.profiles.GetProfile(peer)
	if err != nil {
		return err
	}

	d.messenger.SendProfileCard(me, BuildProfileCard(theirs))
	d.messenger.SendProfileCard(peer, BuildProfileCard(mine))
	d.messenger.SendMessage(me, MsgRevealCompleted, nil)
	d.messenger.SendMessage(peer, MsgRevealCompleted, nil)
	return nil
}
