package services

import (
	"time"

	"github.com/mroshb/anon_chat/internal/metrics"
	"github.com/mroshb/anon_chat/internal/models"
	"github.com/mroshb/anon_chat/pkg/errors"
	"github.com/mroshb/anon_chat/pkg/logger"
)

// maxMatchAttempts bounds how many candidates TryMatchNow tries when a
// concurrent pairing takes the first one.
const maxMatchAttempts = 2

// Matcher runs the waiting queue and the anti-repeat ledger.
type Matcher struct {
	store    SessionStore
	profiles ProfileStore
	settings SettingsProvider
	runtime  *Runtime
	now      func() time.Time
}

func NewMatcher(store SessionStore, profiles ProfileStore, settings SettingsProvider, runtime *Runtime) *Matcher {
	return &Matcher{
		store:    store,
		profiles: profiles,
		settings: settings,
		runtime:  runtime,
		now:      time.Now,
	}
}

// Enqueue replaces any existing queue entry for the user.
func (m *Matcher) Enqueue(userID int64, gender, seeking string) error {
	if !models.ValidGender(gender) {
		return errors.New(errors.ErrCodeValidation, "invalid gender")
	}
	if !models.ValidSeeking(seeking) {
		return errors.New(errors.ErrCodeValidation, "invalid seeking preference")
	}

	entry := &models.QueueEntry{
		UserID:     userID,
		Gender:     gender,
		Seeking:    seeking,
		EnqueuedAt: m.now().UTC(),
	}
	if err := m.store.Enqueue(entry); err != nil {
		return err
	}

	logger.Debug("User enqueued", "user_id", userID, "gender", gender, "seeking", seeking)
	return nil
}

func (m *Matcher) Dequeue(userID int64) error {
	return m.store.Dequeue(userID)
}

func (m *Matcher) InQueue(userID int64) (bool, error) {
	return m.store.InQueue(userID)
}

// FindPartner returns the oldest compatible, unblocked candidate for the requester.
func (m *Matcher) FindPartner(requesterID int64) (int64, bool, error) {
	gender, seeking, ok, err := m.profiles.GetPreferences(requesterID)
	if err != nil {
		return 0, false, err
	}
	if !ok {
		return 0, false, errors.New(errors.ErrCodePreconditionFailed, "preferences not set")
	}
	return m.store.FindPartner(requesterID, gender, seeking)
}

// StartSession pairs a and b and registers the new session with the runtime.
func (m *Matcher) StartSession(a, b int64) (*models.ChatSession, error) {
	session, err := m.store.StartSession(a, b)
	if err != nil {
		return nil, err
	}

	m.runtime.Register(session)
	metrics.MatchesTotal.Inc()

	logger.Info("Session started", "session_id", session.ID, "participant_a", a, "participant_b", b)
	return session, nil
}

// TryMatchNow pairs the requester with the first available candidate, then
// counts the attempt against the requester's ledger. A nil session means the
// requester stays queued.
func (m *Matcher) TryMatchNow(requesterID int64) (*models.ChatSession, error) {
	gender, seeking, ok, err := m.profiles.GetPreferences(requesterID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New(errors.ErrCodePreconditionFailed, "preferences not set")
	}

	session, err := m.match(requesterID, gender, seeking)
	if err != nil {
		return nil, err
	}

	// Blocks are consulted before they decay, so N rounds block N attempts
	if err := m.Decay(requesterID); err != nil {
		logger.Warn("Failed to decay anti-repeat ledger", "user_id", requesterID, "error", err)
	}
	return session, nil
}

func (m *Matcher) match(requesterID int64, gender, seeking string) (*models.ChatSession, error) {
	for attempt := 0; attempt < maxMatchAttempts; attempt++ {
		candidate, found, err := m.store.FindPartner(requesterID, gender, seeking)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, nil
		}

		session, err := m.StartSession(requesterID, candidate)
		if err == nil {
			return session, nil
		}
		if !errors.IsCode(err, errors.ErrCodeConflict) {
			return nil, err
		}

		logger.Warn("Pairing conflict", "requester_id", requesterID, "candidate_id", candidate, "attempt", attempt+1)

		// Requester may have been taken by the other side
		queued, err := m.store.InQueue(requesterID)
		if err != nil {
			return nil, err
		}
		if !queued {
			return nil, nil
		}
	}
	return nil, nil
}

// SkipPartner ends the participant's session as a !next and blocks the pair
// for the configured rounds. Nothing is recorded when the session was
// already gone or ending.
func (m *Matcher) SkipPartner(participant int64) (*Termination, error) {
	ended, err := m.runtime.Terminate(participant, EndReasonNext)
	if err != nil {
		return nil, err
	}

	if err := m.RecordSeparation(ended.Initiator, ended.Peer); err != nil {
		logger.Error("Failed to record separation", "user_id", ended.Initiator, "peer_id", ended.Peer, "error", err)
	}
	return ended, nil
}

// RecordSeparation blocks the pair from each other for the configured rounds.
func (m *Matcher) RecordSeparation(a, b int64) error {
	return m.store.RecordSeparation(a, b, m.settings.AntiRepeatRounds())
}

// Decay counts one matching attempt against the user's ledger rows.
func (m *Matcher) Decay(userID int64) error {
	return m.store.DecayBlocks(userID)
}

func (m *Matcher) IsBlocked(userID, partnerID int64) (bool, error) {
	return m.store.IsBlocked(userID, partnerID)
}
