package services

import "github.com/mroshb/anon_chat/internal/models"

// SessionStore is the durable record of the queue, sessions and the
// anti-repeat ledger. Implemented by repositories.SessionRepository.
type SessionStore interface {
	Enqueue(entry *models.QueueEntry) error
	Dequeue(userID int64) error
	InQueue(userID int64) (bool, error)
	FindPartner(requesterID int64, gender, seeking string) (int64, bool, error)
	StartSession(a, b int64) (*models.ChatSession, error)
	ActiveSessionFor(userID int64) (*models.ChatSession, error)
	GetSession(sessionID string) (*models.ChatSession, error)
	EndSessionsFor(userID int64) (int64, error)
	SetReveal(sessionID string, userID int64) (*models.ChatSession, bool, error)
	RecordSeparation(a, b int64, rounds int) error
	DecayBlocks(userID int64) error
	IsBlocked(userID, partnerID int64) (bool, error)
}

// ProfileStore exposes the profile data owned by the registration flow.
type ProfileStore interface {
	GetPreferences(userID int64) (gender, seeking string, ok bool, err error)
	IsDisclosureReady(userID int64) (bool, error)
	GetProfile(userID int64) (*models.User, error)
}

// Messenger is the part of the transport the services talk to. Delivery
// failures are logged by the implementation and reported as message id 0.
type Messenger interface {
	SendMessage(chatID int64, text string, keyboard interface{}) int
	EditMessage(chatID int64, messageID int, text string, keyboard interface{})
	DeleteMessage(chatID int64, messageID int)
	SendProfileCard(chatID int64, card ProfileCard)
}

// MenuResolver returns the keyboard a user should see when idle.
type MenuResolver interface {
	MenuFor(userID int64) interface{}
}

// FeedbackHook is called once per participant after a session terminates.
type FeedbackHook interface {
	OnSessionEnded(participant, peer int64, sessionID string)
}

// SettingsProvider supplies hot-reloadable tunables.
type SettingsProvider interface {
	// InactivityWindow is measured in runtime time units.
	InactivityWindow() int
	AntiRepeatRounds() int
}
