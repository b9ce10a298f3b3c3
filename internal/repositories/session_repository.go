package repositories

import (
	"time"

	"github.com/google/uuid"
	"github.com/mroshb/anon_chat/internal/models"
	"github.com/mroshb/anon_chat/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionRepository persists the waiting queue, chat sessions and the
// anti-repeat ledger.
type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Enqueue inserts or replaces the user's queue entry
func (r *SessionRepository) Enqueue(entry *models.QueueEntry) error {
	if entry.EnqueuedAt.IsZero() {
		entry.EnqueuedAt = time.Now().UTC()
	}

	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"gender", "seeking", "enqueued_at"}),
	}).Create(entry).Error
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to enqueue")
	}
	return nil
}

// Dequeue removes the user's queue entry if present
func (r *SessionRepository) Dequeue(userID int64) error {
	if err := r.db.Where("user_id = ?", userID).Delete(&models.QueueEntry{}).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to dequeue")
	}
	return nil
}

func (r *SessionRepository) InQueue(userID int64) (bool, error) {
	var count int64
	if err := r.db.Model(&models.QueueEntry{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return false, errors.Wrap(err, errors.ErrCodeInternalError, "failed to check queue")
	}
	return count > 0, nil
}

func (r *SessionRepository) QueueSize() (int64, error) {
	var count int64
	if err := r.db.Model(&models.QueueEntry{}).Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to count queue")
	}
	return count, nil
}

// FindPartner returns the oldest queued candidate compatible with the
// requester's gender and seeking that the requester has not recently left.
func (r *SessionRepository) FindPartner(requesterID int64, gender, seeking string) (int64, bool, error) {
	query := r.db.Table("queue_entries AS q").
		Joins("LEFT JOIN recent_partners rp ON rp.user_id = ? AND rp.partner_id = q.user_id AND rp.rounds_remaining > 0", requesterID).
		Where("q.user_id <> ?", requesterID).
		Where("rp.partner_id IS NULL")

	// Candidate gender must satisfy the requester
	if seeking != models.SeekingAny {
		query = query.Where("q.gender = ?", seeking)
	}

	// Requester gender must satisfy the candidate
	query = query.Where("(q.seeking = ? OR q.seeking = ?)", models.SeekingAny, gender)

	var ids []int64
	err := query.Order("q.enqueued_at ASC").Order("q.user_id ASC").Limit(1).Pluck("q.user_id", &ids).Error
	if err != nil {
		return 0, false, errors.Wrap(err, errors.ErrCodeInternalError, "failed to find partner")
	}
	if len(ids) == 0 {
		return 0, false, nil
	}
	return ids[0], true, nil
}

// StartSession removes both users from the queue and creates an active
// session in one transaction. CONFLICT is returned when either user was
// already taken by a concurrent pairing.
func (r *SessionRepository) StartSession(a, b int64) (*models.ChatSession, error) {
	if a == b {
		return nil, errors.New(errors.ErrCodeValidation, "cannot pair a user with themselves")
	}

	ids := []int64{a, b}
	session := &models.ChatSession{
		ID:           uuid.NewString(),
		ParticipantA: a,
		ParticipantB: b,
		Active:       true,
		StartedAt:    time.Now().UTC(),
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		// Row locks make a concurrent pairing of either user wait and then miss
		var entries []models.QueueEntry
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id IN ?", ids).
			Order("user_id ASC").
			Find(&entries).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to lock queue entries")
		}
		if len(entries) != 2 {
			return errors.New(errors.ErrCodeConflict, "participant is no longer queued")
		}

		var busy int64
		if err := tx.Model(&models.ChatSession{}).
			Where("active = ? AND (participant_a IN ? OR participant_b IN ?)", true, ids, ids).
			Count(&busy).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to check active sessions")
		}
		if busy > 0 {
			return errors.New(errors.ErrCodeConflict, "participant already in a session")
		}

		if err := tx.Where("user_id IN ?", ids).Delete(&models.QueueEntry{}).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to remove queue entries")
		}

		if err := tx.Create(session).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create session")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return session, nil
}

// ActiveSessionFor returns the most recent active session of the user, or nil.
func (r *SessionRepository) ActiveSessionFor(userID int64) (*models.ChatSession, error) {
	var session models.ChatSession
	result := r.db.Where("active = ? AND (participant_a = ? OR participant_b = ?)", true, userID, userID).
		Order("started_at DESC").
		First(&session)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get active session")
	}
	return &session, nil
}

func (r *SessionRepository) GetSession(sessionID string) (*models.ChatSession, error) {
	var session models.ChatSession
	result := r.db.Where("id = ?", sessionID).First(&session)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "session not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get session")
	}
	return &session, nil
}

// EndSessionsFor marks every active session of the user inactive and
// returns how many rows changed.
func (r *SessionRepository) EndSessionsFor(userID int64) (int64, error) {
	result := r.db.Model(&models.ChatSession{}).
		Where("active = ? AND (participant_a = ? OR participant_b = ?)", true, userID, userID).
		Updates(map[string]interface{}{
			"active":   false,
			"ended_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to end sessions")
	}
	return result.RowsAffected, nil
}

// SetReveal sets the user's reveal flag on an active session. changed is
// false when the flag was already set.
func (r *SessionRepository) SetReveal(sessionID string, userID int64) (*models.ChatSession, bool, error) {
	var session models.ChatSession
	changed := false

	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND active = ?", sessionID, true).
			First(&session)
		if result.Error == gorm.ErrRecordNotFound {
			return errors.New(errors.ErrCodeNotFound, "no active session")
		}
		if result.Error != nil {
			return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to lock session")
		}

		var column string
		switch userID {
		case session.ParticipantA:
			column = "reveal_a"
		case session.ParticipantB:
			column = "reveal_b"
		default:
			return errors.New(errors.ErrCodeForbidden, "user is not part of the session")
		}

		if session.RevealedBy(userID) {
			return nil
		}

		if err := tx.Model(&models.ChatSession{}).Where("id = ?", sessionID).Update(column, true).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to set reveal flag")
		}
		if column == "reveal_a" {
			session.RevealA = true
		} else {
			session.RevealB = true
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return &session, changed, nil
}

// RecordSeparation blocks the pair in both directions for rounds attempts.
func (r *SessionRepository) RecordSeparation(a, b int64, rounds int) error {
	rows := []models.RecentPartner{
		{UserID: a, PartnerID: b, RoundsRemaining: rounds},
		{UserID: b, PartnerID: a, RoundsRemaining: rounds},
	}

	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "partner_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rounds_remaining", "updated_at"}),
	}).Create(&rows).Error
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to record separation")
	}
	return nil
}

// DecayBlocks decrements every ledger row owned by userID and drops the
// ones that reach zero.
func (r *SessionRepository) DecayBlocks(userID int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.RecentPartner{}).
			Where("user_id = ? AND rounds_remaining > 0", userID).
			Update("rounds_remaining", gorm.Expr("rounds_remaining - 1")).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to decay blocks")
		}
		if err := tx.Where("user_id = ? AND rounds_remaining <= 0", userID).
			Delete(&models.RecentPartner{}).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to delete expired blocks")
		}
		return nil
	})
}

func (r *SessionRepository) IsBlocked(userID, partnerID int64) (bool, error) {
	var count int64
	err := r.db.Model(&models.RecentPartner{}).
		Where("user_id = ? AND partner_id = ? AND rounds_remaining > 0", userID, partnerID).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeInternalError, "failed to check block")
	}
	return count > 0, nil
}

func (r *SessionRepository) CountActiveSessions() (int64, error) {
	var count int64
	if err := r.db.Model(&models.ChatSession{}).Where("active = ?", true).Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to count sessions")
	}
	return count, nil
}
