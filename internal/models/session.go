package models

import (
	"time"
)

// QueueEntry is a pending matchmaking request, one per user.
type QueueEntry struct {
	UserID     int64     `gorm:"primaryKey;autoIncrement:false"`
	Gender     string    `gorm:"type:varchar(10);not null"`
	Seeking    string    `gorm:"type:varchar(10);not null"`
	EnqueuedAt time.Time `gorm:"not null;index"`
}

func (QueueEntry) TableName() string {
	return "queue_entries"
}

// ChatSession is one paired conversation. Rows are never deleted.
type ChatSession struct {
	ID           string     `gorm:"type:varchar(36);primaryKey"`
	ParticipantA int64      `gorm:"not null;index"`
	ParticipantB int64      `gorm:"not null;index"`
	Active       bool       `gorm:"not null;default:true;index"`
	RevealA      bool       `gorm:"not null;default:false"`
	RevealB      bool       `gorm:"not null;default:false"`
	StartedAt    time.Time  `gorm:"not null;index"`
	EndedAt      *time.Time `gorm:"index"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}

// PeerOf returns the other participant of the session.
func (s *ChatSession) PeerOf(userID int64) (int64, bool) {
	switch userID {
	case s.ParticipantA:
		return s.ParticipantB, true
	case s.ParticipantB:
		return s.ParticipantA, true
	}
	return 0, false
}

func (s *ChatSession) Involves(userID int64) bool {
	return userID == s.ParticipantA || userID == s.ParticipantB
}

// RevealedBy reports whether userID has already asked to reveal.
func (s *ChatSession) RevealedBy(userID int64) bool {
	if userID == s.ParticipantA {
		return s.RevealA
	}
	if userID == s.ParticipantB {
		return s.RevealB
	}
	return false
}

func (s *ChatSession) BothRevealed() bool {
	return s.RevealA && s.RevealB
}

// RecentPartner blocks UserID from being matched with PartnerID again
// for RoundsRemaining matching attempts by UserID.
type RecentPartner struct {
	UserID          int64     `gorm:"primaryKey;autoIncrement:false"`
	PartnerID       int64     `gorm:"primaryKey;autoIncrement:false"`
	RoundsRemaining int       `gorm:"not null;check:rounds_remaining >= 0"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

func (RecentPartner) TableName() string {
	return "recent_partners"
}

// Compatible applies the bidirectional gender/seeking rule. SeekingAny on
// either seeking side accepts any gender.
func Compatible(reqGender, reqSeeking, candGender, candSeeking string) bool {
	if reqSeeking != SeekingAny && candGender != reqSeeking {
		return false
	}
	if candSeeking != SeekingAny && candSeeking != reqGender {
		return false
	}
	return true
}
