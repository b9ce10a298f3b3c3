package models

import "time"

type Rating struct {
	ID        uint      `gorm:"primaryKey"`
	SessionID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_rating_once"`
	RaterID   int64     `gorm:"not null;uniqueIndex:idx_rating_once"`
	RatedID   int64     `gorm:"not null;index"`
	Score     int       `gorm:"not null;check:score BETWEEN 1 AND 5"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Rating) TableName() string {
	return "ratings"
}

type Complaint struct {
	ID         uint      `gorm:"primaryKey"`
	SessionID  string    `gorm:"type:varchar(36);not null;index"`
	ReporterID int64     `gorm:"not null;index"`
	ReportedID int64     `gorm:"not null;index"`
	Reason     string    `gorm:"type:varchar(255)"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (Complaint) TableName() string {
	return "complaints"
}

// Complaint reasons offered after a session
const (
	ComplaintSpam     = "spam"
	ComplaintAbuse    = "abuse"
	ComplaintExplicit = "explicit"
	ComplaintUnderage = "underage"
)

// RatingSummary is the average score a user received.
type RatingSummary struct {
	Average float64
	Count   int64
}
