package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID           uint      `gorm:"primaryKey"`
	TelegramID   int64     `gorm:"uniqueIndex;not null"`
	FirstName    string    `gorm:"type:varchar(255)"`
	LastName     string    `gorm:"type:varchar(255)"`
	Username     string    `gorm:"type:varchar(64)"`
	Gender       string    `gorm:"type:varchar(10);index"`
	Seeking      string    `gorm:"type:varchar(10)"`
	RevealReady  bool      `gorm:"default:false;not null"`
	Age          int       `gorm:"default:0"`
	Faculty      string    `gorm:"type:varchar(255)"`
	About        string    `gorm:"type:text"`
	Photo1       string    `gorm:"type:varchar(255)"`
	Photo2       string    `gorm:"type:varchar(255)"`
	Photo3       string    `gorm:"type:varchar(255)"`
	LastActivity time.Time `gorm:"default:CURRENT_TIMESTAMP"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// SeekingAny is the "no preference" value for Seeking.
const SeekingAny = "any"

// HasPreferences reports whether both matching preferences are set.
func (u *User) HasPreferences() bool {
	return u.Gender != "" && u.Seeking != ""
}

// Photos returns the non-empty profile photo file ids in order.
func (u *User) Photos() []string {
	var photos []string
	for _, p := range []string{u.Photo1, u.Photo2, u.Photo3} {
		if p != "" {
			photos = append(photos, p)
		}
	}
	return photos
}

func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return "Anonymous"
	}
	return name
}

// IsDisclosureReady reports whether the profile may be revealed to a partner.
func (u *User) IsDisclosureReady() bool {
	return u.RevealReady && u.Gender != "" && strings.TrimSpace(u.FirstName) != ""
}

func ValidGender(g string) bool {
	return g == GenderMale || g == GenderFemale
}

func ValidSeeking(s string) bool {
	return ValidGender(s) || s == SeekingAny
}

// BeforeSave hook for validation
func (u *User) BeforeSave(tx *gorm.DB) error {
	// Preferences are optional until the user picks them
	if u.Gender != "" && !ValidGender(u.Gender) {
		return gorm.ErrInvalidData
	}
	if u.Seeking != "" && !ValidSeeking(u.Seeking) {
		return gorm.ErrInvalidData
	}

	if u.Age != 0 && (u.Age < 13 || u.Age > 100) {
		return gorm.ErrInvalidData
	}

	return nil
}

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}
