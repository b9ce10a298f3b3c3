package models

// Setting is a tunable runtime value stored as text.
type Setting struct {
	Key   string `gorm:"type:varchar(64);primaryKey"`
	Value string `gorm:"type:text;not null"`
}

func (Setting) TableName() string {
	return "settings"
}

const (
	SettingInactivitySeconds = "inactivity_seconds"
	SettingBlockRounds       = "block_rounds"
)
