package models

import "time"

// BusinessSettings is a singleton row (ID = 1).
type BusinessSettings struct {
	ID uint `gorm:"primaryKey" json:"-"`

	OpeningTime string `gorm:"size:5;not null" json:"opening_time"` // HH:MM
	ClosingTime string `gorm:"size:5;not null" json:"closing_time"`

	// CSV of weekdays, 0 = sunday
	WorkingDays string `gorm:"size:20;not null" json:"working_days"`

	SlotDurationMinutes int `gorm:"not null" json:"slot_duration_minutes"`

	UpdatedAt time.Time `json:"updated_at"`
}

const SettingsRowID uint = 1
