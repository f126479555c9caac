package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/barber-booking/internal/money"
)

type Service struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	Name            string      `gorm:"size:100;not null" json:"name"`
	PriceCents      money.Cents `gorm:"not null" json:"price_cents"`
	DurationMinutes int         `gorm:"not null" json:"duration_minutes"`
	Active          bool        `gorm:"not null;default:true" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
