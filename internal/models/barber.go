package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Barber struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	Name                 string          `gorm:"size:100;not null" json:"name"`
	CommissionPercentage decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"commission_percentage"`
	Active               bool            `gorm:"not null;default:true" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
