package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/BruksfildServices01/barber-booking/internal/money"
)

type Commission struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	BarberID        uuid.UUID `gorm:"type:uuid;not null;index" json:"barber_id"`
	AppointmentID   uuid.UUID `gorm:"type:uuid;not null" json:"appointment_id"`
	PaymentIntentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"payment_intent_id"`

	BaseAmountCents       money.Cents     `gorm:"not null" json:"base_amount_cents"`
	Percentage            decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"percentage"`
	CommissionAmountCents money.Cents     `gorm:"not null" json:"commission_amount_cents"`

	Status string `gorm:"size:20;not null" json:"status"`
	Notes  string `gorm:"size:255" json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
