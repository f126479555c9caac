package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/barber-booking/internal/money"
)

// LedgerEntry is append-only.
type LedgerEntry struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	Kind        string      `gorm:"size:10;not null" json:"kind"`
	Category    string      `gorm:"size:40;not null;index" json:"category"`
	AmountCents money.Cents `gorm:"not null" json:"amount_cents"`
	Description string      `gorm:"size:255" json:"description"`

	ReferenceKind string    `gorm:"column:reference_table;size:40;not null" json:"reference_table"`
	ReferenceID   uuid.UUID `gorm:"type:uuid;not null" json:"reference_id"`

	PaymentIntentID *uuid.UUID `gorm:"type:uuid;index" json:"payment_intent_id"`
	BarberID        *uuid.UUID `gorm:"type:uuid;index" json:"barber_id"`

	// informational only, the balance is always derived from SUM
	BalanceAfterCents money.Cents `json:"balance_after_cents"`

	OccurredAt time.Time `gorm:"not null;index" json:"occurred_at"`
	CreatedAt  time.Time `json:"created_at"`
}
