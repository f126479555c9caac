package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/BruksfildServices01/barber-booking/internal/money"
)

type PaymentIntent struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	ClientID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"client_id"`
	AppointmentID  *uuid.UUID `gorm:"type:uuid;index" json:"appointment_id"`
	SubscriptionID *uuid.UUID `gorm:"type:uuid" json:"subscription_id"`

	AmountCents money.Cents `gorm:"not null" json:"amount_cents"`
	Type        string      `gorm:"size:20;not null;default:'one_time'" json:"type"`
	Status      string      `gorm:"size:20;not null;default:'pending';index" json:"status"`

	Provider            string `gorm:"size:30;not null" json:"provider"`
	ProviderRef         string `gorm:"size:100;index" json:"provider_ref"`
	ProviderCheckoutURL string `gorm:"size:500" json:"provider_checkout_url,omitempty"`
	ProviderQRCode      string `gorm:"type:text" json:"provider_qr_code,omitempty"`
	ProviderPixCode     string `gorm:"type:text" json:"provider_pix_code,omitempty"`

	IdempotencyKey string         `gorm:"size:60;not null;uniqueIndex" json:"idempotency_key"`
	Metadata       datatypes.JSON `json:"metadata,omitempty"`

	ExpiresAt  *time.Time `json:"expires_at"`
	PaidAt     *time.Time `json:"paid_at"`
	RefundedAt *time.Time `json:"refunded_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
