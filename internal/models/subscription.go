package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/barber-booking/internal/money"
)

type Subscription struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	ClientID          uuid.UUID   `gorm:"type:uuid;not null;index" json:"client_id"`
	PlanName          string      `gorm:"size:100;not null" json:"plan_name"`
	MonthlyPriceCents money.Cents `gorm:"not null" json:"monthly_price_cents"`
	Status            string      `gorm:"size:20;not null;default:'active'" json:"status"`

	ProviderSubscriptionID string `gorm:"size:100;index" json:"provider_subscription_id"`

	CancelledAt  *time.Time `json:"cancelled_at"`
	CancelReason string     `gorm:"size:255" json:"cancel_reason,omitempty"`

	CurrentPeriodStart *time.Time `json:"current_period_start"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
