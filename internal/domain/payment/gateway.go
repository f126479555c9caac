package payment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/barber-booking/internal/money"
)

type BillingCustomer struct {
	Name  string
	Email string
	Phone string
}

type BillingRequest struct {
	IntentID    uuid.UUID
	AmountCents money.Cents
	Description string
	Customer    BillingCustomer
	Metadata    map[string]string
	ExpiresAt   *time.Time
}

// Billing is what the provider hands back for a created charge.
type Billing struct {
	ProviderRef string
	Status      string
	CheckoutURL string
	QRCode      string
	PixCode     string
}

type SubscriptionRequest struct {
	SubscriptionID uuid.UUID
	PlanName       string
	AmountCents    money.Cents
	PayerEmail     string
}

// BillingGateway is the outbound billing provider capability.
type BillingGateway interface {
	Provider() string

	CreateBilling(ctx context.Context, req BillingRequest) (*Billing, error)
	GetBilling(ctx context.Context, providerRef string) (*Billing, error)
	CancelBilling(ctx context.Context, providerRef string) error

	CreateSubscription(ctx context.Context, req SubscriptionRequest) (providerRef string, err error)
	CancelSubscription(ctx context.Context, providerRef string) error
	PauseSubscription(ctx context.Context, providerRef string) error
	ResumeSubscription(ctx context.Context, providerRef string) error
}
