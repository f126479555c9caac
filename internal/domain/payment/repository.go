package payment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/barber-booking/internal/models"
)

// Repository is the store port of the reconciliation engine and the ledger poster.
// Lookups return (nil, nil) when the row does not exist.
type Repository interface {
	// InTx runs fn against a repository bound to a single transaction.
	InTx(ctx context.Context, fn func(tx Repository) error) error

	// -------- Payment intents --------
	CreateIntent(ctx context.Context, pi *models.PaymentIntent) error
	GetIntent(ctx context.Context, id uuid.UUID) (*models.PaymentIntent, error)
	GetIntentForUpdate(ctx context.Context, id uuid.UUID) (*models.PaymentIntent, error)
	FindIntentByProviderRef(ctx context.Context, provider, ref string) (*models.PaymentIntent, error)
	UpdateIntent(ctx context.Context, id uuid.UUID, changes map[string]any) error

	// TransitionIntent moves the intent to `to` only when its status is in `from`.
	TransitionIntent(
		ctx context.Context,
		id uuid.UUID,
		to IntentStatus,
		from []string,
		changes map[string]any,
	) (bool, error)

	// -------- Reads for commission --------
	GetAppointment(ctx context.Context, id uuid.UUID) (*models.Appointment, error)
	GetBarber(ctx context.Context, id uuid.UUID) (*models.Barber, error)
	GetClient(ctx context.Context, id uuid.UUID) (*models.Client, error)

	// -------- Commissions --------
	CreateCommission(ctx context.Context, c *models.Commission) error
	FindCommissionByIntent(ctx context.Context, intentID uuid.UUID) (*models.Commission, error)
	UpdateCommission(ctx context.Context, id uuid.UUID, changes map[string]any) error

	// -------- Ledger (append only) --------
	AppendLedgerEntry(ctx context.Context, e *models.LedgerEntry) error

	// -------- Subscriptions --------
	CreateSubscription(ctx context.Context, s *models.Subscription) error
	UpdateSubscription(ctx context.Context, id uuid.UUID, changes map[string]any) error
	GetSubscription(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	TransitionSubscription(
		ctx context.Context,
		id uuid.UUID,
		to SubscriptionStatus,
		from []string,
		changes map[string]any,
	) (bool, error)
	TransitionSubscriptionByProviderID(
		ctx context.Context,
		providerSubscriptionID string,
		to SubscriptionStatus,
		from []string,
		changes map[string]any,
	) (bool, error)
}

// ClaimOutcome is the result of trying to take ownership of a webhook delivery.
type ClaimOutcome int

const (
	// ClaimNew: first sight of the event, the caller owns it.
	ClaimNew ClaimOutcome = iota
	// ClaimRetry: a failed event was re-claimed for reprocessing.
	ClaimRetry
	// ClaimAlreadyProcessed: nothing to do.
	ClaimAlreadyProcessed
	// ClaimInProgress: another worker owns the event.
	ClaimInProgress
)

type ClaimResult struct {
	Outcome ClaimOutcome
	Event   *models.WebhookEvent
}

// WebhookRepository persists the idempotency ledger of provider callbacks.
type WebhookRepository interface {
	// Claim inserts ev with status processing unless (provider, provider_event_id)
	// already exists, in which case the stored row decides the outcome.
	Claim(ctx context.Context, ev *models.WebhookEvent) (ClaimResult, error)
	MarkProcessed(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, message string, at time.Time) error
	SetArchiveKey(ctx context.Context, id uuid.UUID, key string) error
	List(ctx context.Context, status string, limit, offset int) ([]models.WebhookEvent, int64, error)
}

// Archiver keeps a copy of raw deliveries outside the database.
type Archiver interface {
	Archive(ctx context.Context, key string, body []byte) error
}
