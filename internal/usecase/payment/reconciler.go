package payment

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-booking/internal/clock"
	domain "github.com/BruksfildServices01/barber-booking/internal/domain/payment"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
)

// Reconciler applies provider events to local payment state.
type Reconciler struct {
	repo     domain.Repository
	poster   *LedgerPoster
	provider string
	clock    clock.Clock
	log      *zap.Logger
}

func NewReconciler(
	repo domain.Repository,
	poster *LedgerPoster,
	provider string,
	clk clock.Clock,
	log *zap.Logger,
) *Reconciler {
	return &Reconciler{
		repo:     repo,
		poster:   poster,
		provider: provider,
		clock:    clk,
		log:      log,
	}
}

// Handle dispatches on the event type. Events about rows we do not know are
// accepted without changes, except billing.paid which must find its intent.
func (r *Reconciler) Handle(ctx context.Context, env domain.Envelope) error {
	switch env.Type {
	case domain.EventBillingPaid:
		return r.paid(ctx, env)
	case domain.EventBillingExpired:
		return r.closeIntent(ctx, env, domain.IntentExpired)
	case domain.EventBillingCancelled:
		return r.closeIntent(ctx, env, domain.IntentCancelled)
	case domain.EventBillingRefunded:
		return r.refunded(ctx, env)
	case domain.EventSubscriptionCreated:
		r.log.Info("subscription created upstream", zap.String("provider_ref", env.Data.ID))
		return nil
	case domain.EventSubscriptionCancelled:
		_, err := r.repo.TransitionSubscriptionByProviderID(ctx, env.Data.ID,
			domain.SubscriptionCancelled,
			[]string{
				string(domain.SubscriptionActive),
				string(domain.SubscriptionPaused),
				string(domain.SubscriptionPastDue),
			},
			map[string]any{"cancelled_at": r.clock.Now().UTC()},
		)
		return err
	case domain.EventSubscriptionPaymentFailed:
		_, err := r.repo.TransitionSubscriptionByProviderID(ctx, env.Data.ID,
			domain.SubscriptionPastDue,
			[]string{string(domain.SubscriptionActive)},
			nil,
		)
		return err
	default:
		r.log.Info("ignoring unknown payment event", zap.String("event", env.Event))
		return nil
	}
}

func (r *Reconciler) paid(ctx context.Context, env domain.Envelope) error {
	intentID, err := r.resolveIntent(ctx, env)
	if err != nil {
		return err
	}
	if intentID == uuid.Nil {
		return httperr.ErrBusiness("payment_intent_not_found")
	}

	res, err := r.poster.PostPaymentConfirmed(ctx, intentID, env.Data.PaidAt)
	if err != nil {
		return err
	}
	if res.AlreadyPaid {
		r.log.Info("payment already confirmed", zap.String("payment_intent_id", intentID.String()))
	}
	return nil
}

// resolveIntent prefers the intent id we put in the billing metadata and
// falls back to the provider reference.
func (r *Reconciler) resolveIntent(ctx context.Context, env domain.Envelope) (uuid.UUID, error) {
	if raw := env.Data.MetadataValue(domain.MetadataPaymentIntentID); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			return id, nil
		}
	}

	pi, err := r.repo.FindIntentByProviderRef(ctx, r.provider, env.Data.ID)
	if err != nil || pi == nil {
		return uuid.Nil, err
	}
	return pi.ID, nil
}

func (r *Reconciler) closeIntent(ctx context.Context, env domain.Envelope, to domain.IntentStatus) error {
	pi, err := r.repo.FindIntentByProviderRef(ctx, r.provider, env.Data.ID)
	if err != nil || pi == nil {
		return err
	}

	ok, err := r.repo.TransitionIntent(ctx, pi.ID, to, domain.OpenIntentStatuses, nil)
	if err != nil {
		return err
	}
	if !ok {
		r.log.Info("payment intent not closed",
			zap.String("payment_intent_id", pi.ID.String()),
			zap.String("status", pi.Status),
			zap.String("target", string(to)),
		)
	}
	return nil
}

func (r *Reconciler) refunded(ctx context.Context, env domain.Envelope) error {
	pi, err := r.repo.FindIntentByProviderRef(ctx, r.provider, env.Data.ID)
	if err != nil || pi == nil {
		return err
	}

	_, err = r.poster.PostRefund(ctx, pi.ID, env.Data.RefundAmount(pi.AmountCents))
	return err
}
