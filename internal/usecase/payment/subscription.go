package payment

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-booking/internal/audit"
	"github.com/BruksfildServices01/barber-booking/internal/clock"
	domain "github.com/BruksfildServices01/barber-booking/internal/domain/payment"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/models"
	"github.com/BruksfildServices01/barber-booking/internal/money"
)

type CreateSubscriptionInput struct {
	ClientID          uuid.UUID
	PlanName          string
	MonthlyPriceCents money.Cents
	ActorID           *uuid.UUID
}

// SubscriptionActions drives the provider first and then applies a guarded
// local status change.
type SubscriptionActions struct {
	repo    domain.Repository
	gateway domain.BillingGateway
	audit   *audit.Dispatcher
	clock   clock.Clock
	log     *zap.Logger
}

func NewSubscriptionActions(
	repo domain.Repository,
	gateway domain.BillingGateway,
	audit *audit.Dispatcher,
	clk clock.Clock,
	log *zap.Logger,
) *SubscriptionActions {
	return &SubscriptionActions{
		repo:    repo,
		gateway: gateway,
		audit:   audit,
		clock:   clk,
		log:     log,
	}
}

func (uc *SubscriptionActions) Create(
	ctx context.Context,
	in CreateSubscriptionInput,
) (*models.Subscription, error) {

	if in.MonthlyPriceCents <= 0 {
		return nil, httperr.ErrBusiness("invalid_amount")
	}
	if in.PlanName == "" {
		return nil, httperr.ErrBusiness("invalid_plan")
	}

	client, err := uc.repo.GetClient(ctx, in.ClientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, httperr.ErrBusiness("client_not_found")
	}

	now := uc.clock.Now().UTC()
	end := now.AddDate(0, 1, 0)

	sub := &models.Subscription{
		ID:                 uuid.New(),
		ClientID:           client.ID,
		PlanName:           in.PlanName,
		MonthlyPriceCents:  in.MonthlyPriceCents,
		Status:             string(domain.SubscriptionActive),
		CurrentPeriodStart: &now,
		CurrentPeriodEnd:   &end,
	}

	ref, err := uc.gateway.CreateSubscription(ctx, domain.SubscriptionRequest{
		SubscriptionID: sub.ID,
		PlanName:       sub.PlanName,
		AmountCents:    sub.MonthlyPriceCents,
		PayerEmail:     client.Email,
	})
	if err != nil {
		uc.log.Error("subscription creation failed", zap.String("client_id", client.ID.String()), zap.Error(err))
		return nil, httperr.ErrBusiness("billing_provider_error")
	}
	sub.ProviderSubscriptionID = ref

	if err := uc.repo.CreateSubscription(ctx, sub); err != nil {
		return nil, err
	}

	uc.dispatch(in.ActorID, "subscription_created", sub.ID, nil)
	return sub, nil
}

func (uc *SubscriptionActions) Cancel(
	ctx context.Context,
	id uuid.UUID,
	actorID *uuid.UUID,
	reason string,
) (*models.Subscription, error) {
	return uc.apply(ctx, id, actorID, domain.SubscriptionCancelled,
		[]string{
			string(domain.SubscriptionActive),
			string(domain.SubscriptionPaused),
			string(domain.SubscriptionPastDue),
		},
		map[string]any{
			"cancelled_at":  uc.clock.Now().UTC(),
			"cancel_reason": reason,
		},
		uc.gateway.CancelSubscription,
	)
}

func (uc *SubscriptionActions) Pause(ctx context.Context, id uuid.UUID, actorID *uuid.UUID) (*models.Subscription, error) {
	return uc.apply(ctx, id, actorID, domain.SubscriptionPaused,
		[]string{string(domain.SubscriptionActive)},
		nil,
		uc.gateway.PauseSubscription,
	)
}

func (uc *SubscriptionActions) Resume(ctx context.Context, id uuid.UUID, actorID *uuid.UUID) (*models.Subscription, error) {
	return uc.apply(ctx, id, actorID, domain.SubscriptionActive,
		[]string{string(domain.SubscriptionPaused)},
		nil,
		uc.gateway.ResumeSubscription,
	)
}

func (uc *SubscriptionActions) apply(
	ctx context.Context,
	id uuid.UUID,
	actorID *uuid.UUID,
	to domain.SubscriptionStatus,
	from []string,
	changes map[string]any,
	remote func(ctx context.Context, providerRef string) error,
) (*models.Subscription, error) {

	sub, err := uc.repo.GetSubscription(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, httperr.ErrBusiness("subscription_not_found")
	}
	if !contains(from, sub.Status) {
		return nil, httperr.ErrBusiness("invalid_state")
	}

	if sub.ProviderSubscriptionID != "" {
		if err := remote(ctx, sub.ProviderSubscriptionID); err != nil {
			uc.log.Error("subscription provider call failed",
				zap.String("subscription_id", sub.ID.String()),
				zap.String("target", string(to)),
				zap.Error(err),
			)
			return nil, httperr.ErrBusiness("billing_provider_error")
		}
	}

	ok, err := uc.repo.TransitionSubscription(ctx, sub.ID, to, from, changes)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, httperr.ErrBusiness("invalid_state")
	}

	uc.dispatch(actorID, "subscription_"+string(to), sub.ID, changes)
	return uc.repo.GetSubscription(ctx, sub.ID)
}

func (uc *SubscriptionActions) dispatch(actorID *uuid.UUID, action string, id uuid.UUID, meta map[string]any) {
	uc.audit.Dispatch(audit.Event{
		ActorID:  actorID,
		Action:   action,
		Entity:   "subscription",
		EntityID: &id,
		Metadata: meta,
	})
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
