package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/BruksfildServices01/barber-booking/internal/audit"
	"github.com/BruksfildServices01/barber-booking/internal/clock"
	domain "github.com/BruksfildServices01/barber-booking/internal/domain/payment"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/models"
	"github.com/BruksfildServices01/barber-booking/internal/money"
)

// DefaultIntentTTL is how long a PIX charge stays payable.
const DefaultIntentTTL = 30 * time.Minute

// ======================================================
// INPUT
// ======================================================

type CreatePaymentIntentInput struct {
	ClientID      uuid.UUID
	AppointmentID *uuid.UUID
	AmountCents   money.Cents
	Type          domain.IntentType
	Description   string
	ActorID       *uuid.UUID
}

// ======================================================
// USE CASE
// ======================================================

type CreatePaymentIntent struct {
	repo    domain.Repository
	gateway domain.BillingGateway
	audit   *audit.Dispatcher
	clock   clock.Clock
	log     *zap.Logger
	ttl     time.Duration
}

func NewCreatePaymentIntent(
	repo domain.Repository,
	gateway domain.BillingGateway,
	audit *audit.Dispatcher,
	clk clock.Clock,
	log *zap.Logger,
) *CreatePaymentIntent {
	return &CreatePaymentIntent{
		repo:    repo,
		gateway: gateway,
		audit:   audit,
		clock:   clk,
		log:     log,
		ttl:     DefaultIntentTTL,
	}
}

func (uc *CreatePaymentIntent) Execute(
	ctx context.Context,
	in CreatePaymentIntentInput,
) (*models.PaymentIntent, error) {

	if in.AmountCents <= 0 {
		return nil, httperr.ErrBusiness("invalid_amount")
	}
	if in.Type == "" {
		in.Type = domain.IntentOneTime
	}

	client, err := uc.repo.GetClient(ctx, in.ClientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, httperr.ErrBusiness("client_not_found")
	}

	if in.AppointmentID != nil {
		ap, err := uc.repo.GetAppointment(ctx, *in.AppointmentID)
		if err != nil {
			return nil, err
		}
		if ap == nil {
			return nil, httperr.ErrBusiness("appointment_not_found")
		}
	}

	// --------------------------------------------------
	// Local intent first, so the provider metadata can point at it
	// --------------------------------------------------
	expiresAt := uc.clock.Now().UTC().Add(uc.ttl)

	pi := &models.PaymentIntent{
		ID:            uuid.New(),
		ClientID:      client.ID,
		AppointmentID: in.AppointmentID,
		AmountCents:   in.AmountCents,
		Type:          string(in.Type),
		Status:        string(domain.IntentPending),
		Provider:      uc.gateway.Provider(),
		ExpiresAt:     &expiresAt,
	}

	meta := map[string]string{
		domain.MetadataPaymentIntentID: pi.ID.String(),
		"client_id":                    client.ID.String(),
	}
	if in.AppointmentID != nil {
		meta["appointment_id"] = in.AppointmentID.String()
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}
	pi.Metadata = datatypes.JSON(raw)

	if err := uc.repo.CreateIntent(ctx, pi); err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// Provider charge
	// --------------------------------------------------
	billing, err := uc.gateway.CreateBilling(ctx, domain.BillingRequest{
		IntentID:    pi.ID,
		AmountCents: pi.AmountCents,
		Description: in.Description,
		Customer: domain.BillingCustomer{
			Name:  client.Name,
			Email: client.Email,
			Phone: client.Phone,
		},
		Metadata:  meta,
		ExpiresAt: &expiresAt,
	})
	if err != nil {
		uc.log.Error("billing creation failed",
			zap.String("payment_intent_id", pi.ID.String()),
			zap.Error(err),
		)
		if uerr := uc.repo.UpdateIntent(ctx, pi.ID, map[string]any{
			"status": string(domain.IntentFailed),
		}); uerr != nil {
			uc.log.Error("mark intent failed", zap.String("payment_intent_id", pi.ID.String()), zap.Error(uerr))
		}
		return nil, httperr.ErrBusiness("billing_provider_error")
	}

	changes := map[string]any{
		"status":                string(domain.IntentProcessing),
		"provider_ref":          billing.ProviderRef,
		"provider_checkout_url": billing.CheckoutURL,
		"provider_qr_code":      billing.QRCode,
		"provider_pix_code":     billing.PixCode,
	}
	if err := uc.repo.UpdateIntent(ctx, pi.ID, changes); err != nil {
		return nil, err
	}

	pi.Status = string(domain.IntentProcessing)
	pi.ProviderRef = billing.ProviderRef
	pi.ProviderCheckoutURL = billing.CheckoutURL
	pi.ProviderQRCode = billing.QRCode
	pi.ProviderPixCode = billing.PixCode

	uc.audit.Dispatch(audit.Event{
		ActorID:  in.ActorID,
		Action:   "payment_intent_created",
		Entity:   "payment_intent",
		EntityID: &pi.ID,
		Metadata: map[string]any{
			"amount_cents": pi.AmountCents,
			"provider_ref": pi.ProviderRef,
		},
	})

	return pi, nil
}

// ChargeAppointment bills the price snapshot of an appointment.
func (uc *CreatePaymentIntent) ChargeAppointment(
	ctx context.Context,
	ap *models.Appointment,
) (*models.PaymentIntent, error) {
	return uc.Execute(ctx, CreatePaymentIntentInput{
		ClientID:      ap.ClientID,
		AppointmentID: &ap.ID,
		AmountCents:   ap.PriceCents,
		Type:          domain.IntentOneTime,
		Description:   fmt.Sprintf("Atendimento %s", ap.StartTime.Format("02/01/2006 15:04")),
	})
}

// ======================================================
// CANCEL
// ======================================================

type CancelPaymentIntent struct {
	repo    domain.Repository
	gateway domain.BillingGateway
	audit   *audit.Dispatcher
}

func NewCancelPaymentIntent(
	repo domain.Repository,
	gateway domain.BillingGateway,
	audit *audit.Dispatcher,
) *CancelPaymentIntent {
	return &CancelPaymentIntent{
		repo:    repo,
		gateway: gateway,
		audit:   audit,
	}
}

func (uc *CancelPaymentIntent) Execute(
	ctx context.Context,
	id uuid.UUID,
	actorID *uuid.UUID,
) (*models.PaymentIntent, error) {

	pi, err := uc.repo.GetIntent(ctx, id)
	if err != nil {
		return nil, err
	}
	if pi == nil {
		return nil, httperr.ErrBusiness("payment_intent_not_found")
	}
	if !contains(domain.OpenIntentStatuses, pi.Status) {
		return nil, httperr.ErrBusiness("invalid_intent_state")
	}

	if pi.ProviderRef != "" {
		if err := uc.gateway.CancelBilling(ctx, pi.ProviderRef); err != nil {
			return nil, httperr.ErrBusiness("billing_provider_error")
		}
	}

	ok, err := uc.repo.TransitionIntent(ctx, pi.ID, domain.IntentCancelled, domain.OpenIntentStatuses, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, httperr.ErrBusiness("invalid_intent_state")
	}

	uc.audit.Dispatch(audit.Event{
		ActorID:  actorID,
		Action:   "payment_intent_cancelled",
		Entity:   "payment_intent",
		EntityID: &pi.ID,
	})

	return uc.repo.GetIntent(ctx, pi.ID)
}
