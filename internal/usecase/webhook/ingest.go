package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/BruksfildServices01/barber-booking/internal/clock"
	domain "github.com/BruksfildServices01/barber-booking/internal/domain/payment"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/models"
	"github.com/BruksfildServices01/barber-booking/internal/observability"
)

const (
	MsgOK                = "OK"
	MsgAlreadyProcessed  = "Already processed"
	MsgInProgress        = "Processing in progress"
	MsgProcessedWithErrs = "Processed with errors"
)

// EventHandler applies a parsed event. Business errors are recorded on the
// event; anything else is treated as an infrastructure failure.
type EventHandler interface {
	Handle(ctx context.Context, env domain.Envelope) error
}

type Delivery struct {
	Body      []byte
	Signature string
	Headers   map[string]string
}

// Ack is the body returned to the provider on HTTP 200.
type Ack struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

type Ingestor struct {
	events   domain.WebhookRepository
	handler  EventHandler
	archiver domain.Archiver

	provider string
	secret   string

	clock   clock.Clock
	log     *zap.Logger
	metrics *observability.Metrics
}

type Options struct {
	Provider string
	// empty disables signature verification
	Secret   string
	Archiver domain.Archiver
	Metrics  *observability.Metrics
}

func NewIngestor(
	events domain.WebhookRepository,
	handler EventHandler,
	clk clock.Clock,
	log *zap.Logger,
	opts Options,
) *Ingestor {
	return &Ingestor{
		events:   events,
		handler:  handler,
		archiver: opts.Archiver,
		provider: opts.Provider,
		secret:   opts.Secret,
		clock:    clk,
		log:      log,
		metrics:  opts.Metrics,
	}
}

// Ingest verifies, deduplicates and applies one delivery. It returns
// domain.ErrInvalidSignature or domain.ErrMalformedPayload without persisting
// anything, and a plain error when the store failed.
func (in *Ingestor) Ingest(ctx context.Context, d Delivery) (Ack, error) {

	// --------------------------------------------------
	// Signature
	// --------------------------------------------------
	signatureValid := false
	if in.secret != "" {
		if !domain.VerifySignature(d.Body, d.Signature, in.secret) {
			in.metrics.WebhookEvent("unknown", "invalid_signature")
			in.log.Warn("webhook rejected: invalid signature")
			return Ack{}, domain.ErrInvalidSignature
		}
		signatureValid = true
	}

	// --------------------------------------------------
	// Parse
	// --------------------------------------------------
	env, err := domain.ParseEnvelope(d.Body)
	if err != nil {
		in.metrics.WebhookEvent("unknown", "malformed")
		in.log.Warn("webhook rejected: malformed payload", zap.Error(err))
		return Ack{}, err
	}
	eventType := env.Type.String()

	log := in.log.With(
		zap.String("event", env.Event),
		zap.String("provider_event_id", env.ProviderEventID()),
	)

	// --------------------------------------------------
	// Claim
	// --------------------------------------------------
	headers, err := json.Marshal(d.Headers)
	if err != nil {
		return Ack{}, err
	}

	ev := &models.WebhookEvent{
		Provider:        in.provider,
		ProviderEventID: env.ProviderEventID(),
		EventType:       env.Event,
		Payload:         datatypes.JSON(d.Body),
		Headers:         datatypes.JSON(headers),
		Signature:       d.Signature,
		SignatureValid:  signatureValid,
		ReceivedAt:      in.clock.Now().UTC(),
	}

	claim, err := in.events.Claim(ctx, ev)
	if err != nil {
		in.metrics.WebhookEvent(eventType, "error")
		log.Error("webhook claim failed", zap.Error(err))
		return Ack{}, err
	}

	switch claim.Outcome {
	case domain.ClaimAlreadyProcessed:
		in.metrics.WebhookEvent(eventType, "duplicate")
		log.Info("webhook already processed")
		return Ack{Message: MsgAlreadyProcessed}, nil
	case domain.ClaimInProgress:
		in.metrics.WebhookEvent(eventType, "in_progress")
		return Ack{Message: MsgInProgress}, nil
	case domain.ClaimRetry:
		log.Info("reprocessing webhook", zap.Int("retry_count", claim.Event.RetryCount))
	}

	stored := claim.Event
	in.archive(ctx, log, stored, d.Body)

	// --------------------------------------------------
	// Dispatch
	// --------------------------------------------------
	started := time.Now()
	herr := in.handler.Handle(ctx, env)
	in.metrics.ObserveWebhook(eventType, time.Since(started))

	now := in.clock.Now().UTC()

	if herr == nil {
		if err := in.events.MarkProcessed(ctx, stored.ID, now); err != nil {
			in.metrics.WebhookEvent(eventType, "error")
			log.Error("mark webhook processed", zap.Error(err))
			return Ack{}, err
		}
		in.metrics.WebhookEvent(eventType, "processed")
		return Ack{Message: MsgOK}, nil
	}

	if be, ok := httperr.AsBusiness(herr); ok {
		if err := in.events.MarkFailed(ctx, stored.ID, be.Code, now); err != nil {
			log.Error("mark webhook failed", zap.Error(err))
			return Ack{}, err
		}
		in.metrics.WebhookEvent(eventType, "failed")
		log.Warn("webhook processed with errors", zap.String("error_code", be.Code))
		return Ack{Message: MsgProcessedWithErrs, Error: be.Code}, nil
	}

	// release the claim so the provider retry can take it again
	if err := in.events.MarkFailed(ctx, stored.ID, herr.Error(), now); err != nil {
		log.Error("mark webhook failed", zap.Error(err))
	}
	in.metrics.WebhookEvent(eventType, "error")
	log.Error("webhook processing failed", zap.Error(herr))
	return Ack{}, herr
}

func (in *Ingestor) archive(ctx context.Context, log *zap.Logger, ev *models.WebhookEvent, body []byte) {
	if in.archiver == nil {
		return
	}

	key := ArchiveKey(ev.Provider, ev.ReceivedAt, ev.ID.String())
	if err := in.archiver.Archive(ctx, key, body); err != nil {
		log.Warn("webhook archive failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := in.events.SetArchiveKey(ctx, ev.ID, key); err != nil {
		log.Warn("store archive key", zap.Error(err))
	}
}

// ArchiveKey is webhooks/<provider>/<yyyy>/<mm>/<dd>/<id>.json.
func ArchiveKey(provider string, at time.Time, id string) string {
	at = at.UTC()
	return fmt.Sprintf("webhooks/%s/%04d/%02d/%02d/%s.json", provider, at.Year(), int(at.Month()), at.Day(), id)
}
