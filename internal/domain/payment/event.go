package payment

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BruksfildServices01/barber-booking/internal/money"
)

// EventType is the closed set of provider notifications the engine knows.
// Anything else parses to EventUnknown.
type EventType int

const (
	EventUnknown EventType = iota
	EventBillingPaid
	EventBillingExpired
	EventBillingCancelled
	EventBillingRefunded
	EventSubscriptionCreated
	EventSubscriptionCancelled
	EventSubscriptionPaymentFailed
)

var eventNames = map[string]EventType{
	"billing.paid":                EventBillingPaid,
	"billing.expired":             EventBillingExpired,
	"billing.cancelled":           EventBillingCancelled,
	"billing.refunded":            EventBillingRefunded,
	"subscription.created":        EventSubscriptionCreated,
	"subscription.cancelled":      EventSubscriptionCancelled,
	"subscription.payment_failed": EventSubscriptionPaymentFailed,
}

func ParseEventType(raw string) EventType {
	if t, ok := eventNames[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return t
	}
	return EventUnknown
}

func (t EventType) String() string {
	for name, v := range eventNames {
		if v == t {
			return name
		}
	}
	return "unknown"
}

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrMalformedPayload = errors.New("malformed webhook payload")
)

// Envelope is the provider callback body:
// {id?, event, data:{id,status,amount,paidAmount?,paidAt?,metadata?,customer?}}.
type Envelope struct {
	ID    string    `json:"id,omitempty"`
	Event string    `json:"event"`
	Data  EventData `json:"data"`

	Type EventType `json:"-"`
}

type EventData struct {
	ID         string         `json:"id"`
	Status     string         `json:"status"`
	Amount     money.Cents    `json:"amount"`
	PaidAmount *money.Cents   `json:"paidAmount,omitempty"`
	PaidAt     *time.Time     `json:"paidAt,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Customer   *Customer      `json:"customer,omitempty"`
}

type Customer struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	Cellphone string `json:"cellphone,omitempty"`
}

// ParseEnvelope decodes a raw body. Missing event or data.id fail closed.
func ParseEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	env.Event = strings.TrimSpace(env.Event)
	env.Data.ID = strings.TrimSpace(env.Data.ID)
	if env.Event == "" {
		return Envelope{}, fmt.Errorf("%w: missing event", ErrMalformedPayload)
	}
	if env.Data.ID == "" {
		return Envelope{}, fmt.Errorf("%w: missing data.id", ErrMalformedPayload)
	}
	env.Type = ParseEventType(env.Event)
	return env, nil
}

// ProviderEventID is the idempotency key of the delivery. A billing id alone
// is not enough: paid and refunded notifications share it.
func (e Envelope) ProviderEventID() string {
	if id := strings.TrimSpace(e.ID); id != "" {
		return id
	}
	return e.Event + ":" + e.Data.ID
}

// RefundAmount is the reported partial amount, or fallback when absent.
func (d EventData) RefundAmount(fallback money.Cents) money.Cents {
	if d.PaidAmount != nil && *d.PaidAmount > 0 {
		return *d.PaidAmount
	}
	return fallback
}

func (d EventData) MetadataValue(key string) string {
	v, ok := d.Metadata[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
