package payment

// IntentStatus of a PaymentIntent: pending -> processing -> paid|failed|refunded|cancelled|expired.
type IntentStatus string

const (
	IntentPending    IntentStatus = "pending"
	IntentProcessing IntentStatus = "processing"
	IntentPaid       IntentStatus = "paid"
	IntentFailed     IntentStatus = "failed"
	IntentRefunded   IntentStatus = "refunded"
	IntentCancelled  IntentStatus = "cancelled"
	IntentExpired    IntentStatus = "expired"
)

// OpenIntentStatuses can still expire or be cancelled. A paid intent is never downgraded.
var OpenIntentStatuses = []string{
	string(IntentPending),
	string(IntentProcessing),
	string(IntentFailed),
}

type IntentType string

const (
	IntentOneTime      IntentType = "one_time"
	IntentSubscription IntentType = "subscription"
)

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionPaused    SubscriptionStatus = "paused"
	SubscriptionPastDue   SubscriptionStatus = "past_due"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

type WebhookStatus string

const (
	WebhookReceived   WebhookStatus = "received"
	WebhookProcessing WebhookStatus = "processing"
	WebhookProcessed  WebhookStatus = "processed"
	WebhookFailed     WebhookStatus = "failed"
	WebhookIgnored    WebhookStatus = "ignored"
)

const MetadataPaymentIntentID = "payment_intent_id"
