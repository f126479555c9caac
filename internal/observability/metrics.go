package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "barber"

// Metrics groups the business counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	bookingAttempts   *prometheus.CounterVec
	webhookEvents     *prometheus.CounterVec
	webhookDuration   *prometheus.HistogramVec
	ledgerEntries     *prometheus.CounterVec
	ledgerAmountCents *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		bookingAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "booking_attempts_total",
				Help:      "Appointment booking attempts by result",
			},
			[]string{"result"},
		),
		webhookEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhook_events_total",
				Help:      "Payment webhook deliveries by event type and outcome",
			},
			[]string{"event_type", "outcome"},
		),
		webhookDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "webhook_processing_seconds",
				Help:      "Time spent processing a claimed webhook event",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"event_type"},
		),
		ledgerEntries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ledger_entries_total",
				Help:      "Ledger entries appended by kind and category",
			},
			[]string{"kind", "category"},
		),
		ledgerAmountCents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ledger_amount_cents_total",
				Help:      "Sum of ledger entry amounts in cents by kind",
			},
			[]string{"kind"},
		),
	}
}

func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.bookingAttempts,
		m.webhookEvents,
		m.webhookDuration,
		m.ledgerEntries,
		m.ledgerAmountCents,
	}
}

func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) BookingAttempt(result string) {
	if m == nil {
		return
	}
	m.bookingAttempts.WithLabelValues(result).Inc()
}

func (m *Metrics) WebhookEvent(eventType, outcome string) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(eventType, outcome).Inc()
}

func (m *Metrics) ObserveWebhook(eventType string, d time.Duration) {
	if m == nil {
		return
	}
	m.webhookDuration.WithLabelValues(eventType).Observe(d.Seconds())
}

func (m *Metrics) LedgerEntry(kind, category string, amountCents int64) {
	if m == nil {
		return
	}
	m.ledgerEntries.WithLabelValues(kind, category).Inc()
	m.ledgerAmountCents.WithLabelValues(kind).Add(float64(amountCents))
}
