package webhook

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/BruksfildServices01/barber-booking/internal/clock"
	domain "github.com/BruksfildServices01/barber-booking/internal/domain/payment"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/infra/repository"
	"github.com/BruksfildServices01/barber-booking/internal/models"
	"github.com/BruksfildServices01/barber-booking/internal/testutil"
	paymentuc "github.com/BruksfildServices01/barber-booking/internal/usecase/payment"
)

const secret = "whsec_test"

type handlerFunc func(ctx context.Context, env domain.Envelope) error

func (f handlerFunc) Handle(ctx context.Context, env domain.Envelope) error { return f(ctx, env) }

type memArchiver struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (a *memArchiver) Archive(_ context.Context, key string, _ []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.keys = append(a.keys, key)
	return nil
}

func newIngestor(t *testing.T, h EventHandler, opts Options) (*Ingestor, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	opts.Provider = "mercadopago"
	clk := clock.NewFake(time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC))
	return NewIngestor(repository.NewWebhookGormRepository(db), h, clk, zap.NewNop(), opts), db
}

func signed(body string) Delivery {
	return Delivery{
		Body:      []byte(body),
		Signature: domain.Sign([]byte(body), secret),
		Headers:   map[string]string{"Content-Type": "application/json"},
	}
}

const paidBody = `{"event":"billing.paid","data":{"id":"bill_1","status":"PAID","amount":10000}}`

func countEvents(t *testing.T, db *gorm.DB, where string, args ...any) int64 {
	return testutil.Count(t, db, &models.WebhookEvent{}, where, args...)
}

func TestIngest_InvalidSignature(t *testing.T) {
	calls := 0
	in, db := newIngestor(t, handlerFunc(func(context.Context, domain.Envelope) error {
		calls++
		return nil
	}), Options{Secret: secret})

	d := signed(paidBody)
	d.Signature = domain.Sign([]byte(paidBody), "other")

	_, err := in.Ingest(context.Background(), d)
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
	assert.Equal(t, 0, calls)
	assert.EqualValues(t, 0, countEvents(t, db, ""))
}

func TestIngest_Malformed(t *testing.T) {
	in, db := newIngestor(t, handlerFunc(func(context.Context, domain.Envelope) error { return nil }), Options{Secret: secret})

	for _, body := range []string{`not json`, `{"event":"billing.paid","data":{}}`, `{"data":{"id":"x"}}`} {
		_, err := in.Ingest(context.Background(), signed(body))
		assert.ErrorIs(t, err, domain.ErrMalformedPayload, body)
	}
	assert.EqualValues(t, 0, countEvents(t, db, ""))
}

func TestIngest_ProcessesOnce(t *testing.T) {
	calls := 0
	archiver := &memArchiver{}
	in, db := newIngestor(t, handlerFunc(func(_ context.Context, env domain.Envelope) error {
		calls++
		assert.Equal(t, domain.EventBillingPaid, env.Type)
		return nil
	}), Options{Secret: secret, Archiver: archiver})

	ack, err := in.Ingest(context.Background(), signed(paidBody))
	require.NoError(t, err)
	assert.Equal(t, MsgOK, ack.Message)

	ack, err = in.Ingest(context.Background(), signed(paidBody))
	require.NoError(t, err)
	assert.Equal(t, MsgAlreadyProcessed, ack.Message)

	assert.Equal(t, 1, calls)
	assert.EqualValues(t, 1, countEvents(t, db, "status = ? AND signature_valid = ?", "processed", true))

	require.Len(t, archiver.keys, 1)
	assert.Contains(t, archiver.keys[0], "webhooks/mercadopago/2025/03/10/")

	var ev models.WebhookEvent
	require.NoError(t, db.First(&ev).Error)
	assert.Equal(t, "billing.paid:bill_1", ev.ProviderEventID)
	assert.Equal(t, archiver.keys[0], ev.ArchiveKey)
	assert.NotNil(t, ev.ProcessedAt)
}

func TestIngest_WithoutSecret(t *testing.T) {
	in, db := newIngestor(t, handlerFunc(func(context.Context, domain.Envelope) error { return nil }), Options{})

	ack, err := in.Ingest(context.Background(), Delivery{Body: []byte(paidBody)})
	require.NoError(t, err)
	assert.Equal(t, MsgOK, ack.Message)
	assert.EqualValues(t, 1, countEvents(t, db, "signature_valid = ?", false))
}

func TestIngest_LongUnknownEventType(t *testing.T) {
	in, db := newIngestor(t, handlerFunc(func(_ context.Context, env domain.Envelope) error {
		assert.Equal(t, domain.EventUnknown, env.Type)
		return nil
	}), Options{})

	eventType := "marketplace.settlement." + strings.Repeat("adjustment_", 8) + "created"
	require.Greater(t, len(eventType), 60)

	body := `{"event":"` + eventType + `","data":{"id":"bill_9"}}`
	ack, err := in.Ingest(context.Background(), Delivery{
		Body:      []byte(body),
		Signature: strings.Repeat("f", 256),
	})
	require.NoError(t, err)
	assert.Equal(t, MsgOK, ack.Message)

	var ev models.WebhookEvent
	require.NoError(t, db.First(&ev).Error)
	assert.Equal(t, "processed", ev.Status)
	assert.Equal(t, eventType, ev.EventType)
	assert.Equal(t, eventType+":bill_9", ev.ProviderEventID)
}

func TestWebhookEvent_UnboundedTextColumns(t *testing.T) {
	s, err := schema.Parse(&models.WebhookEvent{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)

	for _, name := range []string{"ProviderEventID", "EventType", "Signature"} {
		f := s.LookUpField(name)
		require.NotNil(t, f, name)
		assert.Equal(t, schema.DataType("text"), f.DataType, name)
		assert.Zero(t, f.Size, name)
	}
}

func TestIngest_BusinessErrorMarksFailed(t *testing.T) {
	in, db := newIngestor(t, handlerFunc(func(context.Context, domain.Envelope) error {
		return httperr.ErrBusiness("payment_intent_not_found")
	}), Options{Secret: secret})

	ack, err := in.Ingest(context.Background(), signed(paidBody))
	require.NoError(t, err)
	assert.Equal(t, MsgProcessedWithErrs, ack.Message)
	assert.Equal(t, "payment_intent_not_found", ack.Error)
	assert.EqualValues(t, 1, countEvents(t, db, "status = ? AND error_message = ?", "failed", "payment_intent_not_found"))
}

func TestIngest_InfraErrorAllowsRetry(t *testing.T) {
	fail := true
	calls := 0
	in, db := newIngestor(t, handlerFunc(func(context.Context, domain.Envelope) error {
		calls++
		if fail {
			return errors.New("connection reset")
		}
		return nil
	}), Options{Secret: secret})

	_, err := in.Ingest(context.Background(), signed(paidBody))
	require.Error(t, err)
	assert.EqualValues(t, 1, countEvents(t, db, "status = ?", "failed"))

	fail = false
	ack, err := in.Ingest(context.Background(), signed(paidBody))
	require.NoError(t, err)
	assert.Equal(t, MsgOK, ack.Message)
	assert.Equal(t, 2, calls)
	assert.EqualValues(t, 1, countEvents(t, db, "status = ? AND retry_count = ?", "processed", 1))
}

func TestIngest_ArchiveFailureIsNotFatal(t *testing.T) {
	in, _ := newIngestor(t, handlerFunc(func(context.Context, domain.Envelope) error { return nil }),
		Options{Secret: secret, Archiver: &memArchiver{err: errors.New("s3 down")}})

	ack, err := in.Ingest(context.Background(), signed(paidBody))
	require.NoError(t, err)
	assert.Equal(t, MsgOK, ack.Message)
}

func TestIngest_DistinctEventsForSameBilling(t *testing.T) {
	seen := map[domain.EventType]int{}
	in, db := newIngestor(t, handlerFunc(func(_ context.Context, env domain.Envelope) error {
		seen[env.Type]++
		return nil
	}), Options{Secret: secret})

	_, err := in.Ingest(context.Background(), signed(paidBody))
	require.NoError(t, err)
	_, err = in.Ingest(context.Background(), signed(`{"event":"billing.refunded","data":{"id":"bill_1"}}`))
	require.NoError(t, err)

	assert.Equal(t, 1, seen[domain.EventBillingPaid])
	assert.Equal(t, 1, seen[domain.EventBillingRefunded])
	assert.EqualValues(t, 2, countEvents(t, db, ""))
}

// Full path: duplicate paid deliveries post the ledger once.
func TestIngest_EndToEndLedgerOnce(t *testing.T) {
	db := testutil.NewDB(t)
	fx := testutil.Seed(t, db)
	clk := clock.NewFake(time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC))

	start := time.Date(2025, 3, 10, 13, 0, 0, 0, time.UTC)
	ap := models.Appointment{
		ClientID: fx.Client.ID, BarberID: fx.Barber.ID, ServiceID: fx.Service.ID,
		StartTime: start, EndTime: start.Add(30 * time.Minute),
		Status: "completed", PriceCents: 10000, DurationMinutes: 30,
	}
	require.NoError(t, db.Create(&ap).Error)
	pi := testutil.CreateIntent(t, db, fx.Client.ID, &ap.ID, 10000, "bill_9")

	repo := repository.NewPaymentGormRepository(db)
	poster := paymentuc.NewLedgerPoster(repo, nil, clk, zap.NewNop())
	reconciler := paymentuc.NewReconciler(repo, poster, "mercadopago", clk, zap.NewNop())
	in := NewIngestor(repository.NewWebhookGormRepository(db), reconciler, clk, zap.NewNop(),
		Options{Provider: "mercadopago", Secret: secret})

	body := fmt.Sprintf(`{"id":"evt_1","event":"billing.paid","data":{"id":"bill_9","amount":10000,"metadata":{"payment_intent_id":"%s"}}}`, pi.ID)

	for i := 0; i < 3; i++ {
		_, err := in.Ingest(context.Background(), signed(body))
		require.NoError(t, err)
	}

	assert.EqualValues(t, 2, testutil.Count(t, db, &models.LedgerEntry{}, ""))
	assert.EqualValues(t, 1, testutil.Count(t, db, &models.Commission{}, ""))
	assert.EqualValues(t, 1, testutil.Count(t, db, &models.WebhookEvent{}, "provider_event_id = ?", "evt_1"))
}

func TestArchiveKey(t *testing.T) {
	at := time.Date(2025, 1, 2, 23, 0, 0, 0, time.FixedZone("BRT", -3*3600))
	assert.Equal(t, "webhooks/mercadopago/2025/01/03/abc.json", ArchiveKey("mercadopago", at, "abc"))
}
