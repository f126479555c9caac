package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-booking/internal/clock"
	domainPayment "github.com/BruksfildServices01/barber-booking/internal/domain/payment"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/infra/repository"
	"github.com/BruksfildServices01/barber-booking/internal/models"
	"github.com/BruksfildServices01/barber-booking/internal/testutil"
	ucAppointment "github.com/BruksfildServices01/barber-booking/internal/usecase/appointment"
	ucPayment "github.com/BruksfildServices01/barber-booking/internal/usecase/payment"
	"github.com/BruksfildServices01/barber-booking/internal/usecase/webhook"
)

const (
	webhookSecret = "whsec_test"
	sigHeader     = "X-Webhook-Signature"
)

var brt = time.FixedZone("BRT", -3*3600)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	r  *gin.Engine
	db *gorm.DB
	fx testutil.Fixtures
}

func newServer(t *testing.T) testServer {
	t.Helper()

	db := testutil.NewDB(t)
	fx := testutil.Seed(t, db)
	clk := clock.NewFake(time.Date(2025, 3, 10, 8, 0, 0, 0, brt))
	log := zap.NewNop()

	apRepo := repository.NewAppointmentGormRepository(db)
	payRepo := repository.NewPaymentGormRepository(db)
	hookRepo := repository.NewWebhookGormRepository(db)

	book := ucAppointment.NewBookAppointment(apRepo, nil, nil, nil, clk, brt)
	poster := ucPayment.NewLedgerPoster(payRepo, nil, clk, log)
	reconciler := ucPayment.NewReconciler(payRepo, poster, "mercadopago", clk, log)
	ingestor := webhook.NewIngestor(hookRepo, reconciler, clk, log, webhook.Options{
		Provider: "mercadopago",
		Secret:   webhookSecret,
	})

	appointments := NewAppointmentHandler(AppointmentUseCases{
		Book:        book,
		Reschedule:  ucAppointment.NewRescheduleAppointment(apRepo, nil, nil, clk, brt),
		Confirm:     ucAppointment.NewConfirmAppointment(apRepo, nil, clk),
		Start:       ucAppointment.NewStartAppointment(apRepo, nil, clk),
		Complete:    ucAppointment.NewCompleteAppointment(apRepo, nil, clk, nil, log),
		Cancel:      ucAppointment.NewCancelAppointment(apRepo, nil, clk),
		NoShow:      ucAppointment.NewMarkNoShow(apRepo, nil, clk),
		ListByDate:  ucAppointment.NewListAppointmentsByDate(apRepo, brt),
		ListByMonth: ucAppointment.NewListAppointmentsByMonth(apRepo, brt),
	}, brt)
	public := NewPublicHandler(ucAppointment.NewGetAvailability(apRepo, clk, brt), book, brt)
	payments := NewPaymentHandler(nil, nil, nil)
	ledger := NewLedgerHandler(repository.NewLedgerGormRepository(db))
	settings := NewSettingsHandler(apRepo)
	hooks := NewWebhookHandler(ingestor, sigHeader, log)

	r := gin.New()
	r.GET("/health", NewHealthHandler(db, nil).Check)
	r.POST("/api/webhooks/payments", hooks.Receive)
	r.GET("/api/webhooks/payments", hooks.MethodNotAllowed)
	r.GET("/api/public/availability", public.Availability)
	r.POST("/api/public/appointments", public.CreateAppointment)
	r.GET("/api/me/appointments", appointments.ListByDate)
	r.GET("/api/me/appointments/month", appointments.ListByMonth)
	r.PATCH("/api/me/appointments/:id/confirm", appointments.Confirm)
	r.PATCH("/api/me/appointments/:id/cancel", appointments.Cancel)
	r.PATCH("/api/me/appointments/:id/complete", appointments.Complete)
	r.POST("/api/me/payments/intents", payments.CreateIntent)
	r.GET("/api/me/ledger", ledger.List)
	r.GET("/api/me/ledger/balance", ledger.Balance)
	r.GET("/api/me/settings", settings.Get)
	r.PUT("/api/me/settings", settings.Update)
	r.GET("/boom", func(c *gin.Context) { respondError(c, errors.New("db down")) })

	return testServer{r: r, db: db, fx: fx}
}

func (s testServer) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var buf *bytes.Reader
	switch b := body.(type) {
	case nil:
		buf = bytes.NewReader(nil)
	case string:
		buf = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		buf = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (s testServer) bookAt(t *testing.T, start string) *httptest.ResponseRecorder {
	return s.do(t, http.MethodPost, "/api/public/appointments", gin.H{
		"client_id":  s.fx.Client.ID,
		"barber_id":  s.fx.Barber.ID,
		"service_id": s.fx.Service.ID,
		"start_time": start,
	})
}

// ======================================================
// PUBLIC
// ======================================================

func TestPublic_AvailabilityAndBooking(t *testing.T) {
	s := newServer(t)
	path := fmt.Sprintf("/api/public/availability?barber_id=%s&service_id=%s&date=2025-03-10", s.fx.Barber.ID, s.fx.Service.ID)

	w := s.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	before := decode[struct {
		Data  []map[string]string `json:"data"`
		Total int                 `json:"total"`
	}](t, w)
	assert.Equal(t, 22, before.Total)
	assert.Equal(t, "2025-03-10T09:00:00-03:00", before.Data[0]["start"])

	w = s.bookAt(t, "2025-03-10T10:00:00-03:00")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	ap := decode[models.Appointment](t, w)
	assert.Equal(t, "scheduled", ap.Status)

	w = s.bookAt(t, "2025-03-10T10:00:00-03:00")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "slot_unavailable", decode[httperr.HTTPError](t, w).Code)

	w = s.do(t, http.MethodGet, path, nil)
	after := decode[struct {
		Total int `json:"total"`
	}](t, w)
	assert.Equal(t, 21, after.Total)
}

func TestPublic_AvailabilityValidation(t *testing.T) {
	s := newServer(t)

	w := s.do(t, http.MethodGet, "/api/public/availability?date=2025-03-10", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/public/availability?barber_id=%s&service_id=%s&date=10/03/2025", s.fx.Barber.ID, s.fx.Service.ID), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_date", decode[httperr.HTTPError](t, w).Code)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/public/availability?barber_id=%s&service_id=%s&date=2025-03-10", uuid.New(), s.fx.Service.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPublic_AvailabilityByDuration(t *testing.T) {
	s := newServer(t)
	base := fmt.Sprintf("/api/public/availability?barber_id=%s&date=2025-03-10", s.fx.Barber.ID)

	type listing struct {
		Data  []map[string]string `json:"data"`
		Total int                 `json:"total"`
	}

	w := s.do(t, http.MethodGet, base+"&duration_minutes=60", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[listing](t, w)
	assert.Equal(t, 21, got.Total)
	assert.Equal(t, "2025-03-10T10:00:00-03:00", got.Data[0]["end"])

	w = s.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got = decode[listing](t, w)
	assert.Equal(t, 22, got.Total)
	assert.Equal(t, "2025-03-10T09:30:00-03:00", got.Data[0]["end"])

	for _, raw := range []string{"0", "-15", "abc"} {
		w = s.do(t, http.MethodGet, base+"&duration_minutes="+raw, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, raw)
		assert.Equal(t, "invalid_duration", decode[httperr.HTTPError](t, w).Code, raw)
	}
}

func TestPublic_CreateOutsideHours(t *testing.T) {
	s := newServer(t)

	w := s.bookAt(t, "2025-03-10T19:45:00-03:00")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "outside_business_hours", decode[httperr.HTTPError](t, w).Code)

	w = s.bookAt(t, "amanhã")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_start_time", decode[httperr.HTTPError](t, w).Code)
}

// ======================================================
// STAFF
// ======================================================

func TestAppointments_Lifecycle(t *testing.T) {
	s := newServer(t)

	w := s.bookAt(t, "2025-03-10T11:00:00-03:00")
	require.Equal(t, http.StatusCreated, w.Code)
	ap := decode[models.Appointment](t, w)

	w = s.do(t, http.MethodPatch, "/api/me/appointments/"+ap.ID.String()+"/confirm", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "confirmed", decode[models.Appointment](t, w).Status)

	w = s.do(t, http.MethodPatch, "/api/me/appointments/"+ap.ID.String()+"/cancel", gin.H{"reason": "cliente desmarcou"})
	require.Equal(t, http.StatusOK, w.Code)
	cancelled := decode[models.Appointment](t, w)
	assert.Equal(t, "cancelled", cancelled.Status)
	assert.Equal(t, "cliente desmarcou", cancelled.CancelReason)

	w = s.do(t, http.MethodPatch, "/api/me/appointments/"+ap.ID.String()+"/complete", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "invalid_state", decode[httperr.HTTPError](t, w).Code)
}

func TestAppointments_BadIDs(t *testing.T) {
	s := newServer(t)

	w := s.do(t, http.MethodPatch, "/api/me/appointments/42/confirm", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_id", decode[httperr.HTTPError](t, w).Code)

	w = s.do(t, http.MethodPatch, "/api/me/appointments/"+uuid.NewString()+"/confirm", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "appointment_not_found", decode[httperr.HTTPError](t, w).Code)
}

func TestAppointments_CompleteWithoutBilling(t *testing.T) {
	s := newServer(t)

	w := s.bookAt(t, "2025-03-10T14:00:00-03:00")
	require.Equal(t, http.StatusCreated, w.Code)
	ap := decode[models.Appointment](t, w)

	w = s.do(t, http.MethodPatch, "/api/me/appointments/"+ap.ID.String()+"/complete?charge=true", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode[map[string]json.RawMessage](t, w)
	assert.JSONEq(t, `"billing_not_configured"`, string(body["charge_error"]))
	_, hasIntent := body["payment_intent"]
	assert.False(t, hasIntent)
}

func TestAppointments_Listings(t *testing.T) {
	s := newServer(t)
	require.Equal(t, http.StatusCreated, s.bookAt(t, "2025-03-10T09:00:00-03:00").Code)
	require.Equal(t, http.StatusCreated, s.bookAt(t, "2025-03-10T15:30:00-03:00").Code)

	w := s.do(t, http.MethodGet, "/api/me/appointments?date=2025-03-10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	day := decode[struct {
		Total int `json:"total"`
	}](t, w)
	assert.Equal(t, 2, day.Total)

	w = s.do(t, http.MethodGet, "/api/me/appointments?date=2025-03-11", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[],"total":0}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/me/appointments/month?year=2025&month=3", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/me/appointments/month?year=2025&month=13", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_period", decode[httperr.HTTPError](t, w).Code)

	w = s.do(t, http.MethodGet, "/api/me/appointments/month?year=2025", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSettings_GetAndUpdate(t *testing.T) {
	s := newServer(t)

	w := s.do(t, http.MethodGet, "/api/me/settings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t,
		`{"opening_time":"09:00","closing_time":"20:00","working_days":[1,2,3,4,5,6],"slot_duration_minutes":30}`,
		w.Body.String())

	w = s.do(t, http.MethodPut, "/api/me/settings", gin.H{
		"opening_time": "18:00", "closing_time": "08:00", "working_days": []int{1}, "slot_duration_minutes": 30,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_settings", decode[httperr.HTTPError](t, w).Code)

	w = s.do(t, http.MethodPut, "/api/me/settings", gin.H{
		"opening_time": "10:00", "closing_time": "18:00", "working_days": []int{6, 2, 2}, "slot_duration_minutes": 60,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t,
		`{"opening_time":"10:00","closing_time":"18:00","working_days":[2,6],"slot_duration_minutes":60}`,
		w.Body.String())

	w = s.do(t, http.MethodGet, "/api/me/settings", nil)
	assert.Contains(t, w.Body.String(), `"working_days":[2,6]`)
}

func TestPayments_NotConfigured(t *testing.T) {
	s := newServer(t)

	w := s.do(t, http.MethodPost, "/api/me/payments/intents", gin.H{"client_id": s.fx.Client.ID, "amount_cents": 100})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "billing_not_configured", decode[httperr.HTTPError](t, w).Code)
}

func TestLedger_EmptyAndPaid(t *testing.T) {
	s := newServer(t)

	w := s.do(t, http.MethodGet, "/api/me/ledger/balance", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"balance_cents":0,"total_credits_cents":0,"total_debits_cents":0}`, w.Body.String())

	pi := testutil.CreateIntent(t, s.db, s.fx.Client.ID, nil, 10000, "bill_42")
	body := fmt.Sprintf(`{"event":"billing.paid","data":{"id":"bill_42","metadata":{"payment_intent_id":%q}}}`, pi.ID)
	w = s.do(t, http.MethodPost, "/api/webhooks/payments", body, sigHeader, domainPayment.Sign([]byte(body), webhookSecret))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/me/ledger?kind=credit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[struct {
		Data  []map[string]any `json:"data"`
		Total int64            `json:"total"`
		Page  int              `json:"page"`
	}](t, w)
	assert.EqualValues(t, 1, page.Total)
	assert.Equal(t, 1, page.Page)

	w = s.do(t, http.MethodGet, "/api/me/ledger?kind=sideways", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ======================================================
// WEBHOOK
// ======================================================

func TestWebhook_HTTPContract(t *testing.T) {
	s := newServer(t)
	body := `{"event":"billing.something_new","data":{"id":"bill_9"}}`
	sig := domainPayment.Sign([]byte(body), webhookSecret)

	w := s.do(t, http.MethodGet, "/api/webhooks/payments", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.JSONEq(t, `{"error":"Method not allowed"}`, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/webhooks/payments", body, sigHeader, "deadbeef")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Invalid signature"}`, w.Body.String())

	bad := `{"event":""}`
	w = s.do(t, http.MethodPost, "/api/webhooks/payments", bad, sigHeader, domainPayment.Sign([]byte(bad), webhookSecret))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid payload"}`, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/webhooks/payments", body, sigHeader, sig)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"OK"}`, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/webhooks/payments", body, sigHeader, sig)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Already processed"}`, w.Body.String())

	assert.EqualValues(t, 1, testutil.Count(t, s.db, &models.WebhookEvent{}, ""))
}

func TestWebhook_BusinessFailureStillAcks(t *testing.T) {
	s := newServer(t)
	body := `{"event":"billing.paid","data":{"id":"bill_unknown"}}`

	w := s.do(t, http.MethodPost, "/api/webhooks/payments", body, sigHeader, domainPayment.Sign([]byte(body), webhookSecret))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Processed with errors","error":"payment_intent_not_found"}`, w.Body.String())
}

// ======================================================
// ERRORS / HEALTH
// ======================================================

func TestRespondError_Internal(t *testing.T) {
	s := newServer(t)

	w := s.do(t, http.MethodGet, "/boom", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal_error", decode[httperr.HTTPError](t, w).Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor("client_not_found"))
	assert.Equal(t, http.StatusConflict, statusFor("booking_busy"))
	assert.Equal(t, http.StatusConflict, statusFor("invalid_intent_state"))
	assert.Equal(t, http.StatusBadGateway, statusFor("billing_provider_error"))
	assert.Equal(t, http.StatusBadRequest, statusFor("start_in_past"))
}

func TestHealth(t *testing.T) {
	s := newServer(t)

	w := s.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","checks":{"database":"ok"}}`, w.Body.String())
}
