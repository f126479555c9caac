package payment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-booking/internal/clock"
	domain "github.com/BruksfildServices01/barber-booking/internal/domain/payment"
	"github.com/BruksfildServices01/barber-booking/internal/infra/repository"
	"github.com/BruksfildServices01/barber-booking/internal/models"
	"github.com/BruksfildServices01/barber-booking/internal/testutil"
)

type gatewayMock struct {
	mock.Mock
}

func (m *gatewayMock) Provider() string { return "mercadopago" }

func (m *gatewayMock) CreateBilling(ctx context.Context, req domain.BillingRequest) (*domain.Billing, error) {
	args := m.Called(ctx, req)
	b, _ := args.Get(0).(*domain.Billing)
	return b, args.Error(1)
}

func (m *gatewayMock) GetBilling(ctx context.Context, ref string) (*domain.Billing, error) {
	args := m.Called(ctx, ref)
	b, _ := args.Get(0).(*domain.Billing)
	return b, args.Error(1)
}

func (m *gatewayMock) CancelBilling(ctx context.Context, ref string) error {
	return m.Called(ctx, ref).Error(0)
}

func (m *gatewayMock) CreateSubscription(ctx context.Context, req domain.SubscriptionRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *gatewayMock) CancelSubscription(ctx context.Context, ref string) error {
	return m.Called(ctx, ref).Error(0)
}

func (m *gatewayMock) PauseSubscription(ctx context.Context, ref string) error {
	return m.Called(ctx, ref).Error(0)
}

func (m *gatewayMock) ResumeSubscription(ctx context.Context, ref string) error {
	return m.Called(ctx, ref).Error(0)
}

var _ domain.BillingGateway = (*gatewayMock)(nil)

// ------------------------------------------------------

type env struct {
	db     *gorm.DB
	repo   *repository.PaymentGormRepository
	ledger *repository.LedgerGormRepository
	clock  *clock.Fake
	fx     testutil.Fixtures
	poster *LedgerPoster
}

func newEnv(t *testing.T) env {
	t.Helper()
	db := testutil.NewDB(t)
	repo := repository.NewPaymentGormRepository(db)
	clk := clock.NewFake(time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC))

	return env{
		db:     db,
		repo:   repo,
		ledger: repository.NewLedgerGormRepository(db),
		clock:  clk,
		fx:     testutil.Seed(t, db),
		poster: NewLedgerPoster(repo, nil, clk, zap.NewNop()),
	}
}

func (e env) appointment(t *testing.T) models.Appointment {
	t.Helper()
	start := time.Date(2025, 3, 10, 13, 0, 0, 0, time.UTC)
	ap := models.Appointment{
		ClientID:        e.fx.Client.ID,
		BarberID:        e.fx.Barber.ID,
		ServiceID:       e.fx.Service.ID,
		StartTime:       start,
		EndTime:         start.Add(30 * time.Minute),
		Status:          "completed",
		PriceCents:      e.fx.Service.PriceCents,
		DurationMinutes: 30,
	}
	if err := e.db.Create(&ap).Error; err != nil {
		t.Fatalf("create appointment: %v", err)
	}
	return ap
}
