package payment

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/barber-booking/internal/domain/ledger"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/models"
	"github.com/BruksfildServices01/barber-booking/internal/testutil"
)

func TestPostPaymentConfirmed_WithCommission(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ap := e.appointment(t)
	pi := testutil.CreateIntent(t, e.db, e.fx.Client.ID, &ap.ID, 10000, "mp-1")

	res, err := e.poster.PostPaymentConfirmed(ctx, pi.ID, nil)
	require.NoError(t, err)
	assert.False(t, res.AlreadyPaid)
	require.Len(t, res.Entries, 2)

	credit, debit := res.Entries[0], res.Entries[1]
	assert.Equal(t, "credit", credit.Kind)
	assert.Equal(t, "service_payment", credit.Category)
	assert.EqualValues(t, 10000, credit.AmountCents)
	assert.Equal(t, string(ledger.RefPaymentIntent), credit.ReferenceKind)
	assert.EqualValues(t, 10000, credit.BalanceAfterCents)

	assert.Equal(t, "debit", debit.Kind)
	assert.Equal(t, "commission", debit.Category)
	assert.EqualValues(t, 4000, debit.AmountCents)
	assert.Equal(t, string(ledger.RefCommission), debit.ReferenceKind)
	require.NotNil(t, debit.BarberID)
	assert.Equal(t, e.fx.Barber.ID, *debit.BarberID)
	assert.EqualValues(t, 6000, debit.BalanceAfterCents)

	require.NotNil(t, res.Commission)
	assert.Equal(t, "approved", res.Commission.Status)
	assert.EqualValues(t, 4000, res.Commission.CommissionAmountCents)
	assert.Equal(t, res.Commission.ID, debit.ReferenceID)

	bal, err := e.ledger.Balance(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 6000, bal.BalanceCents)
	assert.EqualValues(t, 10000, bal.TotalCreditsCents)
	assert.EqualValues(t, 4000, bal.TotalDebitsCents)

	stored, err := e.repo.GetIntent(ctx, pi.ID)
	require.NoError(t, err)
	assert.Equal(t, "paid", stored.Status)
	assert.NotNil(t, stored.PaidAt)
}

func TestPostPaymentConfirmed_Idempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ap := e.appointment(t)
	pi := testutil.CreateIntent(t, e.db, e.fx.Client.ID, &ap.ID, 10000, "mp-1")

	_, err := e.poster.PostPaymentConfirmed(ctx, pi.ID, nil)
	require.NoError(t, err)

	res, err := e.poster.PostPaymentConfirmed(ctx, pi.ID, nil)
	require.NoError(t, err)
	assert.True(t, res.AlreadyPaid)
	assert.Empty(t, res.Entries)

	assert.EqualValues(t, 2, testutil.Count(t, e.db, &models.LedgerEntry{}, ""))
	assert.EqualValues(t, 1, testutil.Count(t, e.db, &models.Commission{}, ""))
}

func TestPostPaymentConfirmed_WithoutAppointment(t *testing.T) {
	e := newEnv(t)
	pi := testutil.CreateIntent(t, e.db, e.fx.Client.ID, nil, 2500, "mp-2")

	res, err := e.poster.PostPaymentConfirmed(context.Background(), pi.ID, nil)
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	assert.Nil(t, res.Commission)
	assert.EqualValues(t, 0, testutil.Count(t, e.db, &models.Commission{}, ""))
}

func TestPostPaymentConfirmed_RoundsCommissionHalfUp(t *testing.T) {
	e := newEnv(t)
	ap := e.appointment(t)
	// 40% of 33.34 = 13.336
	pi := testutil.CreateIntent(t, e.db, e.fx.Client.ID, &ap.ID, 3334, "mp-3")

	res, err := e.poster.PostPaymentConfirmed(context.Background(), pi.ID, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1334, res.Commission.CommissionAmountCents)
}

func TestPostPaymentConfirmed_ZeroCommission(t *testing.T) {
	e := newEnv(t)
	ap := e.appointment(t)
	require.NoError(t, e.db.Model(&models.Barber{}).Where("id = ?", e.fx.Barber.ID).
		Update("commission_percentage", 0).Error)
	pi := testutil.CreateIntent(t, e.db, e.fx.Client.ID, &ap.ID, 10000, "mp-0")

	res, err := e.poster.PostPaymentConfirmed(context.Background(), pi.ID, nil)
	require.NoError(t, err)
	require.NotNil(t, res.Commission)
	assert.EqualValues(t, 0, res.Commission.CommissionAmountCents)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, "service_payment", res.Entries[0].Category)

	assert.EqualValues(t, 1, testutil.Count(t, e.db, &models.Commission{}, ""))
	assert.EqualValues(t, 0, testutil.Count(t, e.db, &models.LedgerEntry{}, "category = ?", "commission"))
}

func TestPostPaymentConfirmed_Errors(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.poster.PostPaymentConfirmed(ctx, uuid.New(), nil)
	assert.True(t, httperr.IsBusiness(err, "payment_intent_not_found"))

	pi := testutil.CreateIntent(t, e.db, e.fx.Client.ID, nil, 1000, "mp-4")
	require.NoError(t, e.db.Model(&models.PaymentIntent{}).Where("id = ?", pi.ID).Update("status", "refunded").Error)

	_, err = e.poster.PostPaymentConfirmed(ctx, pi.ID, nil)
	assert.True(t, httperr.IsBusiness(err, "invalid_intent_state"))
	assert.EqualValues(t, 0, testutil.Count(t, e.db, &models.LedgerEntry{}, ""))
}

// ------------------------------------------------------
// Refunds
// ------------------------------------------------------

func TestPostRefund_FullReversesCommission(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ap := e.appointment(t)
	pi := testutil.CreateIntent(t, e.db, e.fx.Client.ID, &ap.ID, 10000, "mp-1")

	_, err := e.poster.PostPaymentConfirmed(ctx, pi.ID, nil)
	require.NoError(t, err)

	res, err := e.poster.PostRefund(ctx, pi.ID, 10000)
	require.NoError(t, err)
	require.Len(t, res.Entries, 2)
	assert.Equal(t, "refund", res.Entries[0].Category)
	assert.EqualValues(t, 10000, res.Entries[0].AmountCents)
	assert.Equal(t, "commission_reversal", res.Entries[1].Category)
	assert.Equal(t, "credit", res.Entries[1].Kind)
	assert.EqualValues(t, 4000, res.Entries[1].AmountCents)

	bal, err := e.ledger.Balance(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, bal.BalanceCents)

	c, err := e.repo.FindCommissionByIntent(ctx, pi.ID)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", c.Status)

	again, err := e.poster.PostRefund(ctx, pi.ID, 10000)
	require.NoError(t, err)
	assert.True(t, again.AlreadyRefunded)
	assert.EqualValues(t, 4, testutil.Count(t, e.db, &models.LedgerEntry{}, ""))
}

func TestPostRefund_Partial(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ap := e.appointment(t)
	pi := testutil.CreateIntent(t, e.db, e.fx.Client.ID, &ap.ID, 10000, "mp-1")

	_, err := e.poster.PostPaymentConfirmed(ctx, pi.ID, nil)
	require.NoError(t, err)

	res, err := e.poster.PostRefund(ctx, pi.ID, 5000)
	require.NoError(t, err)
	require.Len(t, res.Entries, 2)
	assert.EqualValues(t, 5000, res.Entries[0].AmountCents)
	assert.EqualValues(t, 2000, res.Entries[1].AmountCents)

	c, err := e.repo.FindCommissionByIntent(ctx, pi.ID)
	require.NoError(t, err)
	assert.Equal(t, "approved", c.Status)

	bal, err := e.ledger.Balance(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3000, bal.BalanceCents)
}

func TestPostRefund_BeforePayment(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	pi := testutil.CreateIntent(t, e.db, e.fx.Client.ID, nil, 1000, "mp-5")

	res, err := e.poster.PostRefund(ctx, pi.ID, 1000)
	require.NoError(t, err)
	assert.Empty(t, res.Entries)

	var got models.PaymentIntent
	require.NoError(t, e.db.First(&got, "id = ?", pi.ID).Error)
	assert.Equal(t, "refunded", got.Status)
	assert.NotNil(t, got.RefundedAt)
	assert.EqualValues(t, 0, testutil.Count(t, e.db, &models.LedgerEntry{}, ""))

	_, err = e.poster.PostPaymentConfirmed(ctx, pi.ID, nil)
	assert.True(t, httperr.IsBusiness(err, "invalid_intent_state"))
	assert.EqualValues(t, 0, testutil.Count(t, e.db, &models.LedgerEntry{}, ""))
}
