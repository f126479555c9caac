package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-booking/internal/clock"
	"github.com/BruksfildServices01/barber-booking/internal/domain/ledger"
	domain "github.com/BruksfildServices01/barber-booking/internal/domain/payment"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/models"
	"github.com/BruksfildServices01/barber-booking/internal/money"
	"github.com/BruksfildServices01/barber-booking/internal/observability"
)

// payableStatuses may still become paid. A late payment on an expired or
// cancelled intent is money received and is recorded.
var payableStatuses = []string{
	string(domain.IntentPending),
	string(domain.IntentProcessing),
	string(domain.IntentFailed),
	string(domain.IntentExpired),
	string(domain.IntentCancelled),
}

type PostResult struct {
	AlreadyPaid bool
	Intent      *models.PaymentIntent
	Commission  *models.Commission
	Entries     []models.LedgerEntry
}

// LedgerPoster owns every ledger write. Each call is one transaction.
type LedgerPoster struct {
	repo    domain.Repository
	metrics *observability.Metrics
	clock   clock.Clock
	log     *zap.Logger
}

func NewLedgerPoster(
	repo domain.Repository,
	metrics *observability.Metrics,
	clk clock.Clock,
	log *zap.Logger,
) *LedgerPoster {
	return &LedgerPoster{
		repo:    repo,
		metrics: metrics,
		clock:   clk,
		log:     log,
	}
}

// ======================================================
// PAYMENT CONFIRMED
// ======================================================

// PostPaymentConfirmed marks the intent paid, credits the payment and, for
// appointment charges, approves the barber commission and debits it.
// Repeated calls for a paid intent return AlreadyPaid and write nothing.
func (p *LedgerPoster) PostPaymentConfirmed(
	ctx context.Context,
	intentID uuid.UUID,
	paidAt *time.Time,
) (*PostResult, error) {

	at := p.clock.Now().UTC()
	if paidAt != nil && !paidAt.IsZero() {
		at = paidAt.UTC()
	}

	res := &PostResult{}

	err := p.repo.InTx(ctx, func(tx domain.Repository) error {
		res.Entries = nil

		pi, err := tx.GetIntentForUpdate(ctx, intentID)
		if err != nil {
			return err
		}
		if pi == nil {
			return httperr.ErrBusiness("payment_intent_not_found")
		}
		res.Intent = pi

		switch domain.IntentStatus(pi.Status) {
		case domain.IntentPaid:
			res.AlreadyPaid = true
			return nil
		case domain.IntentRefunded:
			return httperr.ErrBusiness("invalid_intent_state")
		}

		ok, err := tx.TransitionIntent(ctx, pi.ID, domain.IntentPaid, payableStatuses, map[string]any{
			"paid_at": at,
		})
		if err != nil {
			return err
		}
		if !ok {
			res.AlreadyPaid = true
			return nil
		}
		pi.Status = string(domain.IntentPaid)
		pi.PaidAt = &at

		// --------------------------------------------------
		// Credit the payment
		// --------------------------------------------------
		credit := newEntry(ledger.Credit, ledger.CategoryServicePayment, pi.AmountCents,
			ledger.PaymentIntentRef(pi.ID), &pi.ID, nil, at,
			fmt.Sprintf("Pagamento recebido %s", pi.ID))
		if err := tx.AppendLedgerEntry(ctx, credit); err != nil {
			return err
		}
		res.Entries = append(res.Entries, *credit)

		if pi.AppointmentID == nil {
			return nil
		}

		// --------------------------------------------------
		// Commission
		// --------------------------------------------------
		ap, err := tx.GetAppointment(ctx, *pi.AppointmentID)
		if err != nil {
			return err
		}
		if ap == nil {
			p.log.Warn("paid intent references a missing appointment",
				zap.String("payment_intent_id", pi.ID.String()),
				zap.String("appointment_id", pi.AppointmentID.String()),
			)
			return nil
		}

		barber, err := tx.GetBarber(ctx, ap.BarberID)
		if err != nil {
			return err
		}
		if barber == nil {
			return httperr.ErrBusiness("barber_not_found")
		}

		commission := &models.Commission{
			BarberID:              barber.ID,
			AppointmentID:         ap.ID,
			PaymentIntentID:       pi.ID,
			BaseAmountCents:       pi.AmountCents,
			Percentage:            barber.CommissionPercentage,
			CommissionAmountCents: money.PercentOf(pi.AmountCents, barber.CommissionPercentage),
			Status:                string(ledger.CommissionApproved),
		}
		if err := tx.CreateCommission(ctx, commission); err != nil {
			return err
		}
		res.Commission = commission

		// Ledger amounts are strictly positive, so a zero commission has no paired debit.
		if commission.CommissionAmountCents <= 0 {
			return nil
		}

		debit := newEntry(ledger.Debit, ledger.CategoryCommission, commission.CommissionAmountCents,
			ledger.CommissionRef(commission.ID), &pi.ID, &barber.ID, at,
			fmt.Sprintf("Comissão %s%% - %s", barber.CommissionPercentage.StringFixed(2), barber.Name))
		if err := tx.AppendLedgerEntry(ctx, debit); err != nil {
			return err
		}
		res.Entries = append(res.Entries, *debit)

		return nil
	})
	if err != nil {
		p.logFailure("payment posting failed", intentID, err)
		return nil, err
	}

	p.record(res.Entries)
	return res, nil
}

// ======================================================
// REFUND
// ======================================================

type RefundResult struct {
	AlreadyRefunded bool
	Entries         []models.LedgerEntry
}

// PostRefund moves a paid intent to refunded, debits the refunded amount and
// credits back the proportional share of the barber commission. A full refund
// cancels the commission. An intent that was never paid is only marked
// refunded.
func (p *LedgerPoster) PostRefund(
	ctx context.Context,
	intentID uuid.UUID,
	amount money.Cents,
) (*RefundResult, error) {

	at := p.clock.Now().UTC()
	res := &RefundResult{}

	err := p.repo.InTx(ctx, func(tx domain.Repository) error {
		res.Entries = nil

		pi, err := tx.GetIntentForUpdate(ctx, intentID)
		if err != nil {
			return err
		}
		if pi == nil {
			return httperr.ErrBusiness("payment_intent_not_found")
		}

		switch domain.IntentStatus(pi.Status) {
		case domain.IntentRefunded:
			res.AlreadyRefunded = true
			return nil
		case domain.IntentPaid:
		case domain.IntentPending, domain.IntentProcessing, domain.IntentFailed,
			domain.IntentExpired, domain.IntentCancelled:
			// Refund delivered ahead of the payment: nothing was credited, so
			// only close the intent. A later paid event is then rejected.
			_, err := tx.TransitionIntent(ctx, pi.ID, domain.IntentRefunded,
				payableStatuses,
				map[string]any{"refunded_at": at},
			)
			return err
		default:
			return httperr.ErrBusiness("payment_intent_not_paid")
		}

		if amount <= 0 || amount > pi.AmountCents {
			amount = pi.AmountCents
		}

		ok, err := tx.TransitionIntent(ctx, pi.ID, domain.IntentRefunded,
			[]string{string(domain.IntentPaid)},
			map[string]any{"refunded_at": at},
		)
		if err != nil {
			return err
		}
		if !ok {
			res.AlreadyRefunded = true
			return nil
		}

		debit := newEntry(ledger.Debit, ledger.CategoryRefund, amount,
			ledger.PaymentIntentRef(pi.ID), &pi.ID, nil, at,
			fmt.Sprintf("Reembolso %s", pi.ID))
		if err := tx.AppendLedgerEntry(ctx, debit); err != nil {
			return err
		}
		res.Entries = append(res.Entries, *debit)

		// --------------------------------------------------
		// Commission reversal
		// --------------------------------------------------
		c, err := tx.FindCommissionByIntent(ctx, pi.ID)
		if err != nil {
			return err
		}
		if c == nil || c.Status == string(ledger.CommissionCancelled) {
			return nil
		}

		reversal := money.Proportion(c.CommissionAmountCents, amount, pi.AmountCents)
		if reversal > 0 {
			credit := newEntry(ledger.Credit, ledger.CategoryCommissionReversal, reversal,
				ledger.CommissionRef(c.ID), &pi.ID, &c.BarberID, at,
				fmt.Sprintf("Estorno de comissão %s", c.ID))
			if err := tx.AppendLedgerEntry(ctx, credit); err != nil {
				return err
			}
			res.Entries = append(res.Entries, *credit)
		}

		changes := map[string]any{
			"notes": fmt.Sprintf("estornado %s de %s", reversal, c.CommissionAmountCents),
		}
		if amount >= pi.AmountCents {
			changes["status"] = string(ledger.CommissionCancelled)
		}
		return tx.UpdateCommission(ctx, c.ID, changes)
	})
	if err != nil {
		p.logFailure("refund posting failed", intentID, err)
		return nil, err
	}

	p.record(res.Entries)
	return res, nil
}

// ------------------------------------------------------
// helpers
// ------------------------------------------------------

func (p *LedgerPoster) record(entries []models.LedgerEntry) {
	for _, e := range entries {
		p.metrics.LedgerEntry(e.Kind, e.Category, int64(e.AmountCents))
	}
}

func (p *LedgerPoster) logFailure(msg string, intentID uuid.UUID, err error) {
	if _, ok := httperr.AsBusiness(err); ok {
		return
	}
	p.log.Error(msg,
		zap.String("payment_intent_id", intentID.String()),
		zap.Error(err),
	)
}

func newEntry(
	kind ledger.Kind,
	category ledger.Category,
	amount money.Cents,
	ref ledger.Reference,
	intentID *uuid.UUID,
	barberID *uuid.UUID,
	at time.Time,
	description string,
) *models.LedgerEntry {
	return &models.LedgerEntry{
		Kind:            string(kind),
		Category:        string(category),
		AmountCents:     amount,
		Description:     description,
		ReferenceKind:   string(ref.Kind),
		ReferenceID:     ref.ID,
		PaymentIntentID: intentID,
		BarberID:        barberID,
		OccurredAt:      at,
	}
}
