package appointment

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-booking/internal/audit"
	"github.com/BruksfildServices01/barber-booking/internal/clock"
	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

// Charger opens a payment intent for the price snapshot of a completed appointment.
type Charger interface {
	ChargeAppointment(ctx context.Context, ap *models.Appointment) (*models.PaymentIntent, error)
}

type CompleteResult struct {
	Appointment *models.Appointment
	Intent      *models.PaymentIntent

	// set when the charge was requested and failed; the completion stands
	ChargeError string
}

type CompleteAppointment struct {
	t       transitioner
	charger Charger
	log     *zap.Logger
}

func NewCompleteAppointment(
	repo domain.Repository,
	audit *audit.Dispatcher,
	clk clock.Clock,
	charger Charger,
	log *zap.Logger,
) *CompleteAppointment {
	return &CompleteAppointment{
		t:       transitioner{repo: repo, audit: audit, clock: clk},
		charger: charger,
		log:     log,
	}
}

func (uc *CompleteAppointment) Execute(
	ctx context.Context,
	id uuid.UUID,
	actorID *uuid.UUID,
	charge bool,
) (*CompleteResult, error) {

	ap, err := uc.t.apply(ctx, id, domain.StatusCompleted, actorID, nil)
	if err != nil {
		return nil, err
	}

	res := &CompleteResult{Appointment: ap}
	if !charge {
		return res, nil
	}

	if uc.charger == nil {
		res.ChargeError = "billing_not_configured"
		return res, nil
	}

	intent, err := uc.charger.ChargeAppointment(ctx, ap)
	if err != nil {
		uc.log.Error("charge after completion failed",
			zap.String("appointment_id", ap.ID.String()),
			zap.Error(err),
		)
		if be, ok := httperr.AsBusiness(err); ok {
			res.ChargeError = be.Code
		} else {
			res.ChargeError = "charge_failed"
		}
		return res, nil
	}

	res.Intent = intent
	return res, nil
}
