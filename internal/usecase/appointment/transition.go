package appointment

import (
	"context"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/barber-booking/internal/audit"
	"github.com/BruksfildServices01/barber-booking/internal/clock"
	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

// transitioner persists one state change and records it in the audit trail.
type transitioner struct {
	repo  domain.Repository
	audit *audit.Dispatcher
	clock clock.Clock
}

var stampColumns = map[domain.Status]string{
	domain.StatusConfirmed:  "confirmed_at",
	domain.StatusInProgress: "started_at",
	domain.StatusCompleted:  "completed_at",
	domain.StatusCancelled:  "cancelled_at",
	domain.StatusNoShow:     "no_show_at",
}

func (t transitioner) apply(
	ctx context.Context,
	id uuid.UUID,
	to domain.Status,
	actorID *uuid.UUID,
	extra map[string]any,
) (*models.Appointment, error) {

	changes := map[string]any{
		stampColumns[to]: t.clock.Now().UTC(),
	}
	for k, v := range extra {
		changes[k] = v
	}

	ap, err := t.repo.Transition(ctx, id, to, domain.AllowedFrom(to), changes)
	if err != nil {
		return nil, err
	}

	t.audit.Dispatch(audit.Event{
		ActorID:  actorID,
		Action:   "appointment_" + string(to),
		Entity:   "appointment",
		EntityID: &ap.ID,
		Metadata: extra,
	})

	return ap, nil
}

// ======================================================
// CONFIRM / START / NO-SHOW
// ======================================================

type ConfirmAppointment struct{ t transitioner }

func NewConfirmAppointment(repo domain.Repository, audit *audit.Dispatcher, clk clock.Clock) *ConfirmAppointment {
	return &ConfirmAppointment{t: transitioner{repo: repo, audit: audit, clock: clk}}
}

func (uc *ConfirmAppointment) Execute(ctx context.Context, id uuid.UUID, actorID *uuid.UUID) (*models.Appointment, error) {
	return uc.t.apply(ctx, id, domain.StatusConfirmed, actorID, nil)
}

type StartAppointment struct{ t transitioner }

func NewStartAppointment(repo domain.Repository, audit *audit.Dispatcher, clk clock.Clock) *StartAppointment {
	return &StartAppointment{t: transitioner{repo: repo, audit: audit, clock: clk}}
}

func (uc *StartAppointment) Execute(ctx context.Context, id uuid.UUID, actorID *uuid.UUID) (*models.Appointment, error) {
	return uc.t.apply(ctx, id, domain.StatusInProgress, actorID, nil)
}

type MarkNoShow struct{ t transitioner }

func NewMarkNoShow(repo domain.Repository, audit *audit.Dispatcher, clk clock.Clock) *MarkNoShow {
	return &MarkNoShow{t: transitioner{repo: repo, audit: audit, clock: clk}}
}

func (uc *MarkNoShow) Execute(ctx context.Context, id uuid.UUID, actorID *uuid.UUID) (*models.Appointment, error) {
	return uc.t.apply(ctx, id, domain.StatusNoShow, actorID, nil)
}

// ======================================================
// CANCEL
// ======================================================

type CancelAppointment struct{ t transitioner }

func NewCancelAppointment(repo domain.Repository, audit *audit.Dispatcher, clk clock.Clock) *CancelAppointment {
	return &CancelAppointment{t: transitioner{repo: repo, audit: audit, clock: clk}}
}

func (uc *CancelAppointment) Execute(
	ctx context.Context,
	id uuid.UUID,
	actorID *uuid.UUID,
	reason string,
) (*models.Appointment, error) {
	return uc.t.apply(ctx, id, domain.StatusCancelled, actorID, map[string]any{
		"cancel_reason": reason,
	})
}
