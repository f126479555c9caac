package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/barber-booking/internal/audit"
	"github.com/BruksfildServices01/barber-booking/internal/clock"
	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

type RescheduleAppointmentInput struct {
	AppointmentID uuid.UUID
	Start         time.Time

	// keeps the current barber when nil
	BarberID *uuid.UUID
	ActorID  *uuid.UUID
}

type RescheduleAppointment struct {
	repo   domain.Repository
	locker domain.BookingLocker
	audit  *audit.Dispatcher
	clock  clock.Clock
	loc    *time.Location
}

func NewRescheduleAppointment(
	repo domain.Repository,
	locker domain.BookingLocker,
	audit *audit.Dispatcher,
	clk clock.Clock,
	loc *time.Location,
) *RescheduleAppointment {
	if locker == nil {
		locker = domain.NoopLocker{}
	}
	return &RescheduleAppointment{
		repo:   repo,
		locker: locker,
		audit:  audit,
		clock:  clk,
		loc:    loc,
	}
}

func (uc *RescheduleAppointment) Execute(
	ctx context.Context,
	in RescheduleAppointmentInput,
) (*models.Appointment, error) {

	ap, err := uc.repo.GetAppointment(ctx, in.AppointmentID)
	if err != nil {
		return nil, err
	}
	if domain.Status(ap.Status).IsTerminal() {
		return nil, httperr.ErrBusiness("invalid_state")
	}

	barberID := ap.BarberID
	if in.BarberID != nil {
		barberID = *in.BarberID
	}

	barber, err := uc.repo.GetBarber(ctx, barberID)
	if err != nil {
		return nil, err
	}
	if !barber.Active {
		return nil, httperr.ErrBusiness("barber_inactive")
	}

	start := in.Start.In(uc.loc)
	end := start.Add(time.Duration(ap.DurationMinutes) * time.Minute)

	if err := checkWindow(ctx, uc.repo, uc.clock, start, end); err != nil {
		return nil, err
	}

	unlock, err := uc.locker.Lock(ctx, barberID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	updated, err := uc.repo.Reschedule(ctx, ap.ID, barberID, start, end)
	if err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		ActorID:  in.ActorID,
		Action:   "appointment_rescheduled",
		Entity:   "appointment",
		EntityID: &ap.ID,
		Metadata: map[string]any{
			"from": ap.StartTime,
			"to":   updated.StartTime,
		},
	})

	return updated, nil
}
