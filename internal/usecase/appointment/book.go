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
	"github.com/BruksfildServices01/barber-booking/internal/observability"
)

// ======================================================
// INPUT
// ======================================================

type BookAppointmentInput struct {
	ClientID  uuid.UUID
	BarberID  uuid.UUID
	ServiceID uuid.UUID
	Start     time.Time
	Notes     string

	// nil for public bookings
	ActorID *uuid.UUID
}

// ======================================================
// USE CASE
// ======================================================

type BookAppointment struct {
	repo    domain.Repository
	locker  domain.BookingLocker
	audit   *audit.Dispatcher
	metrics *observability.Metrics
	clock   clock.Clock
	loc     *time.Location
}

func NewBookAppointment(
	repo domain.Repository,
	locker domain.BookingLocker,
	audit *audit.Dispatcher,
	metrics *observability.Metrics,
	clk clock.Clock,
	loc *time.Location,
) *BookAppointment {
	if locker == nil {
		locker = domain.NoopLocker{}
	}
	return &BookAppointment{
		repo:    repo,
		locker:  locker,
		audit:   audit,
		metrics: metrics,
		clock:   clk,
		loc:     loc,
	}
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *BookAppointment) Execute(
	ctx context.Context,
	in BookAppointmentInput,
) (*models.Appointment, error) {

	// --------------------------------------------------
	// Catalog
	// --------------------------------------------------
	service, err := uc.repo.GetService(ctx, in.ServiceID)
	if err != nil {
		return nil, err
	}
	if !service.Active {
		return nil, httperr.ErrBusiness("service_inactive")
	}

	barber, err := uc.repo.GetBarber(ctx, in.BarberID)
	if err != nil {
		return nil, err
	}
	if !barber.Active {
		return nil, httperr.ErrBusiness("barber_inactive")
	}

	if _, err := uc.repo.GetClient(ctx, in.ClientID); err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// Time window
	// --------------------------------------------------
	start := in.Start.In(uc.loc)
	end := start.Add(time.Duration(service.DurationMinutes) * time.Minute)

	if err := checkWindow(ctx, uc.repo, uc.clock, start, end); err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// Conflict guard
	// --------------------------------------------------
	unlock, err := uc.locker.Lock(ctx, barber.ID)
	if err != nil {
		uc.metrics.BookingAttempt("busy")
		return nil, err
	}
	defer unlock()

	ap := &models.Appointment{
		ClientID:        in.ClientID,
		BarberID:        barber.ID,
		ServiceID:       service.ID,
		StartTime:       start,
		EndTime:         end,
		Status:          string(domain.InitialStatus()),
		PriceCents:      service.PriceCents,
		DurationMinutes: service.DurationMinutes,
		Notes:           in.Notes,
	}

	if err := uc.repo.TryBook(ctx, ap); err != nil {
		if httperr.IsBusiness(err, "slot_unavailable") {
			uc.metrics.BookingAttempt("conflict")
		} else {
			uc.metrics.BookingAttempt("error")
		}
		return nil, err
	}
	uc.metrics.BookingAttempt("created")

	uc.audit.Dispatch(audit.Event{
		ActorID:  in.ActorID,
		Action:   "appointment_created",
		Entity:   "appointment",
		EntityID: &ap.ID,
		Metadata: map[string]any{
			"barber_id":  ap.BarberID,
			"service_id": ap.ServiceID,
			"start_time": ap.StartTime,
		},
	})

	return ap, nil
}

// checkWindow rejects past starts and intervals outside business hours.
func checkWindow(
	ctx context.Context,
	repo domain.Repository,
	clk clock.Clock,
	start time.Time,
	end time.Time,
) error {
	if start.Before(clk.Now()) {
		return httperr.ErrBusiness("start_in_past")
	}

	settings, err := loadSettings(ctx, repo)
	if err != nil {
		return err
	}
	if !settings.WithinHours(start, end) {
		return httperr.ErrBusiness("outside_business_hours")
	}
	return nil
}
