package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/barber-booking/internal/models"
)

type Repository interface {
	// -------- Settings --------
	GetSettings(ctx context.Context) (*models.BusinessSettings, error)
	SaveSettings(ctx context.Context, s *models.BusinessSettings) error

	// -------- Catalog --------
	GetService(ctx context.Context, id uuid.UUID) (*models.Service, error)
	GetBarber(ctx context.Context, id uuid.UUID) (*models.Barber, error)
	GetClient(ctx context.Context, id uuid.UUID) (*models.Client, error)

	// -------- Availability --------
	ListBookingsForDay(
		ctx context.Context,
		barberID uuid.UUID,
		start time.Time,
		end time.Time,
	) ([]Booking, error)

	// -------- Appointment (create / conflict) --------

	// TryBook re-checks overlap for the barber and inserts ap in one
	// transaction. It fails with slot_unavailable and writes nothing on overlap.
	TryBook(ctx context.Context, ap *models.Appointment) error

	// Reschedule moves a non-terminal appointment, excluding itself from the overlap check.
	Reschedule(
		ctx context.Context,
		id uuid.UUID,
		barberID uuid.UUID,
		start time.Time,
		end time.Time,
	) (*models.Appointment, error)

	// -------- Appointment (state change) --------
	GetAppointment(ctx context.Context, id uuid.UUID) (*models.Appointment, error)

	// Transition applies a guarded single-row update: status moves to `to` only
	// when the current status is in `from`.
	Transition(
		ctx context.Context,
		id uuid.UUID,
		to Status,
		from []Status,
		changes map[string]any,
	) (*models.Appointment, error)

	// -------- Agenda --------
	ListAppointmentsForPeriod(
		ctx context.Context,
		barberID *uuid.UUID,
		start time.Time,
		end time.Time,
	) ([]models.Appointment, error)
}

// BookingLocker serializes booking attempts for one barber across API instances.
type BookingLocker interface {
	Lock(ctx context.Context, barberID uuid.UUID) (unlock func(), err error)
}

// NoopLocker is used when no lock backend is configured.
type NoopLocker struct{}

func (NoopLocker) Lock(context.Context, uuid.UUID) (func(), error) {
	return func() {}, nil
}
