package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

type AppointmentGormRepository struct {
	db *gorm.DB
}

func NewAppointmentGormRepository(db *gorm.DB) *AppointmentGormRepository {
	return &AppointmentGormRepository{db: db}
}

// --------------------------------------------------
// Settings
// --------------------------------------------------

func (r *AppointmentGormRepository) GetSettings(ctx context.Context) (*models.BusinessSettings, error) {
	var s models.BusinessSettings
	if err := r.db.WithContext(ctx).First(&s, models.SettingsRowID).Error; err != nil {
		return nil, notFound(err, "settings_not_found")
	}
	return &s, nil
}

func (r *AppointmentGormRepository) SaveSettings(ctx context.Context, s *models.BusinessSettings) error {
	s.ID = models.SettingsRowID
	return r.db.WithContext(ctx).Save(s).Error
}

// --------------------------------------------------
// Catalog
// --------------------------------------------------

func (r *AppointmentGormRepository) GetService(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	var s models.Service
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "service_not_found")
	}
	return &s, nil
}

func (r *AppointmentGormRepository) GetBarber(ctx context.Context, id uuid.UUID) (*models.Barber, error) {
	var b models.Barber
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "barber_not_found")
	}
	return &b, nil
}

func (r *AppointmentGormRepository) GetClient(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	var c models.Client
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "client_not_found")
	}
	return &c, nil
}

// --------------------------------------------------
// Availability
// --------------------------------------------------

func (r *AppointmentGormRepository) ListBookingsForDay(
	ctx context.Context,
	barberID uuid.UUID,
	start time.Time,
	end time.Time,
) ([]domain.Booking, error) {

	var apps []models.Appointment
	if err := r.db.WithContext(ctx).
		Select("start_time", "end_time", "status").
		Where(
			"barber_id = ? AND status NOT IN ? AND start_time < ? AND end_time > ?",
			barberID, domain.NonBlockingStatuses, end.UTC(), start.UTC(),
		).
		Order("start_time ASC").
		Find(&apps).Error; err != nil {
		return nil, err
	}

	bookings := make([]domain.Booking, 0, len(apps))
	for _, ap := range apps {
		bookings = append(bookings, domain.Booking{
			Start:  ap.StartTime,
			End:    ap.EndTime,
			Status: domain.Status(ap.Status),
		})
	}
	return bookings, nil
}

// --------------------------------------------------
// Appointment (create / conflict)
// --------------------------------------------------

func (r *AppointmentGormRepository) TryBook(ctx context.Context, ap *models.Appointment) error {
	ap.StartTime = ap.StartTime.UTC()
	ap.EndTime = ap.EndTime.UTC()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockBarber(tx, ap.BarberID); err != nil {
			return err
		}
		if err := assertNoOverlap(tx, ap.BarberID, ap.StartTime, ap.EndTime, uuid.Nil); err != nil {
			return err
		}
		return tx.Create(ap).Error
	})
	return bookingError(err)
}

func (r *AppointmentGormRepository) Reschedule(
	ctx context.Context,
	id uuid.UUID,
	barberID uuid.UUID,
	start time.Time,
	end time.Time,
) (*models.Appointment, error) {

	start, end = start.UTC(), end.UTC()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ap models.Appointment
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&ap, "id = ?", id).Error; err != nil {
			return notFound(err, "appointment_not_found")
		}
		if domain.Status(ap.Status).IsTerminal() {
			return httperr.ErrBusiness("invalid_state")
		}

		if err := lockBarber(tx, barberID); err != nil {
			return err
		}
		if err := assertNoOverlap(tx, barberID, start, end, id); err != nil {
			return err
		}

		return tx.Model(&ap).Updates(map[string]any{
			"barber_id":  barberID,
			"start_time": start,
			"end_time":   end,
		}).Error
	})
	if err != nil {
		return nil, bookingError(err)
	}
	return r.GetAppointment(ctx, id)
}

func lockBarber(tx *gorm.DB, barberID uuid.UUID) error {
	var b models.Barber
	if err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		First(&b, "id = ?", barberID).Error; err != nil {
		return notFound(err, "barber_not_found")
	}
	return nil
}

func assertNoOverlap(tx *gorm.DB, barberID uuid.UUID, start, end time.Time, exclude uuid.UUID) error {
	q := tx.Model(&models.Appointment{}).
		Where(
			"barber_id = ? AND status NOT IN ? AND start_time < ? AND end_time > ?",
			barberID, domain.NonBlockingStatuses, end, start,
		)
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return httperr.ErrBusiness("slot_unavailable")
	}
	return nil
}

// bookingError maps the storage exclusion constraint onto the same signal as
// the application check.
func bookingError(err error) error {
	if err != nil && httperr.IsExclusionConflict(err) {
		return httperr.ErrBusiness("slot_unavailable")
	}
	return err
}

// --------------------------------------------------
// Appointment (state change)
// --------------------------------------------------

func (r *AppointmentGormRepository) GetAppointment(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	var ap models.Appointment
	if err := r.db.WithContext(ctx).First(&ap, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "appointment_not_found")
	}
	return &ap, nil
}

func (r *AppointmentGormRepository) Transition(
	ctx context.Context,
	id uuid.UUID,
	to domain.Status,
	from []domain.Status,
	changes map[string]any,
) (*models.Appointment, error) {

	allowed := make([]string, 0, len(from))
	for _, s := range from {
		allowed = append(allowed, string(s))
	}

	updates := map[string]any{"status": string(to)}
	for k, v := range changes {
		updates[k] = v
	}

	res := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("id = ? AND status IN ?", id, allowed).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}

	if res.RowsAffected == 0 {
		if _, err := r.GetAppointment(ctx, id); err != nil {
			return nil, err
		}
		return nil, httperr.ErrBusiness("invalid_state")
	}

	return r.GetAppointment(ctx, id)
}

// --------------------------------------------------
// Agenda
// --------------------------------------------------

func (r *AppointmentGormRepository) ListAppointmentsForPeriod(
	ctx context.Context,
	barberID *uuid.UUID,
	start time.Time,
	end time.Time,
) ([]models.Appointment, error) {

	q := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Barber").
		Preload("Service").
		Where("start_time >= ? AND start_time < ?", start.UTC(), end.UTC())

	if barberID != nil {
		q = q.Where("barber_id = ?", *barberID)
	}

	var apps []models.Appointment
	if err := q.Order("start_time ASC").Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

// notFound turns gorm.ErrRecordNotFound into a business error with code.
func notFound(err error, code string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return httperr.ErrBusiness(code)
	}
	return err
}

// Compile-time check
var _ domain.Repository = (*AppointmentGormRepository)(nil)
