package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"

	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/dto"
	"github.com/BruksfildServices01/barber-booking/internal/models"
	"github.com/BruksfildServices01/barber-booking/internal/timezone"
)

type ListAppointmentsByDate struct {
	repo domain.Repository
	loc  *time.Location
}

func NewListAppointmentsByDate(repo domain.Repository, loc *time.Location) *ListAppointmentsByDate {
	return &ListAppointmentsByDate{repo: repo, loc: loc}
}

// Execute lists the agenda of one day. barberID nil means every barber.
func (uc *ListAppointmentsByDate) Execute(
	ctx context.Context,
	barberID *uuid.UUID,
	date time.Time,
) ([]dto.AppointmentListDTO, error) {

	start := timezone.StartOfDay(date.In(uc.loc))
	end := start.AddDate(0, 0, 1)

	apps, err := uc.repo.ListAppointmentsForPeriod(ctx, barberID, start, end)
	if err != nil {
		return nil, err
	}
	return toListDTO(apps, uc.loc), nil
}

func toListDTO(apps []models.Appointment, loc *time.Location) []dto.AppointmentListDTO {
	out := make([]dto.AppointmentListDTO, 0, len(apps))
	for _, ap := range apps {
		out = append(out, dto.FromAppointment(ap, loc))
	}
	return out
}
