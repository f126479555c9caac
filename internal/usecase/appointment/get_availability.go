package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/barber-booking/internal/clock"
	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/timezone"
)

type GetAvailability struct {
	repo  domain.Repository
	clock clock.Clock
	loc   *time.Location
}

func NewGetAvailability(
	repo domain.Repository,
	clk clock.Clock,
	loc *time.Location,
) *GetAvailability {
	return &GetAvailability{
		repo:  repo,
		clock: clk,
		loc:   loc,
	}
}

// Execute returns the free slots of a barber for one day. Slots that already
// started are dropped.
func (uc *GetAvailability) Execute(
	ctx context.Context,
	in domain.AvailabilityInput,
) ([]domain.Slot, error) {

	length, err := uc.slotLength(ctx, in)
	if err != nil {
		return nil, err
	}

	if _, err := uc.repo.GetBarber(ctx, in.BarberID); err != nil {
		return nil, err
	}

	settings, err := loadSettings(ctx, uc.repo)
	if err != nil {
		return nil, err
	}

	day := timezone.StartOfDay(in.Date.In(uc.loc))

	bookings, err := uc.repo.ListBookingsForDay(ctx, in.BarberID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	slots := domain.ComputeSlots(day, length, settings, bookings)

	now := uc.clock.Now()
	out := make([]domain.Slot, 0, len(slots))
	for _, s := range slots {
		if s.Start.Before(now) {
			continue
		}
		out = append(out, s)
	}

	return out, nil
}

func (uc *GetAvailability) slotLength(ctx context.Context, in domain.AvailabilityInput) (time.Duration, error) {
	if in.ServiceID == uuid.Nil {
		if in.Duration > 0 {
			return in.Duration, nil
		}
		return domain.DefaultSlotLength, nil
	}

	service, err := uc.repo.GetService(ctx, in.ServiceID)
	if err != nil {
		return 0, err
	}
	if !service.Active {
		return 0, httperr.ErrBusiness("service_inactive")
	}
	return time.Duration(service.DurationMinutes) * time.Minute, nil
}

func loadSettings(ctx context.Context, repo domain.Repository) (domain.Settings, error) {
	row, err := repo.GetSettings(ctx)
	if err != nil {
		return domain.Settings{}, err
	}
	return domain.NewSettings(
		row.OpeningTime,
		row.ClosingTime,
		row.WorkingDays,
		row.SlotDurationMinutes,
	)
}
