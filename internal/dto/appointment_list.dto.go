package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/barber-booking/internal/models"
	"github.com/BruksfildServices01/barber-booking/internal/money"
)

type AppointmentListDTO struct {
	ID          uuid.UUID   `json:"id"`
	StartTime   time.Time   `json:"start_time"`
	EndTime     time.Time   `json:"end_time"`
	Status      string      `json:"status"`
	PriceCents  money.Cents `json:"price_cents"`
	ClientName  string      `json:"client_name"`
	BarberName  string      `json:"barber_name"`
	ServiceName string      `json:"service_name"`
}

// FromAppointment flattens a preloaded appointment; times are rendered in loc.
func FromAppointment(ap models.Appointment, loc *time.Location) AppointmentListDTO {
	out := AppointmentListDTO{
		ID:         ap.ID,
		StartTime:  ap.StartTime.In(loc),
		EndTime:    ap.EndTime.In(loc),
		Status:     ap.Status,
		PriceCents: ap.PriceCents,
	}
	if ap.Client != nil {
		out.ClientName = ap.Client.Name
	}
	if ap.Barber != nil {
		out.BarberName = ap.Barber.Name
	}
	if ap.Service != nil {
		out.ServiceName = ap.Service.Name
	}
	return out
}
