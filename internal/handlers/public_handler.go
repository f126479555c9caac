package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/httpresp"
	ucAppointment "github.com/BruksfildServices01/barber-booking/internal/usecase/appointment"
)

// ======================================================
// HANDLER
// ======================================================

type PublicHandler struct {
	availability *ucAppointment.GetAvailability
	book         *ucAppointment.BookAppointment
	loc          *time.Location
}

func NewPublicHandler(
	availability *ucAppointment.GetAvailability,
	book *ucAppointment.BookAppointment,
	loc *time.Location,
) *PublicHandler {
	return &PublicHandler{
		availability: availability,
		book:         book,
		loc:          loc,
	}
}

type PublicCreateAppointmentRequest struct {
	ClientID  uuid.UUID `json:"client_id" binding:"required"`
	BarberID  uuid.UUID `json:"barber_id" binding:"required"`
	ServiceID uuid.UUID `json:"service_id" binding:"required"`
	StartTime string    `json:"start_time" binding:"required"`
	Notes     string    `json:"notes" binding:"max=255"`
}

// ======================================================
// AVAILABILITY
// ======================================================

func (h *PublicHandler) Availability(c *gin.Context) {
	barberID, ok := queryUUID(c, "barber_id")
	if !ok {
		return
	}
	serviceID, ok := queryUUID(c, "service_id")
	if !ok {
		return
	}
	if barberID == nil {
		httperr.BadRequest(c, "missing_params", "Barbeiro e data são obrigatórios.")
		return
	}
	duration, ok := queryMinutes(c, "duration_minutes")
	if !ok {
		return
	}

	date, ok := queryDate(c, "date", h.loc)
	if !ok {
		return
	}

	in := domain.AvailabilityInput{
		BarberID: *barberID,
		Duration: duration,
		Date:     date,
	}
	if serviceID != nil {
		in.ServiceID = *serviceID
	}

	slots, err := h.availability.Execute(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	httpresp.List(c, slots)
}

// ======================================================
// CREATE APPOINTMENT
// ======================================================

func (h *PublicHandler) CreateAppointment(c *gin.Context) {
	var req PublicCreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	start, ok := parseInstant(c, req.StartTime, h.loc)
	if !ok {
		return
	}

	ap, err := h.book.Execute(c.Request.Context(), ucAppointment.BookAppointmentInput{
		ClientID:  req.ClientID,
		BarberID:  req.BarberID,
		ServiceID: req.ServiceID,
		Start:     start,
		Notes:     req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	httpresp.Created(c, ap)
}
