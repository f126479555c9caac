package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/httpresp"
	"github.com/BruksfildServices01/barber-booking/internal/middleware"
	"github.com/BruksfildServices01/barber-booking/internal/models"
	ucAppointment "github.com/BruksfildServices01/barber-booking/internal/usecase/appointment"
)

// ======================================================
// HANDLER
// ======================================================

type AppointmentHandler struct {
	book        *ucAppointment.BookAppointment
	reschedule  *ucAppointment.RescheduleAppointment
	confirm     *ucAppointment.ConfirmAppointment
	start       *ucAppointment.StartAppointment
	complete    *ucAppointment.CompleteAppointment
	cancel      *ucAppointment.CancelAppointment
	noShow      *ucAppointment.MarkNoShow
	listByDate  *ucAppointment.ListAppointmentsByDate
	listByMonth *ucAppointment.ListAppointmentsByMonth
	loc         *time.Location
}

type AppointmentUseCases struct {
	Book        *ucAppointment.BookAppointment
	Reschedule  *ucAppointment.RescheduleAppointment
	Confirm     *ucAppointment.ConfirmAppointment
	Start       *ucAppointment.StartAppointment
	Complete    *ucAppointment.CompleteAppointment
	Cancel      *ucAppointment.CancelAppointment
	NoShow      *ucAppointment.MarkNoShow
	ListByDate  *ucAppointment.ListAppointmentsByDate
	ListByMonth *ucAppointment.ListAppointmentsByMonth
}

func NewAppointmentHandler(uc AppointmentUseCases, loc *time.Location) *AppointmentHandler {
	return &AppointmentHandler{
		book:        uc.Book,
		reschedule:  uc.Reschedule,
		confirm:     uc.Confirm,
		start:       uc.Start,
		complete:    uc.Complete,
		cancel:      uc.Cancel,
		noShow:      uc.NoShow,
		listByDate:  uc.ListByDate,
		listByMonth: uc.ListByMonth,
		loc:         loc,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type CreateAppointmentRequest struct {
	ClientID  uuid.UUID `json:"client_id" binding:"required"`
	BarberID  uuid.UUID `json:"barber_id" binding:"required"`
	ServiceID uuid.UUID `json:"service_id" binding:"required"`
	StartTime string    `json:"start_time" binding:"required"`
	Notes     string    `json:"notes" binding:"max=255"`
}

type RescheduleRequest struct {
	StartTime string     `json:"start_time" binding:"required"`
	BarberID  *uuid.UUID `json:"barber_id"`
}

type CancelRequest struct {
	Reason string `json:"reason" binding:"max=255"`
}

type CompleteRequest struct {
	Charge bool `json:"charge"`
}

// ======================================================
// CREATE
// ======================================================

func (h *AppointmentHandler) Create(c *gin.Context) {
	var req CreateAppointmentRequest
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
		ActorID:   middleware.UserID(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	httpresp.Created(c, ap)
}

// ======================================================
// AGENDA
// ======================================================

func (h *AppointmentHandler) ListByDate(c *gin.Context) {
	date, ok := queryDate(c, "date", h.loc)
	if !ok {
		return
	}
	barberID, ok := queryUUID(c, "barber_id")
	if !ok {
		return
	}

	aps, err := h.listByDate.Execute(c.Request.Context(), barberID, date)
	if err != nil {
		respondError(c, err)
		return
	}

	httpresp.List(c, aps)
}

func (h *AppointmentHandler) ListByMonth(c *gin.Context) {
	yearStr := c.Query("year")
	monthStr := c.Query("month")
	if yearStr == "" || monthStr == "" {
		httperr.BadRequest(c, "missing_year_or_month", "Ano e mês são obrigatórios.")
		return
	}

	year, err := strconv.Atoi(yearStr)
	if err != nil {
		httperr.BadRequest(c, "invalid_year", "Ano inválido.")
		return
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil {
		httperr.BadRequest(c, "invalid_month", "Mês inválido.")
		return
	}

	barberID, ok := queryUUID(c, "barber_id")
	if !ok {
		return
	}

	aps, err := h.listByMonth.Execute(c.Request.Context(), barberID, year, month)
	if err != nil {
		respondError(c, err)
		return
	}

	httpresp.List(c, aps)
}

// ======================================================
// STATE CHANGES
// ======================================================

func (h *AppointmentHandler) Confirm(c *gin.Context) {
	h.simpleTransition(c, h.confirm.Execute)
}

func (h *AppointmentHandler) Start(c *gin.Context) {
	h.simpleTransition(c, h.start.Execute)
}

func (h *AppointmentHandler) NoShow(c *gin.Context) {
	h.simpleTransition(c, h.noShow.Execute)
}

func (h *AppointmentHandler) simpleTransition(
	c *gin.Context,
	run func(ctx context.Context, id uuid.UUID, actorID *uuid.UUID) (*models.Appointment, error),
) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	ap, err := run(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	httpresp.OK(c, ap)
}

func (h *AppointmentHandler) Cancel(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req CancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
			return
		}
	}

	ap, err := h.cancel.Execute(c.Request.Context(), id, middleware.UserID(c), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	httpresp.OK(c, ap)
}

// Complete accepts ?charge=true or {"charge": true}.
func (h *AppointmentHandler) Complete(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req CompleteRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
			return
		}
	}
	charge := req.Charge || c.Query("charge") == "true"

	res, err := h.complete.Execute(c.Request.Context(), id, middleware.UserID(c), charge)
	if err != nil {
		respondError(c, err)
		return
	}

	body := gin.H{"appointment": res.Appointment}
	if res.Intent != nil {
		body["payment_intent"] = res.Intent
	}
	if res.ChargeError != "" {
		body["charge_error"] = res.ChargeError
	}
	httpresp.OK(c, body)
}

func (h *AppointmentHandler) Reschedule(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	start, ok := parseInstant(c, req.StartTime, h.loc)
	if !ok {
		return
	}

	ap, err := h.reschedule.Execute(c.Request.Context(), ucAppointment.RescheduleAppointmentInput{
		AppointmentID: id,
		Start:         start,
		BarberID:      req.BarberID,
		ActorID:       middleware.UserID(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	httpresp.OK(c, ap)
}
