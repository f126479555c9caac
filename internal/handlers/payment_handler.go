package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domain "github.com/BruksfildServices01/barber-booking/internal/domain/payment"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/httpresp"
	"github.com/BruksfildServices01/barber-booking/internal/middleware"
	"github.com/BruksfildServices01/barber-booking/internal/models"
	"github.com/BruksfildServices01/barber-booking/internal/money"
	ucPayment "github.com/BruksfildServices01/barber-booking/internal/usecase/payment"
)

// ======================================================
// HANDLER
// ======================================================

// PaymentHandler serves intents and subscriptions. Its use cases are nil when
// no billing provider is configured.
type PaymentHandler struct {
	createIntent  *ucPayment.CreatePaymentIntent
	cancelIntent  *ucPayment.CancelPaymentIntent
	subscriptions *ucPayment.SubscriptionActions
}

func NewPaymentHandler(
	createIntent *ucPayment.CreatePaymentIntent,
	cancelIntent *ucPayment.CancelPaymentIntent,
	subscriptions *ucPayment.SubscriptionActions,
) *PaymentHandler {
	return &PaymentHandler{
		createIntent:  createIntent,
		cancelIntent:  cancelIntent,
		subscriptions: subscriptions,
	}
}

func (h *PaymentHandler) configured(c *gin.Context) bool {
	if h.createIntent == nil || h.cancelIntent == nil || h.subscriptions == nil {
		httperr.Unavailable(c, "billing_not_configured", "Pagamentos não configurados.")
		return false
	}
	return true
}

// ======================================================
// INTENTS
// ======================================================

type CreateIntentRequest struct {
	ClientID      uuid.UUID   `json:"client_id" binding:"required"`
	AppointmentID *uuid.UUID  `json:"appointment_id"`
	AmountCents   money.Cents `json:"amount_cents" binding:"required"`
	Type          string      `json:"type" binding:"omitempty,oneof=one_time subscription"`
	Description   string      `json:"description" binding:"max=255"`
}

func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	if !h.configured(c) {
		return
	}

	var req CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	pi, err := h.createIntent.Execute(c.Request.Context(), ucPayment.CreatePaymentIntentInput{
		ClientID:      req.ClientID,
		AppointmentID: req.AppointmentID,
		AmountCents:   req.AmountCents,
		Type:          domain.IntentType(req.Type),
		Description:   req.Description,
		ActorID:       middleware.UserID(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	httpresp.Created(c, pi)
}

func (h *PaymentHandler) CancelIntent(c *gin.Context) {
	if !h.configured(c) {
		return
	}

	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	pi, err := h.cancelIntent.Execute(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	httpresp.OK(c, pi)
}

// ======================================================
// SUBSCRIPTIONS
// ======================================================

type CreateSubscriptionRequest struct {
	ClientID          uuid.UUID   `json:"client_id" binding:"required"`
	PlanName          string      `json:"plan_name" binding:"required,max=100"`
	MonthlyPriceCents money.Cents `json:"monthly_price_cents" binding:"required"`
}

func (h *PaymentHandler) CreateSubscription(c *gin.Context) {
	if !h.configured(c) {
		return
	}

	var req CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	sub, err := h.subscriptions.Create(c.Request.Context(), ucPayment.CreateSubscriptionInput{
		ClientID:          req.ClientID,
		PlanName:          req.PlanName,
		MonthlyPriceCents: req.MonthlyPriceCents,
		ActorID:           middleware.UserID(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	httpresp.Created(c, sub)
}

func (h *PaymentHandler) CancelSubscription(c *gin.Context) {
	if !h.configured(c) {
		return
	}

	var req CancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
			return
		}
	}

	h.subscriptionAction(c, func(c *gin.Context, id uuid.UUID) (*models.Subscription, error) {
		return h.subscriptions.Cancel(c.Request.Context(), id, middleware.UserID(c), req.Reason)
	})
}

func (h *PaymentHandler) PauseSubscription(c *gin.Context) {
	if !h.configured(c) {
		return
	}
	h.subscriptionAction(c, func(c *gin.Context, id uuid.UUID) (*models.Subscription, error) {
		return h.subscriptions.Pause(c.Request.Context(), id, middleware.UserID(c))
	})
}

func (h *PaymentHandler) ResumeSubscription(c *gin.Context) {
	if !h.configured(c) {
		return
	}
	h.subscriptionAction(c, func(c *gin.Context, id uuid.UUID) (*models.Subscription, error) {
		return h.subscriptions.Resume(c.Request.Context(), id, middleware.UserID(c))
	})
}

func (h *PaymentHandler) subscriptionAction(
	c *gin.Context,
	run func(c *gin.Context, id uuid.UUID) (*models.Subscription, error),
) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	sub, err := run(c, id)
	if err != nil {
		respondError(c, err)
		return
	}

	httpresp.OK(c, sub)
}
