package handlers

import (
	"github.com/gin-gonic/gin"

	domain "github.com/BruksfildServices01/barber-booking/internal/domain/payment"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/httpresp"
)

var webhookStatuses = map[domain.WebhookStatus]bool{
	domain.WebhookReceived:   true,
	domain.WebhookProcessing: true,
	domain.WebhookProcessed:  true,
	domain.WebhookFailed:     true,
	domain.WebhookIgnored:    true,
}

// WebhookEventsHandler lets operators follow up on failed deliveries.
type WebhookEventsHandler struct {
	repo domain.WebhookRepository
}

func NewWebhookEventsHandler(repo domain.WebhookRepository) *WebhookEventsHandler {
	return &WebhookEventsHandler{repo: repo}
}

func (h *WebhookEventsHandler) List(c *gin.Context) {
	status := c.Query("status")
	if status != "" && !webhookStatuses[domain.WebhookStatus(status)] {
		httperr.BadRequest(c, "invalid_status", "Status inválido.")
		return
	}

	page, limit, offset := pagination(c)

	events, total, err := h.repo.List(c.Request.Context(), status, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	httpresp.Page(c, events, page, limit, total)
}
