package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domain "github.com/BruksfildServices01/barber-booking/internal/domain/payment"
	"github.com/BruksfildServices01/barber-booking/internal/observability"
	"github.com/BruksfildServices01/barber-booking/internal/usecase/webhook"
)

// maxWebhookBody caps what a provider callback may send.
const maxWebhookBody = 1 << 20

// WebhookHandler speaks the provider's contract: 200 with an ack for anything
// it has taken responsibility for, so the provider stops retrying.
type WebhookHandler struct {
	ingestor        *webhook.Ingestor
	signatureHeader string
	log             *zap.Logger
}

func NewWebhookHandler(ingestor *webhook.Ingestor, signatureHeader string, log *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		ingestor:        ingestor,
		signatureHeader: signatureHeader,
		log:             log,
	}
}

func (h *WebhookHandler) Receive(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}

	headers := make(map[string]string, len(c.Request.Header))
	for k := range c.Request.Header {
		headers[k] = c.Request.Header.Get(k)
	}

	ack, err := h.ingestor.Ingest(c.Request.Context(), webhook.Delivery{
		Body:      body,
		Signature: c.GetHeader(h.signatureHeader),
		Headers:   headers,
	})

	switch {
	case err == nil:
		c.JSON(http.StatusOK, ack)
	case errors.Is(err, domain.ErrInvalidSignature):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
	case errors.Is(err, domain.ErrMalformedPayload):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
	default:
		observability.FromContext(c.Request.Context(), h.log).
			Error("webhook processing failed", zap.Error(err))
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func (h *WebhookHandler) MethodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
}
