package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/verist/shopcore/internal/gateway"
	"github.com/verist/shopcore/internal/middleware"
	"github.com/verist/shopcore/internal/service"
	"go.uber.org/zap"
)

type webhookHandler struct {
	svc    WebhookService
	logger *zap.Logger
}

// Receive reads the raw body before any parsing: the signature covers
// the bytes on the wire, not a re-serialization.
func (h *webhookHandler) Receive(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"accepted": false})
		return
	}

	sig, err := gateway.ParseSignatureHeader(c.GetHeader("x-signature"), c.GetHeader("x-request-id"))
	if err != nil {
		middleware.RecordWebhook("bad_signature")
		h.logger.Warn("webhook rejected: signature headers", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"accepted": false})
		return
	}

	ack, err := h.svc.Handle(c.Request.Context(), body, sig)
	if err != nil {
		switch {
		case errors.Is(err, gateway.ErrBadSignature):
			middleware.RecordWebhook("bad_signature")
			h.logger.Warn("webhook rejected: signature mismatch", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"accepted": false})
		case errors.Is(err, service.ErrMalformedNotification):
			middleware.RecordWebhook("malformed")
			h.logger.Warn("webhook rejected: malformed body", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"accepted": false})
		default:
			// local outage; the gateway should retry
			middleware.RecordWebhook("retryable_error")
			h.logger.Error("webhook processing failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"accepted": false})
		}
		return
	}

	middleware.RecordWebhook(ack.Result)
	c.JSON(http.StatusOK, ack)
}
