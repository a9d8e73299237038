package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"restaurant-service/services"
	"restaurant-service/uber"
)

// WebhookController receives platform notifications. The signature header is
// the route's authentication; it is unauthenticated otherwise.
type WebhookController struct {
	Service *services.WebhookService
	Logger  *zap.Logger
}

// Receive handles POST /api/webhook. The body is read raw before any
// parsing because the signature covers the exact wire bytes.
func (wc *WebhookController) Receive(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		wc.Logger.Error("failed to read webhook body", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	err = wc.Service.Process(c.Request.Context(), raw, c.GetHeader(uber.SignatureHeader))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true})
	case errors.Is(err, uber.ErrMissingSignature):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing signature"})
	case errors.Is(err, uber.ErrInvalidSignature):
		wc.Logger.Warn("invalid webhook signature")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
	case errors.Is(err, uber.ErrSigningSecretNotSet):
		wc.Logger.Error("webhook signing secret not configured")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server misconfiguration"})
	default:
		wc.Logger.Error("webhook processing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
