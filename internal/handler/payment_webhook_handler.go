package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"nal/config"
	"nal/internal/service"
	"nal/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PaymentWebhookHandler struct {
	paymentSvc *service.PaymentService
	cfg        *config.Config
}

func NewPaymentWebhookHandler(paymentSvc *service.PaymentService, cfg *config.Config) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{paymentSvc: paymentSvc, cfg: cfg}
}

// Handle receives gateway webhooks. After the signature check passes, every
// outcome is a 200 acknowledgment: duplicate deliveries, unknown event types
// and unmatched payments must not trigger gateway-side retries.
func (h *PaymentWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondErr(c, http.StatusBadRequest, "invalid body")
		return
	}
	if h.cfg.Razorpay.WebhookSecret != "" {
		sig := c.GetHeader("X-Razorpay-Signature")
		if !h.verifySignature(body, sig) {
			respondErr(c, http.StatusUnauthorized, "invalid signature")
			return
		}
	}
	var payload struct {
		Event string `json:"event"`
		ID    string `json:"id"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		respondErr(c, http.StatusBadRequest, "invalid json")
		return
	}
	provider := c.Param("provider")
	if err := h.paymentSvc.ApplyWebhookEvent(provider, payload.ID, payload.Event, body); err != nil {
		logger.Get().Error("webhook processing failed",
			zap.String("provider", provider), zap.String("event", payload.ID), zap.Error(err))
		respondErr(c, http.StatusInternalServerError, "webhook processing failed")
		return
	}
	respondOK(c, http.StatusOK, gin.H{"received": true})
}

func (h *PaymentWebhookHandler) verifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(h.cfg.Razorpay.WebhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}
