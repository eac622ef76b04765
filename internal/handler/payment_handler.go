package handler

import (
	"net/http"

	"nal/internal/middleware"
	"nal/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type PaymentHandler struct {
	paymentSvc *service.PaymentService
}

func NewPaymentHandler(paymentSvc *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentSvc: paymentSvc}
}

func (h *PaymentHandler) Initiate(c *gin.Context) {
	payer := middleware.GetUserID(c)
	var req struct {
		PropertyID      string                 `json:"property_id"`
		Amount          decimal.Decimal        `json:"amount" binding:"required"`
		Currency        string                 `json:"currency"`
		TransactionType string                 `json:"transaction_type" binding:"required"`
		Description     string                 `json:"description"`
		Metadata        map[string]interface{} `json:"metadata"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, http.StatusBadRequest, err.Error())
		return
	}
	t, err := h.paymentSvc.Initiate(c.Request.Context(), payer, service.InitiatePaymentInput{
		PropertyUUID: req.PropertyID,
		Amount:       req.Amount,
		Currency:     req.Currency,
		Type:         req.TransactionType,
		Description:  req.Description,
		Metadata:     req.Metadata,
	})
	if err != nil {
		respondServiceErr(c, err)
		return
	}
	respondOK(c, http.StatusCreated, gin.H{
		"transaction_id":    t.UUID,
		"status":            t.Status,
		"payment_intent_id": t.PaymentIntentID,
	})
}

func (h *PaymentHandler) Confirm(c *gin.Context) {
	var req struct {
		PaymentMethodID string `json:"payment_method_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, http.StatusBadRequest, "payment_method_id is required")
		return
	}
	t, err := h.paymentSvc.Confirm(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), req.PaymentMethodID)
	if err != nil {
		respondServiceErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{
		"transaction_id":         t.UUID,
		"status":                 t.Status,
		"gateway_transaction_id": t.GatewayTransactionID,
	})
}

func (h *PaymentHandler) ListTransactions(c *gin.Context) {
	txns, err := h.paymentSvc.ListTransactions(middleware.GetUserID(c), c.Query("status"), c.Query("property_id"))
	if err != nil {
		respondServiceErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, txns)
}
