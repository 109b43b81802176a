package handler

import (
	"net/http"

	"tutorly/pkg/payment"

	"github.com/gin-gonic/gin"
)

// PayPalHandler terminates the PayPal approval return. Verification is a
// server-side capture of the approved order, so the return is the only
// callback channel this adapter needs.
type PayPalHandler struct {
	confirmations Confirmer
}

func NewPayPalHandler(confirmations Confirmer) *PayPalHandler {
	return &PayPalHandler{confirmations: confirmations}
}

func (h *PayPalHandler) Return(c *gin.Context) {
	res := h.confirmations.Confirm(c.Request.Context(), payment.ProviderPayPal, payment.Payload{
		Query: c.Request.URL.Query(),
	})
	if res.OK() {
		c.JSON(http.StatusOK, gin.H{"ok": true, "order_id": res.OrderID})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": false, "order_id": res.OrderID, "reason": res.Reason})
}
