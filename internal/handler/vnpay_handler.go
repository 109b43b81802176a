package handler

import (
	"net/http"

	"tutorly/internal/service"
	"tutorly/pkg/payment"

	"github.com/gin-gonic/gin"
)

// VNPayHandler terminates VNPay's IPN (server-to-server GET with signed
// query params) and the browser return. VNPay keys its retry behavior off
// the RspCode in the IPN response body, so those codes are reproduced
// exactly.
type VNPayHandler struct {
	confirmations Confirmer
}

func NewVNPayHandler(confirmations Confirmer) *VNPayHandler {
	return &VNPayHandler{confirmations: confirmations}
}

func (h *VNPayHandler) IPN(c *gin.Context) {
	res := h.confirmations.Confirm(c.Request.Context(), payment.ProviderVNPay, payment.Payload{
		Query: c.Request.URL.Query(),
	})
	code, msg := vnpayAck(res)
	c.JSON(http.StatusOK, gin.H{"RspCode": code, "Message": msg})
}

// Return handles the synchronous browser redirect: same verification as
// the IPN, but the response is for our own presentation layer.
func (h *VNPayHandler) Return(c *gin.Context) {
	res := h.confirmations.Confirm(c.Request.Context(), payment.ProviderVNPay, payment.Payload{
		Query: c.Request.URL.Query(),
	})
	if res.OK() {
		c.JSON(http.StatusOK, gin.H{"ok": true, "order_id": res.OrderID})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": false, "order_id": res.OrderID, "reason": res.Reason})
}

func vnpayAck(res service.ConfirmResult) (string, string) {
	switch res.Reason {
	case service.ReasonOK:
		return "00", "Confirm Success"
	case service.ReasonGatewayDeclined:
		// The failed transaction was received and recorded; confirming
		// receipt stops VNPay from retrying it.
		return "00", "Confirm Success"
	case service.ReasonNotFound:
		return "01", "Order not found"
	case service.ReasonAmountMismatch:
		return "04", "Invalid amount"
	case service.ReasonBadSignature:
		return "97", "Invalid signature"
	default:
		return "99", "Unknown error"
	}
}
