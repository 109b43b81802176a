package handler

import (
	"io"
	"net/http"

	"tutorly/pkg/payment"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// MoMoHandler terminates MoMo's IPN (JSON POST) and the browser redirect
// (same field names as query params). MoMo treats HTTP 204 as the IPN
// acknowledgment and stops retrying on it; the processing result is
// visible through logs and metrics instead.
type MoMoHandler struct {
	confirmations Confirmer
}

func NewMoMoHandler(confirmations Confirmer) *MoMoHandler {
	return &MoMoHandler{confirmations: confirmations}
}

func (h *MoMoHandler) IPN(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		logrus.WithError(err).Warn("momo ipn body read failed")
		c.Status(http.StatusNoContent)
		return
	}
	res := h.confirmations.Confirm(c.Request.Context(), payment.ProviderMoMo, payment.Payload{Body: body})
	if !res.OK() {
		logrus.WithFields(logrus.Fields{
			"order_id": res.OrderID,
			"reason":   res.Reason,
		}).Warn("momo ipn not confirmed")
	}
	c.Status(http.StatusNoContent)
}

func (h *MoMoHandler) Return(c *gin.Context) {
	res := h.confirmations.Confirm(c.Request.Context(), payment.ProviderMoMo, payment.Payload{
		Query: c.Request.URL.Query(),
	})
	if res.OK() {
		c.JSON(http.StatusOK, gin.H{"ok": true, "order_id": res.OrderID})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": false, "order_id": res.OrderID, "reason": res.Reason})
}
