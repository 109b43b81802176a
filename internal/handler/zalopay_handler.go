package handler

import (
	"io"
	"net/http"

	"tutorly/internal/service"
	"tutorly/pkg/payment"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ZaloPayHandler terminates ZaloPay's server-to-server callback. ZaloPay
// retries a bounded number of times unless it sees return_code 1, so both
// fresh and repeated successes acknowledge with 1.
type ZaloPayHandler struct {
	confirmations Confirmer
}

func NewZaloPayHandler(confirmations Confirmer) *ZaloPayHandler {
	return &ZaloPayHandler{confirmations: confirmations}
}

func (h *ZaloPayHandler) Callback(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		logrus.WithError(err).Warn("zalopay callback body read failed")
		c.JSON(http.StatusOK, gin.H{"return_code": -1, "return_message": "invalid body"})
		return
	}
	res := h.confirmations.Confirm(c.Request.Context(), payment.ProviderZaloPay, payment.Payload{Body: body})
	if res.Reason == service.ReasonOK {
		c.JSON(http.StatusOK, gin.H{"return_code": 1, "return_message": "success"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"return_code": -1, "return_message": res.Reason})
}
