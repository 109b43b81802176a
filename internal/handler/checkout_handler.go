package handler

import (
	"errors"
	"fmt"
	"net/http"

	"tutorly/internal/models"
	"tutorly/internal/repository"
	"tutorly/pkg/payment"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type CheckoutHandler struct {
	orders   *repository.OrderRepository
	gateways map[payment.Provider]payment.Gateway
}

func NewCheckoutHandler(orders *repository.OrderRepository, gateways map[payment.Provider]payment.Gateway) *CheckoutHandler {
	return &CheckoutHandler{orders: orders, gateways: gateways}
}

type checkoutRequest struct {
	OrderID  uint   `json:"order_id" binding:"required"`
	Provider string `json:"provider" binding:"required"`
}

// Create builds a provider checkout for a pending order and returns the
// redirect URL the client should follow.
func (h *CheckoutHandler) Create(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order_id and provider required"})
		return
	}
	gw, ok := h.gateways[payment.Provider(req.Provider)]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown provider"})
		return
	}
	order, err := h.orders.GetByID(req.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "order lookup failed"})
		return
	}
	if order.Status != models.OrderStatusPending {
		c.JSON(http.StatusConflict, gin.H{"error": "order already paid"})
		return
	}

	checkout, err := gw.CreateCheckout(c.Request.Context(), payment.OrderInfo{
		ID:       order.ID,
		Gross:    order.GrossAmount,
		Discount: order.DiscountAmount,
		Total:    order.TotalAmount,
		Currency: order.Currency,
		Note:     fmt.Sprintf("Lesson package order %d", order.ID),
		ClientIP: c.ClientIP(),
		Status:   string(order.Status),
	})
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrProviderNotConfigured):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "provider not configured"})
		case errors.Is(err, payment.ErrOrderAlreadyPaid):
			c.JSON(http.StatusConflict, gin.H{"error": "order already paid"})
		default:
			logrus.WithError(err).WithFields(logrus.Fields{
				"order_id": order.ID,
				"provider": req.Provider,
			}).Error("checkout creation failed")
			// Surface the provider's own error text per the checkout
			// contract; it contains no internals of ours.
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"checkout_url":      checkout.CheckoutURL,
		"provider_order_id": checkout.ProviderOrderID,
	})
}
