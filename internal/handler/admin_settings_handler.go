package handler

import (
	"net/http"

	"tutorly/internal/repository"
	"tutorly/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AdminSettingsHandler updates payment-provider settings at runtime and
// invalidates the credential cache so the change is picked up without a
// restart.
type AdminSettingsHandler struct {
	settings *repository.SettingRepository
	cache    *service.ProviderConfigCache
}

func NewAdminSettingsHandler(settings *repository.SettingRepository, cache *service.ProviderConfigCache) *AdminSettingsHandler {
	return &AdminSettingsHandler{settings: settings, cache: cache}
}

type paymentSettingsRequest struct {
	Provider string            `json:"provider" binding:"required"`
	Values   map[string]string `json:"values" binding:"required"`
}

func (h *AdminSettingsHandler) UpdatePaymentSettings(c *gin.Context) {
	var req paymentSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "provider and values required"})
		return
	}
	for k, v := range req.Values {
		if err := h.settings.Set("payment."+req.Provider+"."+k, v); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "settings update failed"})
			return
		}
	}
	h.cache.Invalidate(req.Provider)
	logrus.WithField("provider", req.Provider).Info("payment settings updated")
	c.JSON(http.StatusOK, gin.H{"updated": len(req.Values)})
}
