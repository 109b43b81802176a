package router

import (
	"time"

	"tutorly/config"
	"tutorly/internal/events"
	"tutorly/internal/handler"
	"tutorly/internal/metrics"
	"tutorly/internal/middleware"
	"tutorly/internal/repository"
	"tutorly/internal/service"
	"tutorly/pkg/payment"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	// Skip gin.Logger() to reduce log noise; use gin.Default() if you need request logging
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	orderRepo := repository.NewOrderRepository(db)
	reservationRepo := repository.NewReservationRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	calendarRepo := repository.NewCalendarRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	// Payment gateways share one credential cache so admin updates reach
	// every adapter at once.
	credCache := service.NewProviderConfigCache(settingRepo, cfg.ProviderDefaults(), cfg.Payment.CredentialTTL, nil)
	gateways := map[payment.Provider]payment.Gateway{
		payment.ProviderVNPay:   payment.NewVNPayGateway(credCache),
		payment.ProviderZaloPay: payment.NewZaloPayGateway(credCache),
		payment.ProviderMoMo:    payment.NewMoMoGateway(credCache),
		payment.ProviderPayPal:  payment.NewPayPalGateway(credCache),
	}

	var publisher events.Publisher
	if cfg.AMQP.URL != "" {
		publisher = events.NewAMQPPublisher(cfg.AMQP.URL)
	}

	// Services
	paymentMetrics := metrics.NewPaymentMetrics()
	scheduleSvc := service.NewScheduleService(calendarRepo, cfg.Payment.ScheduleOffsetDays, cfg.Payment.ScheduleBufferMin, cfg.Payment.DefaultTimezone)
	confirmationSvc := service.NewConfirmationService(orderRepo, reservationRepo, scheduleSvc, gateways, publisher, paymentMetrics)

	// Handlers
	orderHandler := handler.NewOrderHandler(orderRepo, reservationRepo, calendarRepo)
	checkoutHandler := handler.NewCheckoutHandler(orderRepo, gateways)
	vnpayHandler := handler.NewVNPayHandler(confirmationSvc)
	zalopayHandler := handler.NewZaloPayHandler(confirmationSvc)
	momoHandler := handler.NewMoMoHandler(confirmationSvc)
	paypalHandler := handler.NewPayPalHandler(confirmationSvc)
	availabilityHandler := handler.NewAvailabilityHandler(availabilityRepo)
	adminSettingsHandler := handler.NewAdminSettingsHandler(settingRepo, credCache)

	authMw := middleware.AuthRequired(&cfg.JWT)

	api := r.Group("/api/v1")
	{
		api.POST("/orders", authMw, orderHandler.Create)
		api.GET("/orders/:id/status", authMw, orderHandler.Status)
		api.GET("/orders/:id/calendar", authMw, orderHandler.Calendar)
		api.GET("/me/calendar", authMw, orderHandler.StudentCalendar)
		api.POST("/checkout", authMw, checkoutHandler.Create)

		payments := api.Group("/payments")
		{
			payments.GET("/vnpay/ipn", vnpayHandler.IPN)
			payments.GET("/vnpay/return", vnpayHandler.Return)
			payments.POST("/zalopay/callback", zalopayHandler.Callback)
			payments.POST("/momo/ipn", momoHandler.IPN)
			payments.GET("/momo/return", momoHandler.Return)
			payments.GET("/paypal/return", paypalHandler.Return)
		}

		teachers := api.Group("/teachers")
		{
			teachers.PUT("/availability", authMw, middleware.RequireRole("TEACHER"), availabilityHandler.Upsert)
			teachers.GET("/:id/availability", availabilityHandler.Get)
			teachers.POST("/:id/availability/match", availabilityHandler.Match)
		}

		admin := api.Group("/admin")
		admin.Use(authMw, middleware.RequireRole("ADMIN"))
		{
			admin.PUT("/settings/payment", adminSettingsHandler.UpdatePaymentSettings)
		}
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
