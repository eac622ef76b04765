package router

import (
	"nal/config"
	"nal/internal/handler"
	"nal/internal/middleware"
	"nal/internal/repository"
	"nal/internal/service"
	"nal/pkg/payment"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, gateway payment.Gateway, notifier service.Notifier) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(100))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	webhookRepo := repository.NewWebhookEventRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Services
	authSvc := service.NewAuthService(cfg, userRepo)
	bookingSvc := service.NewBookingService(bookingRepo, propertyRepo, notifier, cfg.Booking.VirtualTourBase, cfg.Booking.SlotRangeDays)
	paymentSvc := service.NewPaymentService(transactionRepo, webhookRepo, propertyRepo, gateway, notifier)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	propertyHandler := handler.NewPropertyHandler(propertyRepo)
	bookingHandler := handler.NewBookingHandler(bookingSvc)
	paymentHandler := handler.NewPaymentHandler(paymentSvc)
	webhookHandler := handler.NewPaymentWebhookHandler(paymentSvc, cfg)
	notificationHandler := handler.NewNotificationHandler(notificationRepo)

	authMw := middleware.AuthRequired(&cfg.JWT)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
		}

		properties := api.Group("/properties")
		{
			properties.POST("", authMw, propertyHandler.Create)
			properties.GET("", propertyHandler.List)
			properties.GET("/:id", propertyHandler.Get)
		}

		bookings := api.Group("/bookings")
		bookings.Use(authMw)
		{
			bookings.POST("", bookingHandler.Create)
			bookings.GET("", bookingHandler.List)
			bookings.GET("/slots/:property_id", bookingHandler.AvailableSlots)
			bookings.GET("/:id", bookingHandler.Get)
			bookings.PUT("/:id/status", bookingHandler.UpdateStatus)
		}

		payments := api.Group("/payments")
		{
			payments.POST("/initiate", authMw, paymentHandler.Initiate)
			payments.POST("/:id/confirm", authMw, paymentHandler.Confirm)
			payments.GET("/transactions", authMw, paymentHandler.ListTransactions)
			payments.POST("/webhooks/:provider", webhookHandler.Handle)
		}

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("/notifications", notificationHandler.List)
			me.PUT("/notifications/:id/read", notificationHandler.MarkRead)
		}
	}

	return r
}
