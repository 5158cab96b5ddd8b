// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/javajoker/keygen-bridge/internal/config"
	"github.com/javajoker/keygen-bridge/internal/handlers"
	"github.com/javajoker/keygen-bridge/internal/keygen"
	"github.com/javajoker/keygen-bridge/internal/middleware"
	"github.com/javajoker/keygen-bridge/internal/services"
	"github.com/javajoker/keygen-bridge/internal/utils"
)

const version = "1.0.0"

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Licensing service client
	keygenClient := keygen.NewClient(cfg.Keygen)

	// Initialize services
	mirrorStore := services.NewMirrorStore(db)
	orderStore := services.NewOrderStore(db)
	notificationService := services.NewNotificationService(cfg.Email)
	licenseService := services.NewLicenseService(keygenClient, mirrorStore)
	orderEventService := services.NewOrderEventService(licenseService, orderStore, mirrorStore, notificationService, cfg.Plugin)
	paymentService := services.NewPaymentService(cfg.Stripe, orderEventService)
	adminService := services.NewAdminService(db)

	// Initialize handlers
	storeHandler := handlers.NewStoreHandler(licenseService)
	keygenAdminHandler := handlers.NewKeygenAdminHandler(licenseService, keygenClient, orderEventService)
	webhookHandler := handlers.NewWebhookHandler(orderEventService, paymentService)
	adminHandler := handlers.NewAdminHandler(adminService)

	// Token settings
	utils.SetJWTSecret(cfg.JWT.SecretKey)
	utils.SetJWTIssuer(cfg.JWT.Issuer)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Server.AllowOrigins))
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.GeneralRateLimit())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": version,
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Webhooks authenticate by signature, not bearer token
		hooks := v1.Group("/hooks")
		hooks.Use(middleware.WebhookRateLimit())
		{
			hooks.POST("/keygen", middleware.VerifyKeygenWebhook(cfg.Keygen.WebhookSecret), webhookHandler.KeygenWebhook)
			hooks.POST("/stripe", webhookHandler.StripeWebhook)
		}

		// Customer routes
		store := v1.Group("/store")
		store.Use(middleware.AuthRequired())
		{
			me := store.Group("/me/licenses")
			{
				me.GET("", storeHandler.ListLicenses)
				me.GET("/:license_id", storeHandler.GetLicense)
				me.POST("/:license_id/download", middleware.ActivationRateLimit(), storeHandler.CreateDownload)
			}

			licensing := store.Group("/licensing")
			licensing.Use(middleware.ActivationRateLimit())
			{
				licensing.POST("/activate", storeHandler.Activate)
				licensing.DELETE("/devices/:machine_id", storeHandler.DeleteDevice)
			}
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		admin.Use(middleware.AuditLogMiddleware(adminService))
		{
			admin.GET("/dashboard/stats", adminHandler.GetDashboardStats)
			admin.GET("/audit-logs", adminHandler.GetAuditLogs)

			kg := admin.Group("/keygen")
			{
				kg.GET("/licenses/:order_id", keygenAdminHandler.GetOrderLicenses)
				kg.POST("/licenses/:order_id", keygenAdminHandler.CreateOrderLicense)
				kg.GET("/customers/:customer_id/licenses", keygenAdminHandler.GetCustomerLicenses)
				kg.DELETE("/machines/:machine_id", keygenAdminHandler.DeleteMachine)
				kg.GET("/policies", keygenAdminHandler.ListPolicies)
				kg.POST("/policies", keygenAdminHandler.CreatePolicy)
				kg.POST("/policies/clone", keygenAdminHandler.ClonePolicy)
				kg.GET("/entitlements", keygenAdminHandler.ListEntitlements)
				kg.POST("/validate", keygenAdminHandler.ValidateResource)
				kg.POST("/events", keygenAdminHandler.DispatchOrderEvent)
			}
		}
	}

	return r
}
