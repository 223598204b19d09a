package handler

import (
	"vendor-service/internal/middleware"

	"github.com/labstack/echo/v4"
)

// Handlers groups every HTTP handler of the service
type Handlers struct {
	Health         *HealthHandler
	Auth           *AuthHandler
	Vendors        *VendorHandler
	PurchaseOrders *PurchaseOrderHandler
}

// RegisterRoutes mounts the public and the admin-only routes on e
func RegisterRoutes(e *echo.Echo, h *Handlers) {
	// Public routes that don't require authentication
	e.GET("/", h.Health.Hello)
	e.GET("/health", h.Health.Health)

	api := e.Group("/api")
	api.POST("/admin-tokens", h.Auth.Login)
	api.POST("/admin_refresh_token", h.Auth.Refresh)

	// API routes that require an admin access token
	secured := api.Group("", middleware.AuthMiddleware)

	vendors := secured.Group("/vendors")
	vendors.POST("", h.Vendors.Create)
	vendors.GET("", h.Vendors.List)
	vendors.GET("/:id", h.Vendors.Get)
	vendors.PUT("/:id", h.Vendors.Update)
	vendors.DELETE("/:id", h.Vendors.Delete)
	vendors.GET("/:id/performance", h.Vendors.Performance)
	vendors.GET("/:id/history", h.Vendors.History)

	orders := secured.Group("/purchase_orders")
	orders.POST("", h.PurchaseOrders.Create)
	orders.GET("", h.PurchaseOrders.List)
	orders.GET("/:id", h.PurchaseOrders.Get)
	orders.PUT("/:id", h.PurchaseOrders.Update)
	orders.DELETE("/:id", h.PurchaseOrders.Delete)
	orders.POST("/:id/acknowledge", h.PurchaseOrders.Acknowledge)
}
