package routes

import (
	"velora_back_end/internal/handlers"
	adminhandlers "velora_back_end/internal/handlers/admin"
	"velora_back_end/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")
	api.Use(middleware.APIRateLimit())

	authed := api.Group("")
	authed.Use(middleware.AuthRequired())

	// Panier
	authed.GET("/cart", handlers.GetCart)
	authed.POST("/cart/items", middleware.CartRateLimit(), handlers.AddToCart)
	authed.PUT("/cart/items/:productId", handlers.UpdateCartItem)
	authed.DELETE("/cart/items/:productId", handlers.RemoveFromCart)
	authed.GET("/cart/ws", handlers.CartWebSocket)

	// Commandes
	authed.POST("/orders", middleware.CheckoutRateLimit(), handlers.PlaceOrder)
	authed.GET("/orders", handlers.GetMyOrders)
	authed.GET("/orders/:id", handlers.GetOrder)

	// Admin
	admin := authed.Group("/admin")
	admin.Use(middleware.RequireAdmin)
	admin.GET("/orders", handlers.GetAllOrders)
	admin.GET("/orders/stats", handlers.GetOrderStats)
	admin.POST("/orders/:id/status", handlers.UpdateOrderStatus)

	// Audit
	admin.GET("/audit", adminhandlers.GetAuditLogs)
	admin.GET("/audit/:resource/:resource_id", adminhandlers.GetAuditLogsByResource)
}
