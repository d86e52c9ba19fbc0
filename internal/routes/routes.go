package routes

import (
	"time"

	"github.com/gin-gonic/gin"

	"fleuris_back_end/internal/handlers"
	"fleuris_back_end/internal/middleware"
)

// Deps regroupe les handlers et middlewares construits au démarrage.
type Deps struct {
	Products  *handlers.ProductHandler
	Cart      *handlers.CartHandler
	Checkout  *handlers.CheckoutHandler
	Orders    *handlers.OrderHandler
	Stock     *handlers.StockHandler
	Images    *handlers.ImageHandler
	Webhook   *handlers.WebhookHandler
	Limiter   *middleware.RateLimiter
	JWTSecret []byte
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	api := r.Group("/api")
	api.Use(d.Limiter.Limit("api", 300, time.Minute))

	// Public
	api.GET("/products", d.Products.List)
	api.GET("/products/:id", d.Products.Get)
	api.GET("/stock/:id/check", d.Stock.Check)
	api.GET("/track/:token", d.Orders.Track)

	// Le webhook Stripe est signé, pas authentifié.
	api.POST("/webhook/stripe", d.Limiter.Limit("webhook", 120, time.Minute), d.Webhook.HandleStripe)

	// Checkout : identité optionnelle (commandes invité autorisées).
	api.POST("/checkout",
		d.Limiter.Limit("checkout", 10, time.Minute),
		middleware.OptionalAuth(d.JWTSecret),
		d.Checkout.Checkout)

	// Authentifié
	auth := api.Group("")
	auth.Use(middleware.AuthRequired(d.JWTSecret))
	{
		auth.GET("/cart", d.Cart.Get)
		auth.POST("/cart", d.Cart.Replace)
		auth.POST("/cart/add", d.Cart.Add)
		auth.PUT("/cart/line", d.Cart.UpdateLine)
		auth.DELETE("/cart/line", d.Cart.RemoveLine)
		auth.POST("/cart/merge", d.Cart.Merge)
		auth.DELETE("/cart", d.Cart.Clear)

		auth.GET("/orders", d.Orders.ListMine)
		auth.GET("/orders/:id", d.Orders.GetMine)
	}

	// Back-office
	admin := api.Group("/admin")
	admin.Use(middleware.AuthRequired(d.JWTSecret), middleware.RequireAdmin,
		d.Limiter.Limit("admin", 120, time.Minute))
	{
		admin.GET("/products", d.Products.AdminList)
		admin.POST("/products", d.Products.Create)
		admin.PUT("/products/:id", d.Products.Update)
		admin.DELETE("/products/:id", d.Products.Delete)

		admin.POST("/images", d.Images.Upload)

		admin.GET("/orders", d.Orders.AdminList)
		admin.PUT("/orders/:id/status", d.Orders.AdminUpdateStatus)
		admin.POST("/orders/:id/cancel", d.Orders.AdminCancel)

		admin.POST("/stock/:id/add", d.Stock.Add)
		admin.GET("/stock/:id/movements", d.Stock.Movements)
		admin.GET("/stock/low", d.Stock.LowStock)
	}
}
