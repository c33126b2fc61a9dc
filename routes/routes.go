package routes

import (
	"honeymart/internal/handlers"
	"honeymart/internal/middleware"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Cart     *handlers.CartHandler
	Coupon   *handlers.CouponHandler
	Checkout *handlers.CheckoutHandler
	Order    *handlers.OrderHandler
	Shipping *handlers.ShippingHandler
}

// Setup registers the full API surface: customer cart/checkout/order routes,
// the admin lifecycle routes, and the public carrier webhook.
func Setup(r *gin.RouterGroup, h *Handlers, jwtSecret string) {
	// Carrier callbacks carry no user token.
	r.POST("/shipping/webhook", h.Shipping.HandleTrackingWebhook)

	cart := r.Group("/cart")
	cart.Use(middleware.AuthRequired(jwtSecret))
	{
		cart.GET("", h.Cart.GetCart)
		cart.POST("/items", h.Cart.AddItem)
		cart.PUT("/items", h.Cart.UpdateItem)
		cart.DELETE("/items", h.Cart.RemoveItem)
		cart.DELETE("", h.Cart.ClearCart)
		cart.POST("/coupon", h.Coupon.ApplyCoupon)
		cart.DELETE("/coupon", h.Coupon.RemoveCoupon)
	}

	checkout := r.Group("/checkout")
	checkout.Use(middleware.AuthRequired(jwtSecret))
	{
		checkout.POST("", h.Checkout.Checkout)
		checkout.POST("/verify", h.Checkout.VerifyPayment)
	}

	orders := r.Group("/orders")
	orders.Use(middleware.AuthRequired(jwtSecret))
	{
		orders.GET("", h.Order.ListOrders)
		orders.GET("/:id", h.Order.GetOrder)
		orders.POST("/:id/cancel", h.Order.CancelOrder)
		orders.POST("/:id/return", h.Order.RequestReturn)
	}

	admin := r.Group("/admin")
	admin.Use(middleware.AuthRequired(jwtSecret), middleware.AdminRequired())
	{
		admin.GET("/orders", h.Order.AdminListOrders)
		admin.GET("/orders/:id", h.Order.AdminGetOrder)
		admin.PUT("/orders/:id/status", h.Order.UpdateStatus)
		admin.POST("/orders/:id/ship", h.Shipping.CreateShipment)
		admin.PUT("/orders/:id/return", h.Order.ResolveReturn)

		admin.GET("/coupons", h.Coupon.ListCoupons)
		admin.POST("/coupons", h.Coupon.CreateCoupon)
		admin.PUT("/coupons/:id", h.Coupon.UpdateCoupon)
		admin.DELETE("/coupons/:id", h.Coupon.DeleteCoupon)
	}
}
