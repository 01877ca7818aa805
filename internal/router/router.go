// Package router defines how HTTP routes are registered for the API.
package router

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/vuhle/lingocenter/internal/handler"
	"github.com/vuhle/lingocenter/internal/middleware"
)

// Handlers bundles every handler the router wires up.
type Handlers struct {
	Registration *handler.RegistrationHandler
	Coupon       *handler.CouponHandler
	Payment      *handler.PaymentHandler
	AdminClass   *handler.AdminClassHandler
}

// RegisterRoutes registers all application routes.
//
// The IPN callback is deliberately outside every auth and rate-limit
// group: the gateway cannot authenticate, and throttling it would turn
// into an endless retry storm.  The redirect-URL endpoint is rate
// limited instead, since clients can request it in a loop.
func RegisterRoutes(e *echo.Echo, h Handlers, jwtSecret string, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)
	e.GET("/v1/payment/vnpay_ipn", h.Payment.IPN)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("STUDENT", "ADMIN"))

	auth.POST("/registrations", h.Registration.Create)
	auth.GET("/registrations", h.Registration.List)
	auth.GET("/registrations/user/:userId", h.Registration.ListByUser)
	auth.GET("/registrations/course/:courseId", h.Registration.ListByCourse)
	auth.GET("/registrations/:id", h.Registration.Get)
	auth.DELETE("/registrations/:id", h.Registration.Cancel)
	auth.PATCH("/registrations/:id/pay", h.Registration.Pay)

	auth.POST("/coupons/apply", h.Coupon.Apply)
	auth.POST("/payment/create_payment_url", h.Payment.CreatePaymentURL,
		middleware.RateLimit(rdb, 10, time.Minute))

	admin := e.Group("/v1")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireRole("ADMIN"))

	admin.DELETE("/registrations/multiple", h.Registration.CancelBatch)
	admin.PATCH("/registrations/:id/confirm-payment", h.Registration.ConfirmPayment)
	admin.GET("/admin/classes/stats", h.AdminClass.Stats)
	admin.POST("/admin/classes/decision", h.AdminClass.Decide)
}
