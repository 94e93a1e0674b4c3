package routes

import (
	"time"

	"github.com/mkamau77/safari_tours/handlers"
	"github.com/mkamau77/safari_tours/middleware"
	"github.com/gofiber/fiber/v2"
)

func PaymentRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	// Webhook endpoints are authenticated by signature, not by JWT.
	api.Post("/webhooks/stripe", handlers.HandleStripeWebhook)
	api.Post("/webhooks/flutterwave", handlers.HandleFlutterwaveWebhook)

	pay := api.Group("/payments", middleware.Protected())
	pay.Post("", middleware.RateLimit("initialize_payment", 10, time.Minute), handlers.InitializePayment)
	pay.Post("/:paymentId/confirm", handlers.ConfirmPayment)
}
