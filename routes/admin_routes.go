package routes

import (
	"github.com/mkamau77/safari_tours/handlers"
	"github.com/mkamau77/safari_tours/middleware"
	"github.com/gofiber/fiber/v2"
)

func AdminRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	admin := api.Group("/admin", middleware.Protected(), middleware.AdminRequired())
	admin.Patch("/bookings/:bookingId/status", handlers.UpdateBookingStatus)
	admin.Post("/payments/:paymentId/refund", handlers.RefundPayment)
	admin.Post("/promo-codes", handlers.CreatePromoCode)
	admin.Patch("/promo-codes/:promoId/toggle", handlers.TogglePromoCode)
	admin.Get("/promo-codes", handlers.ListPromoCodes)
	admin.Get("/audit-logs", handlers.ListAuditLogs)
}
