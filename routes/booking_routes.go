package routes

import (
	"time"

	"github.com/mkamau77/safari_tours/handlers"
	"github.com/mkamau77/safari_tours/middleware"
	"github.com/gofiber/fiber/v2"
)

func BookingRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	booking := api.Group("/bookings", middleware.Protected())
	booking.Get("/me", handlers.GetMyBookings)
	booking.Post("", middleware.RateLimit("create_booking", 10, time.Minute), handlers.CreateBooking)
	booking.Get("/:bookingId", handlers.GetBooking)
	booking.Patch("/:bookingId", handlers.UpdateBooking)
	booking.Post("/:bookingId/cancel", handlers.CancelBooking)
	booking.Get("/:bookingId/receipt", handlers.DownloadReceipt)

	promo := api.Group("/promo", middleware.Protected())
	promo.Post("/validate", handlers.ValidatePromoCode)
}
