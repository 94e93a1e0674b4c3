package routes

import (
	"github.com/mkamau77/safari_tours/handlers"
	"github.com/gofiber/fiber/v2"
)

func PublicRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	api.Post("/auth/register", handlers.RegisterUser)
	api.Post("/auth/login", handlers.LoginUser)

	api.Get("/tours", handlers.ListTours)
	api.Get("/tours/:slug", handlers.GetTour)
}
