package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mkamau77/safari_tours/database"
	"github.com/mkamau77/safari_tours/models"
)

func ListTours(c *fiber.Ctx) error {
	var tours []models.Tour
	if err := database.DB.Where("is_active = ?", true).Order("title asc").Find(&tours).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load tours"})
	}
	return c.JSON(tours)
}

func GetTour(c *fiber.Ctx) error {
	var tour models.Tour
	if err := database.DB.First(&tour, "slug = ?", c.Params("slug")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Tour not found"})
	}
	return c.JSON(tour)
}
