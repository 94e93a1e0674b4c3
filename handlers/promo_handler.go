package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/mkamau77/safari_tours/database"
	"github.com/mkamau77/safari_tours/services"
)

type ValidatePromoRequest struct {
	Code        string  `json:"code" validate:"required"`
	TourID      *string `json:"tour_id,omitempty" validate:"omitempty,uuid"`
	TotalAmount float64 `json:"total_amount" validate:"required,gt=0"`
}

// ValidatePromoCode lets a client price a code before committing a booking.
// The booking flow re-validates server side regardless of what the client saw.
func ValidatePromoCode(c *fiber.Ctx) error {
	var req ValidatePromoRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var tourID *uuid.UUID
	if req.TourID != nil {
		id, _ := uuid.Parse(*req.TourID)
		tourID = &id
	}

	result, err := services.ValidatePromo(database.DB, req.Code, tourID, req.TotalAmount)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to validate promo code"})
	}
	return c.JSON(result)
}
