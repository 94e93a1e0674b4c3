package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/mkamau77/safari_tours/database"
	"github.com/mkamau77/safari_tours/services"
)

type InitializePaymentRequest struct {
	BookingID   string `json:"booking_id" validate:"required,uuid"`
	Gateway     string `json:"gateway" validate:"required,oneof=stripe flutterwave"`
	Currency    string `json:"currency" validate:"required,len=3"`
	Email       string `json:"email" validate:"required,email"`
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name" validate:"required"`
	RedirectURL string `json:"redirect_url,omitempty" validate:"omitempty,url"`
}

func InitializePayment(c *fiber.Ctx) error {
	ownerID := currentUserID(c)

	var req InitializePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	bookingID, _ := uuid.Parse(req.BookingID)
	handoff, err := services.NewPaymentService(database.DB).CreatePayment(services.CreatePaymentInput{
		BookingID:   bookingID,
		Gateway:     req.Gateway,
		Currency:    req.Currency,
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		RedirectURL: req.RedirectURL,
	}, ownerID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(handoff)
}

// ConfirmPayment polls the gateway synchronously; the usual path to a
// completed payment is still the webhook, this exists for clients returning
// from a checkout flow.
func ConfirmPayment(c *fiber.Ctx) error {
	ownerID := currentUserID(c)
	paymentID, err := uuid.Parse(c.Params("paymentId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment ID format"})
	}

	payment, err := services.NewPaymentService(database.DB).ConfirmPayment(paymentID, ownerID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(payment)
}
