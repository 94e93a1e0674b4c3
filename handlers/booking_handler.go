package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/mkamau77/safari_tours/database"
	"github.com/mkamau77/safari_tours/services"
)

type ParticipantRequest struct {
	FullName string  `json:"full_name" validate:"required"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone    *string `json:"phone,omitempty"`
	Dietary  *string `json:"dietary,omitempty"`
	Medical  *string `json:"medical,omitempty"`
}

type CreateBookingRequest struct {
	TourID       string               `json:"tour_id" validate:"required,uuid"`
	StartDate    string               `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate      string               `json:"end_date" validate:"required,datetime=2006-01-02"`
	AdultCount   int                  `json:"adult_count" validate:"required,min=1"`
	ChildCount   int                  `json:"child_count" validate:"min=0"`
	PromoCode    *string              `json:"promo_code,omitempty"`
	Participants []ParticipantRequest `json:"participants" validate:"dive"`
	Notes        *string              `json:"notes,omitempty"`
}

// respondServiceError translates a typed service failure into the HTTP reply.
func respondServiceError(c *fiber.Ctx, err error) error {
	return c.Status(services.StatusCode(err)).JSON(fiber.Map{"error": err.Error()})
}

func CreateBooking(c *fiber.Ctx) error {
	ownerID := currentUserID(c)

	var req CreateBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	tourID, _ := uuid.Parse(req.TourID)
	startDate, _ := time.Parse("2006-01-02", req.StartDate)
	endDate, _ := time.Parse("2006-01-02", req.EndDate)

	input := services.CreateBookingInput{
		TourID:     tourID,
		StartDate:  startDate,
		EndDate:    endDate,
		AdultCount: req.AdultCount,
		ChildCount: req.ChildCount,
		PromoCode:  req.PromoCode,
		Notes:      req.Notes,
	}
	for _, p := range req.Participants {
		input.Participants = append(input.Participants, services.ParticipantInput{
			FullName: p.FullName,
			Email:    p.Email,
			Phone:    p.Phone,
			Dietary:  p.Dietary,
			Medical:  p.Medical,
		})
	}

	booking, err := services.NewBookingService(database.DB).CreateBooking(input, ownerID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(booking)
}

type UpdateBookingRequest struct {
	StartDate  *string `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate    *string `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	AdultCount *int    `json:"adult_count,omitempty" validate:"omitempty,min=1"`
	ChildCount *int    `json:"child_count,omitempty" validate:"omitempty,min=0"`
	Notes      *string `json:"notes,omitempty"`
}

func UpdateBooking(c *fiber.Ctx) error {
	ownerID := currentUserID(c)
	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking ID format"})
	}

	var req UpdateBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	input := services.UpdateBookingInput{
		AdultCount: req.AdultCount,
		ChildCount: req.ChildCount,
		Notes:      req.Notes,
	}
	if req.StartDate != nil {
		start, _ := time.Parse("2006-01-02", *req.StartDate)
		input.StartDate = &start
	}
	if req.EndDate != nil {
		end, _ := time.Parse("2006-01-02", *req.EndDate)
		input.EndDate = &end
	}

	booking, err := services.NewBookingService(database.DB).UpdateBooking(bookingID, input, ownerID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(booking)
}

type CancelBookingRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func CancelBooking(c *fiber.Ctx) error {
	ownerID := currentUserID(c)
	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking ID format"})
	}

	var req CancelBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	booking, err := services.NewBookingService(database.DB).CancelBooking(bookingID, req.Reason, ownerID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Booking cancelled. Refunds, where applicable, are handled separately by our support team.",
		"booking": booking,
	})
}

func GetMyBookings(c *fiber.Ctx) error {
	ownerID := currentUserID(c)
	bookings, err := services.NewBookingService(database.DB).ListBookings(ownerID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load bookings"})
	}
	return c.JSON(bookings)
}

func GetBooking(c *fiber.Ctx) error {
	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking ID format"})
	}

	booking, err := services.NewBookingService(database.DB).GetBooking(bookingID, currentUserID(c), isAdmin(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(booking)
}

func DownloadReceipt(c *fiber.Ctx) error {
	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking ID format"})
	}

	pdf, filename, err := services.NewReceiptService(database.DB).GenerateReceipt(bookingID, currentUserID(c), isAdmin(c))
	if err != nil {
		return respondServiceError(c, err)
	}

	c.Set("Content-Type", "application/pdf")
	c.Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	return c.Send(pdf)
}
