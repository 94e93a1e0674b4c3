package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/mkamau77/safari_tours/database"
	"github.com/mkamau77/safari_tours/models"
	"github.com/mkamau77/safari_tours/services"
)

type UpdateBookingStatusRequest struct {
	Status string `json:"status" validate:"required"`
	Reason string `json:"reason" validate:"required"`
}

// UpdateBookingStatus is the administrative override used for manual
// correction; the acting admin and reason land in the audit trail.
func UpdateBookingStatus(c *fiber.Ctx) error {
	actorID := currentUserID(c)
	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking ID format"})
	}

	var req UpdateBookingStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	booking, err := services.NewBookingService(database.DB).UpdateBookingStatus(bookingID, req.Status, req.Reason, actorID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(booking)
}

type RefundPaymentRequest struct {
	Amount *float64 `json:"amount,omitempty" validate:"omitempty,gt=0"`
	Reason string   `json:"reason" validate:"required"`
}

func RefundPayment(c *fiber.Ctx) error {
	actorID := currentUserID(c)
	paymentID, err := uuid.Parse(c.Params("paymentId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment ID format"})
	}

	var req RefundPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	payment, err := services.NewPaymentService(database.DB).RefundPayment(services.RefundInput{
		PaymentID: paymentID,
		Amount:    req.Amount,
		Reason:    req.Reason,
	}, actorID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(payment)
}

type CreatePromoCodeRequest struct {
	Code           string   `json:"code" validate:"required,min=3,max=50"`
	Description    *string  `json:"description,omitempty"`
	DiscountType   string   `json:"discount_type" validate:"required,oneof=percentage fixed"`
	DiscountValue  float64  `json:"discount_value" validate:"required,gt=0"`
	MaxDiscount    *float64 `json:"max_discount,omitempty" validate:"omitempty,gt=0"`
	ValidFrom      string   `json:"valid_from" validate:"required,datetime=2006-01-02"`
	ValidUntil     string   `json:"valid_until" validate:"required,datetime=2006-01-02"`
	UsageLimit     *int     `json:"usage_limit,omitempty" validate:"omitempty,gt=0"`
	MinOrderAmount *float64 `json:"min_order_amount,omitempty" validate:"omitempty,gt=0"`
	AppliesToTours *bool    `json:"applies_to_tours,omitempty"`
}

func CreatePromoCode(c *fiber.Ctx) error {
	var req CreatePromoCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	validFrom, _ := time.Parse("2006-01-02", req.ValidFrom)
	validUntil, _ := time.Parse("2006-01-02", req.ValidUntil)
	if !validUntil.After(validFrom) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "valid_until must be after valid_from"})
	}

	promo := models.PromoCode{
		Code:           services.NormalizePromoCode(req.Code),
		Description:    req.Description,
		DiscountType:   req.DiscountType,
		DiscountValue:  req.DiscountValue,
		MaxDiscount:    req.MaxDiscount,
		ValidFrom:      validFrom,
		ValidUntil:     validUntil.Add(24*time.Hour - time.Second),
		UsageLimit:     req.UsageLimit,
		MinOrderAmount: req.MinOrderAmount,
		AppliesToTours: true,
		IsActive:       true,
	}
	if req.AppliesToTours != nil {
		promo.AppliesToTours = *req.AppliesToTours
	}

	if err := database.DB.Create(&promo).Error; err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A promo code with this code already exists"})
	}
	return c.Status(fiber.StatusCreated).JSON(promo)
}

func TogglePromoCode(c *fiber.Ctx) error {
	promoID, err := uuid.Parse(c.Params("promoId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid promo ID format"})
	}

	var promo models.PromoCode
	if err := database.DB.First(&promo, "id = ?", promoID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Promo code not found"})
	}

	promo.IsActive = !promo.IsActive
	if err := database.DB.Save(&promo).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update promo code"})
	}
	return c.JSON(promo)
}

func ListPromoCodes(c *fiber.Ctx) error {
	var promos []models.PromoCode
	if err := database.DB.Order("created_at desc").Find(&promos).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load promo codes"})
	}
	return c.JSON(promos)
}

func ListAuditLogs(c *fiber.Ctx) error {
	var logs []models.AuditLog
	query := database.DB.Order("created_at desc").Limit(200)
	if entity := c.Query("entity_type"); entity != "" {
		query = query.Where("entity_type = ?", entity)
	}
	if err := query.Find(&logs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load audit logs"})
	}
	return c.JSON(logs)
}
