package services

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mkamau77/safari_tours/models"
	"gorm.io/gorm"
)

type PromoResult struct {
	Valid          bool              `json:"valid"`
	Message        string            `json:"message,omitempty"`
	DiscountAmount float64           `json:"discount_amount,omitempty"`
	Promo          *models.PromoCode `json:"-"`
}

func invalidPromo(message string) *PromoResult {
	return &PromoResult{Valid: false, Message: message}
}

// ValidatePromo runs the eligibility checks in order, short-circuiting on the
// first failure. It never increments the usage count; that happens inside the
// booking commit so failed attempts are not counted.
func ValidatePromo(db *gorm.DB, code string, tourID *uuid.UUID, totalAmount float64) (*PromoResult, error) {
	normalized := NormalizePromoCode(code)

	var promo models.PromoCode
	if err := db.Where("code = ?", normalized).First(&promo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalidPromo("Invalid promo code"), nil
		}
		return nil, err
	}

	if !promo.IsActive {
		return invalidPromo("This promo code is no longer active"), nil
	}

	now := time.Now()
	if now.Before(promo.ValidFrom) {
		return invalidPromo("This promo code is not valid yet"), nil
	}
	if now.After(promo.ValidUntil) {
		return invalidPromo("This promo code has expired"), nil
	}

	if promo.UsageLimit != nil && promo.UsageCount >= *promo.UsageLimit {
		return invalidPromo("This promo code has reached its usage limit"), nil
	}

	if promo.MinOrderAmount != nil && totalAmount < *promo.MinOrderAmount {
		return invalidPromo("Order amount is too low for this promo code"), nil
	}

	if tourID != nil && !promo.AppliesToTours {
		return invalidPromo("This promo code does not apply to tours"), nil
	}

	return &PromoResult{
		Valid:          true,
		DiscountAmount: ComputeDiscount(&promo, totalAmount),
		Promo:          &promo,
	}, nil
}

// ComputeDiscount applies a percentage discount clamped to the promo's max
// discount, or a fixed amount verbatim.
func ComputeDiscount(promo *models.PromoCode, totalAmount float64) float64 {
	if promo.DiscountType == models.DiscountTypePercentage {
		discount := totalAmount * promo.DiscountValue / 100
		if promo.MaxDiscount != nil && discount > *promo.MaxDiscount {
			discount = *promo.MaxDiscount
		}
		return discount
	}
	return promo.DiscountValue
}

// IncrementPromoUsage bumps the running usage count atomically. Must run in
// the same transaction as the booking insert.
func IncrementPromoUsage(tx *gorm.DB, code string) error {
	return tx.Model(&models.PromoCode{}).
		Where("code = ?", NormalizePromoCode(code)).
		Update("usage_count", gorm.Expr("usage_count + 1")).Error
}

func NormalizePromoCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
