package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed"
)

type PromoCode struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Code          string    `gorm:"size:50;not null;unique" json:"code"`
	Description   *string   `gorm:"type:text" json:"description"`
	DiscountType  string    `gorm:"size:20;not null" json:"discount_type"`
	DiscountValue float64   `gorm:"type:numeric(10,2);not null" json:"discount_value"`
	MaxDiscount   *float64  `gorm:"type:numeric(10,2)" json:"max_discount"`

	ValidFrom  time.Time `gorm:"not null" json:"valid_from"`
	ValidUntil time.Time `gorm:"not null" json:"valid_until"`

	UsageLimit     *int     `json:"usage_limit"`
	UsageCount     int      `gorm:"default:0" json:"usage_count"`
	MinOrderAmount *float64 `gorm:"type:numeric(10,2)" json:"min_order_amount"`

	AppliesToTours bool `gorm:"default:true" json:"applies_to_tours"`
	IsActive       bool `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
