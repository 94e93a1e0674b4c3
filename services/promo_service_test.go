package services

import (
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/mkamau77/safari_tours/models"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func promoColumns() []string {
	return []string{
		"id", "code", "description", "discount_type", "discount_value", "max_discount",
		"valid_from", "valid_until", "usage_limit", "usage_count", "min_order_amount",
		"applies_to_tours", "is_active", "created_at", "updated_at",
	}
}

func TestComputeDiscountPercentageCapped(t *testing.T) {
	promo := &models.PromoCode{
		DiscountType:  models.DiscountTypePercentage,
		DiscountValue: 10,
		MaxDiscount:   floatPtr(50),
	}

	if got := ComputeDiscount(promo, 1000); got != 50 {
		t.Errorf("expected discount capped at 50, got %.2f", got)
	}
	if got := ComputeDiscount(promo, 200); got != 20 {
		t.Errorf("expected 10%% of 200 = 20, got %.2f", got)
	}
}

func TestComputeDiscountPercentageUncapped(t *testing.T) {
	promo := &models.PromoCode{
		DiscountType:  models.DiscountTypePercentage,
		DiscountValue: 25,
	}

	if got := ComputeDiscount(promo, 800); got != 200 {
		t.Errorf("expected 200, got %.2f", got)
	}
}

func TestComputeDiscountFixed(t *testing.T) {
	promo := &models.PromoCode{
		DiscountType:  models.DiscountTypeFixed,
		DiscountValue: 75,
	}

	if got := ComputeDiscount(promo, 100); got != 75 {
		t.Errorf("expected fixed 75, got %.2f", got)
	}
}

func TestNormalizePromoCode(t *testing.T) {
	if got := NormalizePromoCode("  summer20 "); got != "SUMMER20" {
		t.Errorf("expected SUMMER20, got %q", got)
	}
}

func TestValidatePromoUnknownCode(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT \* FROM "promo_codes"`).
		WillReturnRows(sqlmock.NewRows(promoColumns()))

	result, err := ValidatePromo(db, "NOPE", nil, 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Valid {
		t.Error("expected unknown code to be invalid")
	}
	if result.Message != "Invalid promo code" {
		t.Errorf("unexpected message %q", result.Message)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestValidatePromoChecksInOrder(t *testing.T) {
	now := time.Now()

	cases := []struct {
		name    string
		mutate  func(row []driverValue)
		message string
	}{
		{
			name:    "inactive wins over everything else",
			mutate:  func(row []driverValue) { row[12] = false; row[7] = now.Add(-time.Hour) },
			message: "This promo code is no longer active",
		},
		{
			name:    "not yet valid",
			mutate:  func(row []driverValue) { row[6] = now.Add(time.Hour) },
			message: "This promo code is not valid yet",
		},
		{
			name:    "expired",
			mutate:  func(row []driverValue) { row[7] = now.Add(-time.Hour) },
			message: "This promo code has expired",
		},
		{
			name:    "usage limit reached",
			mutate:  func(row []driverValue) { row[8] = 3; row[9] = 3 },
			message: "This promo code has reached its usage limit",
		},
		{
			name:    "order too small",
			mutate:  func(row []driverValue) { row[10] = 1000.0 },
			message: "Order amount is too low for this promo code",
		},
		{
			name:    "not applicable to tours",
			mutate:  func(row []driverValue) { row[11] = false },
			message: "This promo code does not apply to tours",
		},
	}

	tourID := uuid.New()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMockDB(t)

			row := []driverValue{
				uuid.NewString(), "SUMMER20", nil, models.DiscountTypePercentage, 10.0, 50.0,
				now.Add(-24 * time.Hour), now.Add(24 * time.Hour), nil, 0, nil,
				true, true, now, now,
			}
			tc.mutate(row)
			mock.ExpectQuery(`SELECT \* FROM "promo_codes"`).
				WillReturnRows(sqlmock.NewRows(promoColumns()).AddRow(row...))

			result, err := ValidatePromo(db, "summer20", &tourID, 500)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Valid {
				t.Fatal("expected invalid result")
			}
			if result.Message != tc.message {
				t.Errorf("expected %q, got %q", tc.message, result.Message)
			}
		})
	}
}

func TestValidatePromoSuccess(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT \* FROM "promo_codes"`).
		WillReturnRows(sqlmock.NewRows(promoColumns()).AddRow(
			uuid.NewString(), "SUMMER20", nil, models.DiscountTypePercentage, 10.0, 50.0,
			now.Add(-24*time.Hour), now.Add(24*time.Hour), intPtr(100), 5, floatPtr(100),
			true, true, now, now,
		))

	tourID := uuid.New()
	result, err := ValidatePromo(db, "summer20", &tourID, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Valid {
		t.Fatalf("expected valid result, got message %q", result.Message)
	}
	if result.DiscountAmount != 50 {
		t.Errorf("expected discount 50, got %.2f", result.DiscountAmount)
	}
	if result.Promo == nil || result.Promo.Code != "SUMMER20" {
		t.Error("expected promo record on result")
	}
}

type driverValue = driver.Value
