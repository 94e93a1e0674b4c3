package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/mkamau77/safari_tours/models"
	"gorm.io/gorm"
)

type CapacityResult struct {
	Allowed   bool `json:"allowed"`
	Committed int  `json:"committed"`
	Remaining int  `json:"remaining"`
}

// CheckCapacity sums the participants of all pending/confirmed bookings for
// the tour whose date range overlaps the requested one. Pure read: the
// admission decision and the insert happen in the caller's transaction, which
// must hold the tour row lock so two requests cannot both see spare capacity.
func CheckCapacity(db *gorm.DB, tour *models.Tour, start, end time.Time, requested int, excludeBookingID *uuid.UUID) (*CapacityResult, error) {
	query := db.Model(&models.Booking{}).
		Where("tour_id = ?", tour.ID).
		Where("status IN ?", []string{models.BookingStatusPending, models.BookingStatusConfirmed}).
		Where("start_date <= ? AND end_date >= ?", end, start)

	if excludeBookingID != nil {
		query = query.Where("id <> ?", *excludeBookingID)
	}

	var committed int
	if err := query.Select("COALESCE(SUM(adult_count + child_count), 0)").Scan(&committed).Error; err != nil {
		return nil, err
	}

	remaining := tour.MaxGroupSize - committed
	if remaining < 0 {
		remaining = 0
	}

	return &CapacityResult{
		Allowed:   committed+requested <= tour.MaxGroupSize,
		Committed: committed,
		Remaining: remaining,
	}, nil
}
