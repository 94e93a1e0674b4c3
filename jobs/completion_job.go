package jobs

import (
	"log"
	"time"

	"github.com/mkamau77/safari_tours/database"
	"github.com/mkamau77/safari_tours/models"
	"github.com/mkamau77/safari_tours/services"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CompleteElapsedTrips moves confirmed bookings whose end date has passed to
// completed. This is the time-based trigger for the confirmed -> completed
// transition.
func CompleteElapsedTrips() {
	log.Println("Running job: CompleteElapsedTrips...")

	var elapsed []models.Booking
	err := database.DB.
		Where("status = ? AND end_date < ?", models.BookingStatusConfirmed, time.Now()).
		Find(&elapsed).Error
	if err != nil {
		log.Printf("Error loading elapsed trips: %v", err)
		return
	}

	if len(elapsed) == 0 {
		log.Println("No elapsed trips found.")
		return
	}

	completed := 0
	for _, candidate := range elapsed {
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			// Re-read under the row lock: a refund or cancellation may have
			// landed since the scan, and must not be overwritten.
			var booking models.Booking
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&booking, "id = ?", candidate.ID).Error; err != nil {
				return err
			}
			if !models.BookingStatusAllowed(booking.Status, models.BookingStatusCompleted) {
				return nil
			}

			from := booking.Status
			booking.Status = models.BookingStatusCompleted
			if err := tx.Save(&booking).Error; err != nil {
				return err
			}
			completed++
			return services.RecordTransition(tx, nil, "booking", booking.ID,
				from, models.BookingStatusCompleted, nil)
		})
		if err != nil {
			log.Printf("Failed to complete booking %s: %v", candidate.BookingNumber, err)
		}
	}

	log.Printf("Marked %d booking(s) as completed.", completed)
}

// PurgeExpiredRateLimits drops rate-limit counters whose window has passed.
func PurgeExpiredRateLimits() {
	result := database.DB.Where("expires_at < ?", time.Now()).Delete(&models.RateLimitCounter{})
	if result.Error != nil {
		log.Printf("Error purging rate limit counters: %v", result.Error)
		return
	}
	if result.RowsAffected > 0 {
		log.Printf("Purged %d expired rate limit counter(s).", result.RowsAffected)
	}
}
