package utils

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/mkamau77/safari_tours/models"
	"gorm.io/gorm"
)

const (
	bookingNumberPrefix   = "SAF"
	bookingNumberSuffix   = 5
	bookingNumberAttempts = 5
)

const letterBytes = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// ErrNumberSpaceExhausted is returned when every attempt collided with an
// existing booking number. Callers must treat this as fatal.
var ErrNumberSpaceExhausted = errors.New("could not generate a unique booking number")

// GenerateBookingNumber produces a human-facing booking number of the form
// SAF-<yymmdd>-<random suffix>, retrying a bounded number of times on
// collision.
func GenerateBookingNumber(tx *gorm.DB) (string, error) {
	return generateBookingNumber(func(number string) (bool, error) {
		var booking models.Booking
		err := tx.Where("booking_number = ?", number).First(&booking).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return false, nil
			}
			return false, err
		}
		return true, nil
	})
}

func generateBookingNumber(taken func(string) (bool, error)) (string, error) {
	for attempt := 0; attempt < bookingNumberAttempts; attempt++ {
		b := make([]byte, bookingNumberSuffix)
		for i := range b {
			// Top-level rand is safe for concurrent booking requests.
			b[i] = letterBytes[rand.Intn(len(letterBytes))]
		}
		number := fmt.Sprintf("%s-%s-%s", bookingNumberPrefix, time.Now().Format("060102"), string(b))

		exists, err := taken(number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}
	return "", ErrNumberSpaceExhausted
}
