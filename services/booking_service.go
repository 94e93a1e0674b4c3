package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/mkamau77/safari_tours/models"
	"github.com/mkamau77/safari_tours/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// childRate is the fraction of the adult price charged per child.
const childRate = 0.5

type BookingService struct {
	db *gorm.DB
}

func NewBookingService(db *gorm.DB) *BookingService {
	return &BookingService{db: db}
}

type ParticipantInput struct {
	FullName string  `json:"full_name" validate:"required"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone    *string `json:"phone,omitempty"`
	Dietary  *string `json:"dietary,omitempty"`
	Medical  *string `json:"medical,omitempty"`
}

type CreateBookingInput struct {
	TourID       uuid.UUID
	StartDate    time.Time
	EndDate      time.Time
	AdultCount   int
	ChildCount   int
	PromoCode    *string
	Participants []ParticipantInput
	Notes        *string
}

func (s *BookingService) CreateBooking(input CreateBookingInput, ownerID uuid.UUID) (*models.Booking, error) {
	if !input.EndDate.After(input.StartDate) {
		return nil, &ValidationError{Message: "End date must be after start date"}
	}
	if input.StartDate.Before(time.Now()) {
		return nil, &ValidationError{Message: "Start date must be in the future"}
	}
	if input.AdultCount < 1 {
		return nil, &ValidationError{Message: "At least one adult is required"}
	}
	if input.ChildCount < 0 {
		return nil, &ValidationError{Message: "Child count cannot be negative"}
	}

	requested := input.AdultCount + input.ChildCount

	var booking models.Booking
	err := s.db.Transaction(func(tx *gorm.DB) error {
		// The tour row lock serializes the capacity check and the insert
		// for concurrent requests against the same tour.
		var tour models.Tour
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&tour, "id = ?", input.TourID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "Tour"}
			}
			return err
		}
		if !tour.IsActive {
			return &ValidationError{Message: "This tour is not open for booking"}
		}

		capacity, err := CheckCapacity(tx, &tour, input.StartDate, input.EndDate, requested, nil)
		if err != nil {
			return err
		}
		if !capacity.Allowed {
			return &ValidationError{Message: fmt.Sprintf("Only %d spots available for these dates", capacity.Remaining)}
		}

		total := float64(input.AdultCount)*tour.PricePerPerson + float64(input.ChildCount)*tour.PricePerPerson*childRate

		var discount float64
		var promoCode *string
		if input.PromoCode != nil && *input.PromoCode != "" {
			result, err := ValidatePromo(tx, *input.PromoCode, &tour.ID, total)
			if err != nil {
				return err
			}
			if !result.Valid {
				return &ValidationError{Message: result.Message}
			}
			discount = result.DiscountAmount
			normalized := NormalizePromoCode(*input.PromoCode)
			promoCode = &normalized
			if err := IncrementPromoUsage(tx, normalized); err != nil {
				return err
			}
		}

		number, err := utils.GenerateBookingNumber(tx)
		if err != nil {
			if errors.Is(err, utils.ErrNumberSpaceExhausted) {
				return &ConflictError{Message: "Could not allocate a booking number, please retry"}
			}
			return err
		}

		booking = models.Booking{
			BookingNumber:  number,
			TourID:         tour.ID,
			UserID:         ownerID,
			StartDate:      input.StartDate,
			EndDate:        input.EndDate,
			AdultCount:     input.AdultCount,
			ChildCount:     input.ChildCount,
			TotalPrice:     total,
			DiscountAmount: discount,
			PromoCode:      promoCode,
			Status:         models.BookingStatusPending,
			Notes:          input.Notes,
		}
		for _, p := range input.Participants {
			booking.Participants = append(booking.Participants, models.Participant{
				FullName: p.FullName,
				Email:    p.Email,
				Phone:    p.Phone,
				Dietary:  p.Dietary,
				Medical:  p.Medical,
			})
		}
		if err := tx.Create(&booking).Error; err != nil {
			return err
		}

		return RecordTransition(tx, &ownerID, "booking", booking.ID, "", models.BookingStatusPending, nil)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Booking %s created for tour %s", booking.BookingNumber, booking.TourID)
	return &booking, nil
}

type UpdateBookingInput struct {
	StartDate  *time.Time
	EndDate    *time.Time
	AdultCount *int
	ChildCount *int
	Notes      *string
}

func (s *BookingService) UpdateBooking(id uuid.UUID, input UpdateBookingInput, ownerID uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&booking, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "Booking"}
			}
			return err
		}
		if booking.UserID != ownerID {
			return &ForbiddenError{Message: "This is not your booking"}
		}
		if booking.Status != models.BookingStatusPending {
			return &ValidationError{Message: "Only pending bookings can be updated"}
		}

		start := booking.StartDate
		end := booking.EndDate
		adults := booking.AdultCount
		children := booking.ChildCount
		if input.StartDate != nil {
			start = *input.StartDate
		}
		if input.EndDate != nil {
			end = *input.EndDate
		}
		if input.AdultCount != nil {
			adults = *input.AdultCount
		}
		if input.ChildCount != nil {
			children = *input.ChildCount
		}
		if !end.After(start) {
			return &ValidationError{Message: "End date must be after start date"}
		}
		if adults < 1 {
			return &ValidationError{Message: "At least one adult is required"}
		}
		if children < 0 {
			return &ValidationError{Message: "Child count cannot be negative"}
		}

		datesChanged := !start.Equal(booking.StartDate) || !end.Equal(booking.EndDate)
		partyChanged := adults != booking.AdultCount || children != booking.ChildCount

		var tour models.Tour
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&tour, "id = ?", booking.TourID).Error; err != nil {
			return err
		}

		if datesChanged || partyChanged {
			// Re-check excluding this booking's own prior reservation.
			capacity, err := CheckCapacity(tx, &tour, start, end, adults+children, &booking.ID)
			if err != nil {
				return err
			}
			if !capacity.Allowed {
				return &ValidationError{Message: fmt.Sprintf("Only %d spots available for these dates", capacity.Remaining)}
			}
		}

		booking.StartDate = start
		booking.EndDate = end
		booking.AdultCount = adults
		booking.ChildCount = children
		if input.Notes != nil {
			booking.Notes = input.Notes
		}
		if partyChanged {
			booking.TotalPrice = float64(adults)*tour.PricePerPerson + float64(children)*tour.PricePerPerson*childRate
		}

		return tx.Save(&booking).Error
	})
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (s *BookingService) CancelBooking(id uuid.UUID, reason string, ownerID uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&booking, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "Booking"}
			}
			return err
		}
		if booking.UserID != ownerID {
			return &ForbiddenError{Message: "This is not your booking"}
		}
		if !models.BookingStatusAllowed(booking.Status, models.BookingStatusCancelled) {
			return &ValidationError{Message: "Only pending or confirmed bookings can be cancelled"}
		}

		from := booking.Status
		booking.Status = models.BookingStatusCancelled
		booking.CancelReason = &reason
		if err := tx.Save(&booking).Error; err != nil {
			return err
		}

		// Cancellation never refunds by itself; refunds are a separate
		// privileged operation against the linked payment.
		return RecordTransition(tx, &ownerID, "booking", booking.ID, from, models.BookingStatusCancelled, &reason)
	})
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// UpdateBookingStatus is the administrative override: it bypasses the
// transition table, so actor and reason are always recorded.
func (s *BookingService) UpdateBookingStatus(id uuid.UUID, status, reason string, actorID uuid.UUID) (*models.Booking, error) {
	switch status {
	case models.BookingStatusPending, models.BookingStatusConfirmed, models.BookingStatusCancelled,
		models.BookingStatusCompleted, models.BookingStatusRefunded:
	default:
		return nil, &ValidationError{Message: "Unknown booking status: " + status}
	}

	var booking models.Booking
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&booking, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "Booking"}
			}
			return err
		}

		from := booking.Status
		booking.Status = status
		if err := tx.Save(&booking).Error; err != nil {
			return err
		}

		log.Printf("Admin %s moved booking %s from %s to %s: %s", actorID, booking.BookingNumber, from, status, reason)
		return RecordTransition(tx, &actorID, "booking", booking.ID, from, status, &reason)
	})
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (s *BookingService) GetBooking(id uuid.UUID, requesterID uuid.UUID, isAdmin bool) (*models.Booking, error) {
	var booking models.Booking
	if err := s.db.Preload("Participants").Preload("Tour").First(&booking, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "Booking"}
		}
		return nil, err
	}
	if booking.UserID != requesterID && !isAdmin {
		return nil, &ForbiddenError{Message: "This is not your booking"}
	}
	return &booking, nil
}

func (s *BookingService) ListBookings(ownerID uuid.UUID) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.db.
		Preload("Participants").
		Preload("Tour").
		Where("user_id = ?", ownerID).
		Order("start_date desc").
		Find(&bookings).Error
	return bookings, err
}
