package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
	BookingStatusCompleted = "completed"
	BookingStatusRefunded  = "refunded"
)

type Booking struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	BookingNumber string    `gorm:"size:30;not null;unique" json:"booking_number"`
	TourID        uuid.UUID `gorm:"type:uuid;not null;index" json:"tour_id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	StartDate time.Time `gorm:"not null" json:"start_date"`
	EndDate   time.Time `gorm:"not null" json:"end_date"`

	AdultCount int `gorm:"not null" json:"adult_count"`
	ChildCount int `gorm:"not null;default:0" json:"child_count"`

	TotalPrice     float64 `gorm:"type:numeric(10,2);not null" json:"total_price"`
	DiscountAmount float64 `gorm:"type:numeric(10,2);default:0.00" json:"discount_amount"`
	PromoCode      *string `gorm:"size:50" json:"promo_code"`

	Status       string  `gorm:"size:20;not null;default:'pending'" json:"status"`
	CancelReason *string `gorm:"type:text" json:"cancel_reason"`
	Notes        *string `gorm:"type:text" json:"notes"`

	Participants []Participant `gorm:"foreignkey:BookingID" json:"participants"`

	Tour Tour `gorm:"foreignkey:TourID" json:"tour,omitempty"`
	User User `gorm:"foreignkey:UserID" json:"user,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Participant struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	BookingID uuid.UUID `gorm:"type:uuid;not null;index" json:"booking_id"`
	FullName  string    `gorm:"size:255;not null" json:"full_name"`
	Email     *string   `gorm:"size:255" json:"email"`
	Phone     *string   `gorm:"size:30" json:"phone"`
	Dietary   *string   `gorm:"size:255" json:"dietary"`
	Medical   *string   `gorm:"size:255" json:"medical"`

	CreatedAt time.Time `json:"created_at"`
}

// bookingTransitions is the full transition diagram for a booking. Cancelled,
// completed and refunded are terminal except through an admin override, which
// bypasses this table on purpose.
var bookingTransitions = map[string][]string{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCancelled, BookingStatusCompleted, BookingStatusRefunded},
	BookingStatusCompleted: {BookingStatusRefunded},
}

func BookingStatusAllowed(from, to string) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
