package services

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mkamau77/safari_tours/models"
	"github.com/phpdave11/gofpdf"
	"gorm.io/gorm"
)

type ReceiptService struct {
	db *gorm.DB
}

func NewReceiptService(db *gorm.DB) *ReceiptService {
	return &ReceiptService{db: db}
}

// GenerateReceipt renders the booking voucher PDF for a confirmed or
// completed booking.
func (s *ReceiptService) GenerateReceipt(bookingID uuid.UUID, requesterID uuid.UUID, isAdmin bool) ([]byte, string, error) {
	var booking models.Booking
	if err := s.db.Preload("Tour").Preload("User").Preload("Participants").First(&booking, "id = ?", bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", &NotFoundError{Entity: "Booking"}
		}
		return nil, "", err
	}
	if booking.UserID != requesterID && !isAdmin {
		return nil, "", &ForbiddenError{Message: "This is not your booking"}
	}
	if booking.Status != models.BookingStatusConfirmed && booking.Status != models.BookingStatusCompleted {
		return nil, "", &ValidationError{Message: "Receipts are only available for confirmed bookings"}
	}

	var payment models.Payment
	if err := s.db.Where("booking_id = ? AND status = ?", booking.ID, models.PaymentStatusCompleted).First(&payment).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}

	return buildReceiptPDF(&booking, &payment)
}

func buildReceiptPDF(booking *models.Booking, payment *models.Payment) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Booking Voucher", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "SAFARI TOURS - BOOKING VOUCHER")
	pdf.Ln(14)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Booking Number : %s", booking.BookingNumber),
		fmt.Sprintf("Guest          : %s", booking.User.FullName),
		fmt.Sprintf("Tour           : %s", booking.Tour.Title),
		fmt.Sprintf("Dates          : %s to %s", booking.StartDate.Format("02 Jan 2006"), booking.EndDate.Format("02 Jan 2006")),
		fmt.Sprintf("Party          : %d adult(s), %d child(ren)", booking.AdultCount, booking.ChildCount),
		fmt.Sprintf("Total          : %.2f %s", booking.TotalPrice, booking.Tour.Currency),
	}
	if booking.DiscountAmount > 0 {
		lines = append(lines, fmt.Sprintf("Discount       : -%.2f %s", booking.DiscountAmount, booking.Tour.Currency))
	}
	if payment.ID != uuid.Nil {
		lines = append(lines, fmt.Sprintf("Paid via       : %s (%s)", payment.Gateway, payment.ExternalRef))
	}
	for _, line := range lines {
		pdf.Cell(0, 8, line)
		pdf.Ln(8)
	}

	if len(booking.Participants) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, "Participants")
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 11)
		for i, p := range booking.Participants {
			pdf.Cell(0, 7, fmt.Sprintf("%d. %s", i+1, p.FullName))
			pdf.Ln(7)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("voucher-%s.pdf", booking.BookingNumber)
	return buf.Bytes(), filename, nil
}
