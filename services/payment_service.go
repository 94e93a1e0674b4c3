package services

import (
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/mkamau77/safari_tours/models"
	"github.com/mkamau77/safari_tours/notifications"
	"github.com/mkamau77/safari_tours/payments"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentService struct {
	db       *gorm.DB
	gateways func(name string) (payments.Gateway, error)
}

func NewPaymentService(db *gorm.DB) *PaymentService {
	return &PaymentService{db: db, gateways: payments.ByName}
}

// NewPaymentServiceWithGateways injects a gateway resolver; used by tests.
func NewPaymentServiceWithGateways(db *gorm.DB, resolver func(string) (payments.Gateway, error)) *PaymentService {
	return &PaymentService{db: db, gateways: resolver}
}

type CreatePaymentInput struct {
	BookingID   uuid.UUID
	Gateway     string
	Currency    string
	Email       string
	FirstName   string
	LastName    string
	RedirectURL string
}

type PaymentHandoff struct {
	Payment      *models.Payment `json:"payment"`
	ClientSecret string          `json:"client_secret,omitempty"`
	RedirectURL  string          `json:"redirect_url,omitempty"`
}

func (s *PaymentService) CreatePayment(input CreatePaymentInput, ownerID uuid.UUID) (*PaymentHandoff, error) {
	var booking models.Booking
	if err := s.db.First(&booking, "id = ?", input.BookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "Booking"}
		}
		return nil, err
	}
	if booking.UserID != ownerID {
		return nil, &ForbiddenError{Message: "This is not your booking"}
	}
	if booking.Status == models.BookingStatusCancelled {
		return nil, &ValidationError{Message: "Cannot pay for a cancelled booking"}
	}

	var completed int64
	if err := s.db.Model(&models.Payment{}).
		Where("booking_id = ? AND status = ?", booking.ID, models.PaymentStatusCompleted).
		Count(&completed).Error; err != nil {
		return nil, err
	}
	if completed > 0 {
		return nil, &ConflictError{Message: "This booking has already been paid for"}
	}

	gateway, err := s.gateways(input.Gateway)
	if err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	amount := booking.TotalPrice - booking.DiscountAmount
	reference := fmt.Sprintf("SAFTX-%s", uuid.NewString())

	// The gateway round-trip happens outside any transaction; a timeout or
	// failure here leaves no payment record behind.
	result, err := gateway.Initialize(payments.InitRequest{
		Amount:      amount,
		Currency:    input.Currency,
		Email:       input.Email,
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		Reference:   reference,
		RedirectURL: input.RedirectURL,
		Metadata:    map[string]string{"booking_number": booking.BookingNumber},
	})
	if err != nil {
		return nil, &GatewayError{Gateway: gateway.Name(), Err: err}
	}

	payment := models.Payment{
		BookingID:   &booking.ID,
		UserID:      ownerID,
		Amount:      amount,
		Currency:    input.Currency,
		Gateway:     gateway.Name(),
		ExternalRef: result.ExternalRef,
		RawResponse: result.Raw,
		Status:      models.PaymentStatusPending,
	}
	switch gateway.Name() {
	case models.GatewayStripe:
		payment.Detail = models.GatewayDetail{Stripe: &models.StripeDetail{
			IntentID:     result.ExternalRef,
			ClientSecret: result.ClientSecret,
		}}
	case models.GatewayFlutterwave:
		payment.Detail = models.GatewayDetail{Flutterwave: &models.FlutterwaveDetail{
			TxRef:       result.ExternalRef,
			PaymentLink: result.RedirectURL,
		}}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Re-check the double-charge guard under the booking row lock; two
		// concurrent initializations cannot both pass it.
		var fresh models.Booking
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&fresh, "id = ?", booking.ID).Error; err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&models.Payment{}).
			Where("booking_id = ? AND status = ?", booking.ID, models.PaymentStatusCompleted).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return &ConflictError{Message: "This booking has already been paid for"}
		}
		return tx.Create(&payment).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Payment %s initialized via %s for booking %s", payment.ID, payment.Gateway, booking.BookingNumber)
	return &PaymentHandoff{
		Payment:      &payment,
		ClientSecret: result.ClientSecret,
		RedirectURL:  result.RedirectURL,
	}, nil
}

// ConfirmPayment polls the gateway for the current transaction status and
// applies it. Repeated calls are harmless: a payment already in its target
// status is left untouched.
func (s *PaymentService) ConfirmPayment(paymentID uuid.UUID, ownerID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.First(&payment, "id = ?", paymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "Payment"}
		}
		return nil, err
	}
	if payment.UserID != ownerID {
		return nil, &ForbiddenError{Message: "This is not your payment"}
	}

	gateway, err := s.gateways(payment.Gateway)
	if err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	var gatewayStatus payments.Status
	var raw []byte
	if payment.Gateway == models.GatewayStripe {
		gatewayStatus, raw, err = gateway.Confirm(payment.ExternalRef)
	} else {
		gatewayStatus, raw, err = gateway.Verify(payment.ExternalRef)
	}
	if err != nil {
		// A timed-out poll proves nothing; the payment stays as it is and
		// is reconciled later by webhook or another poll.
		return nil, &GatewayError{Gateway: gateway.Name(), Err: err}
	}

	target, ok := paymentStatusFromGateway(gatewayStatus)
	if !ok {
		return &payment, nil
	}

	changed, err := s.applyPaymentStatus(&payment, target, nil, raw, &ownerID, false)
	if err != nil {
		return nil, err
	}
	if changed && payment.Status == models.PaymentStatusCompleted {
		go notifyBookingOutcome(s.db, &payment, true)
	}
	return &payment, nil
}

type RefundInput struct {
	PaymentID uuid.UUID
	Amount    *float64
	Reason    string
}

// RefundPayment is privileged. Only a completed payment can be refunded; a
// second attempt finds it refunded and is rejected as a conflict.
func (s *PaymentService) RefundPayment(input RefundInput, actorID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.First(&payment, "id = ?", input.PaymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "Payment"}
		}
		return nil, err
	}
	if payment.Status != models.PaymentStatusCompleted {
		return nil, &ConflictError{Message: "Only completed payments can be refunded"}
	}

	gateway, err := s.gateways(payment.Gateway)
	if err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	result, err := gateway.Refund(payment.ExternalRef, input.Amount)
	if err != nil {
		return nil, &GatewayError{Gateway: gateway.Name(), Err: err}
	}
	if result.Status == payments.StatusFailed {
		return nil, &GatewayError{Gateway: gateway.Name(), Err: fmt.Errorf("refund declined for %s", payment.ExternalRef)}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&payment, "id = ?", payment.ID).Error; err != nil {
			return err
		}
		if payment.Status == models.PaymentStatusRefunded {
			return nil
		}
		if !models.PaymentStatusAllowed(payment.Status, models.PaymentStatusRefunded) {
			return &ConflictError{Message: "Only completed payments can be refunded"}
		}

		from := payment.Status
		payment.Status = models.PaymentStatusRefunded
		payment.RawResponse = result.Raw
		if err := tx.Save(&payment).Error; err != nil {
			return err
		}
		if err := RecordTransition(tx, &actorID, "payment", payment.ID, from, models.PaymentStatusRefunded, &input.Reason); err != nil {
			return err
		}

		if payment.BookingID != nil {
			var booking models.Booking
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&booking, "id = ?", payment.BookingID).Error; err != nil {
				return err
			}
			if models.BookingStatusAllowed(booking.Status, models.BookingStatusRefunded) {
				bFrom := booking.Status
				booking.Status = models.BookingStatusRefunded
				if err := tx.Save(&booking).Error; err != nil {
					return err
				}
				if err := RecordTransition(tx, &actorID, "booking", booking.ID, bFrom, models.BookingStatusRefunded, &input.Reason); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	go notifyRefund(s.db, &payment)
	log.Printf("✅ Payment %s refunded by %s", payment.ID, actorID)
	return &payment, nil
}

// applyPaymentStatus performs the guarded transition under the payment row
// lock and cascades the linked booking. An impermissible transition is a
// no-op, not an error, so duplicate gateway reports stay safe.
func (s *PaymentService) applyPaymentStatus(payment *models.Payment, target string, failureReason *string, raw []byte, actor *uuid.UUID, cascadeFailure bool) (bool, error) {
	changed := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(payment, "id = ?", payment.ID).Error; err != nil {
			return err
		}
		if payment.Status == target || !models.PaymentStatusAllowed(payment.Status, target) {
			return nil
		}

		from := payment.Status
		payment.Status = target
		payment.FailureReason = failureReason
		if raw != nil {
			payment.RawResponse = raw
		}
		if err := tx.Save(payment).Error; err != nil {
			return err
		}
		if err := RecordTransition(tx, actor, "payment", payment.ID, from, target, failureReason); err != nil {
			return err
		}
		changed = true

		if payment.BookingID == nil {
			return nil
		}
		var booking models.Booking
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&booking, "id = ?", payment.BookingID).Error; err != nil {
			return err
		}

		var bookingTarget string
		switch {
		case target == models.PaymentStatusCompleted:
			bookingTarget = models.BookingStatusConfirmed
		case target == models.PaymentStatusFailed && cascadeFailure:
			bookingTarget = models.BookingStatusCancelled
		default:
			return nil
		}
		if !models.BookingStatusAllowed(booking.Status, bookingTarget) {
			return nil
		}

		bFrom := booking.Status
		booking.Status = bookingTarget
		if err := tx.Save(&booking).Error; err != nil {
			return err
		}
		return RecordTransition(tx, actor, "booking", booking.ID, bFrom, bookingTarget, nil)
	})
	return changed, err
}

func paymentStatusFromGateway(status payments.Status) (string, bool) {
	switch status {
	case payments.StatusSucceeded:
		return models.PaymentStatusCompleted, true
	case payments.StatusFailed, payments.StatusCanceled:
		return models.PaymentStatusFailed, true
	case payments.StatusProcessing:
		return models.PaymentStatusProcessing, true
	}
	return "", false
}

func notifyBookingOutcome(db *gorm.DB, payment *models.Payment, succeeded bool) {
	if payment.BookingID == nil {
		return
	}
	var booking models.Booking
	if err := db.Preload("User").Preload("Tour").First(&booking, "id = ?", payment.BookingID).Error; err != nil {
		log.Printf("Failed to load booking for notification: %v", err)
		return
	}
	if succeeded {
		notifications.SendBookingConfirmed(booking.User.FullName, booking.User.Email, booking.BookingNumber, booking.Tour.Title)
	} else {
		notifications.SendBookingFailed(booking.User.FullName, booking.User.Email, booking.BookingNumber)
	}
}

func notifyRefund(db *gorm.DB, payment *models.Payment) {
	if payment.BookingID == nil {
		return
	}
	var booking models.Booking
	if err := db.Preload("User").First(&booking, "id = ?", payment.BookingID).Error; err != nil {
		log.Printf("Failed to load booking for refund notification: %v", err)
		return
	}
	notifications.SendBookingRefunded(booking.User.FullName, booking.User.Email, booking.BookingNumber, payment.Amount, payment.Currency)
}
