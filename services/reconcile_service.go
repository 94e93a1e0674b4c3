package services

import (
	"errors"
	"fmt"
	"log"

	config "github.com/mkamau77/safari_tours/configs"
	"github.com/mkamau77/safari_tours/models"
	"github.com/mkamau77/safari_tours/notifications"
	"github.com/mkamau77/safari_tours/payments"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrPaymentNotFound signals an event whose external reference matches no
// payment. The webhook handler logs it and still acknowledges: retrying
// cannot make the reference findable.
var ErrPaymentNotFound = errors.New("no payment for external reference")

// ReconcileService applies asynchronous gateway events to payments. It is the
// only writer allowed to move a payment out of pending based on external
// input.
type ReconcileService struct {
	db *gorm.DB
}

func NewReconcileService(db *gorm.DB) *ReconcileService {
	return &ReconcileService{db: db}
}

// Reconcile applies one verified gateway event idempotently. Gateways deliver
// at least once and possibly out of order, so an event whose transition the
// status table forbids is a no-op, never an error.
func (s *ReconcileService) Reconcile(gateway, externalRef string, kind payments.EventKind, raw []byte) error {
	if kind == payments.EventOther {
		return nil
	}

	var payment models.Payment
	if err := s.db.First(&payment, "gateway = ? AND external_ref = ?", gateway, externalRef).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPaymentNotFound
		}
		return err
	}

	if kind == payments.EventDisputed {
		return s.handleDispute(&payment, raw)
	}

	target := models.PaymentStatusCompleted
	var failureReason *string
	if kind == payments.EventFailed || kind == payments.EventCanceled {
		target = models.PaymentStatusFailed
		reason := fmt.Sprintf("gateway reported %s", kind)
		failureReason = &reason
	}

	changed := false
	var bookingChanged string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&payment, "id = ?", payment.ID).Error; err != nil {
			return err
		}
		// Duplicate or reordered delivery: already in the target terminal
		// status, or the transition is not permitted. Leave everything as
		// it is.
		if payment.Status == target || !models.PaymentStatusAllowed(payment.Status, target) {
			return nil
		}

		from := payment.Status
		payment.Status = target
		payment.FailureReason = failureReason
		payment.RawResponse = raw
		if payment.Detail.Stripe != nil {
			payment.Detail.Stripe.Status = string(kind)
		}
		if payment.Detail.Flutterwave != nil {
			payment.Detail.Flutterwave.Status = string(kind)
		}
		if err := tx.Save(&payment).Error; err != nil {
			return err
		}
		if err := RecordTransition(tx, nil, "payment", payment.ID, from, target, failureReason); err != nil {
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

		bookingTarget := models.BookingStatusConfirmed
		if target == models.PaymentStatusFailed {
			bookingTarget = models.BookingStatusCancelled
		}
		if !models.BookingStatusAllowed(booking.Status, bookingTarget) {
			return nil
		}

		bFrom := booking.Status
		booking.Status = bookingTarget
		if err := tx.Save(&booking).Error; err != nil {
			return err
		}
		if err := RecordTransition(tx, nil, "booking", booking.ID, bFrom, bookingTarget, nil); err != nil {
			return err
		}
		bookingChanged = bookingTarget
		return nil
	})
	if err != nil {
		return err
	}

	if changed {
		log.Printf("✅ Reconciled %s event for payment %s (%s/%s)", kind, payment.ID, gateway, externalRef)
	}
	if bookingChanged == models.BookingStatusConfirmed {
		go notifyBookingOutcome(s.db, &payment, true)
	} else if bookingChanged == models.BookingStatusCancelled {
		go notifyBookingOutcome(s.db, &payment, false)
	}
	return nil
}

// handleDispute never mutates payment or booking state; an operator decides
// what to do with the money.
func (s *ReconcileService) handleDispute(payment *models.Payment, raw []byte) error {
	meta := string(raw)
	entry := models.AuditLog{
		EntityType: "payment",
		EntityID:   &payment.ID,
		Action:     "dispute_reported",
		Metadata:   &meta,
	}
	if err := s.db.Create(&entry).Error; err != nil {
		return err
	}

	adminEmail := config.Config("ADMIN_EMAIL")
	go notifications.SendAdminAlert(adminEmail,
		fmt.Sprintf("Dispute opened on payment %s", payment.ID),
		fmt.Sprintf("Gateway %s reported a dispute for external reference %s. Amount: %.2f %s.", payment.Gateway, payment.ExternalRef, payment.Amount, payment.Currency))

	log.Printf("⚠️ Dispute reported for payment %s (%s)", payment.ID, payment.ExternalRef)
	return nil
}
