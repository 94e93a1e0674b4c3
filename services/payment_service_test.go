package services

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/mkamau77/safari_tours/models"
	"github.com/mkamau77/safari_tours/payments"
)

func TestCreatePaymentRejectsAlreadyPaidBooking(t *testing.T) {
	db, mock := newMockDB(t)

	bookingID := uuid.New()
	tourID := uuid.New()
	userID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "bookings"`).
		WillReturnRows(bookingRow(sqlmock.NewRows(bookingColumns()), bookingID, tourID, userID, "pending"))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "payments"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	gateway := &stubGateway{name: "stripe"}
	svc := NewPaymentServiceWithGateways(db, resolverFor(gateway))

	_, err := svc.CreatePayment(CreatePaymentInput{BookingID: bookingID, Gateway: "stripe", Currency: "USD"}, userID)

	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreatePaymentRejectsForeignBooking(t *testing.T) {
	db, mock := newMockDB(t)

	bookingID := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "bookings"`).
		WillReturnRows(bookingRow(sqlmock.NewRows(bookingColumns()), bookingID, uuid.New(), uuid.New(), "pending"))

	svc := NewPaymentServiceWithGateways(db, resolverFor(&stubGateway{name: "stripe"}))
	_, err := svc.CreatePayment(CreatePaymentInput{BookingID: bookingID, Gateway: "stripe"}, uuid.New())

	var forbidden *ForbiddenError
	if !errors.As(err, &forbidden) {
		t.Fatalf("expected ForbiddenError, got %v", err)
	}
}

func TestCreatePaymentGatewayFailureLeavesNoRecord(t *testing.T) {
	db, mock := newMockDB(t)

	bookingID := uuid.New()
	userID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "bookings"`).
		WillReturnRows(bookingRow(sqlmock.NewRows(bookingColumns()), bookingID, uuid.New(), userID, "pending"))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "payments"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	gateway := &stubGateway{name: "stripe", initErr: errors.New("connection refused")}
	svc := NewPaymentServiceWithGateways(db, resolverFor(gateway))

	_, err := svc.CreatePayment(CreatePaymentInput{BookingID: bookingID, Gateway: "stripe", Currency: "USD", Email: "jane@example.com"}, userID)

	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected GatewayError, got %v", err)
	}
	// No INSERT was expected and none happened.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreatePaymentStripeHandoff(t *testing.T) {
	db, mock := newMockDB(t)

	bookingID := uuid.New()
	tourID := uuid.New()
	userID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "bookings"`).
		WillReturnRows(bookingRow(sqlmock.NewRows(bookingColumns()), bookingID, tourID, userID, "pending"))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "payments"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE id = (.+) FOR UPDATE`).
		WillReturnRows(bookingRow(sqlmock.NewRows(bookingColumns()), bookingID, tourID, userID, "pending"))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "payments"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`INSERT INTO "payments"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()))
	mock.ExpectCommit()

	gateway := &stubGateway{name: "stripe", initResult: &payments.InitResult{
		ExternalRef:  "pi_new_999",
		ClientSecret: "pi_new_999_secret_abc",
		Raw:          []byte(`{"id":"pi_new_999"}`),
	}}
	svc := NewPaymentServiceWithGateways(db, resolverFor(gateway))

	handoff, err := svc.CreatePayment(CreatePaymentInput{
		BookingID: bookingID,
		Gateway:   "stripe",
		Currency:  "USD",
		Email:     "jane@example.com",
		FirstName: "Jane",
		LastName:  "Mwangi",
	}, userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if handoff.ClientSecret != "pi_new_999_secret_abc" {
		t.Errorf("expected client secret in handoff, got %q", handoff.ClientSecret)
	}
	if handoff.Payment.ExternalRef != "pi_new_999" {
		t.Errorf("expected external ref pi_new_999, got %q", handoff.Payment.ExternalRef)
	}
	if handoff.Payment.Detail.Stripe == nil {
		t.Error("expected stripe detail on payment")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRefundPaymentCascadesBooking(t *testing.T) {
	db, mock := newMockDB(t)

	paymentID := uuid.New()
	bookingID := uuid.New()
	userID := uuid.New()
	tourID := uuid.New()
	adminID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "payments"`).
		WillReturnRows(paymentRow(sqlmock.NewRows(paymentColumns()), paymentID, bookingID, userID, "completed"))

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "payments" WHERE id = (.+) FOR UPDATE`).
		WillReturnRows(paymentRow(sqlmock.NewRows(paymentColumns()), paymentID, bookingID, userID, "completed"))
	mock.ExpectExec(`UPDATE "payments" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	auditInsert(mock)
	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE id = (.+) FOR UPDATE`).
		WillReturnRows(bookingRow(sqlmock.NewRows(bookingColumns()), bookingID, tourID, userID, "confirmed"))
	mock.ExpectExec(`UPDATE "bookings" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	auditInsert(mock)
	mock.ExpectCommit()

	gateway := &stubGateway{name: "stripe", refund: &payments.RefundResult{
		ExternalRef: "pi_test_123",
		Status:      payments.StatusSucceeded,
		Raw:         []byte(`{"id":"re_1"}`),
	}}
	svc := NewPaymentServiceWithGateways(db, resolverFor(gateway))

	payment, err := svc.RefundPayment(RefundInput{PaymentID: paymentID, Reason: "customer request"}, adminID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payment.Status != models.PaymentStatusRefunded {
		t.Errorf("expected payment refunded, got %s", payment.Status)
	}
	if gateway.refundHits != 1 {
		t.Errorf("expected exactly one gateway refund call, got %d", gateway.refundHits)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRefundPaymentRejectsNonCompleted(t *testing.T) {
	db, mock := newMockDB(t)

	paymentID := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "payments"`).
		WillReturnRows(paymentRow(sqlmock.NewRows(paymentColumns()), paymentID, uuid.New(), uuid.New(), "processing"))

	gateway := &stubGateway{name: "stripe"}
	svc := NewPaymentServiceWithGateways(db, resolverFor(gateway))

	_, err := svc.RefundPayment(RefundInput{PaymentID: paymentID, Reason: "oops"}, uuid.New())

	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if gateway.refundHits != 0 {
		t.Error("gateway must not be called for a non-completed payment")
	}
}

func TestRefundPaymentGatewayDecline(t *testing.T) {
	db, mock := newMockDB(t)

	paymentID := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "payments"`).
		WillReturnRows(paymentRow(sqlmock.NewRows(paymentColumns()), paymentID, uuid.New(), uuid.New(), "completed"))

	gateway := &stubGateway{name: "stripe", refundErr: errors.New("insufficient balance")}
	svc := NewPaymentServiceWithGateways(db, resolverFor(gateway))

	_, err := svc.RefundPayment(RefundInput{PaymentID: paymentID, Reason: "oops"}, uuid.New())

	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected GatewayError, got %v", err)
	}
	// Decline before the transaction: payment row untouched.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestConfirmPaymentAppliesSucceeded(t *testing.T) {
	db, mock := newMockDB(t)

	paymentID := uuid.New()
	bookingID := uuid.New()
	userID := uuid.New()
	tourID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "payments"`).
		WillReturnRows(paymentRow(sqlmock.NewRows(paymentColumns()), paymentID, bookingID, userID, "pending"))

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "payments" WHERE id = (.+) FOR UPDATE`).
		WillReturnRows(paymentRow(sqlmock.NewRows(paymentColumns()), paymentID, bookingID, userID, "pending"))
	mock.ExpectExec(`UPDATE "payments" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	auditInsert(mock)
	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE id = (.+) FOR UPDATE`).
		WillReturnRows(bookingRow(sqlmock.NewRows(bookingColumns()), bookingID, tourID, userID, "pending"))
	mock.ExpectExec(`UPDATE "bookings" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	auditInsert(mock)
	mock.ExpectCommit()

	gateway := &stubGateway{name: "stripe", status: payments.StatusSucceeded}
	svc := NewPaymentServiceWithGateways(db, resolverFor(gateway))

	payment, err := svc.ConfirmPayment(paymentID, userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payment.Status != models.PaymentStatusCompleted {
		t.Errorf("expected completed, got %s", payment.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestConfirmPaymentFailureDoesNotCancelBooking(t *testing.T) {
	db, mock := newMockDB(t)

	paymentID := uuid.New()
	bookingID := uuid.New()
	userID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "payments"`).
		WillReturnRows(paymentRow(sqlmock.NewRows(paymentColumns()), paymentID, bookingID, userID, "pending"))

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "payments" WHERE id = (.+) FOR UPDATE`).
		WillReturnRows(paymentRow(sqlmock.NewRows(paymentColumns()), paymentID, bookingID, userID, "pending"))
	mock.ExpectExec(`UPDATE "payments" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	auditInsert(mock)
	// The booking row is locked for inspection but nothing is written: a
	// synchronous failure leaves the booking open to retry another gateway.
	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE id = (.+) FOR UPDATE`).
		WillReturnRows(bookingRow(sqlmock.NewRows(bookingColumns()), bookingID, uuid.New(), userID, "pending"))
	mock.ExpectCommit()

	gateway := &stubGateway{name: "stripe", status: payments.StatusFailed}
	svc := NewPaymentServiceWithGateways(db, resolverFor(gateway))

	payment, err := svc.ConfirmPayment(paymentID, userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payment.Status != models.PaymentStatusFailed {
		t.Errorf("expected failed, got %s", payment.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
