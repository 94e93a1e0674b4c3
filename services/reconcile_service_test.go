package services

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/mkamau77/safari_tours/payments"
)

func TestReconcileAppliesSucceededEvent(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewReconcileService(db)

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

	err := svc.Reconcile("stripe", "pi_test_123", payments.EventSucceeded, []byte(`{"id":"evt_1"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestReconcileDuplicateDeliveryIsNoOp(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewReconcileService(db)

	paymentID := uuid.New()
	bookingID := uuid.New()
	userID := uuid.New()

	// Payment already completed from the first delivery. The second delivery
	// takes the row lock, sees the terminal status and writes nothing.
	mock.ExpectQuery(`SELECT \* FROM "payments"`).
		WillReturnRows(paymentRow(sqlmock.NewRows(paymentColumns()), paymentID, bookingID, userID, "completed"))
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "payments" WHERE id = (.+) FOR UPDATE`).
		WillReturnRows(paymentRow(sqlmock.NewRows(paymentColumns()), paymentID, bookingID, userID, "completed"))
	mock.ExpectCommit()

	err := svc.Reconcile("stripe", "pi_test_123", payments.EventSucceeded, []byte(`{"id":"evt_1"}`))
	if err != nil {
		t.Fatalf("duplicate delivery must not error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestReconcileFailureCascadesToBooking(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewReconcileService(db)

	paymentID := uuid.New()
	bookingID := uuid.New()
	userID := uuid.New()
	tourID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "payments"`).
		WillReturnRows(paymentRow(sqlmock.NewRows(paymentColumns()), paymentID, bookingID, userID, "processing"))
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "payments" WHERE id = (.+) FOR UPDATE`).
		WillReturnRows(paymentRow(sqlmock.NewRows(paymentColumns()), paymentID, bookingID, userID, "processing"))
	mock.ExpectExec(`UPDATE "payments" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	auditInsert(mock)
	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE id = (.+) FOR UPDATE`).
		WillReturnRows(bookingRow(sqlmock.NewRows(bookingColumns()), bookingID, tourID, userID, "pending"))
	mock.ExpectExec(`UPDATE "bookings" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	auditInsert(mock)
	mock.ExpectCommit()

	err := svc.Reconcile("stripe", "pi_test_123", payments.EventFailed, []byte(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestReconcileUnknownReference(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewReconcileService(db)

	mock.ExpectQuery(`SELECT \* FROM "payments"`).
		WillReturnRows(sqlmock.NewRows(paymentColumns()))

	err := svc.Reconcile("stripe", "pi_does_not_exist", payments.EventSucceeded, []byte(`{}`))
	if !errors.Is(err, ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound, got %v", err)
	}
}

func TestReconcileIgnoresUnmappedEvents(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewReconcileService(db)

	// No expectations: an unmapped event must never touch the database.
	if err := svc.Reconcile("stripe", "pi_test_123", payments.EventOther, []byte(`{}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestReconcileDisputeLeavesStateUntouched(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewReconcileService(db)

	paymentID := uuid.New()
	bookingID := uuid.New()
	userID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "payments"`).
		WillReturnRows(paymentRow(sqlmock.NewRows(paymentColumns()), paymentID, bookingID, userID, "completed"))
	// Only an audit record. No payment or booking update.
	auditInsert(mock)

	err := svc.Reconcile("stripe", "pi_test_123", payments.EventDisputed, []byte(`{"dispute":"dp_1"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
