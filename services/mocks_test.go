package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/mkamau77/safari_tours/payments"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm open error: %v", err)
	}
	return db, mock
}

func paymentColumns() []string {
	return []string{
		"id", "booking_id", "user_id", "amount", "currency", "gateway",
		"external_ref", "detail", "raw_response", "status", "failure_reason",
		"created_at", "updated_at",
	}
}

func paymentRow(mockRows *sqlmock.Rows, id, bookingID, userID uuid.UUID, status string) *sqlmock.Rows {
	return mockRows.AddRow(
		id.String(), bookingID.String(), userID.String(), 500.0, "USD", "stripe",
		"pi_test_123", []byte(`{}`), []byte(`{}`), status, nil,
		time.Now(), time.Now(),
	)
}

func bookingColumns() []string {
	return []string{
		"id", "booking_number", "tour_id", "user_id", "start_date", "end_date",
		"adult_count", "child_count", "total_price", "discount_amount", "promo_code",
		"status", "cancel_reason", "notes", "created_at", "updated_at",
	}
}

func bookingRow(mockRows *sqlmock.Rows, id, tourID, userID uuid.UUID, status string) *sqlmock.Rows {
	return mockRows.AddRow(
		id.String(), "SAF-260901-AB12C", tourID.String(), userID.String(),
		time.Now().Add(24*time.Hour), time.Now().Add(72*time.Hour),
		2, 1, 500.0, 0.0, nil,
		status, nil, nil, time.Now(), time.Now(),
	)
}

func auditInsert(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(`INSERT INTO "audit_logs"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()))
}

// stubGateway satisfies payments.Gateway for service tests.
type stubGateway struct {
	name       string
	initResult *payments.InitResult
	initErr    error
	status     payments.Status
	refund     *payments.RefundResult
	refundErr  error
	refundHits int
}

func (g *stubGateway) Name() string { return g.name }

func (g *stubGateway) Initialize(req payments.InitRequest) (*payments.InitResult, error) {
	if g.initErr != nil {
		return nil, g.initErr
	}
	return g.initResult, nil
}

func (g *stubGateway) Confirm(ref string) (payments.Status, []byte, error) {
	return g.status, []byte(`{}`), nil
}

func (g *stubGateway) Verify(ref string) (payments.Status, []byte, error) {
	return g.status, []byte(`{}`), nil
}

func (g *stubGateway) Refund(ref string, amount *float64) (*payments.RefundResult, error) {
	g.refundHits++
	if g.refundErr != nil {
		return nil, g.refundErr
	}
	return g.refund, nil
}

func resolverFor(g payments.Gateway) func(string) (payments.Gateway, error) {
	return func(string) (payments.Gateway, error) { return g, nil }
}
