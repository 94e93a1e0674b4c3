package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	PaymentStatusPending    = "pending"
	PaymentStatusProcessing = "processing"
	PaymentStatusCompleted  = "completed"
	PaymentStatusFailed     = "failed"
	PaymentStatusRefunded   = "refunded"
)

const (
	GatewayStripe      = "stripe"
	GatewayFlutterwave = "flutterwave"
)

// StripeDetail is the typed subset of a payment intent the reconciler reads.
type StripeDetail struct {
	IntentID     string `json:"intent_id"`
	ClientSecret string `json:"client_secret,omitempty"`
	Status       string `json:"status,omitempty"`
}

// FlutterwaveDetail is the typed subset of a hosted-checkout transaction.
type FlutterwaveDetail struct {
	TxRef       string `json:"tx_ref"`
	FlwID       int64  `json:"flw_id,omitempty"`
	PaymentLink string `json:"payment_link,omitempty"`
	Status      string `json:"status,omitempty"`
}

// GatewayDetail is a tagged union keyed by the payment's gateway type. Exactly
// one branch is set; the raw gateway payload lives in Payment.RawResponse and
// is kept for audit only.
type GatewayDetail struct {
	Stripe      *StripeDetail      `json:"stripe,omitempty"`
	Flutterwave *FlutterwaveDetail `json:"flutterwave,omitempty"`
}

func (d GatewayDetail) Value() (driver.Value, error) {
	return json.Marshal(d)
}

func (d *GatewayDetail) Scan(value interface{}) error {
	if value == nil {
		*d = GatewayDetail{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	}
	return errors.New("unsupported type for GatewayDetail")
}

type Payment struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	BookingID *uuid.UUID `gorm:"type:uuid;index" json:"booking_id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`

	Amount   float64 `gorm:"type:numeric(10,2);not null" json:"amount"`
	Currency string  `gorm:"size:3;not null" json:"currency"`

	Gateway     string        `gorm:"size:20;not null;uniqueIndex:idx_gateway_ref" json:"gateway"`
	ExternalRef string        `gorm:"size:255;not null;uniqueIndex:idx_gateway_ref" json:"external_ref"`
	Detail      GatewayDetail `gorm:"type:jsonb" json:"detail"`
	RawResponse []byte        `gorm:"type:bytea" json:"-"`

	Status        string  `gorm:"size:20;not null;default:'pending'" json:"status"`
	FailureReason *string `gorm:"type:text" json:"failure_reason"`

	Booking *Booking `gorm:"foreignkey:BookingID" json:"booking,omitempty"`
	User    User     `gorm:"foreignkey:UserID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var paymentTransitions = map[string][]string{
	PaymentStatusPending:    {PaymentStatusProcessing, PaymentStatusCompleted, PaymentStatusFailed},
	PaymentStatusProcessing: {PaymentStatusCompleted, PaymentStatusFailed},
	PaymentStatusCompleted:  {PaymentStatusRefunded},
}

// PaymentStatusAllowed guards every payment write, including webhook-driven
// ones; a transition the table does not permit must be treated as a no-op by
// the caller, never an error, so duplicate gateway deliveries stay safe.
func PaymentStatusAllowed(from, to string) bool {
	for _, next := range paymentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
