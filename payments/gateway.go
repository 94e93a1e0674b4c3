package payments

import (
	"fmt"
	"time"
)

// Status is the closed set both gateway implementations map their native
// transaction statuses onto.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
	StatusCanceled   Status = "canceled"
)

type InitRequest struct {
	Amount      float64
	Currency    string
	Email       string
	FirstName   string
	LastName    string
	Reference   string
	RedirectURL string
	Metadata    map[string]string
}

// InitResult carries whichever client handoff the gateway uses: an embedded
// flow returns a client secret, a hosted checkout returns a redirect URL.
type InitResult struct {
	ExternalRef  string
	ClientSecret string
	RedirectURL  string
	Raw          []byte
}

type RefundResult struct {
	ExternalRef string
	Amount      float64
	Status      Status
	Raw         []byte
}

type Gateway interface {
	Name() string
	Initialize(req InitRequest) (*InitResult, error)
	Confirm(externalRef string) (Status, []byte, error)
	Verify(externalRef string) (Status, []byte, error)
	Refund(externalRef string, amount *float64) (*RefundResult, error)
}

// ByName resolves the adapter for a gateway type.
func ByName(name string) (Gateway, error) {
	switch name {
	case "stripe":
		return NewStripeService(), nil
	case "flutterwave":
		return NewFlutterwaveService(), nil
	}
	return nil, fmt.Errorf("unknown payment gateway: %s", name)
}

// Outbound gateway calls are bounded; a timeout on initialize fails closed, a
// timeout on confirm/verify leaves the payment to be reconciled by webhook.
const requestTimeout = 15 * time.Second
