package payments

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	config "github.com/mkamau77/safari_tours/configs"
)

const stripeAPIBase = "https://api.stripe.com"

// StripeService drives the embedded card flow: a payment intent is created
// here and finished by the client with the returned client secret.
type StripeService struct {
	APIBase   string
	SecretKey string
	Client    *http.Client
}

func NewStripeService() *StripeService {
	return &StripeService{
		APIBase:   stripeAPIBase,
		SecretKey: config.Config("STRIPE_SECRET_KEY"),
		Client:    &http.Client{Timeout: requestTimeout},
	}
}

func (s *StripeService) Name() string { return "stripe" }

type stripeIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

type stripeError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (s *StripeService) Initialize(req InitRequest) (*InitResult, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(toCents(req.Amount), 10))
	form.Set("currency", strings.ToLower(req.Currency))
	form.Set("automatic_payment_methods[enabled]", "true")
	if req.Email != "" {
		form.Set("receipt_email", req.Email)
	}
	for k, v := range req.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	raw, err := s.do("POST", "/v1/payment_intents", form)
	if err != nil {
		return nil, err
	}

	var intent stripeIntent
	if err := json.Unmarshal(raw, &intent); err != nil {
		return nil, fmt.Errorf("failed to decode payment intent: %v", err)
	}

	return &InitResult{
		ExternalRef:  intent.ID,
		ClientSecret: intent.ClientSecret,
		Raw:          raw,
	}, nil
}

func (s *StripeService) Confirm(externalRef string) (Status, []byte, error) {
	raw, err := s.do("GET", "/v1/payment_intents/"+externalRef, nil)
	if err != nil {
		return StatusPending, nil, err
	}

	var intent stripeIntent
	if err := json.Unmarshal(raw, &intent); err != nil {
		return StatusPending, raw, fmt.Errorf("failed to decode payment intent: %v", err)
	}
	return MapStripeStatus(intent.Status), raw, nil
}

// Verify is the same poll as Confirm; stripe has no separate redirect check.
func (s *StripeService) Verify(externalRef string) (Status, []byte, error) {
	return s.Confirm(externalRef)
}

func (s *StripeService) Refund(externalRef string, amount *float64) (*RefundResult, error) {
	form := url.Values{}
	form.Set("payment_intent", externalRef)
	if amount != nil {
		form.Set("amount", strconv.FormatInt(toCents(*amount), 10))
	}

	req, err := http.NewRequest("POST", s.APIBase+"/v1/refunds", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(s.SecretKey, "")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	// The idempotency key makes a retried refund for the same intent a
	// replay on stripe's side instead of a second refund.
	req.Header.Set("Idempotency-Key", "refund-"+externalRef)

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stripe refund request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stripe refund failed: %s", stripeMessage(raw, resp.Status))
	}

	var refund struct {
		ID     string `json:"id"`
		Amount int64  `json:"amount"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(raw, &refund); err != nil {
		return nil, fmt.Errorf("failed to decode refund: %v", err)
	}

	status := StatusSucceeded
	if refund.Status == "failed" {
		status = StatusFailed
	} else if refund.Status == "pending" {
		status = StatusProcessing
	}

	return &RefundResult{
		ExternalRef: externalRef,
		Amount:      float64(refund.Amount) / 100,
		Status:      status,
		Raw:         raw,
	}, nil
}

// toCents rounds instead of truncating: prices like 19.99 have no exact
// float64 representation and truncation would charge a cent short.
func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func (s *StripeService) do(method, path string, form url.Values) ([]byte, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequest(method, s.APIBase+path, body)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(s.SecretKey, "")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	start := time.Now()
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stripe request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stripe API returned %s after %s: %s", resp.Status, time.Since(start), stripeMessage(raw, resp.Status))
	}
	return raw, nil
}

func stripeMessage(raw []byte, fallback string) string {
	var e stripeError
	if err := json.Unmarshal(raw, &e); err == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return fallback
}

// MapStripeStatus folds stripe's payment intent statuses onto the shared set.
func MapStripeStatus(status string) Status {
	switch status {
	case "succeeded":
		return StatusSucceeded
	case "processing", "requires_capture":
		return StatusProcessing
	case "canceled":
		return StatusCanceled
	case "requires_payment_method", "requires_confirmation", "requires_action":
		return StatusPending
	}
	return StatusPending
}
