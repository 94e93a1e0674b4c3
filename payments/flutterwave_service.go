package payments

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"

	config "github.com/mkamau77/safari_tours/configs"
)

const flutterwaveAPIBase = "https://api.flutterwave.com"

// FlutterwaveService drives the hosted checkout flow: initialize returns a
// payment link the client is redirected to, and the outcome is picked up by
// webhook or by verifying the tx_ref afterwards.
type FlutterwaveService struct {
	APIBase   string
	SecretKey string
	Client    *http.Client
}

func NewFlutterwaveService() *FlutterwaveService {
	return &FlutterwaveService{
		APIBase:   flutterwaveAPIBase,
		SecretKey: config.Config("FLW_SECRET_KEY"),
		Client:    &http.Client{Timeout: requestTimeout},
	}
}

func (s *FlutterwaveService) Name() string { return "flutterwave" }

type flwPaymentRequest struct {
	TxRef       string            `json:"tx_ref"`
	Amount      string            `json:"amount"`
	Currency    string            `json:"currency"`
	RedirectURL string            `json:"redirect_url"`
	Customer    flwCustomer       `json:"customer"`
	Meta        map[string]string `json:"meta,omitempty"`
}

type flwCustomer struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type flwResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		ID     int64   `json:"id"`
		TxRef  string  `json:"tx_ref"`
		Link   string  `json:"link"`
		Status string  `json:"status"`
		Amount float64 `json:"amount"`
	} `json:"data"`
}

func (s *FlutterwaveService) Initialize(req InitRequest) (*InitResult, error) {
	payload := flwPaymentRequest{
		TxRef:       req.Reference,
		Amount:      fmt.Sprintf("%.2f", req.Amount),
		Currency:    req.Currency,
		RedirectURL: req.RedirectURL,
		Customer: flwCustomer{
			Email: req.Email,
			Name:  req.FirstName + " " + req.LastName,
		},
		Meta: req.Metadata,
	}

	raw, err := s.do("POST", "/v3/payments", payload)
	if err != nil {
		return nil, err
	}

	var resp flwResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode flutterwave response: %v", err)
	}
	if resp.Status != "success" {
		return nil, fmt.Errorf("flutterwave payment initiation failed: %s", resp.Message)
	}

	return &InitResult{
		ExternalRef: req.Reference,
		RedirectURL: resp.Data.Link,
		Raw:         raw,
	}, nil
}

// Confirm is an alias of Verify; flutterwave only supports polling by tx_ref.
func (s *FlutterwaveService) Confirm(externalRef string) (Status, []byte, error) {
	return s.Verify(externalRef)
}

func (s *FlutterwaveService) Verify(externalRef string) (Status, []byte, error) {
	raw, err := s.do("GET", "/v3/transactions/verify_by_reference?tx_ref="+url.QueryEscape(externalRef), nil)
	if err != nil {
		return StatusPending, nil, err
	}

	var resp flwResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return StatusPending, raw, fmt.Errorf("failed to decode verification: %v", err)
	}
	if resp.Status != "success" {
		return StatusPending, raw, fmt.Errorf("flutterwave verification failed: %s", resp.Message)
	}
	return MapFlutterwaveStatus(resp.Data.Status), raw, nil
}

func (s *FlutterwaveService) Refund(externalRef string, amount *float64) (*RefundResult, error) {
	// Refunds are keyed by flutterwave's numeric transaction id, so resolve
	// the tx_ref first.
	raw, err := s.do("GET", "/v3/transactions/verify_by_reference?tx_ref="+url.QueryEscape(externalRef), nil)
	if err != nil {
		return nil, err
	}
	var verify flwResponse
	if err := json.Unmarshal(raw, &verify); err != nil {
		return nil, fmt.Errorf("failed to decode verification: %v", err)
	}
	if verify.Status != "success" || verify.Data.ID == 0 {
		return nil, fmt.Errorf("cannot refund unverified transaction %s: %s", externalRef, verify.Message)
	}

	payload := map[string]interface{}{}
	if amount != nil {
		payload["amount"] = *amount
	}

	raw, err = s.do("POST", fmt.Sprintf("/v3/transactions/%d/refunds", verify.Data.ID), payload)
	if err != nil {
		return nil, err
	}

	var refund flwResponse
	if err := json.Unmarshal(raw, &refund); err != nil {
		return nil, fmt.Errorf("failed to decode refund: %v", err)
	}
	if refund.Status != "success" {
		return nil, fmt.Errorf("flutterwave refund failed: %s", refund.Message)
	}

	log.Printf("✅ Flutterwave refund accepted for %s", externalRef)
	return &RefundResult{
		ExternalRef: externalRef,
		Amount:      refund.Data.Amount,
		Status:      StatusSucceeded,
		Raw:         raw,
	}, nil
}

func (s *FlutterwaveService) do(method, path string, payload interface{}) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewBuffer(buf)
	}

	req, err := http.NewRequest(method, s.APIBase+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("flutterwave request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("flutterwave API returned %s: %s", resp.Status, string(raw))
	}
	return raw, nil
}

// MapFlutterwaveStatus folds flutterwave transaction statuses onto the shared set.
func MapFlutterwaveStatus(status string) Status {
	switch status {
	case "successful":
		return StatusSucceeded
	case "failed":
		return StatusFailed
	case "cancelled":
		return StatusCanceled
	case "pending":
		return StatusPending
	}
	return StatusPending
}
