package payments

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newFlutterwaveTestService(handler http.Handler) (*FlutterwaveService, *httptest.Server) {
	server := httptest.NewServer(handler)
	return &FlutterwaveService{
		APIBase:   server.URL,
		SecretKey: "FLWSECK_TEST-abc",
		Client:    &http.Client{Timeout: 5 * time.Second},
	}, server
}

func TestFlutterwaveInitialize(t *testing.T) {
	var gotAuth string
	var gotPayload flwPaymentRequest
	svc, server := newFlutterwaveTestService(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/payments" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		fmt.Fprint(w, `{"status":"success","message":"Hosted Link","data":{"link":"https://checkout.flutterwave.com/v3/hosted/pay/abc"}}`)
	}))
	defer server.Close()

	result, err := svc.Initialize(InitRequest{
		Amount:      250,
		Currency:    "USD",
		Email:       "jane@example.com",
		FirstName:   "Jane",
		LastName:    "Mwangi",
		Reference:   "SAFTX-1",
		RedirectURL: "https://example.com/return",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer FLWSECK_TEST-abc" {
		t.Errorf("unexpected auth header %q", gotAuth)
	}
	if gotPayload.TxRef != "SAFTX-1" || gotPayload.Amount != "250.00" {
		t.Errorf("unexpected payload %+v", gotPayload)
	}
	if gotPayload.Customer.Name != "Jane Mwangi" {
		t.Errorf("unexpected customer name %q", gotPayload.Customer.Name)
	}
	if result.ExternalRef != "SAFTX-1" {
		t.Errorf("expected our tx_ref as external ref, got %q", result.ExternalRef)
	}
	if result.RedirectURL != "https://checkout.flutterwave.com/v3/hosted/pay/abc" {
		t.Errorf("unexpected redirect url %q", result.RedirectURL)
	}
}

func TestFlutterwaveInitializeRejected(t *testing.T) {
	svc, server := newFlutterwaveTestService(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"error","message":"Invalid currency"}`)
	}))
	defer server.Close()

	_, err := svc.Initialize(InitRequest{Amount: 100, Currency: "XXX", Reference: "SAFTX-1"})
	if err == nil {
		t.Fatal("expected error for rejected initiation")
	}
}

func TestFlutterwaveVerify(t *testing.T) {
	svc, server := newFlutterwaveTestService(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/transactions/verify_by_reference" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("tx_ref"); got != "SAFTX-1" {
			t.Errorf("unexpected tx_ref %q", got)
		}
		fmt.Fprint(w, `{"status":"success","data":{"id":12345,"tx_ref":"SAFTX-1","status":"successful","amount":250}}`)
	}))
	defer server.Close()

	status, _, err := svc.Verify("SAFTX-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != StatusSucceeded {
		t.Errorf("expected succeeded, got %s", status)
	}
}

func TestFlutterwaveRefundResolvesTransactionID(t *testing.T) {
	var refundPath string
	svc, server := newFlutterwaveTestService(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v3/transactions/verify_by_reference":
			fmt.Fprint(w, `{"status":"success","data":{"id":12345,"tx_ref":"SAFTX-1","status":"successful","amount":250}}`)
		default:
			refundPath = r.URL.Path
			fmt.Fprint(w, `{"status":"success","message":"Refund initiated","data":{"amount":250}}`)
		}
	}))
	defer server.Close()

	result, err := svc.Refund("SAFTX-1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if refundPath != "/v3/transactions/12345/refunds" {
		t.Errorf("expected refund keyed by numeric id, got path %q", refundPath)
	}
	if result.Status != StatusSucceeded || result.Amount != 250 {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestMapFlutterwaveStatus(t *testing.T) {
	cases := map[string]Status{
		"successful": StatusSucceeded,
		"failed":     StatusFailed,
		"cancelled":  StatusCanceled,
		"pending":    StatusPending,
		"unknown":    StatusPending,
	}
	for native, want := range cases {
		if got := MapFlutterwaveStatus(native); got != want {
			t.Errorf("MapFlutterwaveStatus(%q) = %s, want %s", native, got, want)
		}
	}
}
