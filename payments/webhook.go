package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EventKind is the internal classification of a gateway webhook event.
type EventKind string

const (
	EventSucceeded EventKind = "succeeded"
	EventFailed    EventKind = "failed"
	EventCanceled  EventKind = "canceled"
	EventDisputed  EventKind = "disputed"
	EventOther     EventKind = "other"
)

var (
	ErrMissingSignature = errors.New("missing webhook signature")
	ErrBadSignature     = errors.New("webhook signature mismatch")
	ErrStaleTimestamp   = errors.New("webhook timestamp outside tolerance")
)

// signatureTolerance bounds the replay window on timestamped signatures.
const signatureTolerance = 5 * time.Minute

// VerifyFlutterwaveSignature checks the verif-hash header: an HMAC-SHA256 of
// the raw body under the shared secret. Constant-time compare.
func VerifyFlutterwaveSignature(payload []byte, header, secret string) error {
	if header == "" {
		return ErrMissingSignature
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(header)) {
		return ErrBadSignature
	}
	return nil
}

// VerifyStripeSignature checks a Stripe-Signature header of the form
// "t=<timestamp>,v1=<hex hmac>" against HMAC-SHA256("<t>.<raw body>", secret),
// the same construction stripe's SDK performs, including the bounded timestamp
// tolerance so captured events cannot be replayed later.
func VerifyStripeSignature(payload []byte, header, secret string) error {
	if header == "" {
		return ErrMissingSignature
	}

	var timestamp string
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			timestamp = kv[1]
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return ErrBadSignature
	}
	issued, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrBadSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s.%s", timestamp, payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, sig := range signatures {
		if hmac.Equal([]byte(expected), []byte(sig)) {
			age := time.Since(time.Unix(issued, 0))
			if age > signatureTolerance || age < -signatureTolerance {
				return ErrStaleTimestamp
			}
			return nil
		}
	}
	return ErrBadSignature
}

type stripeEvent struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID            string `json:"id"`
			PaymentIntent string `json:"payment_intent"`
		} `json:"object"`
	} `json:"data"`
}

// ParseStripeEvent maps a stripe event onto the internal kind and extracts the
// payment intent reference.
func ParseStripeEvent(raw []byte) (string, EventKind, error) {
	var event stripeEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return "", EventOther, fmt.Errorf("malformed stripe event: %v", err)
	}

	ref := event.Data.Object.ID
	switch event.Type {
	case "payment_intent.succeeded":
		return ref, EventSucceeded, nil
	case "payment_intent.payment_failed":
		return ref, EventFailed, nil
	case "payment_intent.canceled":
		return ref, EventCanceled, nil
	case "charge.dispute.created":
		// Disputes reference the intent through the charge.
		if event.Data.Object.PaymentIntent != "" {
			ref = event.Data.Object.PaymentIntent
		}
		return ref, EventDisputed, nil
	}
	return ref, EventOther, nil
}

type flutterwaveEvent struct {
	Event string `json:"event"`
	Data  struct {
		TxRef  string `json:"tx_ref"`
		Status string `json:"status"`
	} `json:"data"`
}

// ParseFlutterwaveEvent maps a flutterwave event onto the internal kind keyed
// by the tx_ref we generated at initialization.
func ParseFlutterwaveEvent(raw []byte) (string, EventKind, error) {
	var event flutterwaveEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return "", EventOther, fmt.Errorf("malformed flutterwave event: %v", err)
	}

	ref := event.Data.TxRef
	switch event.Event {
	case "charge.completed":
		switch event.Data.Status {
		case "successful":
			return ref, EventSucceeded, nil
		case "failed":
			return ref, EventFailed, nil
		case "cancelled":
			return ref, EventCanceled, nil
		}
		return ref, EventOther, nil
	case "charge.dispute":
		return ref, EventDisputed, nil
	}
	return ref, EventOther, nil
}
