package services

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Entity)
}

type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	return e.Message
}

type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// GatewayError wraps an external processor failure with the original message
// attached for diagnostics. Not assumed retryable by callers.
type GatewayError struct {
	Gateway string
	Err     error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway %s: %v", e.Gateway, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// StatusCode maps a service error onto the HTTP status the handlers answer
// with. Anything unrecognized is a 500.
func StatusCode(err error) int {
	var nf *NotFoundError
	var ve *ValidationError
	var fe *ForbiddenError
	var ce *ConflictError
	var ge *GatewayError
	switch {
	case errors.As(err, &nf):
		return fiber.StatusNotFound
	case errors.As(err, &ve):
		return fiber.StatusBadRequest
	case errors.As(err, &fe):
		return fiber.StatusForbidden
	case errors.As(err, &ce):
		return fiber.StatusConflict
	case errors.As(err, &ge):
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}
