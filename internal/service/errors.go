package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrPastDate         = errors.New("booking date cannot be in the past")
	ErrSlotUnavailable  = errors.New("this time slot is not available")
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
)

// ValidationError carries the stable per-field messages returned to clients.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

func validationErr(msgs ...string) *ValidationError {
	return &ValidationError{Messages: msgs}
}

// GatewayError wraps a payment-gateway failure so handlers can distinguish it
// from local errors. The transaction row is always settled before this is
// returned.
type GatewayError struct {
	Err error
}

func (e *GatewayError) Error() string { return fmt.Sprintf("payment gateway: %v", e.Err) }

func (e *GatewayError) Unwrap() error { return e.Err }
