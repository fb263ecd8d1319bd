package usecase

import (
	"fmt"

	"sandbox-billing/internal/domain"
	"sandbox-billing/internal/domain/ports/adapter"
)

// GatewayError is a business failure reported by the payment gateway.
// No ledger row is written when it is returned from a charge.
type GatewayError struct {
	Code    adapter.FailureCode
	Message string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway: %s (%s)", e.Message, e.Code)
}

// ValidationError reports a request field that failed a business check
// (unknown plan slug, amount outside the configured bounds).
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// OperationError is an infrastructure failure inside a workflow step. The
// transaction it happened in has been rolled back.
type OperationError struct {
	Op  string
	Err error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error { return domain.ErrOperationFailed }
