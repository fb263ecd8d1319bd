package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrOperationFailed    = errors.New("operation failed")
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")

	// Catalog
	ErrPlanNotFound = errors.New("subscription plan not found")
	ErrUserNotFound = errors.New("user not found")

	// Payments
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrAlreadyRefunded  = errors.New("payment has already been refunded")
	ErrNotRefundable    = errors.New("only completed payments can be refunded")
	ErrAmountOutOfRange = errors.New("amount out of range")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrUnauthenticated  = errors.New("unauthenticated")
)
