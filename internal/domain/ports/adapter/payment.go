package adapter

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// FailureCode is the machine-readable reason a gateway operation failed.
type FailureCode string

const (
	CodeInvalidCardFormat   FailureCode = "INVALID_CARD_FORMAT"
	CodeCardDeclined        FailureCode = "CARD_DECLINED"
	CodeCardExpired         FailureCode = "CARD_EXPIRED"
	CodeIncorrectCVV        FailureCode = "INCORRECT_CVV"
	CodeProcessingError     FailureCode = "PROCESSING_ERROR"
	CodeInvalidExpiry       FailureCode = "INVALID_EXPIRY"
	CodeInvalidCVV          FailureCode = "INVALID_CVV"
	CodeTransactionNotFound FailureCode = "TRANSACTION_NOT_FOUND"
)

// ChargeRequest carries the card data for a single charge. Card fields are
// never persisted; only last four and brand survive on the ledger row.
type ChargeRequest struct {
	Amount      decimal.Decimal
	Currency    string
	CardNumber  string
	ExpiryMonth string
	ExpiryYear  string
	CVV         string
	CardHolder  string
	Description string
}

// ChargeResult is either *ChargeSuccess or *ChargeFailure.
type ChargeResult interface{ isChargeResult() }

type ChargeSuccess struct {
	TransactionID string          `json:"transaction_id"`
	CardLastFour  string          `json:"card_last_four"`
	CardBrand     string          `json:"card_brand"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Message       string          `json:"message"`
	ProcessedAt   time.Time       `json:"processed_at"`
	Sandbox       bool            `json:"sandbox"`
}

type ChargeFailure struct {
	Code    FailureCode `json:"error_code"`
	Message string      `json:"message"`
}

func (*ChargeSuccess) isChargeResult() {}
func (*ChargeFailure) isChargeResult() {}

// RefundResult is either *RefundSuccess or *RefundFailure.
type RefundResult interface{ isRefundResult() }

type RefundSuccess struct {
	RefundTransactionID   string          `json:"refund_transaction_id"`
	OriginalTransactionID string          `json:"original_transaction_id"`
	Amount                decimal.Decimal `json:"amount"`
	Reason                *string         `json:"reason"`
	Message               string          `json:"message"`
	ProcessedAt           time.Time       `json:"processed_at"`
	Sandbox               bool            `json:"sandbox"`
}

type RefundFailure struct {
	Code    FailureCode `json:"error_code"`
	Message string      `json:"message"`
}

func (*RefundSuccess) isRefundResult() {}
func (*RefundFailure) isRefundResult() {}

// VerifyResult is the gateway-side view of a transaction id.
type VerifyResult struct {
	Valid   bool   `json:"valid"`
	Status  string `json:"status"`
	Sandbox bool   `json:"sandbox"`
}

// PaymentGateway is the hex port for payment processors.
// Ordinary business failures come back as Failure values; a non-nil error
// means the gateway reached a state it cannot describe.
type PaymentGateway interface {
	Name() string
	ProcessPayment(ctx context.Context, req ChargeRequest) (ChargeResult, error)
	VerifyTransaction(ctx context.Context, transactionID string) VerifyResult
	ProcessRefund(ctx context.Context, transactionID string, amount decimal.Decimal, reason *string) (RefundResult, error)
}

// WebhookVerifier checks the signature a provider attaches to a webhook body.
type WebhookVerifier interface {
	Verify(signature string, body []byte) bool
}
