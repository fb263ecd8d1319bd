package model

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"sandbox-billing/internal/domain"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"   // recorded, awaiting provider confirmation
	PaymentStatusCompleted PaymentStatus = "completed" // charged (or audit row written)
	PaymentStatusFailed    PaymentStatus = "failed"    // provider reported failure
	PaymentStatusRefunded  PaymentStatus = "refunded"  // money returned; terminal
)

type PaymentType string

const (
	PaymentTypeSubscription PaymentType = "subscription"
	PaymentTypeOneTime      PaymentType = "one-time"
	PaymentTypeRefund       PaymentType = "refund"
	PaymentTypeRevert       PaymentType = "revert"
)

const (
	GatewaySandbox = "sandbox"
	GatewaySystem  = "system" // administrative rows that never touched a gateway
)

const (
	TransactionPrefix = "TXN_"
	RefundPrefix      = "REF_"
)

// NewTransactionID returns TXN_ followed by 24 uppercase hex characters.
func NewTransactionID() (string, error) {
	return TransactionIDFrom(rand.Reader, TransactionPrefix)
}

// TransactionIDFrom reads 12 bytes from r and renders them after prefix.
func TransactionIDFrom(r io.Reader, prefix string) (string, error) {
	b := make([]byte, 12)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", fmt.Errorf("generate transaction id: %w", err)
	}
	return prefix + strings.ToUpper(hex.EncodeToString(b)), nil
}

// Payment is one monetary (or audit) event in the ledger.
type Payment struct {
	ID              string                 `json:"id"`
	UserID          string                 `json:"user_id"`
	PlanName        *string                `json:"plan_name"`
	TransactionID   string                 `json:"transaction_id"`
	Gateway         string                 `json:"gateway"`
	Amount          decimal.Decimal        `json:"amount"`
	Currency        string                 `json:"currency"`
	Status          PaymentStatus          `json:"status"`
	Type            PaymentType            `json:"type"`
	CardLastFour    *string                `json:"card_last_four"`
	CardBrand       *string                `json:"card_brand"`
	Description     string                 `json:"description"`
	GatewayResponse map[string]interface{} `json:"-"` // raw simulator output, internal only
	Metadata        map[string]interface{} `json:"metadata"`
	PaidAt          *time.Time             `json:"paid_at"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// NewPayment fills identifiers and bookkeeping timestamps.
func NewPayment(userID, transactionID, gateway string, amount decimal.Decimal, currency string, typ PaymentType) (*Payment, error) {
	now := time.Now().UTC()
	p := &Payment{
		ID:            ulid.Make().String(),
		UserID:        userID,
		TransactionID: transactionID,
		Gateway:       gateway,
		Amount:        amount,
		Currency:      currency,
		Status:        PaymentStatusPending,
		Type:          typ,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the row shape before it reaches storage.
// Zero amounts are only legal for revert audit rows.
func (p *Payment) Validate() error {
	if p.UserID == "" || p.TransactionID == "" || p.Gateway == "" {
		return domain.ErrInvalidArgument
	}
	if len(p.Currency) != 3 {
		return domain.ErrInvalidArgument
	}
	if p.Amount.IsNegative() {
		return domain.ErrInvalidArgument
	}
	if p.Amount.IsZero() && p.Type != PaymentTypeRevert {
		return domain.ErrInvalidArgument
	}
	switch p.Type {
	case PaymentTypeSubscription, PaymentTypeOneTime, PaymentTypeRefund, PaymentTypeRevert:
	default:
		return domain.ErrInvalidArgument
	}
	return nil
}

// MarkCompleted moves the payment to completed and stamps paid_at.
func (p *Payment) MarkCompleted(at time.Time) {
	p.Status = PaymentStatusCompleted
	p.PaidAt = &at
	p.UpdatedAt = at
}

// MergeMetadata adds keys that are not already present.
func (p *Payment) MergeMetadata(extra map[string]interface{}) {
	if p.Metadata == nil {
		p.Metadata = make(map[string]interface{}, len(extra))
	}
	for k, v := range extra {
		if _, exists := p.Metadata[k]; exists {
			continue
		}
		p.Metadata[k] = v
	}
}

func (p *Payment) IsCompleted() bool { return p.Status == PaymentStatusCompleted }
func (p *Payment) IsPending() bool   { return p.Status == PaymentStatusPending }
func (p *Payment) IsFailed() bool    { return p.Status == PaymentStatusFailed }
func (p *Payment) IsRefunded() bool  { return p.Status == PaymentStatusRefunded }
