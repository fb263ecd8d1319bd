package payment

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"time"

	"sandbox-billing/internal/config"
	"sandbox-billing/internal/domain/model"
	"sandbox-billing/internal/domain/ports/adapter"
	"sandbox-billing/internal/infra/metrics"

	"github.com/shopspring/decimal"
)

var _ adapter.PaymentGateway = (*SandboxGateway)(nil)

// SandboxGateway simulates a card processor. Outcomes are driven by the card
// number; no money moves and nothing leaves the process.
type SandboxGateway struct {
	cfg     config.PaymentConfig
	entropy io.Reader
	now     func() time.Time
}

func NewSandboxGateway(cfg config.PaymentConfig) (*SandboxGateway, error) {
	if cfg.GatewayMode != config.GatewayModeSandbox {
		return nil, fmt.Errorf("unsupported gateway mode %q", cfg.GatewayMode)
	}
	return &SandboxGateway{
		cfg:     cfg,
		entropy: rand.Reader,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (g *SandboxGateway) Name() string { return "sandbox" }

func (g *SandboxGateway) ProcessPayment(ctx context.Context, req adapter.ChargeRequest) (adapter.ChargeResult, error) {
	start := time.Now()
	defer func() { metrics.ObserveGateway(g.Name(), "charge", time.Since(start)) }()

	res, err := g.charge(req)
	if err != nil {
		return nil, err
	}
	if f, ok := res.(*adapter.ChargeFailure); ok {
		metrics.IncGatewayResult("charge", "fail", string(f.Code))
	} else {
		metrics.IncGatewayResult("charge", "ok", "")
	}
	return res, nil
}

func (g *SandboxGateway) charge(req adapter.ChargeRequest) (adapter.ChargeResult, error) {
	card := NormalizeCardNumber(req.CardNumber)
	if !IsValidCardFormat(card) {
		return chargeFailure(adapter.CodeInvalidCardFormat, "Invalid card number format"), nil
	}

	// reserved prefixes win over expiry and CVV checks
	switch ResolveScenario(card) {
	case ScenarioDecline:
		return chargeFailure(adapter.CodeCardDeclined, "Card declined"), nil
	case ScenarioExpired:
		return chargeFailure(adapter.CodeCardExpired, "Card expired"), nil
	case ScenarioIncorrectCVV:
		return chargeFailure(adapter.CodeIncorrectCVV, "Incorrect CVV"), nil
	case ScenarioProcessingError:
		return chargeFailure(adapter.CodeProcessingError, "Processing error"), nil
	}

	now := g.now()
	switch ValidateExpiry(req.ExpiryMonth, req.ExpiryYear, now) {
	case ExpiryInvalidMonth:
		return chargeFailure(adapter.CodeInvalidExpiry, "Invalid expiry month"), nil
	case ExpiryExpired:
		return chargeFailure(adapter.CodeCardExpired, "Card has expired"), nil
	}

	if !IsValidCVV(req.CVV) {
		return chargeFailure(adapter.CodeInvalidCVV, "Invalid CVV"), nil
	}

	id, err := g.newID(model.TransactionPrefix)
	if err != nil {
		return nil, err
	}
	currency := req.Currency
	if currency == "" {
		currency = g.cfg.DefaultCurrency
	}
	return &adapter.ChargeSuccess{
		TransactionID: id,
		CardLastFour:  lastFour(card),
		CardBrand:     DetectCardBrand(card),
		Amount:        req.Amount,
		Currency:      strings.ToUpper(currency),
		Message:       "Payment processed successfully",
		ProcessedAt:   now,
		Sandbox:       true,
	}, nil
}

// VerifyTransaction is a format check only; it does not consult the ledger.
func (g *SandboxGateway) VerifyTransaction(ctx context.Context, transactionID string) adapter.VerifyResult {
	if strings.HasPrefix(transactionID, model.TransactionPrefix) {
		metrics.IncGatewayResult("verify", "ok", "")
		return adapter.VerifyResult{Valid: true, Status: "completed", Sandbox: true}
	}
	metrics.IncGatewayResult("verify", "fail", "not_found")
	return adapter.VerifyResult{Valid: false, Status: "not_found", Sandbox: true}
}

func (g *SandboxGateway) ProcessRefund(ctx context.Context, transactionID string, amount decimal.Decimal, reason *string) (adapter.RefundResult, error) {
	start := time.Now()
	defer func() { metrics.ObserveGateway(g.Name(), "refund", time.Since(start)) }()

	if !strings.HasPrefix(transactionID, model.TransactionPrefix) {
		metrics.IncGatewayResult("refund", "fail", string(adapter.CodeTransactionNotFound))
		return &adapter.RefundFailure{
			Code:    adapter.CodeTransactionNotFound,
			Message: "Original transaction not found",
		}, nil
	}

	id, err := g.newID(model.RefundPrefix)
	if err != nil {
		return nil, err
	}
	metrics.IncGatewayResult("refund", "ok", "")
	return &adapter.RefundSuccess{
		RefundTransactionID:   id,
		OriginalTransactionID: transactionID,
		Amount:                amount,
		Reason:                reason,
		Message:               "Refund processed successfully",
		ProcessedAt:           g.now(),
		Sandbox:               true,
	}, nil
}

func (g *SandboxGateway) newID(prefix string) (string, error) {
	return model.TransactionIDFrom(g.entropy, prefix)
}

func chargeFailure(code adapter.FailureCode, msg string) *adapter.ChargeFailure {
	return &adapter.ChargeFailure{Code: code, Message: msg}
}
