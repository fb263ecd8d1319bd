package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sandbox-billing/internal/config"
	"sandbox-billing/internal/domain"
	"sandbox-billing/internal/domain/model"
	"sandbox-billing/internal/domain/ports/adapter"
	"sandbox-billing/internal/domain/ports/repository"
	"sandbox-billing/internal/infra/logging"
	"sandbox-billing/internal/infra/metrics"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	PaymentsPerPage = 20

	EventPaymentCompleted = "payment.completed"
	EventPaymentFailed    = "payment.failed"

	defaultOneTimeDescription = "One-time payment"

	metaRefundReason        = "refund_reason"
	metaRefundTransactionID = "refund_transaction_id"
	metaRefundedAt          = "refunded_at"
)

// CardDetails is the payment method submitted with a charge. It is passed
// straight to the gateway and never stored.
type CardDetails struct {
	Number      string
	ExpiryMonth string
	ExpiryYear  string
	CVV         string
	Holder      string
}

type OneTimeInput struct {
	Amount      decimal.Decimal
	Currency    string
	Description string
	Metadata    map[string]interface{}
	Card        CardDetails
}

type VerifyResult struct {
	Payment       *model.Payment
	Verified      bool
	GatewayStatus adapter.VerifyResult
}

type PaymentPage struct {
	Items    []*model.Payment
	Page     int
	PerPage  int
	Total    int
	LastPage int
}

// LastPlanResult is empty when the user never paid for a plan. Plan is nil
// while PlanSlug is set when the plan row no longer exists.
type LastPlanResult struct {
	Plan     *model.SubscriptionPlan
	PlanSlug string
	Payment  *model.Payment
}

type RevertResult struct {
	Payment *model.Payment
	User    *model.User
}

// PaymentUseCase is the payment-recording workflow around the gateway.
type PaymentUseCase interface {
	// Subscribe charges the plan price and, on success, records the payment
	// and sets the user's current plan in one transaction.
	Subscribe(ctx context.Context, userID, planSlug string, card CardDetails) (*model.Payment, error)
	// ProcessOneTime charges an arbitrary amount without touching the current plan.
	ProcessOneTime(ctx context.Context, userID string, in OneTimeInput) (*model.Payment, error)
	Verify(ctx context.Context, userID, transactionID string) (*VerifyResult, error)
	List(ctx context.Context, userID string, page int) (*PaymentPage, error)
	LastPlan(ctx context.Context, userID string) (*LastPlanResult, error)
	Refund(ctx context.Context, userID, transactionID string, reason *string) (*model.Payment, error)
	// HandleWebhook applies a provider event. Unknown events and unknown
	// transaction ids are accepted and ignored.
	HandleWebhook(ctx context.Context, signature string, body []byte, eventType, transactionID string) error
	RevertPlan(ctx context.Context, userID string, toPlan, reason *string) (*RevertResult, error)
}

var _ PaymentUseCase = (*paymentUC)(nil)

type paymentUC struct {
	payments repository.PaymentRepository
	plans    repository.SubscriptionPlanRepository
	users    repository.UserRepository
	gateway  adapter.PaymentGateway
	verifier adapter.WebhookVerifier
	tx       repository.TransactionManager
	cfg      config.PaymentConfig
	log      *zerolog.Logger
	now      func() time.Time
}

func NewPaymentUseCase(
	payments repository.PaymentRepository,
	plans repository.SubscriptionPlanRepository,
	users repository.UserRepository,
	gateway adapter.PaymentGateway,
	verifier adapter.WebhookVerifier,
	tx repository.TransactionManager,
	cfg config.PaymentConfig,
	logger *zerolog.Logger,
) PaymentUseCase {
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}
	return &paymentUC{
		payments: payments,
		plans:    plans,
		users:    users,
		gateway:  gateway,
		verifier: verifier,
		tx:       tx,
		cfg:      cfg,
		log:      logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (u *paymentUC) Subscribe(ctx context.Context, userID, planSlug string, card CardDetails) (*model.Payment, error) {
	log := logging.With(ctx, u.log)
	defer logging.TraceDuration(log, "PaymentUC.Subscribe")()

	plan, err := u.plans.FindBySlug(ctx, repository.NoTX, planSlug)
	if err != nil {
		if errors.Is(err, domain.ErrPlanNotFound) {
			return nil, &ValidationError{Field: "plan_slug", Message: "The selected plan slug is invalid.", Err: err}
		}
		return nil, err
	}
	if !plan.IsActive {
		return nil, &ValidationError{Field: "plan_slug", Message: "The selected plan slug is invalid.", Err: domain.ErrPlanNotFound}
	}
	if !plan.Price.IsPositive() {
		return nil, &ValidationError{Field: "plan_slug", Message: "The selected plan has no price; use revert-plan to switch to it.", Err: domain.ErrInvalidArgument}
	}
	if _, err := u.users.FindByID(ctx, repository.NoTX, userID); err != nil {
		return nil, err
	}

	description := fmt.Sprintf("Subscription to %s", plan.Name)
	success, err := u.charge(ctx, plan.PaymentType(), adapter.ChargeRequest{
		Amount:      plan.Price,
		Currency:    plan.Currency,
		CardNumber:  card.Number,
		ExpiryMonth: card.ExpiryMonth,
		ExpiryYear:  card.ExpiryYear,
		CVV:         card.CVV,
		CardHolder:  card.Holder,
		Description: description,
	})
	if err != nil {
		return nil, err
	}

	p, err := u.newChargePayment(userID, success, plan.Price, plan.Currency, plan.PaymentType())
	if err != nil {
		return nil, &OperationError{Op: "Failed to process subscription", Err: err}
	}
	slug := plan.Slug
	p.PlanName = &slug
	p.Description = description

	err = u.tx.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.payments.Create(ctx, tx, p); err != nil {
			return err
		}
		return u.users.UpdateCurrentPlan(ctx, tx, userID, &slug)
	})
	if err != nil {
		log.Error().Err(err).Str("transaction_id", p.TransactionID).Str("plan", slug).
			Msg("subscription charged but not recorded")
		return nil, &OperationError{Op: "Failed to process subscription", Err: err}
	}

	metrics.IncPayment(string(p.Type), string(p.Status))
	metrics.AddPaymentRevenue(p.Currency, p.Amount)
	metrics.IncPlanChange("subscribe")
	log.Info().Str("transaction_id", p.TransactionID).Str("plan", slug).Msg("subscription payment recorded")
	return p, nil
}

func (u *paymentUC) ProcessOneTime(ctx context.Context, userID string, in OneTimeInput) (*model.Payment, error) {
	log := logging.With(ctx, u.log)
	defer logging.TraceDuration(log, "PaymentUC.ProcessOneTime")()

	amount := in.Amount
	if amount.LessThan(u.cfg.MinAmount) || amount.GreaterThan(u.cfg.MaxAmount) {
		return nil, &ValidationError{
			Field:   "amount",
			Message: fmt.Sprintf("The amount must be between %s and %s.", u.cfg.MinAmount.StringFixed(2), u.cfg.MaxAmount.StringFixed(2)),
			Err:     domain.ErrAmountOutOfRange,
		}
	}
	if !amount.Equal(amount.Truncate(2)) {
		return nil, &ValidationError{
			Field:   "amount",
			Message: "The amount must not have more than 2 decimal places.",
			Err:     domain.ErrInvalidArgument,
		}
	}
	amount = amount.Round(2)
	if key, ok := reservedMetadataKey(in.Metadata); ok {
		return nil, &ValidationError{
			Field:   "metadata." + key,
			Message: fmt.Sprintf("The metadata key %s is reserved.", key),
			Err:     domain.ErrInvalidArgument,
		}
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = u.cfg.DefaultCurrency
	}
	description := in.Description
	if description == "" {
		description = defaultOneTimeDescription
	}

	success, err := u.charge(ctx, model.PaymentTypeOneTime, adapter.ChargeRequest{
		Amount:      amount,
		Currency:    currency,
		CardNumber:  in.Card.Number,
		ExpiryMonth: in.Card.ExpiryMonth,
		ExpiryYear:  in.Card.ExpiryYear,
		CVV:         in.Card.CVV,
		CardHolder:  in.Card.Holder,
		Description: description,
	})
	if err != nil {
		return nil, err
	}

	p, err := u.newChargePayment(userID, success, amount, currency, model.PaymentTypeOneTime)
	if err != nil {
		return nil, &OperationError{Op: "Failed to record payment", Err: err}
	}
	p.Description = description
	if in.Metadata != nil {
		p.Metadata = in.Metadata
	}

	if err := u.payments.Create(ctx, repository.NoTX, p); err != nil {
		log.Error().Err(err).Str("transaction_id", p.TransactionID).Msg("one-time payment charged but not recorded")
		return nil, &OperationError{Op: "Failed to record payment", Err: err}
	}

	metrics.IncPayment(string(p.Type), string(p.Status))
	metrics.AddPaymentRevenue(p.Currency, p.Amount)
	log.Info().Str("transaction_id", p.TransactionID).Str("amount", p.Amount.StringFixed(2)).Msg("one-time payment recorded")
	return p, nil
}

// charge calls the gateway and turns a failure value into *GatewayError.
// reservedMetadataKey reports a caller key that would shadow the refund
// details merged into metadata later.
func reservedMetadataKey(md map[string]interface{}) (string, bool) {
	for _, k := range []string{metaRefundReason, metaRefundTransactionID, metaRefundedAt} {
		if _, ok := md[k]; ok {
			return k, true
		}
	}
	return "", false
}

func (u *paymentUC) charge(ctx context.Context, typ model.PaymentType, req adapter.ChargeRequest) (*adapter.ChargeSuccess, error) {
	res, err := u.gateway.ProcessPayment(ctx, req)
	if err != nil {
		return nil, &OperationError{Op: "Payment gateway error", Err: err}
	}
	switch r := res.(type) {
	case *adapter.ChargeSuccess:
		return r, nil
	case *adapter.ChargeFailure:
		metrics.IncPayment(string(typ), string(model.PaymentStatusFailed))
		logging.With(ctx, u.log).Info().
			Str("code", string(r.Code)).
			Str("card_holder", logging.Redact(req.CardHolder)).
			Msg("charge declined by gateway")
		return nil, &GatewayError{Code: r.Code, Message: r.Message}
	default:
		return nil, &OperationError{Op: "Payment gateway error", Err: fmt.Errorf("unexpected result %T", res)}
	}
}

func (u *paymentUC) newChargePayment(userID string, s *adapter.ChargeSuccess, amount decimal.Decimal, currency string, typ model.PaymentType) (*model.Payment, error) {
	p, err := model.NewPayment(userID, s.TransactionID, u.gateway.Name(), amount, currency, typ)
	if err != nil {
		return nil, err
	}
	last4, brand := s.CardLastFour, s.CardBrand
	p.CardLastFour = &last4
	p.CardBrand = &brand
	p.GatewayResponse = chargeResponse(s)
	p.MarkCompleted(u.now())
	return p, nil
}

func chargeResponse(s *adapter.ChargeSuccess) map[string]interface{} {
	return map[string]interface{}{
		"success":        true,
		"message":        s.Message,
		"transaction_id": s.TransactionID,
		"card_last_four": s.CardLastFour,
		"card_brand":     s.CardBrand,
		"amount":         s.Amount.StringFixed(2),
		"currency":       s.Currency,
		"processed_at":   s.ProcessedAt.Format(time.RFC3339),
		"sandbox":        s.Sandbox,
	}
}

func (u *paymentUC) Verify(ctx context.Context, userID, transactionID string) (*VerifyResult, error) {
	p, err := u.payments.FindByTransactionIDForUser(ctx, repository.NoTX, transactionID, userID)
	if err != nil {
		return nil, err
	}
	return &VerifyResult{
		Payment:       p,
		Verified:      p.IsCompleted(),
		GatewayStatus: u.gateway.VerifyTransaction(ctx, transactionID),
	}, nil
}

func (u *paymentUC) List(ctx context.Context, userID string, page int) (*PaymentPage, error) {
	if page < 1 {
		page = 1
	}
	total, err := u.payments.CountByUser(ctx, repository.NoTX, userID)
	if err != nil {
		return nil, err
	}
	lastPage := (total + PaymentsPerPage - 1) / PaymentsPerPage
	if lastPage < 1 {
		lastPage = 1
	}
	if page > lastPage {
		return &PaymentPage{Items: []*model.Payment{}, Page: page, PerPage: PaymentsPerPage, Total: total, LastPage: lastPage}, nil
	}
	items, err := u.payments.ListByUser(ctx, repository.NoTX, userID, (page-1)*PaymentsPerPage, PaymentsPerPage)
	if err != nil {
		return nil, err
	}
	return &PaymentPage{Items: items, Page: page, PerPage: PaymentsPerPage, Total: total, LastPage: lastPage}, nil
}

func (u *paymentUC) LastPlan(ctx context.Context, userID string) (*LastPlanResult, error) {
	p, err := u.payments.FindLastWithPlan(ctx, repository.NoTX, userID)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) {
			return &LastPlanResult{}, nil
		}
		return nil, err
	}
	out := &LastPlanResult{Payment: p, PlanSlug: *p.PlanName}
	plan, err := u.plans.FindBySlug(ctx, repository.NoTX, *p.PlanName)
	switch {
	case err == nil:
		out.Plan = plan
	case errors.Is(err, domain.ErrPlanNotFound):
	default:
		return nil, err
	}
	return out, nil
}

func (u *paymentUC) Refund(ctx context.Context, userID, transactionID string, reason *string) (*model.Payment, error) {
	log := logging.With(ctx, u.log)
	defer logging.TraceDuration(log, "PaymentUC.Refund")()

	var refunded *model.Payment
	err := u.tx.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		p, err := u.payments.FindByTransactionIDForUser(ctx, tx, transactionID, userID)
		if err != nil {
			return err
		}
		if p.IsRefunded() {
			return domain.ErrAlreadyRefunded
		}
		if !p.IsCompleted() {
			return domain.ErrNotRefundable
		}

		res, err := u.gateway.ProcessRefund(ctx, p.TransactionID, p.Amount, reason)
		if err != nil {
			return &OperationError{Op: "Payment gateway error", Err: err}
		}
		var ok *adapter.RefundSuccess
		switch r := res.(type) {
		case *adapter.RefundSuccess:
			ok = r
		case *adapter.RefundFailure:
			return &GatewayError{Code: r.Code, Message: r.Message}
		default:
			return &OperationError{Op: "Payment gateway error", Err: fmt.Errorf("unexpected result %T", res)}
		}

		var reasonVal interface{}
		if reason != nil {
			reasonVal = *reason
		}
		p.MergeMetadata(map[string]interface{}{
			metaRefundReason:        reasonVal,
			metaRefundTransactionID: ok.RefundTransactionID,
			metaRefundedAt:          ok.ProcessedAt.Format(time.RFC3339),
		})
		changed, err := u.payments.MarkRefunded(ctx, tx, p.ID, p.Metadata)
		if err != nil {
			return err
		}
		if !changed {
			return domain.ErrAlreadyRefunded
		}
		p.Status = model.PaymentStatusRefunded
		p.UpdatedAt = u.now()
		refunded = p
		return nil
	})
	if err != nil {
		var gwErr *GatewayError
		switch {
		case errors.Is(err, domain.ErrAlreadyRefunded), errors.Is(err, domain.ErrNotRefundable):
			metrics.IncRefund("rejected")
		case errors.As(err, &gwErr):
			metrics.IncRefund("gateway_failed")
		case errors.Is(err, domain.ErrPaymentNotFound):
		default:
			log.Error().Err(err).Str("transaction_id", transactionID).Msg("refund failed")
			var opErr *OperationError
			if !errors.As(err, &opErr) {
				err = &OperationError{Op: "Failed to process refund", Err: err}
			}
		}
		return nil, err
	}

	metrics.IncRefund("refunded")
	metrics.IncPayment(string(refunded.Type), string(refunded.Status))
	log.Info().Str("transaction_id", transactionID).Msg("payment refunded")
	return refunded, nil
}

func (u *paymentUC) HandleWebhook(ctx context.Context, signature string, body []byte, eventType, transactionID string) error {
	log := logging.With(ctx, u.log)

	if !u.verifier.Verify(signature, body) {
		metrics.IncWebhook(eventType, "rejected")
		log.Warn().Str("event_type", eventType).Msg("webhook signature rejected")
		return domain.ErrInvalidSignature
	}

	var status model.PaymentStatus
	switch eventType {
	case EventPaymentCompleted:
		status = model.PaymentStatusCompleted
	case EventPaymentFailed:
		status = model.PaymentStatusFailed
	default:
		metrics.IncWebhook("other", "ignored")
		log.Info().Str("event_type", eventType).Msg("webhook event ignored")
		return nil
	}

	var (
		p       *model.Payment
		applied bool
	)
	err := u.tx.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		var err error
		p, err = u.payments.FindByTransactionID(ctx, tx, transactionID)
		if err != nil {
			return err
		}
		// refunded is terminal
		if p.IsRefunded() {
			return nil
		}
		var paidAt *time.Time
		if status == model.PaymentStatusCompleted {
			now := u.now()
			paidAt = &now
		}
		applied, err = u.payments.UpdateStatus(ctx, tx, p.ID, status, paidAt)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) {
			metrics.IncWebhook(eventType, "ignored")
			log.Info().Str("event_type", eventType).Str("transaction_id", transactionID).Msg("webhook for unknown transaction")
			return nil
		}
		return err
	}
	if !applied {
		metrics.IncWebhook(eventType, "ignored")
		log.Info().Str("event_type", eventType).Str("transaction_id", transactionID).Msg("webhook for refunded transaction")
		return nil
	}
	metrics.IncWebhook(eventType, "processed")
	metrics.IncPayment(string(p.Type), string(status))
	log.Info().Str("event_type", eventType).Str("transaction_id", transactionID).Msg("webhook applied")
	return nil
}

func (u *paymentUC) RevertPlan(ctx context.Context, userID string, toPlan, reason *string) (*RevertResult, error) {
	log := logging.With(ctx, u.log)
	defer logging.TraceDuration(log, "PaymentUC.RevertPlan")()

	var target *model.SubscriptionPlan
	if toPlan != nil && *toPlan != "" {
		plan, err := u.plans.FindBySlug(ctx, repository.NoTX, *toPlan)
		if err != nil {
			if errors.Is(err, domain.ErrPlanNotFound) {
				return nil, &ValidationError{Field: "to_plan", Message: "The selected to plan is invalid.", Err: err}
			}
			return nil, err
		}
		target = plan
	}

	txnID, err := model.NewTransactionID()
	if err != nil {
		return nil, &OperationError{Op: "Failed to revert plan", Err: err}
	}
	currency := u.cfg.DefaultCurrency
	var slug *string
	description := "Cleared current plan"
	if target != nil {
		s := target.Slug
		slug = &s
		currency = target.Currency
		description = fmt.Sprintf("Reverted plan to %s", target.Name)
	}

	p, err := model.NewPayment(userID, txnID, model.GatewaySystem, decimal.Zero, currency, model.PaymentTypeRevert)
	if err != nil {
		return nil, &OperationError{Op: "Failed to revert plan", Err: err}
	}
	p.PlanName = slug
	p.Description = description
	var reasonVal interface{}
	if reason != nil {
		reasonVal = *reason
	}
	p.GatewayResponse = map[string]interface{}{"reason": reasonVal}
	p.MarkCompleted(u.now())

	var user *model.User
	err = u.tx.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.users.UpdateCurrentPlan(ctx, tx, userID, slug); err != nil {
			return err
		}
		if err := u.payments.Create(ctx, tx, p); err != nil {
			return err
		}
		fresh, err := u.users.FindByID(ctx, tx, userID)
		if err != nil {
			return err
		}
		user = fresh
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		log.Error().Err(err).Msg("revert plan failed")
		return nil, &OperationError{Op: "Failed to revert plan", Err: err}
	}

	if slug == nil {
		metrics.IncPlanChange("clear")
	} else {
		metrics.IncPlanChange("revert")
	}
	metrics.IncPayment(string(p.Type), string(p.Status))
	log.Info().Str("transaction_id", p.TransactionID).Str("description", description).Msg("plan reverted")
	return &RevertResult{Payment: p, User: user}, nil
}
