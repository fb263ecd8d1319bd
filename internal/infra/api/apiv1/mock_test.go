//go:build !integration

package apiv1_test

import (
	"context"
	"time"

	"sandbox-billing/internal/domain"
	"sandbox-billing/internal/domain/model"
	"sandbox-billing/internal/usecase"
)

// ---- fake PlanUseCase ----

type fakePlanUC struct {
	plans []*model.SubscriptionPlan
	err   error
}

func (f *fakePlanUC) ListActive(ctx context.Context) ([]*model.SubscriptionPlan, error) {
	return f.plans, f.err
}

func (f *fakePlanUC) GetBySlug(ctx context.Context, slug string) (*model.SubscriptionPlan, error) {
	for _, p := range f.plans {
		if p.Slug == slug {
			return p, nil
		}
	}
	return nil, domain.ErrPlanNotFound
}

// ---- fake PaymentUseCase ----

type webhookCall struct {
	Signature     string
	Body          []byte
	EventType     string
	TransactionID string
}

type fakePaymentUC struct {
	SubscribeFunc func(ctx context.Context, userID, planSlug string, card usecase.CardDetails) (*model.Payment, error)
	OneTimeFunc   func(ctx context.Context, userID string, in usecase.OneTimeInput) (*model.Payment, error)
	VerifyFunc    func(ctx context.Context, userID, transactionID string) (*usecase.VerifyResult, error)
	ListFunc      func(ctx context.Context, userID string, page int) (*usecase.PaymentPage, error)
	LastPlanFunc  func(ctx context.Context, userID string) (*usecase.LastPlanResult, error)
	RefundFunc    func(ctx context.Context, userID, transactionID string, reason *string) (*model.Payment, error)
	WebhookErr    error
	RevertFunc    func(ctx context.Context, userID string, toPlan, reason *string) (*usecase.RevertResult, error)

	Webhooks []webhookCall
}

var _ usecase.PaymentUseCase = (*fakePaymentUC)(nil)

func (f *fakePaymentUC) Subscribe(ctx context.Context, userID, planSlug string, card usecase.CardDetails) (*model.Payment, error) {
	return f.SubscribeFunc(ctx, userID, planSlug, card)
}

func (f *fakePaymentUC) ProcessOneTime(ctx context.Context, userID string, in usecase.OneTimeInput) (*model.Payment, error) {
	return f.OneTimeFunc(ctx, userID, in)
}

func (f *fakePaymentUC) Verify(ctx context.Context, userID, transactionID string) (*usecase.VerifyResult, error) {
	return f.VerifyFunc(ctx, userID, transactionID)
}

func (f *fakePaymentUC) List(ctx context.Context, userID string, page int) (*usecase.PaymentPage, error) {
	return f.ListFunc(ctx, userID, page)
}

func (f *fakePaymentUC) LastPlan(ctx context.Context, userID string) (*usecase.LastPlanResult, error) {
	return f.LastPlanFunc(ctx, userID)
}

func (f *fakePaymentUC) Refund(ctx context.Context, userID, transactionID string, reason *string) (*model.Payment, error) {
	return f.RefundFunc(ctx, userID, transactionID, reason)
}

func (f *fakePaymentUC) HandleWebhook(ctx context.Context, signature string, body []byte, eventType, transactionID string) error {
	f.Webhooks = append(f.Webhooks, webhookCall{signature, body, eventType, transactionID})
	return f.WebhookErr
}

func (f *fakePaymentUC) RevertPlan(ctx context.Context, userID string, toPlan, reason *string) (*usecase.RevertResult, error) {
	return f.RevertFunc(ctx, userID, toPlan, reason)
}

// ---- fake limiter ----

type fakeLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (l *fakeLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	l.keys = append(l.keys, key)
	return l.allow, l.err
}
