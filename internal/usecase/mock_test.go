//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"sandbox-billing/internal/domain"
	"sandbox-billing/internal/domain/model"
	"sandbox-billing/internal/domain/ports/adapter"
	"sandbox-billing/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

// snapshotter lets MockTxManager restore repository state on rollback.
type snapshotter interface {
	snapshot() (restore func())
}

// =============================
// Adapters
// =============================

// ---- Mock PaymentGateway ----

// MockPaymentGateway wraps an optional inner gateway and counts calls.
type MockPaymentGateway struct {
	mu      sync.Mutex
	Inner   adapter.PaymentGateway
	Charges int
	Refunds int

	ProcessPaymentFunc func(ctx context.Context, req adapter.ChargeRequest) (adapter.ChargeResult, error)
	ProcessRefundFunc  func(ctx context.Context, id string, amount decimal.Decimal, reason *string) (adapter.RefundResult, error)
}

var _ adapter.PaymentGateway = (*MockPaymentGateway)(nil)

func (m *MockPaymentGateway) Name() string { return model.GatewaySandbox }

func (m *MockPaymentGateway) ProcessPayment(ctx context.Context, req adapter.ChargeRequest) (adapter.ChargeResult, error) {
	m.mu.Lock()
	m.Charges++
	m.mu.Unlock()
	if m.ProcessPaymentFunc != nil {
		return m.ProcessPaymentFunc(ctx, req)
	}
	return m.Inner.ProcessPayment(ctx, req)
}

func (m *MockPaymentGateway) VerifyTransaction(ctx context.Context, id string) adapter.VerifyResult {
	return m.Inner.VerifyTransaction(ctx, id)
}

func (m *MockPaymentGateway) ProcessRefund(ctx context.Context, id string, amount decimal.Decimal, reason *string) (adapter.RefundResult, error) {
	m.mu.Lock()
	m.Refunds++
	m.mu.Unlock()
	if m.ProcessRefundFunc != nil {
		return m.ProcessRefundFunc(ctx, id, amount, reason)
	}
	return m.Inner.ProcessRefund(ctx, id, amount, reason)
}

// ---- Mock WebhookVerifier ----

type MockVerifier struct {
	Valid bool
	Seen  []string
}

func (m *MockVerifier) Verify(signature string, body []byte) bool {
	m.Seen = append(m.Seen, signature)
	return m.Valid
}

// =============================
// Repositories
// =============================

// ---- Mock PaymentRepository ----

type MockPaymentRepo struct {
	mu   sync.Mutex
	data map[string]*model.Payment // by id

	CreateFunc              func(ctx context.Context, tx repository.Tx, p *model.Payment) error
	FindByTransactionIDFunc func(ctx context.Context, tx repository.Tx, transactionID string) (*model.Payment, error)
	MarkRefundedFunc        func(ctx context.Context, tx repository.Tx, id string, metadata map[string]interface{}) (bool, error)
}

var _ repository.PaymentRepository = (*MockPaymentRepo)(nil)

func NewMockPaymentRepo() *MockPaymentRepo {
	return &MockPaymentRepo{data: map[string]*model.Payment{}}
}

func clonePayment(p *model.Payment) *model.Payment {
	cp := *p
	if p.Metadata != nil {
		cp.Metadata = make(map[string]interface{}, len(p.Metadata))
		for k, v := range p.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}

func (r *MockPaymentRepo) snapshot() func() {
	r.mu.Lock()
	saved := make(map[string]*model.Payment, len(r.data))
	for k, v := range r.data {
		saved[k] = clonePayment(v)
	}
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		r.data = saved
		r.mu.Unlock()
	}
}

// All returns every stored payment, oldest first.
func (r *MockPaymentRepo) All() []*model.Payment {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Payment, 0, len(r.data))
	for _, p := range r.data {
		out = append(out, clonePayment(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r *MockPaymentRepo) Put(p *model.Payment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[p.ID] = clonePayment(p)
}

func (r *MockPaymentRepo) Create(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if r.CreateFunc != nil {
		return r.CreateFunc(ctx, tx, p)
	}
	if err := p.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.data {
		if existing.TransactionID == p.TransactionID {
			return domain.ErrAlreadyExists
		}
	}
	r.data[p.ID] = clonePayment(p)
	return nil
}

func (r *MockPaymentRepo) find(match func(p *model.Payment) bool) (*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.data {
		if match(p) {
			return clonePayment(p), nil
		}
	}
	return nil, domain.ErrPaymentNotFound
}

func (r *MockPaymentRepo) FindByTransactionID(ctx context.Context, tx repository.Tx, transactionID string) (*model.Payment, error) {
	if r.FindByTransactionIDFunc != nil {
		return r.FindByTransactionIDFunc(ctx, tx, transactionID)
	}
	return r.find(func(p *model.Payment) bool { return p.TransactionID == transactionID })
}

func (r *MockPaymentRepo) FindByTransactionIDForUser(ctx context.Context, tx repository.Tx, transactionID, userID string) (*model.Payment, error) {
	return r.find(func(p *model.Payment) bool { return p.TransactionID == transactionID && p.UserID == userID })
}

func (r *MockPaymentRepo) userPayments(userID string) []*model.Payment {
	var out []*model.Payment
	for _, p := range r.data {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out
}

func (r *MockPaymentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, offset, limit int) ([]*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.userPayments(userID)
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	out := []*model.Payment{}
	for i := offset; i < len(all) && len(out) < limit; i++ {
		out = append(out, clonePayment(all[i]))
	}
	return out, nil
}

func (r *MockPaymentRepo) CountByUser(ctx context.Context, tx repository.Tx, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.userPayments(userID)), nil
}

func (r *MockPaymentRepo) FindLastWithPlan(ctx context.Context, tx repository.Tx, userID string) (*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var best *model.Payment
	for _, p := range r.userPayments(userID) {
		if p.PlanName == nil || p.PaidAt == nil {
			continue
		}
		if best == nil || p.PaidAt.After(*best.PaidAt) {
			best = p
		}
	}
	if best == nil {
		return nil, domain.ErrPaymentNotFound
	}
	return clonePayment(best), nil
}

func (r *MockPaymentRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, paidAt *time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
	if !ok || p.Status == model.PaymentStatusRefunded {
		return false, nil
	}
	p.Status = status
	if paidAt != nil {
		p.PaidAt = paidAt
	}
	p.UpdatedAt = time.Now()
	return true, nil
}

func (r *MockPaymentRepo) MarkRefunded(ctx context.Context, tx repository.Tx, id string, metadata map[string]interface{}) (bool, error) {
	if r.MarkRefundedFunc != nil {
		return r.MarkRefundedFunc(ctx, tx, id, metadata)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
	if !ok || p.Status != model.PaymentStatusCompleted {
		return false, nil
	}
	p.Status = model.PaymentStatusRefunded
	p.Metadata = metadata
	return true, nil
}

// ---- Mock SubscriptionPlanRepository ----

type MockPlanRepo struct {
	mu    sync.Mutex
	plans map[string]*model.SubscriptionPlan // by slug
}

var _ repository.SubscriptionPlanRepository = (*MockPlanRepo)(nil)

func NewMockPlanRepo(plans ...*model.SubscriptionPlan) *MockPlanRepo {
	r := &MockPlanRepo{plans: map[string]*model.SubscriptionPlan{}}
	for _, p := range plans {
		r.plans[p.Slug] = p
	}
	return r
}

func (r *MockPlanRepo) Save(ctx context.Context, tx repository.Tx, plan *model.SubscriptionPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans[plan.Slug] = plan
	return nil
}

func (r *MockPlanRepo) FindBySlug(ctx context.Context, tx repository.Tx, slug string) (*model.SubscriptionPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.plans[slug]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrPlanNotFound
}

func (r *MockPlanRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.SubscriptionPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.SubscriptionPlan{}
	for _, p := range r.plans {
		if p.IsActive {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price.LessThan(out[j].Price) })
	return out, nil
}

func (r *MockPlanRepo) Delete(slug string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.plans, slug)
}

// ---- Mock UserRepository ----

type MockUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User

	UpdateCurrentPlanFunc func(ctx context.Context, tx repository.Tx, userID string, slug *string) error
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo(users ...*model.User) *MockUserRepo {
	r := &MockUserRepo{users: map[string]*model.User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *MockUserRepo) snapshot() func() {
	r.mu.Lock()
	saved := make(map[string]*model.User, len(r.users))
	for k, v := range r.users {
		cp := *v
		saved[k] = &cp
	}
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		r.users = saved
		r.mu.Unlock()
	}
}

func (r *MockUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *MockUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *MockUserRepo) UpdateCurrentPlan(ctx context.Context, tx repository.Tx, userID string, slug *string) error {
	if r.UpdateCurrentPlanFunc != nil {
		return r.UpdateCurrentPlanFunc(ctx, tx, userID, slug)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.CurrentPlan = slug
	return nil
}

// ---- Mock TransactionManager ----

// MockTxManager serializes transactions and restores every registered
// repository when fn fails, mimicking a rollback.
type MockTxManager struct {
	mu      sync.Mutex
	repos   []snapshotter
	Commits int
	Aborts  int

	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager(repos ...snapshotter) *MockTxManager {
	return &MockTxManager{repos: repos}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	restores := make([]func(), 0, len(m.repos))
	for _, r := range m.repos {
		restores = append(restores, r.snapshot())
	}
	if err := fn(ctx, repository.NoTX); err != nil {
		for _, restore := range restores {
			restore()
		}
		m.Aborts++
		return err
	}
	m.Commits++
	return nil
}

var errBoom = errors.New("boom")
