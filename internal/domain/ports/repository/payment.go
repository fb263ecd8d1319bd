package repository

import (
	"context"
	"time"

	"sandbox-billing/internal/domain/model"
)

// -----------------------------
// Payments (ledger)
// -----------------------------

// PaymentRepository is append-only apart from status/metadata/paid_at updates.
// Lookups issued with a pgx.Tx lock the row (SELECT ... FOR UPDATE).
type PaymentRepository interface {
	Create(ctx context.Context, tx Tx, p *model.Payment) error
	FindByTransactionID(ctx context.Context, tx Tx, transactionID string) (*model.Payment, error)
	FindByTransactionIDForUser(ctx context.Context, tx Tx, transactionID, userID string) (*model.Payment, error)
	ListByUser(ctx context.Context, tx Tx, userID string, offset, limit int) ([]*model.Payment, error)
	CountByUser(ctx context.Context, tx Tx, userID string) (int, error)
	// FindLastWithPlan returns the newest (by paid_at) payment carrying a plan_name.
	FindLastWithPlan(ctx context.Context, tx Tx, userID string) (*model.Payment, error)
	// UpdateStatus never touches a refunded row; it reports false when the
	// row is missing or already refunded.
	UpdateStatus(ctx context.Context, tx Tx, id string, status model.PaymentStatus, paidAt *time.Time) (bool, error)
	// MarkRefunded flips a completed row to refunded and stores metadata.
	// It reports false when the row was no longer completed.
	MarkRefunded(ctx context.Context, tx Tx, id string, metadata map[string]interface{}) (bool, error)
}
