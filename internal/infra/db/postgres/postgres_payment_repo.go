package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"sandbox-billing/internal/domain"
	"sandbox-billing/internal/domain/model"
	"sandbox-billing/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

const paymentColumns = `id, user_id, plan_name, transaction_id, gateway, amount::text, currency, status, type,
       card_last_four, card_brand, description, COALESCE(gateway_response,'{}'::jsonb), COALESCE(metadata,'{}'::jsonb),
       paid_at, created_at, updated_at`

func scanPayment(row pgx.Row) (*model.Payment, error) {
	var (
		p      model.Payment
		amount string
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.PlanName, &p.TransactionID, &p.Gateway, &amount, &p.Currency, &p.Status, &p.Type,
		&p.CardLastFour, &p.CardBrand, &p.Description, &p.GatewayResponse, &p.Metadata,
		&p.PaidAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("%w: amount %q", domain.ErrReadDatabaseRow, amount)
	}
	p.Amount = d
	return &p, nil
}

func (r *paymentRepo) Create(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if err := p.Validate(); err != nil {
		return err
	}
	const q = `
INSERT INTO payments (
  id, user_id, plan_name, transaction_id, gateway, amount, currency, status, type,
  card_last_four, card_brand, description, gateway_response, metadata, paid_at, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6::numeric,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17
);`
	_, err := execSQL(ctx, r.pool, tx, q,
		p.ID, p.UserID, p.PlanName, p.TransactionID, p.Gateway, p.Amount.String(), p.Currency, string(p.Status), string(p.Type),
		p.CardLastFour, p.CardBrand, p.Description, jsonMap(p.GatewayResponse), jsonMap(p.Metadata), p.PaidAt, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("payment %s: %w", p.TransactionID, domain.ErrAlreadyExists)
		}
		return opErr("create payment", err)
	}
	return nil
}

func (r *paymentRepo) FindByTransactionID(ctx context.Context, tx repository.Tx, transactionID string) (*model.Payment, error) {
	q := forUpdate(`SELECT `+paymentColumns+` FROM payments WHERE transaction_id=$1`, tx)
	row, err := pickRow(ctx, r.pool, tx, q, transactionID)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) FindByTransactionIDForUser(ctx context.Context, tx repository.Tx, transactionID, userID string) (*model.Payment, error) {
	q := forUpdate(`SELECT `+paymentColumns+` FROM payments WHERE transaction_id=$1 AND user_id=$2`, tx)
	row, err := pickRow(ctx, r.pool, tx, q, transactionID, userID)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, offset, limit int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE user_id=$1 ORDER BY created_at DESC, id DESC OFFSET $2 LIMIT $3;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID, offset, limit)
	if err != nil {
		return nil, opErr("list payments", err)
	}
	defer rows.Close()

	out := make([]*model.Payment, 0, limit)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, opErr("list payments", err)
	}
	return out, nil
}

func (r *paymentRepo) CountByUser(ctx context.Context, tx repository.Tx, userID string) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM payments WHERE user_id=$1;`, userID)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
	}
	return n, nil
}

func (r *paymentRepo) FindLastWithPlan(ctx context.Context, tx repository.Tx, userID string) (*model.Payment, error) {
	const q = `SELECT ` + paymentColumns + ` FROM payments
 WHERE user_id=$1 AND plan_name IS NOT NULL
 ORDER BY paid_at DESC NULLS LAST, created_at DESC
 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, paidAt *time.Time) (bool, error) {
	const q = `
    UPDATE payments
       SET status = $2,
           paid_at = COALESCE($3, paid_at),
           updated_at = NOW()
     WHERE id = $1
       AND status <> 'refunded'`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, string(status), paidAt)
	if err != nil {
		return false, opErr("update payment status", err)
	}
	return cmd.RowsAffected() >= 1, nil
}

// MarkRefunded atomically updates status only when the current status is 'completed'.
func (r *paymentRepo) MarkRefunded(ctx context.Context, tx repository.Tx, id string, metadata map[string]interface{}) (bool, error) {
	const q = `
    UPDATE payments
       SET status = 'refunded',
           metadata = $2,
           updated_at = NOW()
     WHERE id = $1
       AND status = 'completed'`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, jsonMap(metadata))
	if err != nil {
		return false, opErr("mark payment refunded", err)
	}
	return cmd.RowsAffected() >= 1, nil
}
