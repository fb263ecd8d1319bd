package postgres

import (
	"context"
	"errors"
	"fmt"

	"sandbox-billing/internal/domain"
	"sandbox-billing/internal/domain/model"
	"sandbox-billing/internal/domain/ports/repository"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"
)

// Ensure interface compliance
var _ repository.SubscriptionPlanRepository = (*PostgresPlanRepo)(nil)

type PostgresPlanRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresPlanRepo(pool *pgxpool.Pool) *PostgresPlanRepo {
	return &PostgresPlanRepo{pool: pool}
}

const planColumns = `id, slug, name, description, price::text, currency, interval, trial_days, features, is_active, created_at, updated_at`

func scanPlan(row pgx.Row) (*model.SubscriptionPlan, error) {
	var (
		p     model.SubscriptionPlan
		price string
	)
	if err := row.Scan(&p.ID, &p.Slug, &p.Name, &p.Description, &price, &p.Currency, &p.Interval,
		&p.TrialDays, &p.Features, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPlanNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("%w: price %q", domain.ErrReadDatabaseRow, price)
	}
	p.Price = d
	if p.Features == nil {
		p.Features = []string{}
	}
	return &p, nil
}

// Save upserts on slug so the seeder can be re-run.
func (r *PostgresPlanRepo) Save(ctx context.Context, tx repository.Tx, plan *model.SubscriptionPlan) error {
	const sql = `
INSERT INTO subscription_plans (id, slug, name, description, price, currency, interval, trial_days, features, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (slug) DO UPDATE
  SET name        = EXCLUDED.name,
      description = EXCLUDED.description,
      price       = EXCLUDED.price,
      currency    = EXCLUDED.currency,
      interval    = EXCLUDED.interval,
      trial_days  = EXCLUDED.trial_days,
      features    = EXCLUDED.features,
      is_active   = EXCLUDED.is_active,
      updated_at  = NOW();
`
	_, err := execSQL(ctx, r.pool, tx, sql,
		plan.ID, plan.Slug, plan.Name, plan.Description, plan.Price.String(), plan.Currency, string(plan.Interval),
		plan.TrialDays, plan.Features, plan.IsActive, plan.CreatedAt, plan.UpdatedAt,
	)
	if err != nil {
		return opErr("save plan", err)
	}
	return nil
}

func (r *PostgresPlanRepo) FindBySlug(ctx context.Context, tx repository.Tx, slug string) (*model.SubscriptionPlan, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+planColumns+` FROM subscription_plans WHERE slug = $1;`, slug)
	if err != nil {
		return nil, err
	}
	return scanPlan(row)
}

func (r *PostgresPlanRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.SubscriptionPlan, error) {
	const sql = `SELECT ` + planColumns + ` FROM subscription_plans WHERE is_active ORDER BY price ASC, slug ASC;`
	rows, err := queryRows(ctx, r.pool, tx, sql)
	if err != nil {
		return nil, opErr("list plans", err)
	}
	defer rows.Close()
	out := []*model.SubscriptionPlan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, opErr("list plans", err)
	}
	return out, nil
}
