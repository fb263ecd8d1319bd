package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"sandbox-billing/internal/domain"
	"sandbox-billing/internal/domain/model"
	"sandbox-billing/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*PostgresUserRepo)(nil)

type PostgresUserRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{pool: pool}
}

func (r *PostgresUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	const q = `
INSERT INTO users (id, name, email, current_plan, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET
  name=$2, email=$3, current_plan=$4, updated_at=$6;
`
	if _, err := execSQL(ctx, r.pool, tx, q, u.ID, u.Name, u.Email, u.CurrentPlan, u.CreatedAt, u.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %s: %w", u.Email, domain.ErrAlreadyExists)
		}
		return opErr("save user", err)
	}
	return nil
}

func (r *PostgresUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	q := forUpdate(`SELECT id, name, email, current_plan, created_at, updated_at FROM users WHERE id=$1`, tx)
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	var u model.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.CurrentPlan, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
	}
	return &u, nil
}

func (r *PostgresUserRepo) UpdateCurrentPlan(ctx context.Context, tx repository.Tx, userID string, slug *string) error {
	cmd, err := execSQL(ctx, r.pool, tx, `UPDATE users SET current_plan=$2, updated_at=NOW() WHERE id=$1;`, userID, slug)
	if err != nil {
		return opErr("update current plan", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
