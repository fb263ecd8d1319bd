package repository

import (
	"context"

	"sandbox-billing/internal/domain/model"
)

// -----------------------------
// Users
// -----------------------------

type UserRepository interface {
	Save(ctx context.Context, tx Tx, u *model.User) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	// UpdateCurrentPlan overwrites users.current_plan; a nil slug clears it.
	UpdateCurrentPlan(ctx context.Context, tx Tx, userID string, slug *string) error
}
