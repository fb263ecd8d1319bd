package repository

import (
	"context"

	"sandbox-billing/internal/domain/model"
)

// SubscriptionPlanRepository is the port for the plan catalog.
type SubscriptionPlanRepository interface {
	Save(ctx context.Context, tx Tx, plan *model.SubscriptionPlan) error
	FindBySlug(ctx context.Context, tx Tx, slug string) (*model.SubscriptionPlan, error)
	// ListActive returns active plans ordered by price ascending.
	ListActive(ctx context.Context, tx Tx) ([]*model.SubscriptionPlan, error)
}
