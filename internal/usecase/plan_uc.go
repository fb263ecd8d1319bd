package usecase

import (
	"context"

	"sandbox-billing/internal/domain/model"
	"sandbox-billing/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

// PlanUseCase exposes the read-only plan catalog.
type PlanUseCase interface {
	// ListActive returns active plans ordered by price.
	ListActive(ctx context.Context) ([]*model.SubscriptionPlan, error)
	// GetBySlug returns a plan regardless of its active flag.
	GetBySlug(ctx context.Context, slug string) (*model.SubscriptionPlan, error)
}

var _ PlanUseCase = (*planUC)(nil)

type planUC struct {
	plans repository.SubscriptionPlanRepository
	log   *zerolog.Logger
}

func NewPlanUseCase(plans repository.SubscriptionPlanRepository, logger *zerolog.Logger) PlanUseCase {
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}
	return &planUC{plans: plans, log: logger}
}

func (p *planUC) ListActive(ctx context.Context) ([]*model.SubscriptionPlan, error) {
	plans, err := p.plans.ListActive(ctx, repository.NoTX)
	if err != nil {
		p.log.Error().Err(err).Msg("list active plans")
		return nil, err
	}
	return plans, nil
}

func (p *planUC) GetBySlug(ctx context.Context, slug string) (*model.SubscriptionPlan, error) {
	return p.plans.FindBySlug(ctx, repository.NoTX, slug)
}
