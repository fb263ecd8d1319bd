package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sandbox-billing/internal/domain/model"
	"sandbox-billing/internal/domain/ports/repository"
	"sandbox-billing/internal/infra/metrics"
	red "sandbox-billing/internal/infra/redis"

	"github.com/rs/zerolog"
)

var _ repository.SubscriptionPlanRepository = (*planRepoCacheDecorator)(nil)

const activePlansKey = "plans:active"

type planRepoCacheDecorator struct {
	inner repository.SubscriptionPlanRepository
	cache red.RedisClient
	ttl   time.Duration
	log   zerolog.Logger
}

func NewPlanRepoCacheDecorator(inner repository.SubscriptionPlanRepository, cache red.RedisClient, ttl time.Duration, logger *zerolog.Logger) repository.SubscriptionPlanRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "plan_cache").Logger()
	}
	return &planRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   ttl,
		log:   l,
	}
}

func planKey(slug string) string { return fmt.Sprintf("plan:%s", slug) }

// FindBySlug bypasses the cache inside a transaction so locked reads see the row.
func (d *planRepoCacheDecorator) FindBySlug(ctx context.Context, tx repository.Tx, slug string) (*model.SubscriptionPlan, error) {
	if tx != nil {
		return d.inner.FindBySlug(ctx, tx, slug)
	}
	key := planKey(slug)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var plan model.SubscriptionPlan
		if json.Unmarshal([]byte(val), &plan) == nil {
			metrics.IncPlanCache(metrics.PlanCacheBySlug, metrics.CacheHit)
			return &plan, nil
		}
	} else if !errors.Is(err, red.Nil) {
		metrics.IncPlanCache(metrics.PlanCacheBySlug, metrics.CacheError)
		d.log.Warn().Err(err).Str("key", key).Msg("plan cache read failed")
	}

	metrics.IncPlanCache(metrics.PlanCacheBySlug, metrics.CacheMiss)
	plan, err := d.inner.FindBySlug(ctx, tx, slug)
	if err != nil {
		return nil, err
	}
	if plan != nil {
		d.store(ctx, key, plan)
	}
	return plan, nil
}

// For write operations, we must invalidate the cache.
func (d *planRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, plan *model.SubscriptionPlan) error {
	err := d.cache.Del(ctx, planKey(plan.Slug), activePlansKey)
	metrics.IncPlanCacheInvalidation(err != nil)
	if err != nil {
		d.log.Warn().Err(err).Str("slug", plan.Slug).Msg("plan cache invalidation failed")
	}
	return d.inner.Save(ctx, tx, plan)
}

func (d *planRepoCacheDecorator) ListActive(ctx context.Context, tx repository.Tx) ([]*model.SubscriptionPlan, error) {
	if tx != nil {
		return d.inner.ListActive(ctx, tx)
	}
	val, err := d.cache.Get(ctx, activePlansKey)
	if err == nil {
		var plans []*model.SubscriptionPlan
		if json.Unmarshal([]byte(val), &plans) == nil {
			metrics.IncPlanCache(metrics.PlanCacheActive, metrics.CacheHit)
			return plans, nil
		}
	} else if !errors.Is(err, red.Nil) {
		metrics.IncPlanCache(metrics.PlanCacheActive, metrics.CacheError)
		d.log.Warn().Err(err).Msg("plan list cache read failed")
	}

	metrics.IncPlanCache(metrics.PlanCacheActive, metrics.CacheMiss)
	plans, err := d.inner.ListActive(ctx, tx)
	if err != nil {
		return nil, err
	}
	if len(plans) > 0 {
		d.store(ctx, activePlansKey, plans)
	}
	return plans, nil
}

func (d *planRepoCacheDecorator) store(ctx context.Context, key string, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := d.cache.Set(ctx, key, b, d.ttl); err != nil {
		d.log.Warn().Err(err).Str("key", key).Msg("plan cache write failed")
	}
}
