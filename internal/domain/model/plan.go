package model

import (
	"strings"
	"time"

	"sandbox-billing/internal/domain"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

type PlanInterval string

const (
	PlanIntervalMonthly PlanInterval = "monthly"
	PlanIntervalYearly  PlanInterval = "yearly"
	PlanIntervalOneTime PlanInterval = "one-time"
)

// SubscriptionPlan is a purchasable tier. The payment core only reads it.
type SubscriptionPlan struct {
	ID          string          `json:"id"`
	Slug        string          `json:"slug"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
	Interval    PlanInterval    `json:"interval"`
	TrialDays   int             `json:"trial_days"`
	Features    []string        `json:"features"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// PaymentType is the ledger type a charge for this plan is recorded under.
func (p *SubscriptionPlan) PaymentType() PaymentType {
	if p.Interval == PlanIntervalOneTime {
		return PaymentTypeOneTime
	}
	return PaymentTypeSubscription
}

// NewSubscriptionPlan validates and constructs an active plan.
func NewSubscriptionPlan(slug, name string, price decimal.Decimal, currency string, interval PlanInterval, trialDays int, features []string) (*SubscriptionPlan, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" || strings.TrimSpace(name) == "" || price.IsNegative() || len(currency) != 3 || trialDays < 0 {
		return nil, domain.ErrInvalidArgument
	}
	switch interval {
	case PlanIntervalMonthly, PlanIntervalYearly, PlanIntervalOneTime:
	default:
		return nil, domain.ErrInvalidArgument
	}
	if features == nil {
		features = []string{}
	}
	now := time.Now().UTC()
	return &SubscriptionPlan{
		ID:        ulid.Make().String(),
		Slug:      slug,
		Name:      name,
		Price:     price,
		Currency:  strings.ToUpper(currency),
		Interval:  interval,
		TrialDays: trialDays,
		Features:  features,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
