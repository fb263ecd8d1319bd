package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"sandbox-billing/internal/config"
	"sandbox-billing/internal/domain"
	"sandbox-billing/internal/domain/model"
	"sandbox-billing/internal/domain/ports/repository"
	"sandbox-billing/internal/infra/api"
	pg "sandbox-billing/internal/infra/db/postgres"
	"sandbox-billing/internal/usecase"
)

type seedPlan struct {
	Slug        string
	Name        string
	Description string
	Price       string
	Interval    model.PlanInterval
	TrialDays   int
	Features    []string
}

var plans = []seedPlan{
	{
		Slug: "free", Name: "Free", Description: "Basic access with limited features",
		Price: "0.00", Interval: model.PlanIntervalMonthly,
		Features: []string{"Basic AI queries (10/day)", "Standard support", "Community access"},
	},
	{
		Slug: "pro", Name: "Pro", Description: "Full access for professionals",
		Price: "19.99", Interval: model.PlanIntervalMonthly, TrialDays: 14,
		Features: []string{"Unlimited AI queries", "Priority support", "Advanced analytics", "API access", "Custom integrations"},
	},
	{
		Slug: "pro-yearly", Name: "Pro Yearly", Description: "Full access for professionals - billed yearly (save 20%)",
		Price: "191.88", Interval: model.PlanIntervalYearly, TrialDays: 14,
		Features: []string{"Unlimited AI queries", "Priority support", "Advanced analytics", "API access", "Custom integrations", "20% discount"},
	},
	{
		Slug: "enterprise", Name: "Enterprise", Description: "Custom solutions for large teams",
		Price: "99.99", Interval: model.PlanIntervalMonthly, TrialDays: 30,
		Features: []string{"Everything in Pro", "Dedicated account manager", "SLA guarantee", "Custom model training", "White-label options", "On-premise deployment"},
	},
}

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	userEmail := flag.String("user", "", "also create a demo user with this email and print a bearer token")
	flag.Parse()

	// ---- Config ----
	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Connect Postgres
	pool, err := pg.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	planRepo := pg.NewPostgresPlanRepo(pool)
	planUC := usecase.NewPlanUseCase(planRepo, nil)

	for _, s := range plans {
		if existing, err := planUC.GetBySlug(ctx, s.Slug); err == nil {
			fmt.Printf("exists: %s (price=%s %s)\n", existing.Slug, existing.Price.StringFixed(2), existing.Currency)
			continue
		} else if !errors.Is(err, domain.ErrPlanNotFound) {
			log.Fatalf("lookup plan %q: %v", s.Slug, err)
		}

		p, err := model.NewSubscriptionPlan(s.Slug, s.Name, decimal.RequireFromString(s.Price), cfg.Payment.DefaultCurrency, s.Interval, s.TrialDays, s.Features)
		if err != nil {
			log.Fatalf("build plan %q: %v", s.Slug, err)
		}
		p.Description = s.Description
		if err := planRepo.Save(ctx, repository.NoTX, p); err != nil {
			log.Fatalf("save plan %q: %v", s.Slug, err)
		}
		fmt.Printf("seeded: %s (price=%s %s, interval=%s)\n", p.Slug, p.Price.StringFixed(2), p.Currency, p.Interval)
	}

	if *userEmail != "" {
		u, err := model.NewUser("", "Demo User", *userEmail)
		if err != nil {
			log.Fatalf("demo user: %v", err)
		}
		if err := pg.NewPostgresUserRepo(pool).Save(ctx, repository.NoTX, u); err != nil {
			log.Fatalf("save demo user: %v", err)
		}
		token, err := api.NewAuthManager(cfg.Auth).Mint(u.ID, 24*time.Hour)
		if err != nil {
			log.Fatalf("mint token: %v", err)
		}
		fmt.Printf("demo user: %s (%s)\nbearer token: %s\n", u.ID, u.Email, token)
	}

	fmt.Println("✅ Seeding complete.")
}
