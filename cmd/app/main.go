// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sandbox-billing/internal/config"
	"sandbox-billing/internal/domain/ports/repository"
	payAdapters "sandbox-billing/internal/infra/adapters/payment"
	"sandbox-billing/internal/infra/api"
	"sandbox-billing/internal/infra/api/apiv1"
	pg "sandbox-billing/internal/infra/db/postgres"
	"sandbox-billing/internal/infra/logging"
	"sandbox-billing/internal/infra/metrics"
	red "sandbox-billing/internal/infra/redis"
	"sandbox-billing/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, no sampling)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis (optional) ----
	var (
		redisClient red.RedisClient
		limiter     api.Limiter
	)
	if cfg.Redis.URL != "" {
		c, err := red.NewClient(ctx, cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer c.Close()
		redisClient = c
		limiter = red.NewRateLimiter(c)
	} else {
		logger.Warn().Msg("redis.url not set; plan cache and rate limiting disabled")
	}

	// ---- Repositories ----
	userRepo := pg.NewPostgresUserRepo(pool)
	payRepo := pg.NewPaymentRepo(pool)
	var planRepo repository.SubscriptionPlanRepository = pg.NewPostgresPlanRepo(pool)
	if redisClient != nil {
		planRepo = pg.NewPlanRepoCacheDecorator(planRepo, redisClient, cfg.Redis.TTL, logger)
	}
	txm := pg.NewTxManager(pool)

	// ---- Gateway ----
	gateway, err := payAdapters.NewSandboxGateway(cfg.Payment)
	if err != nil {
		logger.Fatal().Err(err).Msg("payment gateway")
	}
	verifier, err := payAdapters.NewWebhookVerifier(cfg.Payment.Webhook)
	if err != nil {
		logger.Fatal().Err(err).Msg("webhook verifier")
	}

	// ---- Use cases ----
	planUC := usecase.NewPlanUseCase(planRepo, logger)
	paymentUC := usecase.NewPaymentUseCase(payRepo, planRepo, userRepo, gateway, verifier, txm, cfg.Payment, logger)

	// ---- HTTP ----
	auth := api.NewAuthManager(cfg.Auth)
	handler := apiv1.NewHandler(
		apiv1.NewServer(planUC, paymentUC, cfg.Payment.Webhook.SignatureHeader, logger),
		apiv1.HandlerOptions{
			Auth:           auth,
			Limiter:        limiter,
			RatePerMinute:  cfg.HTTP.RateLimitPerMinute,
			RequestTimeout: cfg.HTTP.RequestTimeout,
			Health: func(ctx context.Context) error {
				if err := pool.Ping(ctx); err != nil {
					return err
				}
				if redisClient != nil {
					return redisClient.Ping(ctx)
				}
				return nil
			},
			BeforeScrape: func() { pg.ReportPoolStats(pool) },
			Logger:       logger,
		},
	)
	server := api.NewServer(cfg.HTTP, handler, logger)
	go func() {
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
			cancel()
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigc:
		logger.Info().Msg("shutdown requested")
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}
