package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	GatewayModeSandbox = "sandbox"

	VerifierSandbox = "sandbox"
	VerifierHMAC    = "hmac"
)

type RuntimeConfig struct {
	Dev bool
}

type HTTPConfig struct {
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	// RateLimitPerMinute caps payment mutations per user; negative disables.
	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
}

type WebhookConfig struct {
	Verifier        string `yaml:"verifier"` // sandbox | hmac
	Secret          string `yaml:"secret"`
	SignatureHeader string `yaml:"signature_header"`
}

// PaymentConfig is handed to the gateway and the payment workflow at
// construction time.
type PaymentConfig struct {
	GatewayMode     string          `yaml:"gateway_mode"`
	MinAmount       decimal.Decimal `yaml:"min_amount"`
	MaxAmount       decimal.Decimal `yaml:"max_amount"`
	DefaultCurrency string          `yaml:"default_currency"`
	Webhook         WebhookConfig   `yaml:"webhook"`
}

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Payment  PaymentConfig  `yaml:"payment"`

	Runtime RuntimeConfig `yaml:"-"`
}

// DefaultPaymentConfig mirrors the sandbox defaults: 0.50..999999.99 USD.
func DefaultPaymentConfig() PaymentConfig {
	return PaymentConfig{
		GatewayMode:     GatewayModeSandbox,
		MinAmount:       decimal.RequireFromString("0.50"),
		MaxAmount:       decimal.RequireFromString("999999.99"),
		DefaultCurrency: "USD",
		Webhook: WebhookConfig{
			Verifier:        VerifierSandbox,
			SignatureHeader: "X-Webhook-Signature",
		},
	}
}

// LoadConfig reads the YAML file at path, loads an optional .env and lets
// environment variables override secrets and endpoints.
func LoadConfig(path string, dev bool) (*Config, error) {
	_ = godotenv.Load()

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b, dev)
}

// Parse decodes raw YAML, applies env overrides and defaults, and validates.
func Parse(b []byte, dev bool) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("WEBHOOK_SECRET"); v != "" {
		cfg.Payment.Webhook.Secret = v
	}
	if v := os.Getenv("HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.Port = port
		}
	}
}

func applyDefaults(cfg *Config) {
	def := DefaultPaymentConfig()

	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.HTTP.RequestTimeout <= 0 {
		cfg.HTTP.RequestTimeout = 15 * time.Second
	}
	if cfg.HTTP.ReadTimeout <= 0 {
		cfg.HTTP.ReadTimeout = 10 * time.Second
	}
	if cfg.HTTP.WriteTimeout <= 0 {
		cfg.HTTP.WriteTimeout = 20 * time.Second
	}
	if cfg.HTTP.RateLimitPerMinute == 0 {
		cfg.HTTP.RateLimitPerMinute = 30
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)

	p := &cfg.Payment
	if p.GatewayMode == "" {
		p.GatewayMode = def.GatewayMode
	}
	if p.MinAmount.IsZero() {
		p.MinAmount = def.MinAmount
	}
	if p.MaxAmount.IsZero() {
		p.MaxAmount = def.MaxAmount
	}
	if p.DefaultCurrency == "" {
		p.DefaultCurrency = def.DefaultCurrency
	}
	p.DefaultCurrency = strings.ToUpper(p.DefaultCurrency)
	if p.Webhook.Verifier == "" {
		p.Webhook.Verifier = def.Webhook.Verifier
	}
	if p.Webhook.SignatureHeader == "" {
		p.Webhook.SignatureHeader = def.Webhook.SignatureHeader
	}
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	return c.Payment.Validate()
}

// Validate checks the payment section on its own so tests and tools can
// build a PaymentConfig without a full Config.
func (p PaymentConfig) Validate() error {
	if p.GatewayMode != GatewayModeSandbox {
		return fmt.Errorf("payment.gateway_mode %q is not supported", p.GatewayMode)
	}
	if p.MinAmount.IsNegative() || p.MaxAmount.LessThan(p.MinAmount) {
		return errors.New("payment.min_amount/max_amount are inconsistent")
	}
	if len(p.DefaultCurrency) != 3 {
		return errors.New("payment.default_currency must be a 3-letter code")
	}
	switch p.Webhook.Verifier {
	case VerifierSandbox:
	case VerifierHMAC:
		if p.Webhook.Secret == "" {
			return errors.New("payment.webhook.secret is required for the hmac verifier")
		}
	default:
		return fmt.Errorf("payment.webhook.verifier %q is not supported", p.Webhook.Verifier)
	}
	return nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
