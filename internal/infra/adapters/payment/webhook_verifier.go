package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"sandbox-billing/internal/config"
	"sandbox-billing/internal/domain/ports/adapter"
)

var (
	_ adapter.WebhookVerifier = SandboxVerifier{}
	_ adapter.WebhookVerifier = (*HMACVerifier)(nil)
)

// SandboxVerifier accepts every webhook, signed or not.
type SandboxVerifier struct{}

func (SandboxVerifier) Verify(string, []byte) bool { return true }

// HMACVerifier expects the signature header to carry the hex HMAC-SHA256 of
// the raw body, optionally prefixed with "sha256=".
type HMACVerifier struct {
	secret []byte
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret)}
}

func (v *HMACVerifier) Verify(signature string, body []byte) bool {
	signature = strings.TrimPrefix(strings.TrimSpace(signature), "sha256=")
	if signature == "" {
		return false
	}
	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(got, v.sign(body))
}

// Sign returns the hex signature for body; used by tests and tooling.
func (v *HMACVerifier) Sign(body []byte) string {
	return hex.EncodeToString(v.sign(body))
}

func (v *HMACVerifier) sign(body []byte) []byte {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	return mac.Sum(nil)
}

// NewWebhookVerifier picks the strategy configured under payment.webhook.
func NewWebhookVerifier(cfg config.WebhookConfig) (adapter.WebhookVerifier, error) {
	switch cfg.Verifier {
	case "", config.VerifierSandbox:
		return SandboxVerifier{}, nil
	case config.VerifierHMAC:
		if cfg.Secret == "" {
			return nil, fmt.Errorf("hmac verifier requires a secret")
		}
		return NewHMACVerifier(cfg.Secret), nil
	default:
		return nil, fmt.Errorf("unknown webhook verifier %q", cfg.Verifier)
	}
}
