package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"sandbox-billing/internal/config"
	"sandbox-billing/internal/infra/logging"

	"github.com/golang-jwt/jwt/v5"
)

// ===== Bearer JWT primitives =====

// UserClaims identifies the caller; Subject carries the user id.
type UserClaims struct {
	jwt.RegisteredClaims
}

type AuthManager struct {
	secret []byte
	issuer string
}

func NewAuthManager(cfg config.AuthConfig) *AuthManager {
	return &AuthManager{secret: []byte(cfg.JWTSecret), issuer: cfg.Issuer}
}

// Mint signs an HS256 token for userID. Used by the seed tool and tests.
func (a *AuthManager) Mint(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := UserClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *AuthManager) ParseFromRequest(r *http.Request) (*UserClaims, error) {
	// Authorization: Bearer <jwt>
	hdr := r.Header.Get("Authorization")
	if len(hdr) < 7 || !strings.EqualFold(hdr[:7], "bearer ") {
		return nil, errors.New("missing token")
	}
	return a.parse(strings.TrimSpace(hdr[7:]))
}

func (a *AuthManager) parse(tok string) (*UserClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	claims := &UserClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil || !tkn.Valid || claims.Subject == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

type userIDKey struct{}

// RequireUser rejects requests without a valid bearer token and stores the
// user id on the context.
func (a *AuthManager) RequireUser() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := a.ParseFromRequest(r)
			if err != nil {
				Error(w, http.StatusUnauthorized, "Unauthenticated.", nil)
				return
			}
			ctx := WithUserID(r.Context(), claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func WithUserID(ctx context.Context, userID string) context.Context {
	ctx = context.WithValue(ctx, userIDKey{}, userID)
	return logging.WithUserID(ctx, userID)
}

func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey{}).(string); ok {
		return v
	}
	return ""
}
