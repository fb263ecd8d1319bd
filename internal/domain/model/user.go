package model

import (
	"strings"
	"time"

	"sandbox-billing/internal/domain"

	"github.com/oklog/ulid/v2"
)

// User is the slice of the account record the payment core reads and writes.
// Registration and credentials live with the auth service.
type User struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	CurrentPlan *string   `json:"current_plan"` // denormalized; the ledger is authoritative
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewUser(id, name, email string) (*User, error) {
	if id == "" {
		id = ulid.Make().String()
	}
	if strings.TrimSpace(email) == "" || !strings.Contains(email, "@") {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now().UTC()
	return &User{
		ID:        id,
		Name:      name,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
