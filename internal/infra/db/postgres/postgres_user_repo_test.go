//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"

	"sandbox-billing/internal/domain"
	"sandbox-billing/internal/domain/model"
)

func TestUserRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	ctx := context.Background()
	repo := NewPostgresUserRepo(testPool)
	cleanup(t)

	u, _ := model.NewUser("", "Jane", "jane@example.com")
	if err := repo.Save(ctx, nil, u); err != nil {
		t.Fatalf("Save: %v", err)
	}

	pro := "pro"
	if err := repo.UpdateCurrentPlan(ctx, nil, u.ID, &pro); err != nil {
		t.Fatalf("UpdateCurrentPlan: %v", err)
	}
	got, err := repo.FindByID(ctx, nil, u.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.CurrentPlan == nil || *got.CurrentPlan != "pro" {
		t.Fatalf("expected current plan pro, got %v", got.CurrentPlan)
	}

	if err := repo.UpdateCurrentPlan(ctx, nil, u.ID, nil); err != nil {
		t.Fatalf("clear plan: %v", err)
	}
	got, _ = repo.FindByID(ctx, nil, u.ID)
	if got.CurrentPlan != nil {
		t.Errorf("expected cleared plan, got %v", *got.CurrentPlan)
	}

	if err := repo.UpdateCurrentPlan(ctx, nil, "missing", &pro); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := repo.FindByID(ctx, nil, "missing"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}
