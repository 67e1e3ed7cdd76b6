package services

import (
	"context"
	"testing"

	"github.com/cybersafe-edu/assessment-service/internal/models"
	"github.com/cybersafe-edu/assessment-service/internal/repositories"
)

func TestModuleService_List(t *testing.T) {
	repo := newMockRepository()
	repo.addModule(&models.Module{Title: "Phishing", Difficulty: models.DifficultyBeginner, IsPublished: true})
	repo.addModule(&models.Module{Title: "Passwords", Difficulty: models.DifficultyIntermediate, IsPublished: true})
	repo.addModule(&models.Module{Title: "Draft", Difficulty: models.DifficultyBeginner, IsPublished: false})
	svc := NewModuleService(nil, repo, testLogger())
	ctx := context.Background()

	t.Run("hides unpublished modules by default", func(t *testing.T) {
		resp, err := svc.List(ctx, repositories.ModuleFilters{})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if resp.Total != 2 {
			t.Errorf("total = %d, want 2", resp.Total)
		}
		for _, module := range resp.Modules {
			if !module.IsPublished {
				t.Errorf("unpublished module %q leaked into listing", module.Title)
			}
		}
	})

	t.Run("filters by difficulty", func(t *testing.T) {
		difficulty := models.DifficultyIntermediate
		resp, err := svc.List(ctx, repositories.ModuleFilters{Difficulty: &difficulty})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(resp.Modules) != 1 || resp.Modules[0].Title != "Passwords" {
			t.Errorf("modules = %+v, want only Passwords", resp.Modules)
		}
	})

	t.Run("rejects invalid difficulty", func(t *testing.T) {
		difficulty := models.DifficultyLevel("IMPOSSIBLE")
		_, err := svc.List(ctx, repositories.ModuleFilters{Difficulty: &difficulty})
		if !IsValidationError(err) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("pagination", func(t *testing.T) {
		resp, err := svc.List(ctx, repositories.ModuleFilters{Limit: 1, Offset: 1})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if resp.Total != 2 {
			t.Errorf("total = %d, want 2", resp.Total)
		}
		if len(resp.Modules) != 1 {
			t.Errorf("page size = %d, want 1", len(resp.Modules))
		}
	})
}

func TestModuleService_GetByID(t *testing.T) {
	repo := newMockRepository()
	module := repo.addModule(&models.Module{Title: "Phishing", IsPublished: true})
	svc := NewModuleService(nil, repo, testLogger())
	ctx := context.Background()

	got, err := svc.GetByID(ctx, module.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Title != "Phishing" {
		t.Errorf("title = %q", got.Title)
	}

	if _, err := svc.GetByID(ctx, 999999); err != ErrModuleNotFound {
		t.Errorf("expected ErrModuleNotFound, got %v", err)
	}
}
