package services

import (
	"context"
	"testing"

	"github.com/cybersafe-edu/assessment-service/internal/models"
	"github.com/cybersafe-edu/assessment-service/internal/repositories"
	"github.com/cybersafe-edu/assessment-service/internal/validator"
)

func TestFeedbackCreate(t *testing.T) {
	repo := newMockRepository()
	module := repo.addModule(&models.Module{Title: "M", IsPublished: true})
	assessment := repo.addAssessment(&models.Assessment{ModuleID: module.ID, Title: "A", IsActive: true})
	svc := NewFeedbackService(nil, repo, testLogger(), validator.New())
	ctx := context.Background()

	t.Run("module feedback", func(t *testing.T) {
		resp, err := svc.Create(ctx, 1, &CreateFeedbackRequest{
			ModuleID: &module.ID,
			Rating:   4,
			Comment:  strPtr("clear and practical"),
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if resp.Feedback.ID == 0 {
			t.Error("feedback row has no ID")
		}
	})

	t.Run("assessment feedback", func(t *testing.T) {
		if _, err := svc.Create(ctx, 1, &CreateFeedbackRequest{
			AssessmentID: &assessment.ID,
			Rating:       2,
		}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	})

	t.Run("requires exactly one target", func(t *testing.T) {
		_, err := svc.Create(ctx, 1, &CreateFeedbackRequest{Rating: 3})
		if !IsValidationError(err) {
			t.Fatalf("expected validation error with no target, got %v", err)
		}

		_, err = svc.Create(ctx, 1, &CreateFeedbackRequest{
			ModuleID:     &module.ID,
			AssessmentID: &assessment.ID,
			Rating:       3,
		})
		if !IsValidationError(err) {
			t.Fatalf("expected validation error with both targets, got %v", err)
		}
	})

	t.Run("rating range", func(t *testing.T) {
		_, err := svc.Create(ctx, 1, &CreateFeedbackRequest{ModuleID: &module.ID, Rating: 6})
		if !IsValidationError(err) {
			t.Fatalf("expected validation error for rating 6, got %v", err)
		}
	})

	t.Run("unknown module", func(t *testing.T) {
		missing := uint(999999)
		_, err := svc.Create(ctx, 1, &CreateFeedbackRequest{ModuleID: &missing, Rating: 3})
		if err != ErrModuleNotFound {
			t.Fatalf("expected ErrModuleNotFound, got %v", err)
		}
	})
}

func TestFeedbackList(t *testing.T) {
	repo := newMockRepository()
	m1 := repo.addModule(&models.Module{Title: "One", IsPublished: true})
	m2 := repo.addModule(&models.Module{Title: "Two", IsPublished: true})
	svc := NewFeedbackService(nil, repo, testLogger(), validator.New())
	ctx := context.Background()

	for _, moduleID := range []uint{m1.ID, m1.ID, m2.ID} {
		id := moduleID
		if _, err := svc.Create(ctx, 1, &CreateFeedbackRequest{ModuleID: &id, Rating: 5}); err != nil {
			t.Fatal(err)
		}
	}

	resp, err := svc.List(ctx, repositories.FeedbackFilters{ModuleID: &m1.ID})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if resp.Total != 2 || len(resp.Feedback) != 2 {
		t.Errorf("filtered list = %d/%d, want 2/2", resp.Total, len(resp.Feedback))
	}
}
