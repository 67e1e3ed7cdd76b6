package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/cybersafe-edu/assessment-service/internal/models"
	"github.com/cybersafe-edu/assessment-service/internal/repositories"
	"github.com/cybersafe-edu/assessment-service/internal/validator"
)

type feedbackService struct {
	db        *gorm.DB
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewFeedbackService(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) FeedbackService {
	return &feedbackService{
		db:        db,
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

// Create records a learner's rating of a module or an assessment.
func (s *feedbackService) Create(ctx context.Context, userID uint, req *CreateFeedbackRequest) (*FeedbackResponse, error) {
	if errs := s.validator.ValidateFeedbackCreate(req); errs.HasErrors() {
		return nil, NewValidationError("request", errs.Error(), nil)
	}

	if req.ModuleID != nil {
		if _, err := s.repo.Module().GetByID(ctx, nil, *req.ModuleID); err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrModuleNotFound
			}
			return nil, fmt.Errorf("failed to get module: %w", err)
		}
	}
	if req.AssessmentID != nil {
		if _, err := s.repo.Assessment().GetByID(ctx, nil, *req.AssessmentID); err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrAssessmentNotFound
			}
			return nil, fmt.Errorf("failed to get assessment: %w", err)
		}
	}

	feedback := &models.Feedback{
		UserID:       userID,
		ModuleID:     req.ModuleID,
		AssessmentID: req.AssessmentID,
		Rating:       req.Rating,
		Comment:      req.Comment,
	}

	if err := s.repo.Feedback().Create(ctx, nil, feedback); err != nil {
		return nil, fmt.Errorf("failed to create feedback: %w", err)
	}

	s.logger.Info("Feedback recorded",
		"user_id", userID,
		"rating", req.Rating)

	return &FeedbackResponse{Feedback: feedback}, nil
}

// List returns feedback matching the filters.
func (s *feedbackService) List(ctx context.Context, filters repositories.FeedbackFilters) (*FeedbackListResponse, error) {
	rows, total, err := s.repo.Feedback().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}

	out := make([]*FeedbackResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, &FeedbackResponse{Feedback: row})
	}

	return &FeedbackListResponse{
		Feedback: out,
		Total:    total,
	}, nil
}
