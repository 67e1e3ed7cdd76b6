package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/cybersafe-edu/assessment-service/internal/models"
	"github.com/cybersafe-edu/assessment-service/internal/repositories"
)

type progressService struct {
	db     *gorm.DB
	repo   repositories.Repository
	logger *slog.Logger
}

func NewProgressService(db *gorm.DB, repo repositories.Repository, logger *slog.Logger) ProgressService {
	return &progressService{
		db:     db,
		repo:   repo,
		logger: logger,
	}
}

// StartModule marks a module as in progress for the learner, creating the
// progress row if this is their first visit.
func (s *progressService) StartModule(ctx context.Context, userID, moduleID uint) (*ModuleProgressResponse, error) {
	module, err := s.repo.Module().GetByID(ctx, nil, moduleID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to get module: %w", err)
	}
	if !module.IsPublished {
		return nil, ErrModuleNotPublished
	}

	now := time.Now()
	progress, err := s.repo.Progress().GetByUserAndModule(ctx, nil, userID, moduleID)
	if err != nil {
		if !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to get progress: %w", err)
		}
		progress = &models.UserProgress{
			UserID:         userID,
			ModuleID:       moduleID,
			Status:         models.StatusInProgress,
			LastAccessedAt: now,
		}
		if err := s.repo.Progress().Create(ctx, nil, progress); err != nil {
			return nil, fmt.Errorf("failed to create progress: %w", err)
		}
		s.logger.Info("Module started", "user_id", userID, "module_id", moduleID)
		return progressResponse(progress, module), nil
	}

	// Revisiting a module refreshes the access time but never demotes a
	// completed module back to in-progress.
	if progress.Status == models.StatusNotStarted {
		progress.Status = models.StatusInProgress
	}
	progress.LastAccessedAt = now
	if err := s.repo.Progress().Update(ctx, nil, progress); err != nil {
		return nil, fmt.Errorf("failed to update progress: %w", err)
	}

	return progressResponse(progress, module), nil
}

// UpdateSectionProgress records partial progress through a module's
// content sections.
func (s *progressService) UpdateSectionProgress(ctx context.Context, userID, moduleID uint, req *UpdateProgressRequest) (*ModuleProgressResponse, error) {
	if req.ProgressPercentage < 0 || req.ProgressPercentage > 100 {
		return nil, NewValidationError("progress_percentage", "must be between 0 and 100", req.ProgressPercentage)
	}

	module, err := s.repo.Module().GetByID(ctx, nil, moduleID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to get module: %w", err)
	}

	progress, err := s.repo.Progress().GetByUserAndModule(ctx, nil, userID, moduleID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrProgressNotFound
		}
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}

	// Progress only moves forward; a re-read of an earlier section does
	// not rewind the percentage.
	if req.ProgressPercentage > progress.ProgressPercentage {
		progress.ProgressPercentage = req.ProgressPercentage
	}
	if progress.Status == models.StatusNotStarted {
		progress.Status = models.StatusInProgress
	}
	progress.LastAccessedAt = time.Now()

	if err := s.repo.Progress().Update(ctx, nil, progress); err != nil {
		return nil, fmt.Errorf("failed to update progress: %w", err)
	}

	return progressResponse(progress, module), nil
}

// CompleteModule marks a module completed outside the grading path, for
// modules without an assessment.
func (s *progressService) CompleteModule(ctx context.Context, userID, moduleID uint) (*ModuleProgressResponse, error) {
	module, err := s.repo.Module().GetByID(ctx, nil, moduleID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to get module: %w", err)
	}

	now := time.Now()
	progress, err := s.repo.Progress().GetByUserAndModule(ctx, nil, userID, moduleID)
	if err != nil {
		if !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to get progress: %w", err)
		}
		progress = &models.UserProgress{
			UserID:   userID,
			ModuleID: moduleID,
		}
		progress.Status = models.StatusCompleted
		progress.ProgressPercentage = 100
		progress.LastAccessedAt = now
		progress.CompletedAt = &now
		if err := s.repo.Progress().Create(ctx, nil, progress); err != nil {
			return nil, fmt.Errorf("failed to create progress: %w", err)
		}
		s.logger.Info("Module completed", "user_id", userID, "module_id", moduleID)
		return progressResponse(progress, module), nil
	}

	progress.Status = models.StatusCompleted
	progress.ProgressPercentage = 100
	progress.LastAccessedAt = now
	if progress.CompletedAt == nil {
		progress.CompletedAt = &now
	}
	if err := s.repo.Progress().Update(ctx, nil, progress); err != nil {
		return nil, fmt.Errorf("failed to update progress: %w", err)
	}

	s.logger.Info("Module completed", "user_id", userID, "module_id", moduleID)
	return progressResponse(progress, module), nil
}

// GetUserProgress returns the learner's standing in every module they have
// touched.
func (s *progressService) GetUserProgress(ctx context.Context, userID uint) ([]*ModuleProgressResponse, error) {
	rows, err := s.repo.Progress().GetByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user progress: %w", err)
	}

	out := make([]*ModuleProgressResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, progressResponse(row, &row.Module))
	}
	return out, nil
}

func progressResponse(progress *models.UserProgress, module *models.Module) *ModuleProgressResponse {
	return &ModuleProgressResponse{
		ModuleID:           progress.ModuleID,
		ModuleTitle:        module.Title,
		Status:             progress.Status,
		ProgressPercentage: progress.ProgressPercentage,
		PointsEarned:       progress.PointsEarned,
		LastAccessedAt:     progress.LastAccessedAt,
		CompletedAt:        progress.CompletedAt,
	}
}
