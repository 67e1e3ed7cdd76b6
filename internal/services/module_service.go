package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/cybersafe-edu/assessment-service/internal/models"
	"github.com/cybersafe-edu/assessment-service/internal/repositories"
)

type moduleService struct {
	db     *gorm.DB
	repo   repositories.Repository
	logger *slog.Logger
}

func NewModuleService(db *gorm.DB, repo repositories.Repository, logger *slog.Logger) ModuleService {
	return &moduleService{
		db:     db,
		repo:   repo,
		logger: logger,
	}
}

// List returns modules matching the filters. Unless the caller asks
// otherwise, only published modules are visible.
func (s *moduleService) List(ctx context.Context, filters repositories.ModuleFilters) (*ModuleListResponse, error) {
	if filters.IsPublished == nil {
		published := true
		filters.IsPublished = &published
	}
	if filters.Limit <= 0 {
		filters.Limit = 20
	}
	if filters.Limit > 100 {
		filters.Limit = 100
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}
	if filters.Difficulty != nil && !filters.Difficulty.Valid() {
		return nil, NewValidationError("difficulty", "invalid difficulty level", *filters.Difficulty)
	}

	modules, total, err := s.repo.Module().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}

	return &ModuleListResponse{
		Modules: modules,
		Total:   total,
	}, nil
}

func (s *moduleService) GetByID(ctx context.Context, id uint) (*models.Module, error) {
	module, err := s.repo.Module().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to get module: %w", err)
	}
	return module, nil
}
