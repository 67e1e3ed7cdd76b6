package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/cybersafe-edu/assessment-service/internal/repositories"
)

// translateError converts gorm errors into the repository error taxonomy.
func translateError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repositories.ErrNotFound
	}
	return repositories.NewStorageError(op, err)
}

// applyModuleFilters applies common filters to module queries.
func applyModuleFilters(query *gorm.DB, filters repositories.ModuleFilters) *gorm.DB {
	if filters.Difficulty != nil {
		query = query.Where("difficulty = ?", *filters.Difficulty)
	}
	if filters.IsPublished != nil {
		query = query.Where("is_published = ?", *filters.IsPublished)
	}
	return query
}

// applyAttemptFilters applies common filters to attempt queries.
func applyAttemptFilters(query *gorm.DB, filters repositories.AttemptFilters) *gorm.DB {
	if filters.AssessmentID != nil {
		query = query.Where("assessment_id = ?", *filters.AssessmentID)
	}
	if filters.Passed != nil {
		query = query.Where("passed = ?", *filters.Passed)
	}
	if filters.DateFrom != nil {
		query = query.Where("completed_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("completed_at <= ?", *filters.DateTo)
	}
	return query
}

// applyFeedbackFilters applies common filters to feedback queries.
func applyFeedbackFilters(query *gorm.DB, filters repositories.FeedbackFilters) *gorm.DB {
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}
	if filters.ModuleID != nil {
		query = query.Where("module_id = ?", *filters.ModuleID)
	}
	if filters.AssessmentID != nil {
		query = query.Where("assessment_id = ?", *filters.AssessmentID)
	}
	return query
}

// applyPagination applies limit/offset bounds. A non-positive limit falls
// back to 20, and limits are capped at 100 to protect list endpoints.
func applyPagination(query *gorm.DB, limit, offset int) *gorm.DB {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	query = query.Limit(limit)
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}
