package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/cybersafe-edu/assessment-service/internal/models"
	"github.com/cybersafe-edu/assessment-service/internal/repositories"
)

type FeedbackPostgreSQL struct {
	db *gorm.DB
}

func NewFeedbackPostgreSQL(db *gorm.DB) repositories.FeedbackRepository {
	return &FeedbackPostgreSQL{db: db}
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (f *FeedbackPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return f.db
}

// Create inserts a feedback row.
func (f *FeedbackPostgreSQL) Create(ctx context.Context, tx *gorm.DB, feedback *models.Feedback) error {
	if err := f.getDB(tx).WithContext(ctx).Create(feedback).Error; err != nil {
		return translateError("feedback.create", err)
	}
	return nil
}

// List returns a page of feedback matching the filters, newest first.
func (f *FeedbackPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.FeedbackFilters) ([]*models.Feedback, int64, error) {
	db := f.getDB(tx).WithContext(ctx)

	query := applyFeedbackFilters(db.Model(&models.Feedback{}), filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError("feedback.list_count", err)
	}

	var rows []*models.Feedback
	err := applyPagination(query, filters.Limit, filters.Offset).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, 0, translateError("feedback.list", err)
	}

	return rows, total, nil
}
