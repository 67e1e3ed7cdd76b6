package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/cybersafe-edu/assessment-service/internal/cache"
	"github.com/cybersafe-edu/assessment-service/internal/models"
	"github.com/cybersafe-edu/assessment-service/internal/repositories"
)

type ProgressPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewProgressPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.ProgressRepository {
	return &ProgressPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (p *ProgressPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return p.db
}

// GetByUserAndModule retrieves the single progress row for a (user, module)
// pair, or ErrNotFound when the learner has never touched the module.
func (p *ProgressPostgreSQL) GetByUserAndModule(ctx context.Context, tx *gorm.DB, userID, moduleID uint) (*models.UserProgress, error) {
	var progress models.UserProgress
	err := p.getDB(tx).WithContext(ctx).
		Where("user_id = ? AND module_id = ?", userID, moduleID).
		First(&progress).Error
	if err != nil {
		return nil, translateError("progress.get_by_user_module", err)
	}
	return &progress, nil
}

// GetByUser returns all progress rows of a user, module preloaded, with
// caching on the non-transactional path.
func (p *ProgressPostgreSQL) GetByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]*models.UserProgress, error) {
	fetch := func(db *gorm.DB) ([]*models.UserProgress, error) {
		var rows []*models.UserProgress
		err := db.WithContext(ctx).
			Preload("Module").
			Where("user_id = ?", userID).
			Order("module_id ASC").
			Find(&rows).Error
		if err != nil {
			return nil, translateError("progress.get_by_user", err)
		}
		return rows, nil
	}

	if tx != nil {
		return fetch(tx)
	}

	cacheKey := fmt.Sprintf("user:%d:all", userID)
	var rows []*models.UserProgress
	err := p.cacheManager.Progress.CacheOrExecute(ctx, cacheKey, &rows, cache.ProgressCacheConfig.TTL, func() (interface{}, error) {
		return fetch(p.db)
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Create inserts a new progress row.
func (p *ProgressPostgreSQL) Create(ctx context.Context, tx *gorm.DB, progress *models.UserProgress) error {
	if err := p.getDB(tx).WithContext(ctx).Create(progress).Error; err != nil {
		return translateError("progress.create", err)
	}
	cache.InvalidateProgressCache(ctx, p.cacheManager, progress.UserID)
	return nil
}

// Update saves a progress row. Last writer wins; concurrent submissions are
// serialized by the unique (user, module) index at insert time only.
func (p *ProgressPostgreSQL) Update(ctx context.Context, tx *gorm.DB, progress *models.UserProgress) error {
	if err := p.getDB(tx).WithContext(ctx).Save(progress).Error; err != nil {
		return translateError("progress.update", err)
	}
	cache.InvalidateProgressCache(ctx, p.cacheManager, progress.UserID)
	return nil
}
