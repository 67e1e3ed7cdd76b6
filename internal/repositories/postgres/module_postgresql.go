package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/cybersafe-edu/assessment-service/internal/cache"
	"github.com/cybersafe-edu/assessment-service/internal/models"
	"github.com/cybersafe-edu/assessment-service/internal/repositories"
)

type ModulePostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewModulePostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.ModuleRepository {
	return &ModulePostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (m *ModulePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return m.db
}

// GetByID retrieves a module by ID with caching.
func (m *ModulePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Module, error) {
	// Transactional reads skip the cache so they see their own writes.
	if tx != nil {
		var module models.Module
		if err := tx.WithContext(ctx).First(&module, id).Error; err != nil {
			return nil, translateError("module.get_by_id", err)
		}
		return &module, nil
	}

	cacheKey := fmt.Sprintf("id:%d", id)
	var module models.Module

	err := m.cacheManager.Module.CacheOrExecute(ctx, cacheKey, &module, cache.ModuleCacheConfig.TTL, func() (interface{}, error) {
		var dbModule models.Module
		if err := m.db.WithContext(ctx).First(&dbModule, id).Error; err != nil {
			return nil, translateError("module.get_by_id", err)
		}
		return &dbModule, nil
	})
	if err != nil {
		return nil, err
	}

	return &module, nil
}

// List returns a page of modules ordered by their position in the course.
func (m *ModulePostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.ModuleFilters) ([]*models.Module, int64, error) {
	db := m.getDB(tx).WithContext(ctx)

	query := applyModuleFilters(db.Model(&models.Module{}), filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError("module.list_count", err)
	}

	var modules []*models.Module
	err := applyPagination(query, filters.Limit, filters.Offset).
		Order("order_index ASC, id ASC").
		Find(&modules).Error
	if err != nil {
		return nil, 0, translateError("module.list", err)
	}

	return modules, total, nil
}

// Create creates a new module.
func (m *ModulePostgreSQL) Create(ctx context.Context, tx *gorm.DB, module *models.Module) error {
	if err := m.getDB(tx).WithContext(ctx).Create(module).Error; err != nil {
		return translateError("module.create", err)
	}
	return nil
}

// Update updates a module and invalidates its cache entry.
func (m *ModulePostgreSQL) Update(ctx context.Context, tx *gorm.DB, module *models.Module) error {
	if err := m.getDB(tx).WithContext(ctx).Save(module).Error; err != nil {
		return translateError("module.update", err)
	}
	cache.SafeDelete(ctx, m.cacheManager.Module, fmt.Sprintf("id:%d", module.ID))
	return nil
}
