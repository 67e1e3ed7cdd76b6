package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/cybersafe-edu/assessment-service/internal/models"
	"github.com/cybersafe-edu/assessment-service/internal/repositories"
)

type UserPostgreSQL struct {
	db *gorm.DB
}

func NewUserPostgreSQL(db *gorm.DB) repositories.UserRepository {
	return &UserPostgreSQL{db: db}
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (u *UserPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return u.db
}

// GetByID retrieves a user by local numeric ID.
func (u *UserPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error) {
	var user models.User
	if err := u.getDB(tx).WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translateError("user.get_by_id", err)
	}
	return &user, nil
}

// GetByExternalID resolves the identity-provider subject to the local row.
func (u *UserPostgreSQL) GetByExternalID(ctx context.Context, tx *gorm.DB, externalID string) (*models.User, error) {
	var user models.User
	err := u.getDB(tx).WithContext(ctx).
		Where("external_id = ?", externalID).
		First(&user).Error
	if err != nil {
		return nil, translateError("user.get_by_external_id", err)
	}
	return &user, nil
}

// Create inserts a new local user row.
func (u *UserPostgreSQL) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	if err := u.getDB(tx).WithContext(ctx).Create(user).Error; err != nil {
		return translateError("user.create", err)
	}
	return nil
}
