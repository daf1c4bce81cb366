package repository

import (
	"context"
	"strings"

	"github.com/yukikurage/teamtask-api/internal/models"
	"gorm.io/gorm"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

// CreateAndConfirm creates the user and commits only if confirm succeeds.
func (r *GormUserRepository) CreateAndConfirm(ctx context.Context, user *models.User, confirm func(*models.User) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return translate(err)
		}
		return confirm(user)
	})
	return translate(err)
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// List lists every user ordered by name
func (r *GormUserRepository) List(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := r.db.WithContext(ctx).Order("name ASC").Order("id ASC").Find(&users).Error; err != nil {
		return nil, translate(err)
	}
	return users, nil
}

// Update writes name, email and role
func (r *GormUserRepository) Update(ctx context.Context, user *models.User) error {
	result := r.db.WithContext(ctx).
		Model(user).
		Select("name", "email", "role").
		Updates(user)
	return affected(result)
}

// SetPasswordIfUnset stores the hash only while password_hash is NULL, so a
// setup link can be consumed once.
func (r *GormUserRepository) SetPasswordIfUnset(ctx context.Context, id uint64, hash string) error {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND password_hash IS NULL", id).
		Update("password_hash", hash)
	return affected(result)
}

// Delete removes the user together with memberships and owned tasks
func (r *GormUserRepository) Delete(ctx context.Context, id uint64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.Membership{}).Error; err != nil {
			return err
		}

		if err := tx.Where("owner_user_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return err
		}

		return affected(tx.Delete(&models.User{}, id))
	})
	return translate(err)
}

// CountCreatedGroups counts the groups created by the user
func (r *GormUserRepository) CountCreatedGroups(ctx context.Context, id uint64) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Group{}).Where("creator_id = ?", id).Count(&count).Error; err != nil {
		return 0, translate(err)
	}
	return count, nil
}

// CountByIDs counts how many of the given user IDs exist
func (r *GormUserRepository) CountByIDs(ctx context.Context, ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return 0, translate(err)
	}
	return count, nil
}
