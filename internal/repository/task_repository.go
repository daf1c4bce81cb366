package repository

import (
	"context"

	"github.com/yukikurage/teamtask-api/internal/database"
	"github.com/yukikurage/teamtask-api/internal/models"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return translate(r.db.WithContext(ctx).Create(task).Error)
}

// FindByID finds a task by ID
func (r *GormTaskRepository) FindByID(ctx context.Context, id uint64) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).First(&task, id).Error; err != nil {
		return nil, translate(err)
	}
	return &task, nil
}

// scoped restricts a task query to the rows the filter may see
func (r *GormTaskRepository) scoped(ctx context.Context, filter TaskFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Task{})

	if !filter.Unrestricted {
		if len(filter.GroupIDs) > 0 {
			query = query.Where(
				r.db.Where("owner_user_id = ?", filter.OwnerUserID).
					Or("group_id IN ?", filter.GroupIDs),
			)
		} else {
			query = query.Where("owner_user_id = ?", filter.OwnerUserID)
		}
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	return query
}

// List retrieves tasks with filtering and pagination
func (r *GormTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error) {
	var total int64
	if err := r.scoped(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	tasks := []models.Task{}
	err := r.scoped(ctx, filter).
		Scopes(database.Newest, database.Paginate(filter.Pagination)).
		Find(&tasks).Error
	if err != nil {
		return nil, 0, translate(err)
	}

	return tasks, total, nil
}

// Stats counts visible tasks by status and assignment kind
func (r *GormTaskRepository) Stats(ctx context.Context, filter TaskFilter) (*models.TaskStats, error) {
	var rows []struct {
		Status models.TaskStatus
		Count  int64
	}
	err := r.scoped(ctx, filter).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}

	stats := &models.TaskStats{}
	for _, row := range rows {
		stats.Total += row.Count
		switch row.Status {
		case models.TaskStatusPending:
			stats.Pending = row.Count
		case models.TaskStatusInProgress:
			stats.InProgress = row.Count
		case models.TaskStatusDone:
			stats.Done = row.Count
		}
	}

	if err := r.scoped(ctx, filter).Where("owner_user_id IS NOT NULL").Count(&stats.AssignedUser).Error; err != nil {
		return nil, translate(err)
	}
	if err := r.scoped(ctx, filter).Where("group_id IS NOT NULL").Count(&stats.AssignedGroup).Error; err != nil {
		return nil, translate(err)
	}

	return stats, nil
}

// Update writes every mutable column, including cleared ones
func (r *GormTaskRepository) Update(ctx context.Context, task *models.Task) error {
	result := r.db.WithContext(ctx).
		Model(task).
		Select("title", "description", "status", "owner_user_id", "group_id", "due_date").
		Updates(task)
	return affected(result)
}

// Delete hard deletes a task
func (r *GormTaskRepository) Delete(ctx context.Context, id uint64) error {
	return affected(r.db.WithContext(ctx).Delete(&models.Task{}, id))
}

// GroupExists reports whether the group exists
func (r *GormTaskRepository) GroupExists(ctx context.Context, groupID uint64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Group{}).Where("id = ?", groupID).Count(&count).Error; err != nil {
		return false, translate(err)
	}
	return count > 0, nil
}
