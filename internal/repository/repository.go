package repository

import (
	"context"

	"github.com/yukikurage/teamtask-api/internal/models"
	"github.com/yukikurage/teamtask-api/internal/utils"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID
	FindByID(ctx context.Context, id uint64) (*models.Task, error)

	// List retrieves tasks visible under the filter, newest first, with the
	// total count ignoring pagination
	List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error)

	// Stats counts tasks visible under the filter by status and assignment
	Stats(ctx context.Context, filter TaskFilter) (*models.TaskStats, error)

	// Update writes every mutable column of the task
	Update(ctx context.Context, task *models.Task) error

	// Delete hard deletes a task
	Delete(ctx context.Context, id uint64) error

	// GroupExists reports whether the group exists
	GroupExists(ctx context.Context, groupID uint64) (bool, error)
}

// TaskFilter holds filtering options for listing tasks. Unless Unrestricted is
// set, only tasks owned by OwnerUserID or attached to one of GroupIDs match.
type TaskFilter struct {
	Unrestricted bool
	OwnerUserID  uint64
	GroupIDs     []uint64
	Status       *models.TaskStatus
	Pagination   utils.PaginationParams
}

// GroupRepository defines the interface for group and membership data access
type GroupRepository interface {
	// Create inserts the group, the creator membership and one membership
	// per member ID in a single transaction
	Create(ctx context.Context, group *models.Group, memberIDs []uint64) error

	// FindByID finds a group by ID
	FindByID(ctx context.Context, id uint64) (*models.Group, error)

	// ListAll lists every group with member counts, newest first
	ListAll(ctx context.Context) ([]models.GroupSummary, error)

	// ListByMember lists the groups a user belongs to, newest first
	ListByMember(ctx context.Context, userID uint64) ([]models.GroupSummary, error)

	// Update renames the group and, when replaceMembers is set, replaces
	// every membership except the creator's in the same transaction
	Update(ctx context.Context, group *models.Group, memberIDs []uint64, replaceMembers bool) error

	// Delete removes the group, its memberships, and detaches its tasks
	Delete(ctx context.Context, id uint64) error

	// AddMember adds a membership row
	AddMember(ctx context.Context, groupID, userID uint64) error

	// RemoveMember removes a membership row
	RemoveMember(ctx context.Context, groupID, userID uint64) error

	// ListMembers lists the members of a group ordered by name
	ListMembers(ctx context.Context, groupID uint64) ([]models.User, error)

	// IsMember reports whether the user belongs to the group
	IsMember(ctx context.Context, userID, groupID uint64) (bool, error)

	// GroupsOf returns the IDs of every group the user belongs to
	GroupsOf(ctx context.Context, userID uint64) ([]uint64, error)

	// IsCreator reports whether the user created the group
	IsCreator(ctx context.Context, userID, groupID uint64) (bool, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// CreateAndConfirm creates a user and runs confirm before committing.
	// An error from confirm rolls the insert back.
	CreateAndConfirm(ctx context.Context, user *models.User, confirm func(*models.User) error) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByEmail finds a user by lower-cased email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// List lists every user ordered by name
	List(ctx context.Context) ([]models.User, error)

	// Update writes name, email and role
	Update(ctx context.Context, user *models.User) error

	// SetPasswordIfUnset stores the hash only while no password is set
	SetPasswordIfUnset(ctx context.Context, id uint64, hash string) error

	// Delete removes the user with its memberships and owned tasks
	Delete(ctx context.Context, id uint64) error

	// CountCreatedGroups counts the groups created by the user
	CountCreatedGroups(ctx context.Context, id uint64) (int64, error)

	// CountByIDs counts how many of the given user IDs exist
	CountByIDs(ctx context.Context, ids []uint64) (int64, error)
}
