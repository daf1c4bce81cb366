package repository

import (
	"context"
	"time"

	"github.com/yukikurage/teamtask-api/internal/database"
	"github.com/yukikurage/teamtask-api/internal/models"
	"gorm.io/gorm"
)

// GormGroupRepository is a GORM implementation of GroupRepository. It also
// serves as the membership index consulted by the authorization policy.
type GormGroupRepository struct {
	db *gorm.DB
}

// NewGroupRepository creates a new GroupRepository
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &GormGroupRepository{db: db}
}

// Create inserts the group and its memberships atomically. A failing member
// insert rolls back the group and every membership written before it.
func (r *GormGroupRepository) Create(ctx context.Context, group *models.Group, memberIDs []uint64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}

		now := time.Now()
		if err := tx.Create(&models.Membership{UserID: group.CreatorID, GroupID: group.ID, JoinedAt: now}).Error; err != nil {
			return err
		}

		for _, userID := range memberIDs {
			if userID == group.CreatorID {
				continue
			}
			if err := tx.Create(&models.Membership{UserID: userID, GroupID: group.ID, JoinedAt: now}).Error; err != nil {
				return err
			}
		}

		return nil
	})
	return translate(err)
}

// FindByID finds a group by ID
func (r *GormGroupRepository) FindByID(ctx context.Context, id uint64) (*models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).First(&group, id).Error; err != nil {
		return nil, translate(err)
	}
	return &group, nil
}

// ListAll lists every group with member counts
func (r *GormGroupRepository) ListAll(ctx context.Context) ([]models.GroupSummary, error) {
	var groups []models.Group
	if err := r.db.WithContext(ctx).Scopes(database.Newest).Find(&groups).Error; err != nil {
		return nil, translate(err)
	}
	return r.withMemberCounts(ctx, groups)
}

// ListByMember lists the groups a user belongs to
func (r *GormGroupRepository) ListByMember(ctx context.Context, userID uint64) ([]models.GroupSummary, error) {
	memberOf := r.db.Model(&models.Membership{}).Select("group_id").Where("user_id = ?", userID)

	var groups []models.Group
	err := r.db.WithContext(ctx).
		Where("id IN (?)", memberOf).
		Scopes(database.Newest).
		Find(&groups).Error
	if err != nil {
		return nil, translate(err)
	}
	return r.withMemberCounts(ctx, groups)
}

func (r *GormGroupRepository) withMemberCounts(ctx context.Context, groups []models.Group) ([]models.GroupSummary, error) {
	summaries := make([]models.GroupSummary, len(groups))
	if len(groups) == 0 {
		return summaries, nil
	}

	ids := make([]uint64, len(groups))
	for i, g := range groups {
		ids[i] = g.ID
	}

	var counts []struct {
		GroupID uint64
		Count   int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Membership{}).
		Select("group_id, COUNT(*) AS count").
		Where("group_id IN ?", ids).
		Group("group_id").
		Scan(&counts).Error
	if err != nil {
		return nil, translate(err)
	}

	byGroup := make(map[uint64]int64, len(counts))
	for _, c := range counts {
		byGroup[c.GroupID] = c.Count
	}
	for i, g := range groups {
		summaries[i] = models.GroupSummary{Group: g, MemberCount: byGroup[g.ID]}
	}
	return summaries, nil
}

// Update renames the group and optionally replaces its member set
func (r *GormGroupRepository) Update(ctx context.Context, group *models.Group, memberIDs []uint64, replaceMembers bool) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(group).Select("name", "description").Updates(group)
		if err := affected(result); err != nil {
			return err
		}

		if !replaceMembers {
			return nil
		}

		if err := tx.Where("group_id = ? AND user_id <> ?", group.ID, group.CreatorID).
			Delete(&models.Membership{}).Error; err != nil {
			return err
		}

		now := time.Now()
		for _, userID := range memberIDs {
			if userID == group.CreatorID {
				continue
			}
			if err := tx.Create(&models.Membership{UserID: userID, GroupID: group.ID, JoinedAt: now}).Error; err != nil {
				return err
			}
		}

		return nil
	})
	return translate(err)
}

// Delete removes the group, its memberships, and detaches its tasks
func (r *GormGroupRepository) Delete(ctx context.Context, id uint64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Task{}).Where("group_id = ?", id).Update("group_id", nil).Error; err != nil {
			return err
		}

		if err := tx.Where("group_id = ?", id).Delete(&models.Membership{}).Error; err != nil {
			return err
		}

		return affected(tx.Delete(&models.Group{}, id))
	})
	return translate(err)
}

// AddMember adds a membership row
func (r *GormGroupRepository) AddMember(ctx context.Context, groupID, userID uint64) error {
	member := &models.Membership{UserID: userID, GroupID: groupID, JoinedAt: time.Now()}
	return translate(r.db.WithContext(ctx).Create(member).Error)
}

// RemoveMember removes a membership row
func (r *GormGroupRepository) RemoveMember(ctx context.Context, groupID, userID uint64) error {
	result := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.Membership{})
	return affected(result)
}

// ListMembers lists the members of a group ordered by name
func (r *GormGroupRepository) ListMembers(ctx context.Context, groupID uint64) ([]models.User, error) {
	users := []models.User{}
	err := r.db.WithContext(ctx).
		Joins("JOIN memberships ON memberships.user_id = users.id").
		Where("memberships.group_id = ?", groupID).
		Order("users.name ASC").
		Order("users.id ASC").
		Find(&users).Error
	if err != nil {
		return nil, translate(err)
	}
	return users, nil
}

// IsMember reports whether the user belongs to the group
func (r *GormGroupRepository) IsMember(ctx context.Context, userID, groupID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("user_id = ? AND group_id = ?", userID, groupID).
		Count(&count).Error
	if err != nil {
		return false, translate(err)
	}
	return count > 0, nil
}

// GroupsOf returns the IDs of every group the user belongs to
func (r *GormGroupRepository) GroupsOf(ctx context.Context, userID uint64) ([]uint64, error) {
	ids := []uint64{}
	err := r.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("user_id = ?", userID).
		Order("group_id ASC").
		Pluck("group_id", &ids).Error
	if err != nil {
		return nil, translate(err)
	}
	return ids, nil
}

// IsCreator reports whether the user created the group
func (r *GormGroupRepository) IsCreator(ctx context.Context, userID, groupID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Group{}).
		Where("id = ? AND creator_id = ?", groupID, userID).
		Count(&count).Error
	if err != nil {
		return false, translate(err)
	}
	return count > 0, nil
}
