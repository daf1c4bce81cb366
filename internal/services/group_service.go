package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/teamtask-api/internal/authz"
	"github.com/yukikurage/teamtask-api/internal/dto"
	"github.com/yukikurage/teamtask-api/internal/models"
	"github.com/yukikurage/teamtask-api/internal/repository"
)

// GroupService handles group business logic
type GroupService struct {
	groupRepo repository.GroupRepository
	userRepo  repository.UserRepository
	policy    *authz.Policy
}

// NewGroupService creates a new GroupService
func NewGroupService(groupRepo repository.GroupRepository, userRepo repository.UserRepository, policy *authz.Policy) *GroupService {
	return &GroupService{
		groupRepo: groupRepo,
		userRepo:  userRepo,
		policy:    policy,
	}
}

// CreateGroupInput represents input for creating a group
type CreateGroupInput struct {
	Name        string   `json:"name" validate:"required,min=3,max=255"`
	Description *string  `json:"description"`
	Members     []uint64 `json:"members"`
}

// UpdateGroupInput represents input for updating a group. A nil Members
// keeps the current members; an empty slice leaves only the creator.
type UpdateGroupInput struct {
	Name        *string              `json:"name"`
	Description dto.Nullable[string] `json:"description"`
	Members     *[]uint64            `json:"members"`
}

// GroupDetail is a group with its members.
type GroupDetail struct {
	Group   *models.Group
	Members []models.User
}

// Create creates a group. The creator becomes a member even when absent
// from Members.
func (s *GroupService) Create(ctx context.Context, actor authz.Actor, input CreateGroupInput) (*GroupDetail, error) {
	if err := s.policy.Authorize(ctx, actor, authz.ActionCreate, authz.AnyGroup()); err != nil {
		return nil, err
	}

	input.Name = strings.TrimSpace(input.Name)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	memberIDs, err := s.checkMembers(ctx, actor.ID, input.Members)
	if err != nil {
		return nil, err
	}

	group := &models.Group{
		Name:        input.Name,
		Description: trimOptional(input.Description),
		CreatorID:   actor.ID,
	}
	if err := s.groupRepo.Create(ctx, group, memberIDs); err != nil {
		if errors.Is(err, repository.ErrForeignKey) {
			return nil, ErrMembersNotFound
		}
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	return s.detail(ctx, group)
}

// checkMembers drops duplicates and the creator, then verifies every
// remaining user exists.
func (s *GroupService) checkMembers(ctx context.Context, creatorID uint64, ids []uint64) ([]uint64, error) {
	unique := uniqueUint64(ids)
	memberIDs := make([]uint64, 0, len(unique))
	for _, id := range unique {
		if id != creatorID {
			memberIDs = append(memberIDs, id)
		}
	}
	if len(memberIDs) == 0 {
		return memberIDs, nil
	}

	count, err := s.userRepo.CountByIDs(ctx, memberIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to verify members: %w", err)
	}
	if count != int64(len(memberIDs)) {
		return nil, ErrMembersNotFound
	}
	return memberIDs, nil
}

// ListMine lists the groups the actor belongs to
func (s *GroupService) ListMine(ctx context.Context, actor authz.Actor) ([]models.GroupSummary, error) {
	groups, err := s.groupRepo.ListByMember(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return groups, nil
}

// ListAll lists every group
func (s *GroupService) ListAll(ctx context.Context, actor authz.Actor) ([]models.GroupSummary, error) {
	if err := s.policy.Authorize(ctx, actor, authz.ActionList, authz.AnyGroup()); err != nil {
		return nil, err
	}
	groups, err := s.groupRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return groups, nil
}

// Get returns a group with its members
func (s *GroupService) Get(ctx context.Context, actor authz.Actor, id uint64) (*GroupDetail, error) {
	group, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(ctx, actor, authz.ActionRead, authz.GroupResource(group)); err != nil {
		return nil, err
	}
	return s.detail(ctx, group)
}

// Update renames a group and optionally replaces its members
func (s *GroupService) Update(ctx context.Context, actor authz.Actor, id uint64, input UpdateGroupInput) (*GroupDetail, error) {
	group, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(ctx, actor, authz.ActionUpdate, authz.GroupResource(group)); err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if err := validateField("name", name, "required,min=3,max=255"); err != nil {
			return nil, err
		}
		group.Name = name
	}
	if input.Description.Set {
		group.Description = trimOptional(input.Description.Ptr())
	}

	var memberIDs []uint64
	if input.Members != nil {
		memberIDs, err = s.checkMembers(ctx, group.CreatorID, *input.Members)
		if err != nil {
			return nil, err
		}
	}

	if err := s.groupRepo.Update(ctx, group, memberIDs, input.Members != nil); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrGroupNotFound
		case errors.Is(err, repository.ErrForeignKey):
			return nil, ErrMembersNotFound
		default:
			return nil, fmt.Errorf("failed to update group: %w", err)
		}
	}

	return s.detail(ctx, group)
}

// Delete removes a group. Its tasks stay, detached from the group.
func (s *GroupService) Delete(ctx context.Context, actor authz.Actor, id uint64) error {
	group, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.policy.Authorize(ctx, actor, authz.ActionDelete, authz.GroupResource(group)); err != nil {
		return err
	}

	if err := s.groupRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrGroupNotFound
		}
		return fmt.Errorf("failed to delete group: %w", err)
	}
	return nil
}

// AddMember adds a user to a group
func (s *GroupService) AddMember(ctx context.Context, actor authz.Actor, groupID, userID uint64) error {
	group, err := s.find(ctx, groupID)
	if err != nil {
		return err
	}
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}
	if err := s.policy.Authorize(ctx, actor, authz.ActionAddMember, authz.MemberResource(group, userID)); err != nil {
		return err
	}

	isMember, err := s.groupRepo.IsMember(ctx, userID, groupID)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if isMember {
		return ErrAlreadyMember
	}

	if err := s.groupRepo.AddMember(ctx, groupID, userID); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrAlreadyMember
		}
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

// RemoveMember removes a user from a group. The creator cannot be removed.
func (s *GroupService) RemoveMember(ctx context.Context, actor authz.Actor, groupID, userID uint64) error {
	group, err := s.find(ctx, groupID)
	if err != nil {
		return err
	}
	if err := s.policy.Authorize(ctx, actor, authz.ActionRemoveMember, authz.MemberResource(group, userID)); err != nil {
		return err
	}

	if err := s.groupRepo.RemoveMember(ctx, groupID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrMemberNotFound
		}
		return fmt.Errorf("failed to remove member: %w", err)
	}
	return nil
}

// AvailableUsers lists users that can be picked as group members
func (s *GroupService) AvailableUsers(ctx context.Context, actor authz.Actor) ([]models.User, error) {
	if err := s.policy.Authorize(ctx, actor, authz.ActionList, authz.UserResource(0)); err != nil {
		return nil, err
	}
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *GroupService) find(ctx context.Context, id uint64) (*models.Group, error) {
	group, err := s.groupRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to find group: %w", err)
	}
	return group, nil
}

func (s *GroupService) detail(ctx context.Context, group *models.Group) (*GroupDetail, error) {
	members, err := s.groupRepo.ListMembers(ctx, group.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return &GroupDetail{Group: group, Members: members}, nil
}

// trimOptional trims the value and turns blank text into nil.
func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
