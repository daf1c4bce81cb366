package authz

import (
	"context"
	"fmt"

	"github.com/yukikurage/teamtask-api/internal/models"
)

// Scope is the set of tasks an actor may read, expressed so that it can be
// pushed into the list query.
type Scope struct {
	Unrestricted bool
	UserID       uint64
	GroupIDs     []uint64
}

// Allows reports whether the task falls inside the scope.
func (s Scope) Allows(task *models.Task) bool {
	if s.Unrestricted {
		return true
	}
	if task.OwnerUserID != nil && *task.OwnerUserID == s.UserID {
		return true
	}
	if task.GroupID != nil {
		for _, id := range s.GroupIDs {
			if id == *task.GroupID {
				return true
			}
		}
	}
	return false
}

// TaskReadScope returns every task for admins and own plus group tasks for
// members.
func (p *Policy) TaskReadScope(ctx context.Context, actor Actor) (Scope, error) {
	if actor.IsAdmin() {
		return Scope{Unrestricted: true}, nil
	}
	return p.PersonalScope(ctx, actor)
}

// PersonalScope returns own plus group tasks regardless of role.
func (p *Policy) PersonalScope(ctx context.Context, actor Actor) (Scope, error) {
	groupIDs, err := p.index.GroupsOf(ctx, actor.ID)
	if err != nil {
		return Scope{}, fmt.Errorf("failed to load group memberships: %w", err)
	}
	return Scope{UserID: actor.ID, GroupIDs: groupIDs}, nil
}
