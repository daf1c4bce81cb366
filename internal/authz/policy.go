package authz

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrForbidden        = errors.New("access denied")
	ErrProtectedCreator = errors.New("the group creator cannot be removed from the group")
)

// Observer is told about every decision the policy takes.
type Observer func(kind Kind, action Action, allowed bool)

// Policy decides whether an actor may perform an action on a resource.
// Everything is denied unless a rule below allows it. Role is checked
// before ownership, so admins never reach the membership lookups.
type Policy struct {
	index   MembershipIndex
	observe Observer
}

func NewPolicy(index MembershipIndex) *Policy {
	return &Policy{index: index}
}

// WithObserver returns a copy of the policy reporting decisions to o.
func (p *Policy) WithObserver(o Observer) *Policy {
	cp := *p
	cp.observe = o
	return &cp
}

// Authorize returns nil to allow, ErrForbidden or ErrProtectedCreator to
// deny, or the membership lookup error.
func (p *Policy) Authorize(ctx context.Context, actor Actor, action Action, res Resource) error {
	err := p.decide(ctx, actor, action, res)
	if p.observe != nil && (err == nil || errors.Is(err, ErrForbidden) || errors.Is(err, ErrProtectedCreator)) {
		p.observe(res.Kind, action, err == nil)
	}
	return err
}

func (p *Policy) decide(ctx context.Context, actor Actor, action Action, res Resource) error {
	switch res.Kind {
	case KindTask:
		return p.decideTask(ctx, actor, action, res)
	case KindGroup:
		return p.decideGroup(ctx, actor, action, res)
	case KindUser:
		return decideUser(actor, action, res)
	default:
		return ErrForbidden
	}
}

func (p *Policy) decideTask(ctx context.Context, actor Actor, action Action, res Resource) error {
	if actor.IsAdmin() {
		return nil
	}

	switch action {
	case ActionRead, ActionUpdate:
		return p.ownerOrGroupMember(ctx, actor, res)
	case ActionCreate:
		if res.GroupID != nil {
			return ErrForbidden
		}
		if res.OwnerUserID != nil && *res.OwnerUserID != actor.ID {
			return ErrForbidden
		}
		return nil
	default:
		// reassign, reschedule and delete are admin only
		return ErrForbidden
	}
}

func (p *Policy) ownerOrGroupMember(ctx context.Context, actor Actor, res Resource) error {
	if res.OwnerUserID != nil && *res.OwnerUserID == actor.ID {
		return nil
	}
	if res.GroupID == nil {
		return ErrForbidden
	}
	ok, err := p.index.IsMember(ctx, actor.ID, *res.GroupID)
	if err != nil {
		return fmt.Errorf("failed to check group membership: %w", err)
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

func (p *Policy) decideGroup(ctx context.Context, actor Actor, action Action, res Resource) error {
	if action == ActionRead {
		if actor.IsAdmin() {
			return nil
		}
		ok, err := p.index.IsMember(ctx, actor.ID, res.ID)
		if err != nil {
			return fmt.Errorf("failed to check group membership: %w", err)
		}
		if !ok {
			return ErrForbidden
		}
		return nil
	}

	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if action == ActionRemoveMember && res.TargetUserID == res.CreatorID {
		return ErrProtectedCreator
	}
	return nil
}

func decideUser(actor Actor, action Action, res Resource) error {
	if actor.IsAdmin() {
		return nil
	}
	if action == ActionRead && res.TargetUserID == actor.ID {
		return nil
	}
	return ErrForbidden
}
