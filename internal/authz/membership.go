package authz

import "context"

// MembershipIndex answers group membership questions against the current
// store state. Implementations must not cache.
type MembershipIndex interface {
	IsMember(ctx context.Context, userID, groupID uint64) (bool, error)
	GroupsOf(ctx context.Context, userID uint64) ([]uint64, error)
	IsCreator(ctx context.Context, userID, groupID uint64) (bool, error)
}
