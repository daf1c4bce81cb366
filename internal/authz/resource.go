package authz

import "github.com/yukikurage/teamtask-api/internal/models"

type Kind string

const (
	KindTask  Kind = "task"
	KindGroup Kind = "group"
	KindUser  Kind = "user"
)

type Action string

const (
	ActionList         Action = "list"
	ActionRead         Action = "read"
	ActionCreate       Action = "create"
	ActionUpdate       Action = "update"
	ActionReassign     Action = "reassign"
	ActionReschedule   Action = "reschedule"
	ActionDelete       Action = "delete"
	ActionAddMember    Action = "add_member"
	ActionRemoveMember Action = "remove_member"
)

// Resource describes what an action targets. Only the fields relevant to
// its Kind are read.
type Resource struct {
	Kind Kind

	// Task
	OwnerUserID *uint64
	GroupID     *uint64

	// Group
	ID        uint64
	CreatorID uint64

	// User, or the member affected by a membership change
	TargetUserID uint64
}

func TaskResource(task *models.Task) Resource {
	return Resource{Kind: KindTask, ID: task.ID, OwnerUserID: task.OwnerUserID, GroupID: task.GroupID}
}

// NewTaskResource describes a task that does not exist yet.
func NewTaskResource(ownerUserID, groupID *uint64) Resource {
	return Resource{Kind: KindTask, OwnerUserID: ownerUserID, GroupID: groupID}
}

func GroupResource(group *models.Group) Resource {
	return Resource{Kind: KindGroup, ID: group.ID, CreatorID: group.CreatorID}
}

// AnyGroup describes the group collection, for create and list-all.
func AnyGroup() Resource {
	return Resource{Kind: KindGroup}
}

func MemberResource(group *models.Group, userID uint64) Resource {
	return Resource{Kind: KindGroup, ID: group.ID, CreatorID: group.CreatorID, TargetUserID: userID}
}

func UserResource(userID uint64) Resource {
	return Resource{Kind: KindUser, TargetUserID: userID}
}
