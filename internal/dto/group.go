package dto

import (
	"time"

	"github.com/yukikurage/teamtask-api/internal/models"
)

// MemberDTO is a group member as listed in group details
type MemberDTO struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// GroupDTO represents a group in API responses
type GroupDTO struct {
	ID          uint64      `json:"id"`
	Name        string      `json:"name"`
	Description *string     `json:"description"`
	CreatorID   uint64      `json:"creatorId"`
	CreatedAt   time.Time   `json:"createdAt"`
	MemberCount int64       `json:"memberCount"`
	Members     []MemberDTO `json:"members,omitempty"`
}

func ToMemberDTOs(users []models.User) []MemberDTO {
	out := make([]MemberDTO, len(users))
	for i, u := range users {
		out[i] = MemberDTO{ID: u.ID, Name: u.Name, Email: u.Email}
	}
	return out
}

// ToGroupDTO converts a group and its members
func ToGroupDTO(group models.Group, members []models.User) GroupDTO {
	return GroupDTO{
		ID:          group.ID,
		Name:        group.Name,
		Description: group.Description,
		CreatorID:   group.CreatorID,
		CreatedAt:   group.CreatedAt,
		MemberCount: int64(len(members)),
		Members:     ToMemberDTOs(members),
	}
}

func ToGroupSummaryDTOs(groups []models.GroupSummary) []GroupDTO {
	out := make([]GroupDTO, len(groups))
	for i, g := range groups {
		out[i] = GroupDTO{
			ID:          g.ID,
			Name:        g.Name,
			Description: g.Description,
			CreatorID:   g.CreatorID,
			CreatedAt:   g.CreatedAt,
			MemberCount: g.MemberCount,
		}
	}
	return out
}
