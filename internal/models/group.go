package models

import "time"

type Group struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Description *string   `gorm:"type:text" json:"description"`
	CreatorID   uint64    `gorm:"not null;index" json:"creatorId"`
	CreatedAt   time.Time `json:"createdAt"`

	// Relations
	Creator     User         `gorm:"foreignKey:CreatorID;constraint:OnDelete:RESTRICT" json:"-"`
	Memberships []Membership `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"-"`
	Tasks       []Task       `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL" json:"-"`
}

// GroupSummary is a group row with its member count.
type GroupSummary struct {
	Group
	MemberCount int64 `json:"memberCount"`
}
