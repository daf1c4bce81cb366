package models

import "time"

type Membership struct {
	UserID   uint64    `gorm:"primarykey;autoIncrement:false" json:"userId"`
	GroupID  uint64    `gorm:"primarykey;autoIncrement:false;index" json:"groupId"`
	JoinedAt time.Time `gorm:"not null" json:"joinedAt"`
}
