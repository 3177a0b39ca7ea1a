package entities

import (
	"time"

	"gorm.io/datatypes"
)

// Group carries the minimal group surface: existence plus membership.
type Group struct {
	ID        string `gorm:"type:varchar(40);primaryKey"`
	Name      string `gorm:"type:varchar(255)"`
	MemberIDs datatypes.JSON
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Group) TableName() string {
	return "groups"
}
