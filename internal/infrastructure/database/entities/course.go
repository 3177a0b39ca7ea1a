package entities

import (
	"time"

	"gorm.io/datatypes"
)

// Course carries the minimal course surface the media service reads:
// existence plus an enrollment map (user id to role) for permission checks.
type Course struct {
	ID          string `gorm:"type:varchar(40);primaryKey"`
	Name        string `gorm:"type:varchar(255)"`
	Enrollments datatypes.JSONMap
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (Course) TableName() string {
	return "courses"
}
