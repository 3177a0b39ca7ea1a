package entities

import "time"

// MediaObject is the persisted registry row for one hosted media asset.
// The composite unique index backs the idempotent registration path: a
// concurrent insert for the same (context, media id) fails and the caller
// re-reads the winner.
type MediaObject struct {
	ID               string `gorm:"type:varchar(40);primaryKey"`
	MediaID          string `gorm:"type:varchar(64);not null;uniqueIndex:idx_media_objects_context_media,priority:3;index"`
	ContextType      string `gorm:"type:varchar(16);uniqueIndex:idx_media_objects_context_media,priority:1"`
	ContextID        string `gorm:"type:varchar(40);uniqueIndex:idx_media_objects_context_media,priority:2"`
	UserID           string `gorm:"type:varchar(40);index"`
	Title            string `gorm:"type:varchar(255)"`
	UserEnteredTitle string `gorm:"type:varchar(255)"`
	MediaType        string `gorm:"type:varchar(16)"`
	WorkflowState    string `gorm:"type:varchar(16);not null;default:active"`
	AttachmentID     string `gorm:"type:varchar(40);index"`
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

func (MediaObject) TableName() string {
	return "media_objects"
}
