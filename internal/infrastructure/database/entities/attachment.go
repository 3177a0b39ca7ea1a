package entities

import (
	"time"

	"gorm.io/datatypes"
)

// Attachment is the persisted file record a media object may link to.
// Deleted attachments keep their row so the replacement chain stays
// walkable.
type Attachment struct {
	ID                      string `gorm:"type:varchar(40);primaryKey"`
	ContextType             string `gorm:"type:varchar(16);index:idx_attachments_context"`
	ContextID               string `gorm:"type:varchar(40);index:idx_attachments_context"`
	MediaEntryID            string `gorm:"type:varchar(64);index"`
	Filename                string `gorm:"type:varchar(255)"`
	ContentType             string `gorm:"type:varchar(64)"`
	Locked                  bool   `gorm:"not null;default:false"`
	FileState               string `gorm:"type:varchar(16);not null;default:available"`
	ReplacementAttachmentID string `gorm:"type:varchar(40)"`
	Metadata                datatypes.JSON
	CreatedAt               time.Time `gorm:"autoCreateTime"`
	UpdatedAt               time.Time `gorm:"autoUpdateTime"`
}

func (Attachment) TableName() string {
	return "attachments"
}
