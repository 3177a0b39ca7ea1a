package entities

import "time"

// MediaTrack is one caption/subtitle track owned by an attachment.
type MediaTrack struct {
	ID           string    `gorm:"type:varchar(40);primaryKey"`
	AttachmentID string    `gorm:"type:varchar(40);not null;index"`
	Kind         string    `gorm:"type:varchar(16);not null;default:subtitles"`
	Locale       string    `gorm:"type:varchar(16);not null"`
	Content      string    `gorm:"type:text"`
	UserID       string    `gorm:"type:varchar(40)"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

func (MediaTrack) TableName() string {
	return "media_tracks"
}
