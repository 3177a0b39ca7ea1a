package media

import "time"

// FileState tracks attachment soft deletion, independent of the media
// object's own workflow state.
type FileState string

const (
	FileStateAvailable FileState = "available"
	FileStateDeleted   FileState = "deleted"
)

// Attachment is the uploaded file a media object may be linked to. A deleted
// attachment can point at its replacement, forming a chain the lookup path
// follows.
type Attachment struct {
	ID           string
	Context      Context
	MediaEntryID string
	Filename     string
	ContentType  string
	Locked       bool
	FileState    FileState
	// ReplacementAttachmentID points at the attachment that superseded this
	// one after a course copy or file re-upload.
	ReplacementAttachmentID string
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

func (a *Attachment) Deleted() bool {
	return a.FileState == FileStateDeleted
}

// MediaTrack is a caption/subtitle owned by exactly one attachment.
type MediaTrack struct {
	ID           string
	AttachmentID string
	Kind         string
	Locale       string
	Content      string
	UserID       string
	CreatedAt    time.Time
}
