package media

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// ContextKind discriminates the owning scope of a media object.
type ContextKind string

const (
	ContextUser   ContextKind = "user"
	ContextCourse ContextKind = "course"
	ContextGroup  ContextKind = "group"
)

// Context is the tagged owning scope of a media object. Exactly one context
// per media object; a zero Context marks rows registered without an owner
// (created on first playback of a provider asset).
type Context struct {
	Kind ContextKind
	ID   string
}

func (c Context) IsZero() bool {
	return c.Kind == "" && c.ID == ""
}

func (c Context) String() string {
	if c.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s_%s", c.Kind, c.ID)
}

// UserContext is the scope owned directly by a user.
func UserContext(userID string) Context {
	return Context{Kind: ContextUser, ID: userID}
}

// ParseContextCode parses codes of the form "user_42", "course_7", "group_9".
func ParseContextCode(code string) (Context, error) {
	kind, id, ok := strings.Cut(code, "_")
	if !ok || id == "" {
		return Context{}, fmt.Errorf("malformed context code %q", code)
	}
	switch ContextKind(kind) {
	case ContextUser, ContextCourse, ContextGroup:
		return Context{Kind: ContextKind(kind), ID: id}, nil
	default:
		return Context{}, fmt.Errorf("unknown context kind %q", kind)
	}
}

// MediaType is the coarse asset classification reported at upload time.
type MediaType string

const (
	MediaTypeVideo   MediaType = "video"
	MediaTypeAudio   MediaType = "audio"
	MediaTypeUnknown MediaType = ""
)

// WorkflowState tracks soft deletion. Deleted objects stay addressable by id
// but never appear in listings.
type WorkflowState string

const (
	WorkflowActive  WorkflowState = "active"
	WorkflowDeleted WorkflowState = "deleted"
)

// MaxTitleLength is the storage limit for title-like columns. Overlong input
// is clipped silently, never rejected.
const MaxTitleLength = 255

// DefaultTitle is the localized fallback when no title was ever provided.
const DefaultTitle = "Untitled"

// ClampTitle truncates a title-like string to the storage limit. The cut
// lands on a rune boundary so a multi-byte title never ends mid-sequence.
func ClampTitle(s string) string {
	if len(s) <= MaxTitleLength {
		return s
	}
	cut := MaxTitleLength
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// MediaObject is the registry entry for one uploaded audio/video asset.
type MediaObject struct {
	ID               string
	MediaID          string
	Context          Context
	UserID           string
	Title            string
	UserEnteredTitle string
	MediaType        MediaType
	WorkflowState    WorkflowState
	// AttachmentID links the originating upload. Set asynchronously after
	// upload completion; empty until then.
	AttachmentID string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// EffectiveTitle resolves the display title: user-entered title wins over the
// provider title, both empty falls back to DefaultTitle. Sorting, searching
// and serialization all use this resolution.
func (m *MediaObject) EffectiveTitle() string {
	if m.UserEnteredTitle != "" {
		return m.UserEnteredTitle
	}
	if m.Title != "" {
		return m.Title
	}
	return DefaultTitle
}

// Deleted reports whether the object was soft-deleted.
func (m *MediaObject) Deleted() bool {
	return m.WorkflowState == WorkflowDeleted
}

// CreateAttrs carries the mutable attributes accepted by FindOrCreate.
// Empty fields leave the stored value untouched.
type CreateAttrs struct {
	UserID           string
	Title            string
	UserEnteredTitle string
	MediaType        MediaType
}
