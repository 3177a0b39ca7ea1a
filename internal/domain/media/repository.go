package media

import (
	"context"

	"campus-server/services/media-api/internal/domain/query"
)

// VisibilityFilter is the read-side filter computed by the service before it
// reaches the persistence layer. OwnerContext and Scope are mutually
// exclusive: unscoped listings match the actor's own user context, scoped
// listings match a course/group context or an attachment enclosed by it.
type VisibilityFilter struct {
	OwnerContext *Context
	Scope        *Context
	SearchTerm   string
}

// Repository handles media object persistence. Lookups return (nil, nil)
// when no row matches; listing errors are repository-layer platform errors.
type Repository interface {
	// FindInContext returns the row keyed by (context, mediaID) in any
	// workflow state.
	FindInContext(ctx context.Context, scope Context, mediaID string) (*MediaObject, error)
	// Create inserts a new row. The (context, media_id) unique index is the
	// only duplicate guard; callers must treat a conflict as "lost the race"
	// and re-read.
	Create(ctx context.Context, obj *MediaObject) error
	Update(ctx context.Context, obj *MediaObject) error
	// FindByMediaID returns every row carrying the external media id,
	// including soft-deleted ones, oldest first.
	FindByMediaID(ctx context.Context, mediaID string) ([]*MediaObject, error)
	// FindVisible applies the visibility filter, search, explicit sort and
	// pagination. Soft-deleted media objects are always excluded here.
	FindVisible(ctx context.Context, filter VisibilityFilter, sort query.Sort, page query.Pagination) ([]*MediaObject, error)
}

// AttachmentRepository reads the attachment collaborator's state.
type AttachmentRepository interface {
	GetByID(ctx context.Context, id string) (*Attachment, error)
}

// TrackRepository reads caption tracks per owning attachment.
type TrackRepository interface {
	ListByAttachment(ctx context.Context, attachmentID string) ([]*MediaTrack, error)
}

// Course is the minimal course surface the media service needs: existence
// and enrollment facts for the permission policy.
type Course struct {
	ID   string
	Name string
	// Enrollments maps user id to role ("teacher", "ta", "designer",
	// "student", "observer").
	Enrollments map[string]string
}

// Group is the minimal group surface: existence and membership.
type Group struct {
	ID        string
	Name      string
	MemberIDs []string
}

// ScopeRepository resolves course/group scope ids. Lookups return (nil, nil)
// for unknown ids so the service can map them to NotFound.
type ScopeRepository interface {
	GetCourse(ctx context.Context, id string) (*Course, error)
	GetGroup(ctx context.Context, id string) (*Group, error)
}
