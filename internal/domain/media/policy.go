package media

import (
	"context"

	"campus-server/services/media-api/internal/domain"
)

// Right names a permission checked against the policy collaborator.
type Right string

const (
	RightRead        Right = "read"
	RightUpdate      Right = "update"
	RightAddCaptions Right = "add_captions"
)

// Policy is the injected authorization collaborator. Implementations answer
// permission questions; the resolvers never reach into enrollment data
// themselves. A failed or unanswerable check is false, never an error.
type Policy interface {
	CanAttachment(ctx context.Context, p domain.Principal, att *Attachment, right Right) bool
	CanMediaObject(ctx context.Context, p domain.Principal, obj *MediaObject, right Right) bool
	CanContext(ctx context.Context, p domain.Principal, scope Context, right Right) bool
}
