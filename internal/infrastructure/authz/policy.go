package authz

import (
	"context"

	"github.com/rs/zerolog"

	"campus-server/services/media-api/internal/domain"
	"campus-server/services/media-api/internal/domain/media"
	"campus-server/services/media-api/internal/utils/functional"
)

// Roles that may manage course content. Students and observers only read.
var contentManagerRoles = map[string]bool{
	"teacher":  true,
	"ta":       true,
	"designer": true,
}

// EnrollmentPolicy answers permission questions from enrollment and
// membership facts. Any lookup failure is a denial, never an error.
type EnrollmentPolicy struct {
	scopes media.ScopeRepository
	log    zerolog.Logger
}

func NewEnrollmentPolicy(scopes media.ScopeRepository, log zerolog.Logger) *EnrollmentPolicy {
	return &EnrollmentPolicy{
		scopes: scopes,
		log:    log.With().Str("component", "enrollment-policy").Logger(),
	}
}

func (p *EnrollmentPolicy) CanAttachment(ctx context.Context, principal domain.Principal, att *media.Attachment, right media.Right) bool {
	if att == nil {
		return false
	}
	switch right {
	case media.RightRead:
		return p.canScope(ctx, principal, att.Context, false)
	case media.RightUpdate, media.RightAddCaptions:
		return p.canScope(ctx, principal, att.Context, true)
	default:
		return false
	}
}

func (p *EnrollmentPolicy) CanMediaObject(ctx context.Context, principal domain.Principal, obj *media.MediaObject, right media.Right) bool {
	if obj == nil {
		return false
	}
	if !principal.Anonymous() && obj.UserID == principal.ID {
		return true
	}
	switch right {
	case media.RightRead:
		return p.canScope(ctx, principal, obj.Context, false)
	case media.RightUpdate, media.RightAddCaptions:
		return p.canScope(ctx, principal, obj.Context, true)
	default:
		return false
	}
}

func (p *EnrollmentPolicy) CanContext(ctx context.Context, principal domain.Principal, scope media.Context, right media.Right) bool {
	manage := right == media.RightUpdate || right == media.RightAddCaptions
	return p.canScope(ctx, principal, scope, manage)
}

func (p *EnrollmentPolicy) canScope(ctx context.Context, principal domain.Principal, scope media.Context, manage bool) bool {
	if principal.Anonymous() {
		return false
	}
	switch scope.Kind {
	case media.ContextUser:
		return scope.ID == principal.ID
	case media.ContextCourse:
		course, err := p.scopes.GetCourse(ctx, scope.ID)
		if err != nil {
			p.log.Warn().Err(err).Str("course_id", scope.ID).Msg("course lookup failed, denying")
			return false
		}
		if course == nil {
			return false
		}
		role, enrolled := course.Enrollments[principal.ID]
		if !enrolled {
			return false
		}
		if manage {
			return contentManagerRoles[role]
		}
		return true
	case media.ContextGroup:
		group, err := p.scopes.GetGroup(ctx, scope.ID)
		if err != nil {
			p.log.Warn().Err(err).Str("group_id", scope.ID).Msg("group lookup failed, denying")
			return false
		}
		if group == nil {
			return false
		}
		return functional.Any(group.MemberIDs, func(id string) bool { return id == principal.ID })
	default:
		// unowned rows have no scope to grant from
		return false
	}
}
