package media

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog"

	"campus-server/services/media-api/internal/domain"
	"campus-server/services/media-api/internal/domain/query"
	"campus-server/services/media-api/internal/utils/platformerrors"
)

// ErrDuplicateMediaObject is returned by repositories when an insert loses
// the (context, media_id) uniqueness race.
var ErrDuplicateMediaObject = errors.New("media object already exists in context")

// ListOptions captures the query surface of the listing endpoint.
type ListOptions struct {
	CourseID   string
	GroupID    string
	SearchTerm string
	Sort       query.Sort
	Page       query.Pagination
}

// Service orchestrates the media object registry, visibility resolution,
// caption inheritance and source resolution.
type Service struct {
	repo        Repository
	attachments AttachmentRepository
	tracks      TrackRepository
	scopes      ScopeRepository
	policy      Policy
	provider    Provider
	sources     *SourceResolver
	log         zerolog.Logger
}

func NewService(
	repo Repository,
	attachments AttachmentRepository,
	tracks TrackRepository,
	scopes ScopeRepository,
	policy Policy,
	provider Provider,
	sources *SourceResolver,
	log zerolog.Logger,
) *Service {
	return &Service{
		repo:        repo,
		attachments: attachments,
		tracks:      tracks,
		scopes:      scopes,
		policy:      policy,
		provider:    provider,
		sources:     sources,
		log:         log.With().Str("component", "media-service").Logger(),
	}
}

// FindOrCreate registers a media object under (scope, mediaID), updating the
// mutable attributes of an existing row. Title-like attributes are clamped
// to the storage limit without error. Concurrent creators are resolved by
// the unique index: the loser re-reads and applies its updates.
func (s *Service) FindOrCreate(ctx context.Context, scope Context, mediaID string, attrs CreateAttrs) (*MediaObject, error) {
	if mediaID == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"media id is required", nil, "c1de0f2a-93b7-4b9e-8a21-0f6d3f4e5a6b")
	}

	for attempt := 0; attempt < 2; attempt++ {
		existing, err := s.repo.FindInContext(ctx, scope, mediaID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			applyAttrs(existing, attrs)
			if err := s.repo.Update(ctx, existing); err != nil {
				return nil, err
			}
			return existing, nil
		}

		obj := &MediaObject{
			MediaID:          mediaID,
			Context:          scope,
			UserID:           attrs.UserID,
			Title:            ClampTitle(attrs.Title),
			UserEnteredTitle: ClampTitle(attrs.UserEnteredTitle),
			MediaType:        attrs.MediaType,
			WorkflowState:    WorkflowActive,
		}
		err = s.repo.Create(ctx, obj)
		if err == nil {
			return obj, nil
		}
		if !errors.Is(err, ErrDuplicateMediaObject) {
			return nil, err
		}
		// lost the race, loop once more and update the winner's row
	}
	return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeConflict,
		"could not register media object", nil, "9e47c21d-5a8b-4f3e-b2c6-1d0e8f7a6b5c")
}

// ByMediaID returns every registry row for an external media id, including
// soft-deleted ones. Used for existence checks before provider calls.
func (s *Service) ByMediaID(ctx context.Context, mediaID string) ([]*MediaObject, error) {
	return s.repo.FindByMediaID(ctx, mediaID)
}

// List resolves the set of media objects the principal may see, honoring
// scope, search, sort and pagination. Unknown scope ids are NotFound with no
// partial results.
func (s *Service) List(ctx context.Context, principal domain.Principal, opts ListOptions) ([]*MediaObject, error) {
	filter := VisibilityFilter{SearchTerm: opts.SearchTerm}

	switch {
	case opts.CourseID != "":
		course, err := s.scopes.GetCourse(ctx, opts.CourseID)
		if err != nil {
			return nil, err
		}
		if course == nil {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
				"course not found", nil, "3b6a9d4e-72c1-4f58-a0b9-8c5d2e1f0a3b")
		}
		scope := Context{Kind: ContextCourse, ID: course.ID}
		if !s.policy.CanContext(ctx, principal, scope, RightRead) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeUnauthorized,
				"not authorized to read course media", nil, "84f2c6d1-0e3b-4a97-b5d8-6c1f9e2a7b40")
		}
		filter.Scope = &scope
	case opts.GroupID != "":
		group, err := s.scopes.GetGroup(ctx, opts.GroupID)
		if err != nil {
			return nil, err
		}
		if group == nil {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
				"group not found", nil, "d7e1f0a9-4b3c-48d2-95e6-0a8b7c6d5e4f")
		}
		scope := Context{Kind: ContextGroup, ID: group.ID}
		if !s.policy.CanContext(ctx, principal, scope, RightRead) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeUnauthorized,
				"not authorized to read group media", nil, "6a5b4c3d-2e1f-4908-87a6-b5c4d3e2f1a0")
		}
		filter.Scope = &scope
	default:
		if principal.Anonymous() {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeUnauthorized,
				"login required to list personal media", nil, "f9e8d7c6-b5a4-4392-8170-6f5e4d3c2b1a")
		}
		owner := UserContext(principal.ID)
		filter.OwnerContext = &owner
	}

	return s.repo.FindVisible(ctx, filter, opts.Sort, opts.Page)
}

// Show resolves a media object by external id, registering it on first sight
// when the provider reports the asset exists. Playback in public courses
// carries no session, so Show itself performs no permission check.
func (s *Service) Show(ctx context.Context, mediaID string) (*MediaObject, error) {
	rows, err := s.repo.FindByMediaID(ctx, mediaID)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		return rows[0], nil
	}

	exists, err := s.provider.AssetExists(ctx, mediaID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "provider existence check failed")
	}
	if !exists {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
			"media object not found", nil, "0a1b2c3d-4e5f-4607-8192-a3b4c5d6e7f8")
	}

	s.log.Info().Str("media_id", mediaID).Msg("registering media object on first playback")
	return s.FindOrCreate(ctx, Context{}, mediaID, CreateAttrs{})
}

// maxReplacementHops bounds the replacement chain walk so cyclic chains
// resolve to NotFound instead of looping.
const maxReplacementHops = 10

// ResolveAttachment loads an attachment, following the replacement chain of
// deleted files. Locked attachments are unauthorized for everyone but
// holders of update rights.
func (s *Service) ResolveAttachment(ctx context.Context, principal domain.Principal, attachmentID string) (*Attachment, error) {
	att, err := s.attachments.GetByID(ctx, attachmentID)
	if err != nil {
		return nil, err
	}
	for hops := 0; att != nil && att.Deleted() && att.ReplacementAttachmentID != ""; hops++ {
		if hops == maxReplacementHops {
			att = nil
			break
		}
		att, err = s.attachments.GetByID(ctx, att.ReplacementAttachmentID)
		if err != nil {
			return nil, err
		}
	}
	if att == nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
			"attachment not found", nil, "1f2e3d4c-5b6a-4798-92a0-b1c2d3e4f506")
	}
	if att.Locked && !s.policy.CanAttachment(ctx, principal, att, RightUpdate) {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeUnauthorized,
			"attachment is locked", nil, "2b3c4d5e-6f70-4819-92a3-b4c5d6e7f809")
	}
	return att, nil
}

// ShowByAttachment resolves the media object behind an attachment, enforcing
// the attachment read permission.
func (s *Service) ShowByAttachment(ctx context.Context, principal domain.Principal, attachmentID string) (*MediaObject, *Attachment, error) {
	att, err := s.ResolveAttachment(ctx, principal, attachmentID)
	if err != nil {
		return nil, nil, err
	}
	if !s.policy.CanAttachment(ctx, principal, att, RightRead) {
		return nil, nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeUnauthorized,
			"not authorized to read attachment", nil, "3c4d5e6f-7081-492a-b3c4-d5e6f7a8b9c0")
	}
	obj, err := s.objectForAttachment(ctx, att)
	if err != nil {
		return nil, nil, err
	}
	return obj, att, nil
}

// UpdateUserEnteredTitle renames a media object. Only the owning user may
// rename; a missing object is unauthorized, not NotFound, to avoid leaking
// registry state.
func (s *Service) UpdateUserEnteredTitle(ctx context.Context, principal domain.Principal, mediaID, title string) (*MediaObject, error) {
	rows, err := s.repo.FindByMediaID(ctx, mediaID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || rows[0].UserID == "" || rows[0].UserID != principal.ID {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeUnauthorized,
			"not authorized to update media object", nil, "4d5e6f70-8192-4a3b-c4d5-e6f7a8b9c0d1")
	}
	obj := rows[0]
	obj.UserEnteredTitle = ClampTitle(title)
	if err := s.repo.Update(ctx, obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// UpdateTitleByAttachment renames the media object behind an attachment,
// gated on the attachment update permission instead of ownership.
func (s *Service) UpdateTitleByAttachment(ctx context.Context, principal domain.Principal, attachmentID, title string) (*MediaObject, *Attachment, error) {
	att, err := s.ResolveAttachment(ctx, principal, attachmentID)
	if err != nil {
		return nil, nil, err
	}
	if !s.policy.CanAttachment(ctx, principal, att, RightUpdate) {
		return nil, nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeUnauthorized,
			"not authorized to update attachment", nil, "5e6f7081-92a3-4b4c-d5e6-f7a8b9c0d1e2")
	}
	obj, err := s.objectForAttachment(ctx, att)
	if err != nil {
		return nil, nil, err
	}
	obj.UserEnteredTitle = ClampTitle(title)
	if err := s.repo.Update(ctx, obj); err != nil {
		return nil, nil, err
	}
	return obj, att, nil
}

// TracksForObject lists the caption tracks serialized for a media object
// addressed directly: the tracks owned by its linked attachment. Objects
// whose attachment linkage has not landed yet have no tracks.
func (s *Service) TracksForObject(ctx context.Context, obj *MediaObject) ([]*MediaTrack, error) {
	if obj.AttachmentID == "" {
		return []*MediaTrack{}, nil
	}
	return s.tracks.ListByAttachment(ctx, obj.AttachmentID)
}

// TracksForAttachment computes the effective track set for an attachment:
// its own tracks first, then the canonical attachment's tracks appended.
// Same-locale duplicates across the two sets are deliberately kept; callers
// resolve them downstream.
func (s *Service) TracksForAttachment(ctx context.Context, att *Attachment, obj *MediaObject) ([]*MediaTrack, error) {
	own, err := s.tracks.ListByAttachment(ctx, att.ID)
	if err != nil {
		return nil, err
	}
	if obj == nil || obj.AttachmentID == "" || obj.AttachmentID == att.ID {
		return own, nil
	}
	inherited, err := s.tracks.ListByAttachment(ctx, obj.AttachmentID)
	if err != nil {
		return nil, err
	}
	return append(own, inherited...), nil
}

// CanAddCaptions reports whether the principal may add captions to a media
// object addressed directly.
func (s *Service) CanAddCaptions(ctx context.Context, principal domain.Principal, obj *MediaObject) bool {
	return s.policy.CanMediaObject(ctx, principal, obj, RightAddCaptions)
}

// CanAddCaptionsForAttachment requires both the attachment update right and
// the media object add-captions right; either check failing (or being
// unanswerable) yields false.
func (s *Service) CanAddCaptionsForAttachment(ctx context.Context, principal domain.Principal, att *Attachment, obj *MediaObject) bool {
	if att == nil || obj == nil {
		return false
	}
	return s.policy.CanAttachment(ctx, principal, att, RightUpdate) &&
		s.policy.CanMediaObject(ctx, principal, obj, RightAddCaptions)
}

// Sources serializes the playable renditions for a media object.
func (s *Service) Sources(ctx context.Context, obj *MediaObject) ([]Source, error) {
	return s.sources.Resolve(ctx, obj)
}

// ThumbnailURL asks the provider for a thumbnail redirect target. The media
// object does not have to exist locally.
func (s *Service) ThumbnailURL(ctx context.Context, mediaID string, width, height int) (string, error) {
	url, err := s.provider.ThumbnailURL(ctx, mediaID, width, height)
	if err != nil {
		return "", platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "provider thumbnail lookup failed")
	}
	return url, nil
}

// StreamSource resolves the redirect endpoint: picks the rendition for the
// requested bitrate (first entry when absent or unmatched) and opens the
// provider stream. Download metadata comes from the linked attachment when
// present. Provider failures surface the upstream status; no retries.
func (s *Service) StreamSource(ctx context.Context, mediaID, bitrate string) (io.ReadCloser, string, string, error) {
	rows, err := s.repo.FindByMediaID(ctx, mediaID)
	if err != nil {
		return nil, "", "", err
	}
	if len(rows) == 0 {
		return nil, "", "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
			"media object not found", nil, "6f708192-a3b4-4c5d-e6f7-a8b9c0d1e2f3")
	}
	obj := rows[0]

	entry, err := s.sources.SelectForRedirect(ctx, obj, bitrate)
	if err != nil {
		return nil, "", "", err
	}

	reader, upstreamType, err := s.provider.FetchSource(ctx, entry.URL)
	if err != nil {
		return nil, "", "", platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "provider fetch failed")
	}

	filename := obj.EffectiveTitle()
	contentType := upstreamType
	if obj.AttachmentID != "" {
		att, attErr := s.attachments.GetByID(ctx, obj.AttachmentID)
		if attErr == nil && att != nil {
			if att.Filename != "" {
				filename = att.Filename
			}
			if att.ContentType != "" {
				contentType = att.ContentType
			}
		}
	}
	return reader, filename, contentType, nil
}

// LinkAttachment records the attachment linkage once the originating upload
// settles. Invoked by the upload pipeline, not the HTTP surface.
func (s *Service) LinkAttachment(ctx context.Context, obj *MediaObject, attachmentID string) error {
	obj.AttachmentID = attachmentID
	return s.repo.Update(ctx, obj)
}

func (s *Service) objectForAttachment(ctx context.Context, att *Attachment) (*MediaObject, error) {
	if att.MediaEntryID == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
			"attachment has no media entry", nil, "708192a3-b4c5-4d6e-f7a8-b9c0d1e2f304")
	}
	rows, err := s.repo.FindByMediaID(ctx, att.MediaEntryID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
			"media object not found for attachment", nil, "8192a3b4-c5d6-4e7f-a8b9-c0d1e2f30415")
	}
	return rows[0], nil
}

func applyAttrs(obj *MediaObject, attrs CreateAttrs) {
	if attrs.Title != "" {
		obj.Title = ClampTitle(attrs.Title)
	}
	if attrs.UserEnteredTitle != "" {
		obj.UserEnteredTitle = ClampTitle(attrs.UserEnteredTitle)
	}
	if attrs.MediaType != MediaTypeUnknown {
		obj.MediaType = attrs.MediaType
	}
	if attrs.UserID != "" && obj.UserID == "" {
		obj.UserID = attrs.UserID
	}
}
