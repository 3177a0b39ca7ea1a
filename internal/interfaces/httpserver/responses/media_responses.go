package responses

import (
	"fmt"
	"net/url"
	"time"

	"campus-server/services/media-api/internal/domain/media"
	"campus-server/services/media-api/internal/utils/functional"
)

// MediaTrackResponse serializes one caption track.
type MediaTrackResponse struct {
	ID           string    `json:"id"`
	Locale       string    `json:"locale"`
	Kind         string    `json:"kind"`
	AttachmentID string    `json:"attachment_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// MediaObjectResponse is the serialized media object shape.
type MediaObjectResponse struct {
	MediaID           string               `json:"media_id"`
	Title             string               `json:"title"`
	MediaType         *string              `json:"media_type"`
	CreatedAt         time.Time            `json:"created_at"`
	CanAddCaptions    bool                 `json:"can_add_captions"`
	EmbeddedIframeURL string               `json:"embedded_iframe_url"`
	MediaSources      []media.Source       `json:"media_sources,omitempty"`
	MediaTracks       []MediaTrackResponse `json:"media_tracks,omitempty"`
}

// MediaObjectOptions controls optional serialization sections. AttachmentID
// switches the iframe URL to the attachment-addressed form.
type MediaObjectOptions struct {
	CanAddCaptions bool
	AttachmentID   string
	Sources        []media.Source
	Tracks         []*media.MediaTrack
	IncludeSources bool
	IncludeTracks  bool
}

// NewMediaObjectResponse serializes a media object. An unknown media type
// serializes as JSON null, not an empty string.
func NewMediaObjectResponse(baseURL string, obj *media.MediaObject, opts MediaObjectOptions) MediaObjectResponse {
	resp := MediaObjectResponse{
		MediaID:           obj.MediaID,
		Title:             obj.EffectiveTitle(),
		CreatedAt:         obj.CreatedAt,
		CanAddCaptions:    opts.CanAddCaptions,
		EmbeddedIframeURL: embeddedIframeURL(baseURL, obj.MediaID),
	}
	if opts.AttachmentID != "" {
		resp.EmbeddedIframeURL = attachmentIframeURL(baseURL, opts.AttachmentID)
	}
	if obj.MediaType != media.MediaTypeUnknown {
		mediaType := string(obj.MediaType)
		resp.MediaType = &mediaType
	}
	if opts.IncludeSources {
		resp.MediaSources = opts.Sources
	}
	if opts.IncludeTracks {
		resp.MediaTracks = functional.Map(opts.Tracks, newTrackResponse)
	}
	return resp
}

func newTrackResponse(track *media.MediaTrack) MediaTrackResponse {
	return MediaTrackResponse{
		ID:           track.ID,
		Locale:       track.Locale,
		Kind:         track.Kind,
		AttachmentID: track.AttachmentID,
		CreatedAt:    track.CreatedAt,
	}
}

func embeddedIframeURL(baseURL, mediaID string) string {
	return fmt.Sprintf("%s/media_objects_iframe/%s", baseURL, url.PathEscape(mediaID))
}

func attachmentIframeURL(baseURL, attachmentID string) string {
	return fmt.Sprintf("%s/media_attachments_iframe/%s", baseURL, url.PathEscape(attachmentID))
}
