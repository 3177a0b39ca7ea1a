package media

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"campus-server/services/media-api/internal/utils/functional"
	"campus-server/services/media-api/internal/utils/platformerrors"
)

// Source is one serialized playable rendition.
type Source struct {
	Bitrate int    `json:"bitrate"`
	Label   string `json:"label"`
	Src     string `json:"src"`
	URL     string `json:"url"`
}

// SourceResolver turns provider renditions into serialized sources. When
// authenticatedContent is on, direct provider URLs are replaced with local
// redirect URLs so the actual fetch happens at request time behind this
// service. The flag is fixed at construction.
type SourceResolver struct {
	provider             Provider
	baseURL              string
	authenticatedContent bool
}

func NewSourceResolver(provider Provider, baseURL string, authenticatedContent bool) *SourceResolver {
	return &SourceResolver{
		provider:             provider,
		baseURL:              baseURL,
		authenticatedContent: authenticatedContent,
	}
}

// Resolve lists the serialized sources for a media object, in provider order.
func (r *SourceResolver) Resolve(ctx context.Context, obj *MediaObject) ([]Source, error) {
	entries, err := r.provider.ListSources(ctx, obj.MediaID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list provider sources")
	}

	return functional.Map(entries, func(entry SourceEntry) Source {
		location := entry.URL
		if r.authenticatedContent {
			location = r.redirectURL(obj.MediaID, entry.Bitrate)
		}
		return Source{
			Bitrate: entry.Bitrate,
			Label:   bitrateLabel(entry.Bitrate),
			Src:     location,
			URL:     location,
		}
	}), nil
}

// SelectForRedirect picks the rendition for the redirect endpoint: the entry
// whose bitrate equals the requested value, else the first entry in provider
// order. A non-numeric or unmatched bitrate is not an error.
func (r *SourceResolver) SelectForRedirect(ctx context.Context, obj *MediaObject, bitrate string) (SourceEntry, error) {
	entries, err := r.provider.ListSources(ctx, obj.MediaID)
	if err != nil {
		return SourceEntry{}, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list provider sources")
	}
	if len(entries) == 0 {
		return SourceEntry{}, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
			"no sources available for media object", nil, "5f0c87a1-6f5e-49f2-9b43-74f7a1c2b90d")
	}

	if requested, convErr := strconv.Atoi(bitrate); convErr == nil {
		if entry, ok := functional.Find(entries, func(e SourceEntry) bool { return e.Bitrate == requested }); ok {
			return entry, nil
		}
	}
	return entries[0], nil
}

func (r *SourceResolver) redirectURL(mediaID string, bitrate int) string {
	return fmt.Sprintf("%s/media_objects/%s/redirect?bitrate=%d", r.baseURL, url.PathEscape(mediaID), bitrate)
}

func bitrateLabel(bitrate int) string {
	return fmt.Sprintf("%d kbps", bitrate/1000)
}
