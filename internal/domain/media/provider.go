package media

import (
	"context"
	"io"
)

// SourceEntry is one playable rendition reported by the hosting provider.
type SourceEntry struct {
	Bitrate int
	URL     string
}

// Provider is the external media-hosting collaborator. All calls honor the
// caller's context deadline and surface typed errors instead of hanging.
type Provider interface {
	ListSources(ctx context.Context, mediaID string) ([]SourceEntry, error)
	ThumbnailURL(ctx context.Context, mediaID string, width, height int) (string, error)
	AssetExists(ctx context.Context, mediaID string) (bool, error)
	// FetchSource streams one rendition. The returned string is the
	// upstream content type (may be empty). Failures carry the provider's
	// status code; the caller must not retry.
	FetchSource(ctx context.Context, url string) (io.ReadCloser, string, error)
}
