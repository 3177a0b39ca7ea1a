package media

import (
	"context"
	"io"
	"testing"

	"campus-server/services/media-api/internal/utils/platformerrors"
)

type stubProvider struct {
	entries   []SourceEntry
	listErr   error
	exists    bool
	existsErr error
	thumbURL  string
	body      io.ReadCloser
	bodyType  string
	fetchErr  error
}

func (p *stubProvider) ListSources(ctx context.Context, mediaID string) ([]SourceEntry, error) {
	return p.entries, p.listErr
}

func (p *stubProvider) ThumbnailURL(ctx context.Context, mediaID string, width, height int) (string, error) {
	return p.thumbURL, nil
}

func (p *stubProvider) AssetExists(ctx context.Context, mediaID string) (bool, error) {
	return p.exists, p.existsErr
}

func (p *stubProvider) FetchSource(ctx context.Context, url string) (io.ReadCloser, string, error) {
	return p.body, p.bodyType, p.fetchErr
}

func TestResolveLabelsAndOrder(t *testing.T) {
	provider := &stubProvider{entries: []SourceEntry{
		{Bitrate: 128000, URL: "http://cdn.example.com/low.mp4"},
		{Bitrate: 256000, URL: "http://cdn.example.com/high.mp4"},
	}}
	r := NewSourceResolver(provider, "http://campus.test", false)

	sources, err := r.Resolve(context.Background(), &MediaObject{MediaID: "m-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("got %d sources", len(sources))
	}
	if sources[0].Label != "128 kbps" || sources[1].Label != "256 kbps" {
		t.Fatalf("labels = %q, %q", sources[0].Label, sources[1].Label)
	}
	if sources[0].URL != "http://cdn.example.com/low.mp4" {
		t.Fatalf("direct URL expected when authenticated content is off, got %q", sources[0].URL)
	}
	if sources[0].Src != sources[0].URL {
		t.Fatalf("src and url must match")
	}
}

func TestResolveLabelTruncatesSubKilobit(t *testing.T) {
	provider := &stubProvider{entries: []SourceEntry{{Bitrate: 128500, URL: "u"}}}
	r := NewSourceResolver(provider, "http://campus.test", false)

	sources, err := r.Resolve(context.Background(), &MediaObject{MediaID: "m-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sources[0].Label != "128 kbps" {
		t.Fatalf("label = %q, want integer kilobits", sources[0].Label)
	}
}

func TestResolveAuthenticatedContentRewritesURLs(t *testing.T) {
	provider := &stubProvider{entries: []SourceEntry{{Bitrate: 128000, URL: "http://cdn.example.com/low.mp4"}}}
	r := NewSourceResolver(provider, "http://campus.test", true)

	sources, err := r.Resolve(context.Background(), &MediaObject{MediaID: "m-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "http://campus.test/media_objects/m-1/redirect?bitrate=128000"
	if sources[0].URL != want {
		t.Fatalf("url = %q, want %q", sources[0].URL, want)
	}
}

func TestSelectForRedirect(t *testing.T) {
	entries := []SourceEntry{
		{Bitrate: 128000, URL: "low"},
		{Bitrate: 256000, URL: "high"},
	}
	r := NewSourceResolver(&stubProvider{entries: entries}, "http://campus.test", false)
	obj := &MediaObject{MediaID: "m-1"}

	cases := []struct {
		name    string
		bitrate string
		wantURL string
	}{
		{"exact match", "256000", "high"},
		{"no match falls back to first", "999999", "low"},
		{"missing bitrate falls back to first", "", "low"},
		{"non numeric falls back to first", "fast", "low"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			entry, err := r.SelectForRedirect(context.Background(), obj, tc.bitrate)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if entry.URL != tc.wantURL {
				t.Fatalf("selected %q, want %q", entry.URL, tc.wantURL)
			}
		})
	}
}

func TestSelectForRedirectNoSources(t *testing.T) {
	r := NewSourceResolver(&stubProvider{}, "http://campus.test", false)
	_, err := r.SelectForRedirect(context.Background(), &MediaObject{MediaID: "m-1"}, "")
	if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
