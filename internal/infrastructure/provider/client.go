package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"resty.dev/v3"

	"campus-server/services/media-api/internal/config"
	"campus-server/services/media-api/internal/domain/media"
	"campus-server/services/media-api/internal/infrastructure/metrics"
	"campus-server/services/media-api/internal/utils/functional"
	"campus-server/services/media-api/internal/utils/platformerrors"
)

// flavorEntry is the provider's rendition descriptor.
type flavorEntry struct {
	Bitrate int    `json:"bitrate"`
	URL     string `json:"url"`
	Format  string `json:"format,omitempty"`
}

// Client talks to the hosting provider's asset API.
type Client struct {
	http    *resty.Client
	baseURL string
	log     zerolog.Logger
}

var _ media.Provider = (*Client)(nil)

func NewClient(cfg *config.Config, log zerolog.Logger) *Client {
	http := resty.New().
		SetBaseURL(cfg.ProviderBaseURL).
		SetTimeout(cfg.ProviderFetchTimeout)
	if cfg.ProviderPartnerID != "" {
		http.SetHeader("X-Partner-Id", cfg.ProviderPartnerID)
	}
	if cfg.ProviderSecret != "" {
		http.SetAuthToken(cfg.ProviderSecret)
	}
	return &Client{
		http:    http,
		baseURL: cfg.ProviderBaseURL,
		log:     log.With().Str("component", "provider-client").Logger(),
	}
}

func (c *Client) ListSources(ctx context.Context, mediaID string) ([]media.SourceEntry, error) {
	start := time.Now()
	var flavors []flavorEntry
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&flavors).
		Get("/v1/assets/" + url.PathEscape(mediaID) + "/flavors")
	metrics.RecordProviderCall("list_sources", callStatus(resp, err), time.Since(start).Seconds())
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			"provider flavor listing failed", err, "b3c4d5e6-f708-4192-a3b4-c5d6e7f80910")
	}
	if resp.IsError() {
		return nil, platformerrors.NewExternalError(ctx, platformerrors.LayerInfrastructure,
			fmt.Sprintf("provider flavor listing returned %d", resp.StatusCode()), nil, resp.StatusCode(),
			"c4d5e6f7-0819-42a3-b4c5-d6e7f8091021")
	}
	return functional.Map(flavors, func(f flavorEntry) media.SourceEntry {
		return media.SourceEntry{Bitrate: f.Bitrate, URL: f.URL}
	}), nil
}

func (c *Client) ThumbnailURL(ctx context.Context, mediaID string, width, height int) (string, error) {
	// Thumbnails are served directly by the provider, including for ids it
	// has never seen; no existence check here.
	return fmt.Sprintf("%s/v1/assets/%s/thumbnail?width=%d&height=%d",
		c.baseURL, url.PathEscape(mediaID), width, height), nil
}

func (c *Client) AssetExists(ctx context.Context, mediaID string) (bool, error) {
	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		Head("/v1/assets/" + url.PathEscape(mediaID))
	metrics.RecordProviderCall("asset_exists", callStatus(resp, err), time.Since(start).Seconds())
	if err != nil {
		return false, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			"provider existence check failed", err, "d5e6f708-192a-43b4-c5d6-e7f809102132")
	}
	if resp.StatusCode() == 404 {
		return false, nil
	}
	if resp.IsError() {
		return false, platformerrors.NewExternalError(ctx, platformerrors.LayerInfrastructure,
			fmt.Sprintf("provider existence check returned %d", resp.StatusCode()), nil, resp.StatusCode(),
			"e6f70819-2a3b-44c5-d6e7-f80910213243")
	}
	return true, nil
}

func (c *Client) FetchSource(ctx context.Context, sourceURL string) (io.ReadCloser, string, error) {
	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(sourceURL)
	metrics.RecordProviderCall("fetch_source", callStatus(resp, err), time.Since(start).Seconds())
	if err != nil {
		return nil, "", platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			"provider fetch failed", err, "f7081920-3b4c-45d6-e7f8-091021324354")
	}
	if resp.IsError() {
		if resp.RawResponse != nil && resp.RawResponse.Body != nil {
			resp.RawResponse.Body.Close()
		}
		return nil, "", platformerrors.NewExternalError(ctx, platformerrors.LayerInfrastructure,
			fmt.Sprintf("provider fetch returned %d", resp.StatusCode()), nil, resp.StatusCode(),
			"08192a3b-4c5d-46e7-f809-102132435465")
	}
	if resp.RawResponse == nil || resp.RawResponse.Body == nil {
		return nil, "", platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			"provider fetch returned empty body", nil, "192a3b4c-5d6e-47f8-0910-213243546576")
	}

	contentType := resp.Header().Get("Content-Type")
	body := resp.RawResponse.Body
	if contentType == "" || contentType == "application/octet-stream" {
		sniffed, recycled, sniffErr := sniffContentType(body)
		body = recycled
		if sniffErr == nil && sniffed != "" {
			contentType = sniffed
		}
	}
	return body, contentType, nil
}

// sniffContentType detects the media type from the stream head and returns a
// reader replaying the consumed bytes.
func sniffContentType(body io.ReadCloser) (string, io.ReadCloser, error) {
	header := make([]byte, 3072)
	n, err := io.ReadFull(body, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", body, err
	}
	header = header[:n]
	recycled := &replayReadCloser{
		reader: io.MultiReader(bytes.NewReader(header), body),
		closer: body,
	}
	return mimetype.Detect(header).String(), recycled, nil
}

type replayReadCloser struct {
	reader io.Reader
	closer io.Closer
}

func (r *replayReadCloser) Read(p []byte) (int, error) { return r.reader.Read(p) }

func (r *replayReadCloser) Close() error { return r.closer.Close() }

func callStatus(resp *resty.Response, err error) string {
	switch {
	case err != nil:
		return "error"
	case resp != nil && resp.IsError():
		return fmt.Sprintf("%d", resp.StatusCode())
	default:
		return "ok"
	}
}
