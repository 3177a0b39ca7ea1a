package handlers

import (
	"github.com/rs/zerolog"

	"campus-server/services/media-api/internal/config"
	media "campus-server/services/media-api/internal/domain/media"
)

// Provider wires HTTP handlers.
type Provider struct {
	MediaObjects *MediaObjectsHandler
}

func NewProvider(cfg *config.Config, service *media.Service, log zerolog.Logger) *Provider {
	return &Provider{
		MediaObjects: NewMediaObjectsHandler(cfg, service, log),
	}
}
