//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"campus-server/services/media-api/internal/config"
	media "campus-server/services/media-api/internal/domain/media"
	"campus-server/services/media-api/internal/infrastructure/auth"
	"campus-server/services/media-api/internal/infrastructure/authz"
	"campus-server/services/media-api/internal/infrastructure/database"
	"campus-server/services/media-api/internal/infrastructure/logger"
	"campus-server/services/media-api/internal/infrastructure/provider"
	repo "campus-server/services/media-api/internal/infrastructure/repository/media"
	"campus-server/services/media-api/internal/interfaces/httpserver"
)

var mediaSet = wire.NewSet(
	repo.NewRepository,
	wire.Bind(new(media.Repository), new(*repo.Repository)),
	repo.NewAttachmentRepository,
	wire.Bind(new(media.AttachmentRepository), new(*repo.AttachmentRepository)),
	repo.NewTrackRepository,
	wire.Bind(new(media.TrackRepository), new(*repo.TrackRepository)),
	repo.NewScopeRepository,
	wire.Bind(new(media.ScopeRepository), new(*repo.ScopeRepository)),
	authz.NewEnrollmentPolicy,
	wire.Bind(new(media.Policy), new(*authz.EnrollmentPolicy)),
	provider.NewClient,
	wire.Bind(new(media.Provider), new(*provider.Client)),
	newSourceResolver,
	media.NewService,
)

// BuildApplication assembles the media API with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		newLogger,
		newTokenValidator,
		newGormDB,
		mediaSet,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}

func newLogger(cfg *config.Config) (zerolog.Logger, error) {
	return logger.New(cfg.LogLevel, cfg.LogFormat)
}

func newTokenValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*auth.TokenValidator, error) {
	if !cfg.AuthEnabled {
		return nil, nil
	}
	return auth.NewTokenValidator(ctx, cfg.AuthIssuer, cfg.AuthJWKSURL, cfg.AuthHSKey, log)
}

func newGormDB(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.Connect(cfg, log)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(ctx, db, log); err != nil {
		return nil, err
	}
	return db, nil
}

func newSourceResolver(cfg *config.Config, providerClient *provider.Client) *media.SourceResolver {
	return media.NewSourceResolver(providerClient, cfg.APIURL, cfg.AuthenticatedContent)
}
