package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"campus-server/services/media-api/internal/config"
	media "campus-server/services/media-api/internal/domain/media"
	"campus-server/services/media-api/internal/infrastructure/auth"
	"campus-server/services/media-api/internal/infrastructure/authz"
	"campus-server/services/media-api/internal/infrastructure/database"
	"campus-server/services/media-api/internal/infrastructure/logger"
	"campus-server/services/media-api/internal/infrastructure/observability"
	"campus-server/services/media-api/internal/infrastructure/provider"
	repo "campus-server/services/media-api/internal/infrastructure/repository/media"
	"campus-server/services/media-api/internal/interfaces/httpserver"
)

// @title Media API
// @version 1.0
// @description Media object registry, visibility and playback resolution service
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
type Application struct {
	httpServer *httpserver.HttpServer
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	db, err := database.Connect(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	if err := database.AutoMigrate(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	var authValidator *auth.TokenValidator
	if cfg.AuthEnabled {
		authValidator, err = auth.NewTokenValidator(ctx, cfg.AuthIssuer, cfg.AuthJWKSURL, cfg.AuthHSKey, log)
		if err != nil {
			log.Fatal().Err(err).Msg("initialize token validator")
		}
	}

	mediaRepo := repo.NewRepository(db)
	attachmentRepo := repo.NewAttachmentRepository(db)
	trackRepo := repo.NewTrackRepository(db)
	scopeRepo := repo.NewScopeRepository(db)
	policy := authz.NewEnrollmentPolicy(scopeRepo, log)
	providerClient := provider.NewClient(cfg, log)
	sources := media.NewSourceResolver(providerClient, cfg.APIURL, cfg.AuthenticatedContent)
	mediaService := media.NewService(mediaRepo, attachmentRepo, trackRepo, scopeRepo, policy, providerClient, sources, log)

	httpServer := httpserver.New(cfg, log, mediaService, authValidator)
	app := NewApplication(httpServer, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
