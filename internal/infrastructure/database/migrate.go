package database

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"campus-server/services/media-api/internal/infrastructure/database/entities"
)

// AutoMigrate applies database schema changes.
func AutoMigrate(ctx context.Context, db *gorm.DB, log zerolog.Logger) error {
	models := []any{
		&entities.MediaObject{},
		&entities.Attachment{},
		&entities.MediaTrack{},
		&entities.Course{},
		&entities.Group{},
	}
	for _, model := range models {
		if err := db.WithContext(ctx).AutoMigrate(model); err != nil {
			return err
		}
	}
	log.Info().Msg("applied media schema migrations")
	return nil
}
