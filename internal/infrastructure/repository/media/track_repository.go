package media

import (
	"context"

	"gorm.io/gorm"

	domain "campus-server/services/media-api/internal/domain/media"
	"campus-server/services/media-api/internal/infrastructure/database/entities"
	"campus-server/services/media-api/internal/utils/functional"
	"campus-server/services/media-api/internal/utils/platformerrors"
)

// TrackRepository reads caption tracks per owning attachment.
type TrackRepository struct {
	db *gorm.DB
}

func NewTrackRepository(db *gorm.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

func (r *TrackRepository) ListByAttachment(ctx context.Context, attachmentID string) ([]*domain.MediaTrack, error) {
	var rows []entities.MediaTrack
	err := r.db.WithContext(ctx).
		Where("attachment_id = ?", attachmentID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list media tracks",
			err,
			"f4051627-3849-4a5b-8c6d-7e8f90a1b2c3",
		)
	}
	return functional.Map(rows, func(e entities.MediaTrack) *domain.MediaTrack {
		return &domain.MediaTrack{
			ID:           e.ID,
			AttachmentID: e.AttachmentID,
			Kind:         e.Kind,
			Locale:       e.Locale,
			Content:      e.Content,
			UserID:       e.UserID,
			CreatedAt:    e.CreatedAt,
		}
	}), nil
}
