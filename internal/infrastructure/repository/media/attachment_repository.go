package media

import (
	"context"
	"errors"

	"gorm.io/gorm"

	domain "campus-server/services/media-api/internal/domain/media"
	"campus-server/services/media-api/internal/infrastructure/database/entities"
	"campus-server/services/media-api/internal/utils/platformerrors"
)

// AttachmentRepository reads attachment rows, deleted ones included, so the
// service can walk replacement chains.
type AttachmentRepository struct {
	db *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

func (r *AttachmentRepository) GetByID(ctx context.Context, id string) (*domain.Attachment, error) {
	var entity entities.Attachment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to get attachment by id",
			err,
			"e2f30415-2637-4859-9a0b-c1d2e3f40516",
		)
	}
	att := mapAttachment(entity)
	return &att, nil
}

func mapAttachment(entity entities.Attachment) domain.Attachment {
	return domain.Attachment{
		ID: entity.ID,
		Context: domain.Context{
			Kind: domain.ContextKind(entity.ContextType),
			ID:   entity.ContextID,
		},
		MediaEntryID:            entity.MediaEntryID,
		Filename:                entity.Filename,
		ContentType:             entity.ContentType,
		Locked:                  entity.Locked,
		FileState:               domain.FileState(entity.FileState),
		ReplacementAttachmentID: entity.ReplacementAttachmentID,
		CreatedAt:               entity.CreatedAt,
		UpdatedAt:               entity.UpdatedAt,
	}
}
