package media

import (
	"context"
	"errors"

	"gorm.io/gorm"

	domain "campus-server/services/media-api/internal/domain/media"
	"campus-server/services/media-api/internal/domain/query"
	"campus-server/services/media-api/internal/infrastructure/database/entities"
	"campus-server/services/media-api/internal/utils/functional"
	"campus-server/services/media-api/internal/utils/platformerrors"
	"campus-server/services/media-api/utils/recordid"
)

// effectiveTitleExpr mirrors the display-title resolution in SQL so search
// and sort agree with what callers see.
const effectiveTitleExpr = "COALESCE(NULLIF(user_entered_title, ''), NULLIF(title, ''), 'Untitled')"

// Repository handles media object persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindInContext(ctx context.Context, scope domain.Context, mediaID string) (*domain.MediaObject, error) {
	var entity entities.MediaObject
	err := r.db.WithContext(ctx).
		Where("context_type = ? AND context_id = ? AND media_id = ?", string(scope.Kind), scope.ID, mediaID).
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to find media object in context",
			err,
			"4e8a1b6c-9d2f-4c3a-b5e7-8f0a1c2d3e4f",
		)
	}
	obj := mapEntity(entity)
	return &obj, nil
}

func (r *Repository) Create(ctx context.Context, obj *domain.MediaObject) error {
	if obj.ID == "" {
		obj.ID = recordid.New(recordid.PrefixMedia)
	}
	entity := mapDomain(obj)
	err := r.db.WithContext(ctx).Create(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrDuplicateMediaObject
		}
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to create media object",
			err,
			"9b2e4f5a-6c7d-4e8f-9a0b-1c2d3e4f5a6b",
		)
	}
	obj.CreatedAt = entity.CreatedAt
	obj.UpdatedAt = entity.UpdatedAt
	return nil
}

func (r *Repository) Update(ctx context.Context, obj *domain.MediaObject) error {
	entity := mapDomain(obj)
	err := r.db.WithContext(ctx).Save(&entity).Error
	if err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to update media object",
			err,
			"c5d6e7f8-0a1b-4c2d-8e3f-4a5b6c7d8e9f",
		)
	}
	obj.UpdatedAt = entity.UpdatedAt
	return nil
}

func (r *Repository) FindByMediaID(ctx context.Context, mediaID string) ([]*domain.MediaObject, error) {
	var rows []entities.MediaObject
	err := r.db.WithContext(ctx).
		Where("media_id = ?", mediaID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to find media objects by media id",
			err,
			"1c2d3e4f-5a6b-4c7d-8e9f-0a1b2c3d4e5f",
		)
	}
	return functional.Map(rows, func(e entities.MediaObject) *domain.MediaObject {
		obj := mapEntity(e)
		return &obj
	}), nil
}

func (r *Repository) FindVisible(ctx context.Context, filter domain.VisibilityFilter, sort query.Sort, page query.Pagination) ([]*domain.MediaObject, error) {
	tx := r.db.WithContext(ctx).
		Model(&entities.MediaObject{}).
		Where("media_objects.workflow_state <> ?", string(domain.WorkflowDeleted))

	switch {
	case filter.OwnerContext != nil:
		tx = tx.Where("media_objects.context_type = ? AND media_objects.context_id = ?",
			string(filter.OwnerContext.Kind), filter.OwnerContext.ID)
	case filter.Scope != nil:
		// A media object belongs to the scope either directly or through an
		// attachment enclosed by the scope. Deleted attachments still anchor
		// their media objects here.
		tx = tx.Where(
			"(media_objects.context_type = ? AND media_objects.context_id = ?) OR EXISTS ("+
				"SELECT 1 FROM attachments a WHERE a.media_entry_id = media_objects.media_id "+
				"AND a.context_type = ? AND a.context_id = ?)",
			string(filter.Scope.Kind), filter.Scope.ID,
			string(filter.Scope.Kind), filter.Scope.ID,
		)
	}

	if filter.SearchTerm != "" {
		tx = tx.Where(effectiveTitleExpr+" ILIKE ?", "%"+filter.SearchTerm+"%")
	}

	direction := "ASC"
	if sort.Order == query.OrderDesc {
		direction = "DESC"
	}
	switch sort.Field {
	case query.SortTitle:
		tx = tx.Order(effectiveTitleExpr + " " + direction)
	default:
		tx = tx.Order("media_objects.created_at " + direction)
	}

	var rows []entities.MediaObject
	err := tx.Limit(page.Limit()).Offset(page.Offset()).Find(&rows).Error
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list visible media objects",
			err,
			"d0e1f2a3-b4c5-4d6e-8f7a-9b0c1d2e3f40",
		)
	}
	return functional.Map(rows, func(e entities.MediaObject) *domain.MediaObject {
		obj := mapEntity(e)
		return &obj
	}), nil
}

func mapEntity(entity entities.MediaObject) domain.MediaObject {
	return domain.MediaObject{
		ID:      entity.ID,
		MediaID: entity.MediaID,
		Context: domain.Context{
			Kind: domain.ContextKind(entity.ContextType),
			ID:   entity.ContextID,
		},
		UserID:           entity.UserID,
		Title:            entity.Title,
		UserEnteredTitle: entity.UserEnteredTitle,
		MediaType:        domain.MediaType(entity.MediaType),
		WorkflowState:    domain.WorkflowState(entity.WorkflowState),
		AttachmentID:     entity.AttachmentID,
		CreatedAt:        entity.CreatedAt,
		UpdatedAt:        entity.UpdatedAt,
	}
}

func mapDomain(obj *domain.MediaObject) entities.MediaObject {
	return entities.MediaObject{
		ID:               obj.ID,
		MediaID:          obj.MediaID,
		ContextType:      string(obj.Context.Kind),
		ContextID:        obj.Context.ID,
		UserID:           obj.UserID,
		Title:            obj.Title,
		UserEnteredTitle: obj.UserEnteredTitle,
		MediaType:        string(obj.MediaType),
		WorkflowState:    string(obj.WorkflowState),
		AttachmentID:     obj.AttachmentID,
		CreatedAt:        obj.CreatedAt,
		UpdatedAt:        obj.UpdatedAt,
	}
}
