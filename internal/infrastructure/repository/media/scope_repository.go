package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	domain "campus-server/services/media-api/internal/domain/media"
	"campus-server/services/media-api/internal/infrastructure/database/entities"
	"campus-server/services/media-api/internal/utils/platformerrors"
)

// ScopeRepository resolves course and group scope ids.
type ScopeRepository struct {
	db *gorm.DB
}

func NewScopeRepository(db *gorm.DB) *ScopeRepository {
	return &ScopeRepository{db: db}
}

func (r *ScopeRepository) GetCourse(ctx context.Context, id string) (*domain.Course, error) {
	var entity entities.Course
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to get course by id",
			err,
			"06172839-4a5b-4c6d-8e7f-90a1b2c3d4e5",
		)
	}

	enrollments := make(map[string]string, len(entity.Enrollments))
	for userID, role := range entity.Enrollments {
		enrollments[userID] = fmt.Sprint(role)
	}
	return &domain.Course{
		ID:          entity.ID,
		Name:        entity.Name,
		Enrollments: enrollments,
	}, nil
}

func (r *ScopeRepository) GetGroup(ctx context.Context, id string) (*domain.Group, error) {
	var entity entities.Group
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to get group by id",
			err,
			"18293a4b-5c6d-4e7f-90a1-b2c3d4e5f607",
		)
	}

	var memberIDs []string
	if len(entity.MemberIDs) > 0 {
		if err := json.Unmarshal(entity.MemberIDs, &memberIDs); err != nil {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeDatabaseError,
				"failed to decode group membership",
				err,
				"2a3b4c5d-6e7f-4809-a1b2-c3d4e5f60718",
			)
		}
	}
	return &domain.Group{
		ID:        entity.ID,
		Name:      entity.Name,
		MemberIDs: memberIDs,
	}, nil
}
