package utils

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

/* DB fetching */

// FetchOwnedModel loads T by id only when its owner_id matches ownerId.
// Missing and foreign rows both return ErrorRecordNotFound, so callers cannot
// discover other users' ids.
func FetchOwnedModel[T any](ctx context.Context, db *gorm.DB, ownerId string, id int, associations ...string) (*T, error) {
	if ownerId == "" || id <= 0 {
		return nil, ErrorRecordNotFound
	}
	dbCtx := db.WithContext(ctx).Where("owner_id = ?", ownerId)
	for _, field := range associations {
		dbCtx = dbCtx.Preload(field)
	}
	var result T
	err := dbCtx.First(&result, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrorRecordNotFound
		}
		return nil, err
	}
	return &result, nil
}

// FetchAllOwnedModels lists every T owned by ownerId, ordered by order (or id).
func FetchAllOwnedModels[T any](ctx context.Context, db *gorm.DB, ownerId string, order string) ([]*T, error) {
	if order == "" {
		order = "id ASC"
	}
	results := make([]*T, 0)
	err := db.WithContext(ctx).Where("owner_id = ?", ownerId).Order(order).Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// check if id exists for owner, return ErrorRecordNotFound
func ValidateOwnedResourceId[T any](ctx context.Context, db *gorm.DB, ownerId string, id int) error {
	var model T
	var count int64
	if err := db.WithContext(ctx).Model(&model).Where("owner_id = ? AND id = ?", ownerId, id).Count(&count).Error; err != nil {
		return err
	}
	if count <= 0 {
		return ErrorRecordNotFound
	}
	return nil
}
