package repository

import (
	"context"
	"errors"
	"time"

	"square-payment-gateway/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttributeRepository interface {
	Get(ctx context.Context, keyGroup string, entityID int64, key string, storeID int) (string, error)
	Set(ctx context.Context, attr *model.GenericAttribute) error
}

type attributeRepoImpl struct {
	db *gorm.DB
}

func NewAttributeRepository(db *gorm.DB) AttributeRepository {
	return &attributeRepoImpl{
		db: db,
	}
}

// Get returns the attribute value, or an empty string if it was never set.
func (r *attributeRepoImpl) Get(ctx context.Context, keyGroup string, entityID int64, key string, storeID int) (string, error) {
	var attr model.GenericAttribute
	err := r.db.WithContext(ctx).
		Where(map[string]interface{}{
			"key_group": keyGroup,
			"entity_id": entityID,
			"key":       key,
			"store_id":  storeID,
		}).
		First(&attr).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}

	return attr.Value, nil
}

func (r *attributeRepoImpl) Set(ctx context.Context, attr *model.GenericAttribute) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key_group"}, {Name: "entity_id"}, {Name: "key"}, {Name: "store_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      attr.Value,
			"updated_at": time.Now(),
		}),
	}).Create(attr).Error
}
