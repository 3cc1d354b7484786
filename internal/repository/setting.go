package repository

import (
	"context"
	"errors"
	"fmt"

	"square-payment-gateway/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingRepository interface {
	List(ctx context.Context, storeIDs ...int) ([]model.StoreSetting, error)
	Upsert(ctx context.Context, settings []model.StoreSetting) error
	Delete(ctx context.Context, storeID int, names ...string) error
	FindStoreByValue(ctx context.Context, name, value string) (int, error)
	// CompareAndSwap replaces the setting's value only while it still equals
	// expected, and reports whether it did.
	CompareAndSwap(ctx context.Context, storeID int, name, expected, value string) (bool, error)
	ListStoreIDs(ctx context.Context) ([]int, error)
}

type settingRepoImpl struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepoImpl{
		db: db,
	}
}

func (r *settingRepoImpl) List(ctx context.Context, storeIDs ...int) ([]model.StoreSetting, error) {
	var settings []model.StoreSetting
	err := r.db.WithContext(ctx).
		Where("store_id IN ?", storeIDs).
		Order("store_id").
		Find(&settings).Error
	if err != nil {
		return nil, err
	}

	return settings, nil
}

func (r *settingRepoImpl) Upsert(ctx context.Context, settings []model.StoreSetting) error {
	if len(settings) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}, {Name: "store_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&settings).Error
}

// Delete removes the named settings of a store, or all of them when no
// name is given.
func (r *settingRepoImpl) Delete(ctx context.Context, storeID int, names ...string) error {
	q := r.db.WithContext(ctx).Where("store_id = ?", storeID)
	if len(names) > 0 {
		q = q.Where("name IN ?", names)
	}

	return q.Delete(&model.StoreSetting{}).Error
}

func (r *settingRepoImpl) FindStoreByValue(ctx context.Context, name, value string) (int, error) {
	var setting model.StoreSetting
	err := r.db.WithContext(ctx).
		Where("name = ? AND value = ?", name, value).
		Order("store_id DESC").
		First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("no store has %s set to the given value: %w", name, err)
		}
		return 0, err
	}

	return setting.StoreID, nil
}

func (r *settingRepoImpl) CompareAndSwap(ctx context.Context, storeID int, name, expected, value string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.StoreSetting{}).
		Where("store_id = ? AND name = ? AND value = ?", storeID, name, expected).
		Update("value", value)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *settingRepoImpl) ListStoreIDs(ctx context.Context) ([]int, error) {
	var ids []int
	err := r.db.WithContext(ctx).
		Model(&model.StoreSetting{}).
		Distinct().
		Order("store_id").
		Pluck("store_id", &ids).Error
	if err != nil {
		return nil, err
	}

	return ids, nil
}
