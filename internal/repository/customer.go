package repository

import (
	"context"
	"errors"
	"fmt"

	"square-payment-gateway/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrCustomerNotFound = errors.New("customer not found")

type CustomerRepository interface {
	Get(ctx context.Context, customerID int64) (*model.Customer, error)
	Save(ctx context.Context, customer *model.Customer) error
}

type customerRepoImpl struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepoImpl{
		db: db,
	}
}

func (r *customerRepoImpl) Get(ctx context.Context, customerID int64) (*model.Customer, error) {
	var customer model.Customer
	err := r.db.WithContext(ctx).
		Preload("BillingAddress").
		Preload("ShippingAddress").
		Where("id = ?", customerID).
		First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("customer %d: %w", customerID, ErrCustomerNotFound)
		}
		return nil, err
	}

	return &customer, nil
}

// Save replaces the customer snapshot together with its addresses.
func (r *customerRepoImpl) Save(ctx context.Context, customer *model.Customer) error {
	for _, addr := range []*model.Address{customer.BillingAddress, customer.ShippingAddress} {
		if addr != nil {
			addr.ID = 0
		}
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Customer
		err := tx.Where("id = ?", customer.ID).First(&existing).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err == nil {
			customer.BillingAddressID = nil
			customer.ShippingAddressID = nil
			ids := []uint{}
			if existing.BillingAddressID != nil {
				ids = append(ids, *existing.BillingAddressID)
			}
			if existing.ShippingAddressID != nil {
				ids = append(ids, *existing.ShippingAddressID)
			}
			if len(ids) > 0 {
				if err := tx.Where("id IN ?", ids).Delete(&model.Address{}).Error; err != nil {
					return fmt.Errorf("delete old addresses: %w", err)
				}
			}
		}

		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(customer).Error
	})
}
