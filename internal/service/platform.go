package service

import (
	"context"
	"strings"

	"square-payment-gateway/internal/config"
	"square-payment-gateway/internal/model"
)

// Collaborators owned by the e-commerce platform.

type CustomerProvider interface {
	Get(ctx context.Context, customerID int64) (*model.Customer, error)
}

type CurrencyProvider interface {
	PrimaryCurrency(ctx context.Context, storeID int) (string, error)
}

type AttributeStore interface {
	Get(ctx context.Context, keyGroup string, entityID int64, key string, storeID int) (string, error)
	Set(ctx context.Context, attr *model.GenericAttribute) error
}

const (
	customerKeyGroup          = "Customer"
	squareCustomerIDAttribute = "SquareCustomerId"
)

type configCurrencyProvider struct {
	code string
}

// NewConfigCurrencyProvider serves the same configured primary currency to
// every store.
func NewConfigCurrencyProvider(cfg config.Platform) CurrencyProvider {
	return &configCurrencyProvider{code: strings.ToUpper(strings.TrimSpace(cfg.PrimaryCurrency))}
}

func (p *configCurrencyProvider) PrimaryCurrency(context.Context, int) (string, error) {
	return p.code, nil
}
