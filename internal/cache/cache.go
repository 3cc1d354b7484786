package cache

import (
	"context"

	"square-payment-gateway/internal/model"
)

// CredentialsCache holds resolved per-store credentials for a short time.
// Implementations never fail the caller: a cache fault reads as a miss.
type CredentialsCache interface {
	Get(ctx context.Context, storeID int) (*model.MerchantCredentials, bool)
	Set(ctx context.Context, storeID int, creds *model.MerchantCredentials)
	Invalidate(ctx context.Context, storeID int)
	InvalidateAll(ctx context.Context)
}

type nopCache struct{}

func NewNopCache() CredentialsCache {
	return nopCache{}
}

func (nopCache) Get(context.Context, int) (*model.MerchantCredentials, bool) { return nil, false }
func (nopCache) Set(context.Context, int, *model.MerchantCredentials)        {}
func (nopCache) Invalidate(context.Context, int)                             {}
func (nopCache) InvalidateAll(context.Context)                               {}
