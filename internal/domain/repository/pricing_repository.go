package repository

import (
	"context"

	"github.com/diillson/cloud-price-comparator/internal/domain/entity"
)

// PriceSource defines the interface for one provider's pricing backend.
// Returned entries are untrusted and pass through the entity parsers.
type PriceSource interface {
	Provider() entity.Provider

	// Price Operations
	FetchPrices(ctx context.Context, instanceType, region, scope string) ([]entity.RawPriceEntry, error)

	// Catalog Operations
	FetchRegions(ctx context.Context, scope string) ([]entity.RawCatalogEntry, error)
	FetchInstanceTypes(ctx context.Context, scope string) ([]entity.RawCatalogEntry, error)
}

// ScopeRepository lists the accounts or subscriptions a provider exposes.
type ScopeRepository interface {
	FetchAccountScopes(ctx context.Context) ([]entity.RawScope, error)
}
