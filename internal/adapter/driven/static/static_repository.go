// Package static serves fixed catalogs and sample prices for offline use.
package static

import (
	"context"
	"fmt"
	"sort"

	"github.com/diillson/cloud-price-comparator/internal/domain/entity"
	"github.com/diillson/cloud-price-comparator/internal/domain/repository"
)

// SamplePrice holds the hourly sample prices of one instance type. Zero values
// for the optional tiers mean the tier is not offered.
type SamplePrice struct {
	OnDemand   float64
	Spot       float64
	Reserved1y float64
	Reserved3y float64
}

// Catalog is the fixed data served by a Source.
type Catalog struct {
	Regions       map[string]string
	InstanceTypes map[string]string
	Prices        map[string]SamplePrice
	// RegionFactor scales sample prices per region; regions not listed use 1.
	RegionFactor map[string]float64
	Scopes       []entity.RawScope
}

// Source is a PriceSource and ScopeRepository backed by a Catalog.
type Source struct {
	provider entity.Provider
	catalog  Catalog
}

var (
	_ repository.PriceSource     = (*Source)(nil)
	_ repository.ScopeRepository = (*Source)(nil)
)

// NewSource creates a static source for provider using its built-in catalog.
func NewSource(provider entity.Provider) *Source {
	return NewSourceWithCatalog(provider, DefaultCatalog(provider))
}

// NewSourceWithCatalog creates a static source over an explicit catalog.
func NewSourceWithCatalog(provider entity.Provider, catalog Catalog) *Source {
	return &Source{provider: provider, catalog: catalog}
}

func (s *Source) Provider() entity.Provider {
	return s.provider
}

// FetchPrices returns one sample entry, or none when the instance type or
// region is not part of the catalog.
func (s *Source) FetchPrices(ctx context.Context, instanceType, region, scope string) ([]entity.RawPriceEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, ok := s.catalog.Prices[instanceType]
	if !ok {
		return []entity.RawPriceEntry{}, nil
	}
	if _, ok := s.catalog.Regions[region]; !ok {
		return []entity.RawPriceEntry{}, nil
	}

	factor := 1.0
	if f, ok := s.catalog.RegionFactor[region]; ok && f > 0 {
		factor = f
	}

	entry := entity.RawPriceEntry{
		"provider":        string(s.provider),
		"instance_type":   instanceType,
		"region":          region,
		"on_demand_price": round4(p.OnDemand * factor),
	}
	if p.Spot > 0 {
		entry["spot_price"] = round4(p.Spot * factor)
	}
	if p.Reserved1y > 0 {
		entry["reserved_price_1y"] = round4(p.Reserved1y * factor)
	}
	if p.Reserved3y > 0 {
		entry["reserved_price_3y"] = round4(p.Reserved3y * factor)
	}
	return []entity.RawPriceEntry{entry}, nil
}

func (s *Source) FetchRegions(ctx context.Context, scope string) ([]entity.RawCatalogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.entries(s.catalog.Regions), nil
}

func (s *Source) FetchInstanceTypes(ctx context.Context, scope string) ([]entity.RawCatalogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.entries(s.catalog.InstanceTypes), nil
}

func (s *Source) FetchAccountScopes(ctx context.Context) ([]entity.RawScope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]entity.RawScope, 0, len(s.catalog.Scopes))
	for _, raw := range s.catalog.Scopes {
		scope := entity.RawScope{"provider": string(s.provider)}
		for k, v := range raw {
			scope[k] = v
		}
		out = append(out, scope)
	}
	return out, nil
}

func (s *Source) entries(m map[string]string) []entity.RawCatalogEntry {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]entity.RawCatalogEntry, 0, len(ids))
	for _, id := range ids {
		out = append(out, entity.RawCatalogEntry{
			"id":       id,
			"name":     m[id],
			"provider": string(s.provider),
		})
	}
	return out
}

func round4(v float64) string {
	return fmt.Sprintf("%.4f", v)
}
