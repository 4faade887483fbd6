package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/diillson/cloud-price-comparator/internal/domain/entity"
	"github.com/diillson/cloud-price-comparator/internal/domain/repository"
	"github.com/diillson/cloud-price-comparator/internal/shared/types"
)

type catalogKind string

const (
	catalogRegions       catalogKind = "regions"
	catalogInstanceTypes catalogKind = "instance types"
)

// sourceFailures holds the failure of each provider whose source could not answer.
type sourceFailures map[entity.Provider]*types.ProviderError

// list returns the failures sorted by provider.
func (f sourceFailures) list() []*types.ProviderError {
	out := make([]*types.ProviderError, 0, len(f))
	for _, pe := range f {
		out = append(out, pe)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Provider < out[j].Provider })
	return out
}

// CatalogResolver maps region and instance-type ids to display names and
// validates selections before any price is requested.
type CatalogResolver struct {
	sources []repository.PriceSource
	scopes  []repository.ScopeRepository
	console types.ConsoleInterface
	timeout time.Duration
}

// NewCatalogResolver creates a resolver over the given sources and scope
// repositories. Every catalog and scope call is bounded by timeout; a
// non-positive timeout uses the default.
func NewCatalogResolver(
	sources []repository.PriceSource,
	scopes []repository.ScopeRepository,
	console types.ConsoleInterface,
	timeout time.Duration,
) *CatalogResolver {
	if timeout <= 0 {
		timeout = types.DefaultTimeoutSeconds * time.Second
	}
	return &CatalogResolver{
		sources: sources,
		scopes:  scopes,
		console: console,
		timeout: timeout,
	}
}

// ListScopes returns every known account scope, sorted by provider and name.
// Disabled scopes are included; callers flag them through AccountScope.Disabled.
func (r *CatalogResolver) ListScopes(ctx context.Context) ([]entity.AccountScope, error) {
	scopes, _ := r.collectScopes(ctx)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return scopes, nil
}

func (r *CatalogResolver) collectScopes(ctx context.Context) ([]entity.AccountScope, int) {
	results := make([][]entity.RawScope, len(r.scopes))
	errs := make([]error, len(r.scopes))

	var wg sync.WaitGroup
	for i, repo := range r.scopes {
		wg.Add(1)
		go func(i int, repo repository.ScopeRepository) {
			defer wg.Done()
			results[i], errs[i] = callWithTimeout(ctx, r.timeout, "list account scopes", repo.FetchAccountScopes)
		}(i, repo)
	}
	wg.Wait()

	failed := 0
	seen := make(map[string]bool)
	scopes := []entity.AccountScope{}
	for i := range r.scopes {
		if errs[i] != nil {
			failed++
			r.console.LogWarning("Could not list account scopes: %s", errs[i])
			continue
		}
		for _, raw := range results[i] {
			scope, err := entity.ParseAccountScope(raw)
			if err != nil {
				r.console.LogWarning("Skipping account scope: %s", err)
				continue
			}
			key := string(scope.Provider) + "/" + scope.ID
			if seen[key] {
				continue
			}
			seen[key] = true
			scopes = append(scopes, scope)
		}
	}

	sort.SliceStable(scopes, func(i, j int) bool {
		if scopes[i].Provider != scopes[j].Provider {
			return scopes[i].Provider < scopes[j].Provider
		}
		if scopes[i].DisplayName != scopes[j].DisplayName {
			return scopes[i].DisplayName < scopes[j].DisplayName
		}
		return scopes[i].ID < scopes[j].ID
	})
	return scopes, failed
}

// resolveScope returns nil for an empty scope id.
func (r *CatalogResolver) resolveScope(ctx context.Context, scopeID string) (*entity.AccountScope, error) {
	if scopeID == "" {
		return nil, nil
	}

	scopes, failed := r.collectScopes(ctx)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for i := range scopes {
		if scopes[i].ID == scopeID {
			return &scopes[i], nil
		}
	}
	if len(r.scopes) > 0 && failed == len(r.scopes) {
		return nil, &types.AggregationError{
			Selection: fmt.Sprintf("scope %s", scopeID),
			Failures:  []*types.ProviderError{{Provider: "scopes", Err: fmt.Errorf("no scope listing could be retrieved")}},
		}
	}
	return nil, &types.SelectionError{Field: "scope", ID: scopeID}
}

// scopeFor routes a scope to the sources of its provider only.
func scopeFor(src repository.PriceSource, scope *entity.AccountScope) string {
	if scope == nil || scope.Provider != src.Provider() {
		return ""
	}
	return scope.ID
}

// Regions returns the merged region catalog for the scope.
func (r *CatalogResolver) Regions(ctx context.Context, scopeID string) ([]entity.CatalogEntry, error) {
	scope, err := r.resolveScope(ctx, scopeID)
	if err != nil {
		return nil, err
	}
	entries := r.catalog(ctx, scope, catalogRegions, sourceFailures{})
	return entries, ctx.Err()
}

// InstanceTypes returns the merged instance-type catalog for the scope.
func (r *CatalogResolver) InstanceTypes(ctx context.Context, scopeID string) ([]entity.CatalogEntry, error) {
	scope, err := r.resolveScope(ctx, scopeID)
	if err != nil {
		return nil, err
	}
	entries := r.catalog(ctx, scope, catalogInstanceTypes, sourceFailures{})
	return entries, ctx.Err()
}

// ListRegions maps region ids to display names. An empty map is a valid result.
func (r *CatalogResolver) ListRegions(ctx context.Context, scopeID string) (map[string]string, error) {
	entries, err := r.Regions(ctx, scopeID)
	if err != nil {
		return nil, err
	}
	return catalogMap(entries), nil
}

// ListInstanceTypes maps instance-type ids to display names.
func (r *CatalogResolver) ListInstanceTypes(ctx context.Context, scopeID string) (map[string]string, error) {
	entries, err := r.InstanceTypes(ctx, scopeID)
	if err != nil {
		return nil, err
	}
	return catalogMap(entries), nil
}

func catalogMap(entries []entity.CatalogEntry) map[string]string {
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		if _, ok := out[e.ID]; !ok {
			out[e.ID] = e.DisplayName
		}
	}
	return out
}

// ValidateSelection fails with a SelectionError when the instance type, region
// or scope is not listed. It never issues a price query.
func (r *CatalogResolver) ValidateSelection(ctx context.Context, sel entity.Selection) error {
	_, _, err := r.validate(ctx, sel.Normalize())
	return err
}

// validate resolves the scope and checks both catalogs. Sources whose catalog
// could not be loaded are returned so the caller can report them instead of
// querying them. An id missing while some source failed is reported as an
// AggregationError, since the failed source may list it.
func (r *CatalogResolver) validate(ctx context.Context, sel entity.Selection) (*entity.AccountScope, sourceFailures, error) {
	if sel.InstanceType == "" {
		return nil, nil, &types.SelectionError{Field: "instance_type", Scope: sel.Scope}
	}
	if sel.Region == "" {
		return nil, nil, &types.SelectionError{Field: "region", Scope: sel.Scope}
	}

	scope, err := r.resolveScope(ctx, sel.Scope)
	if err != nil {
		return nil, nil, err
	}

	checks := []struct {
		kind  catalogKind
		field string
		id    string
	}{
		{catalogInstanceTypes, "instance_type", sel.InstanceType},
		{catalogRegions, "region", sel.Region},
	}
	failed := sourceFailures{}
	for _, c := range checks {
		entries := r.catalog(ctx, scope, c.kind, failed)
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if len(r.sources) > 0 && r.allFailed(failed) {
			return nil, nil, &types.AggregationError{Selection: sel.String(), Failures: failed.list()}
		}
		if containsID(entries, c.id) {
			continue
		}
		if len(failed) > 0 {
			return nil, nil, &types.AggregationError{Selection: sel.String(), Failures: failed.list()}
		}
		return nil, nil, &types.SelectionError{Field: c.field, ID: c.id, Scope: sel.Scope}
	}
	return scope, failed, nil
}

func (r *CatalogResolver) allFailed(failed sourceFailures) bool {
	for _, src := range r.sources {
		if _, ok := failed[src.Provider()]; !ok {
			return false
		}
	}
	return true
}

func containsID(entries []entity.CatalogEntry, id string) bool {
	for _, e := range entries {
		if e.ID == id {
			return true
		}
	}
	return false
}

// catalog fetches one catalog kind from every source concurrently, each call
// bounded by the resolver timeout. Sources already in failed are not asked
// again; new failures are added to it with a warning.
func (r *CatalogResolver) catalog(ctx context.Context, scope *entity.AccountScope, kind catalogKind, failed sourceFailures) []entity.CatalogEntry {
	results := make([][]entity.RawCatalogEntry, len(r.sources))
	errs := make([]error, len(r.sources))
	skip := make([]bool, len(r.sources))

	var wg sync.WaitGroup
	for i, src := range r.sources {
		if _, ok := failed[src.Provider()]; ok {
			skip[i] = true
			continue
		}
		wg.Add(1)
		go func(i int, src repository.PriceSource) {
			defer wg.Done()
			fetch := src.FetchInstanceTypes
			if kind == catalogRegions {
				fetch = src.FetchRegions
			}
			results[i], errs[i] = callWithTimeout(ctx, r.timeout, "fetch "+string(kind), func(ctx context.Context) ([]entity.RawCatalogEntry, error) {
				return fetch(ctx, scopeFor(src, scope))
			})
		}(i, src)
	}
	wg.Wait()

	seen := make(map[string]bool)
	entries := []entity.CatalogEntry{}
	for i, src := range r.sources {
		if skip[i] {
			continue
		}
		if errs[i] != nil {
			failed[src.Provider()] = &types.ProviderError{Provider: string(src.Provider()), Timeout: isTimeout(errs[i]), Err: errs[i]}
			r.console.LogWarning("Could not load %s from %s: %s", kind, src.Provider(), errs[i])
			continue
		}
		for _, raw := range results[i] {
			entry, err := entity.ParseCatalogEntry(raw)
			if err != nil {
				r.console.LogWarning("Skipping %s entry from %s: %s", kind, src.Provider(), err)
				continue
			}
			key := string(entry.Provider) + "/" + entry.ID
			if seen[key] {
				continue
			}
			seen[key] = true
			entries = append(entries, entry)
		}
	}

	entity.SortCatalog(entries)
	return entries
}
