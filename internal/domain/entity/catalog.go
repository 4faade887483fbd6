package entity

import (
	"fmt"
	"sort"
	"strings"

	"github.com/diillson/cloud-price-comparator/internal/shared/types"
)

// CatalogEntry is a region or instance type offered for selection.
type CatalogEntry struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"name"`
	Provider    Provider `json:"provider,omitempty"` // empty for provider-agnostic entries
}

// RawCatalogEntry is a loosely typed catalog item as returned by a source.
// Accepted keys: "id", "name" or "displayName", "provider".
type RawCatalogEntry map[string]any

// NewCatalogEntry validates and builds a CatalogEntry. An empty display name
// falls back to the id.
func NewCatalogEntry(id, displayName string, provider Provider) (CatalogEntry, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return CatalogEntry{}, &types.ValidationError{Provider: string(provider), Field: "id", Reason: "is required"}
	}
	if provider != "" && !provider.Valid() {
		return CatalogEntry{}, &types.ValidationError{Provider: string(provider), Field: "provider", Reason: fmt.Sprintf("unknown provider %q", provider)}
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = id
	}
	return CatalogEntry{ID: id, DisplayName: displayName, Provider: provider}, nil
}

// ParseCatalogEntry converts a raw catalog item into a CatalogEntry.
func ParseCatalogEntry(raw RawCatalogEntry) (CatalogEntry, error) {
	provider, err := rawString(raw, "", "provider")
	if err != nil {
		return CatalogEntry{}, err
	}
	id, err := rawString(raw, provider, "id")
	if err != nil {
		return CatalogEntry{}, err
	}
	name, err := rawString(raw, provider, "name")
	if err != nil {
		return CatalogEntry{}, err
	}
	if name == "" {
		if name, err = rawString(raw, provider, "displayName"); err != nil {
			return CatalogEntry{}, err
		}
	}
	return NewCatalogEntry(id, name, Provider(strings.ToLower(provider)))
}

// SortCatalog orders entries by id, then provider.
func SortCatalog(entries []CatalogEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].ID != entries[j].ID {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].Provider < entries[j].Provider
	})
}

// AccountScope is an account or subscription under which catalogs and prices
// may differ.
type AccountScope struct {
	ID          string   `json:"scope_id"`
	DisplayName string   `json:"display_name"`
	State       string   `json:"state"`
	Provider    Provider `json:"provider"`
}

// RawScope is a loosely typed scope item. Accepted keys: "scopeId" or
// "subscriptionId", "displayName", "state", "provider".
type RawScope map[string]any

// Disabled reports whether the scope should be flagged to the user. Disabled
// scopes remain listable and selectable.
func (s AccountScope) Disabled() bool {
	switch strings.ToLower(s.State) {
	case "disabled", "deleted", "expired":
		return true
	}
	return false
}

// ParseAccountScope converts a raw scope into an AccountScope.
func ParseAccountScope(raw RawScope) (AccountScope, error) {
	provider, err := rawString(raw, "", "provider")
	if err != nil {
		return AccountScope{}, err
	}
	p := Provider(strings.ToLower(provider))
	if !p.Valid() {
		return AccountScope{}, &types.ValidationError{Provider: provider, Field: "provider", Reason: fmt.Sprintf("unknown provider %q", provider)}
	}

	id, err := rawString(raw, provider, "scopeId")
	if err != nil {
		return AccountScope{}, err
	}
	if id == "" {
		if id, err = rawString(raw, provider, "subscriptionId"); err != nil {
			return AccountScope{}, err
		}
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return AccountScope{}, &types.ValidationError{Provider: provider, Field: "scopeId", Reason: "is required"}
	}

	name, err := rawString(raw, provider, "displayName")
	if err != nil {
		return AccountScope{}, err
	}
	if strings.TrimSpace(name) == "" {
		name = id
	}
	state, err := rawString(raw, provider, "state")
	if err != nil {
		return AccountScope{}, err
	}
	if state == "" {
		state = "Enabled"
	}

	return AccountScope{ID: id, DisplayName: name, State: state, Provider: p}, nil
}
