package entity

import (
	"fmt"
	"sort"
	"strings"
)

// Selection is the (instance type, region) pair requested by the user, with an
// optional account scope.
type Selection struct {
	InstanceType string `json:"instance_type"`
	Region       string `json:"region"`
	Scope        string `json:"scope,omitempty"`
}

// Normalize trims surrounding whitespace from every field.
func (s Selection) Normalize() Selection {
	return Selection{
		InstanceType: strings.TrimSpace(s.InstanceType),
		Region:       strings.TrimSpace(s.Region),
		Scope:        strings.TrimSpace(s.Scope),
	}
}

// Key identifies the selection for stale-response detection and cache keys.
func (s Selection) Key() string {
	return fmt.Sprintf("%s:%s:%s", s.InstanceType, s.Region, s.Scope)
}

func (s Selection) String() string {
	if s.Scope == "" {
		return fmt.Sprintf("%s in %s", s.InstanceType, s.Region)
	}
	return fmt.Sprintf("%s in %s (scope %s)", s.InstanceType, s.Region, s.Scope)
}

// FailureKind distinguishes why a provider could not be queried.
type FailureKind string

const (
	FailureTimeout     FailureKind = "timeout"
	FailureUnavailable FailureKind = "unavailable"
)

// ProviderFailure annotates a partial result with a provider that failed.
type ProviderFailure struct {
	Provider Provider    `json:"provider"`
	Kind     FailureKind `json:"kind"`
	Reason   string      `json:"reason"`
}

// RejectedRecord is a raw entry excluded because it failed validation.
type RejectedRecord struct {
	Provider Provider `json:"provider"`
	Reason   string   `json:"reason"`
}

// SavingsStatus describes the outcome of a savings computation for one tier.
type SavingsStatus string

const (
	SavingsAvailable     SavingsStatus = "available"
	SavingsNotOffered    SavingsStatus = "not_offered"
	SavingsNotApplicable SavingsStatus = "not_applicable"
)

// Savings holds the percentage saved per tier relative to on-demand. When the
// on-demand baseline is zero, NotApplicable is set and Percentages is empty.
type Savings struct {
	Percentages   map[Tier]float64 `json:"percentages"`
	NotApplicable bool             `json:"not_applicable,omitempty"`
}

// ComparisonResult is the ordered, savings-annotated comparison for one
// selection. It carries no timestamps so identical inputs compare equal.
type ComparisonResult struct {
	Selection Selection         `json:"selection"`
	Records   []PriceRecord     `json:"records"`
	Savings   []Savings         `json:"savings"` // parallel to Records
	Partial   bool              `json:"partial"`
	Failures  []ProviderFailure `json:"failures,omitempty"`
	Rejected  []RejectedRecord  `json:"rejected,omitempty"`
}

// Empty reports whether no provider returned a price for the selection.
func (r ComparisonResult) Empty() bool {
	return len(r.Records) == 0
}

// SortRecords orders records by ascending on-demand price, breaking ties by
// provider, then instance type and region. The input order never matters.
func SortRecords(records []PriceRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.OnDemandPrice() != b.OnDemandPrice() {
			return a.OnDemandPrice() < b.OnDemandPrice()
		}
		if a.Provider() != b.Provider() {
			return a.Provider() < b.Provider()
		}
		if a.InstanceType() != b.InstanceType() {
			return a.InstanceType() < b.InstanceType()
		}
		return a.Region() < b.Region()
	})
}

// TierCell is one tier column of a savings table row.
type TierCell struct {
	Tier    Tier          `json:"tier"`
	Price   OptionalPrice `json:"price"`
	Savings float64       `json:"savings_percent"`
	Status  SavingsStatus `json:"status"`
}

// SavingsRow is a tabular view of one record, ready for display or export.
type SavingsRow struct {
	Provider      Provider   `json:"provider"`
	InstanceType  string     `json:"instance_type"`
	Region        string     `json:"region"`
	OnDemandPrice float64    `json:"on_demand_price"`
	Tiers         []TierCell `json:"tiers"`
}

// TierSavings returns the savings percentages keyed by tier, omitting tiers
// without an available value.
func (r SavingsRow) TierSavings() map[Tier]float64 {
	out := make(map[Tier]float64)
	for _, c := range r.Tiers {
		if c.Status == SavingsAvailable {
			out[c.Tier] = c.Savings
		}
	}
	return out
}

// Format renders an hourly price as "$0.0464/hr", or "N/A" when not offered.
func (p OptionalPrice) Format() string {
	if !p.Present {
		return "N/A"
	}
	return fmt.Sprintf("$%.4f/hr", p.Value)
}

// SavingsLabel renders the savings of a cell, rounded to one decimal.
func (c TierCell) SavingsLabel() string {
	switch c.Status {
	case SavingsAvailable:
		return fmt.Sprintf("%.1f%%", c.Savings)
	case SavingsNotApplicable:
		return "not applicable"
	}
	return "N/A"
}
