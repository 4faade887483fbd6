// Package savings derives the percentage saved by spot and reserved tiers
// relative to the on-demand price of a record.
package savings

import (
	"github.com/diillson/cloud-price-comparator/internal/domain/entity"
)

// Percent returns (baseline - price) / baseline * 100. The caller must ensure
// baseline > 0. The value is neither rounded nor clamped.
func Percent(baseline, price float64) float64 {
	return (baseline - price) / baseline * 100
}

// Calculate computes savings for every tier the record offers. A zero on-demand
// baseline yields a NotApplicable result with no entries.
func Calculate(rec entity.PriceRecord) entity.Savings {
	out := entity.Savings{Percentages: make(map[entity.Tier]float64)}

	baseline := rec.OnDemandPrice()
	if baseline <= 0 {
		out.NotApplicable = true
		return out
	}

	for _, tier := range entity.OptionalTiers() {
		p := rec.TierPrice(tier)
		if !p.Present {
			continue
		}
		out.Percentages[tier] = Percent(baseline, p.Value)
	}
	return out
}

// ForTier returns the savings for a single tier along with its status.
func ForTier(rec entity.PriceRecord, tier entity.Tier) (float64, entity.SavingsStatus) {
	p := rec.TierPrice(tier)
	if !p.Present {
		return 0, entity.SavingsNotOffered
	}
	if rec.OnDemandPrice() <= 0 {
		return 0, entity.SavingsNotApplicable
	}
	return Percent(rec.OnDemandPrice(), p.Value), entity.SavingsAvailable
}

// Row builds the tabular view of a record.
func Row(rec entity.PriceRecord) entity.SavingsRow {
	row := entity.SavingsRow{
		Provider:      rec.Provider(),
		InstanceType:  rec.InstanceType(),
		Region:        rec.Region(),
		OnDemandPrice: rec.OnDemandPrice(),
	}
	for _, tier := range entity.OptionalTiers() {
		pct, status := ForTier(rec, tier)
		row.Tiers = append(row.Tiers, entity.TierCell{
			Tier:    tier,
			Price:   rec.TierPrice(tier),
			Savings: pct,
			Status:  status,
		})
	}
	return row
}
