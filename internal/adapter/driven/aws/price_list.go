package aws

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// priceListItem is the subset of a Price List API product document we read.
type priceListItem struct {
	Product struct {
		Attributes map[string]string `json:"attributes"`
	} `json:"product"`
	Terms struct {
		OnDemand map[string]priceTerm `json:"OnDemand"`
		Reserved map[string]priceTerm `json:"Reserved"`
	} `json:"terms"`
}

type priceTerm struct {
	PriceDimensions map[string]priceDimension `json:"priceDimensions"`
	TermAttributes  map[string]string         `json:"termAttributes"`
}

type priceDimension struct {
	Unit         string            `json:"unit"`
	PricePerUnit map[string]string `json:"pricePerUnit"`
}

// hourlyTerms are the hourly USD prices extracted from one product.
type hourlyTerms struct {
	OnDemand   decimal.Decimal
	Reserved1y *decimal.Decimal
	Reserved3y *decimal.Decimal
}

// parsePriceList returns the terms of the first product with an hourly
// on-demand rate. Reserved prices are standard, no-upfront offerings.
func parsePriceList(priceList []string) (hourlyTerms, bool, error) {
	for _, raw := range priceList {
		var item priceListItem
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			return hourlyTerms{}, false, fmt.Errorf("error decoding price list item: %w", err)
		}

		onDemand, ok := hourlyRate(item.Terms.OnDemand, nil)
		if !ok {
			continue
		}

		terms := hourlyTerms{OnDemand: onDemand}
		if p, ok := hourlyRate(item.Terms.Reserved, reservedTerm("1yr")); ok {
			terms.Reserved1y = &p
		}
		if p, ok := hourlyRate(item.Terms.Reserved, reservedTerm("3yr")); ok {
			terms.Reserved3y = &p
		}
		return terms, true, nil
	}
	return hourlyTerms{}, false, nil
}

func reservedTerm(length string) func(map[string]string) bool {
	return func(attrs map[string]string) bool {
		return attrs["LeaseContractLength"] == length &&
			strings.EqualFold(attrs["OfferingClass"], "standard") &&
			strings.EqualFold(attrs["PurchaseOption"], "No Upfront")
	}
}

// hourlyRate returns the first USD "Hrs" rate among the terms accepted by match.
func hourlyRate(terms map[string]priceTerm, match func(map[string]string) bool) (decimal.Decimal, bool) {
	for _, term := range terms {
		if match != nil && !match(term.TermAttributes) {
			continue
		}
		for _, dim := range term.PriceDimensions {
			if !strings.EqualFold(dim.Unit, "Hrs") {
				continue
			}
			usd, ok := dim.PricePerUnit["USD"]
			if !ok {
				continue
			}
			price, err := decimal.NewFromString(usd)
			if err != nil {
				continue
			}
			return price, true
		}
	}
	return decimal.Decimal{}, false
}
