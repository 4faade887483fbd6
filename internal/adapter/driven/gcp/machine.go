package gcp

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	usageOnDemand    = "OnDemand"
	usagePreemptible = "Preemptible"
	usageCommit1Yr   = "Commit1Yr"
	usageCommit3Yr   = "Commit3Yr"
)

// machineShape is the resource footprint of a predefined machine type.
type machineShape struct {
	family string
	vcpus  decimal.Decimal
	memGB  decimal.Decimal
}

// Memory per vCPU for predefined classes. N1 uses its own ratios.
var memPerVCPU = map[string]map[string]string{
	"n1": {"standard": "3.75", "highmem": "6.5", "highcpu": "0.9"},
	"*":  {"standard": "4", "highmem": "8", "highcpu": "1"},
}

// parseMachineType understands names like "n2-standard-4".
func parseMachineType(name string) (machineShape, bool) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(name)), "-")
	if len(parts) != 3 {
		return machineShape{}, false
	}
	family, class := parts[0], parts[1]

	n, err := strconv.Atoi(parts[2])
	if err != nil || n <= 0 {
		return machineShape{}, false
	}

	ratios, ok := memPerVCPU[family]
	if !ok {
		ratios = memPerVCPU["*"]
	}
	ratio, ok := ratios[class]
	if !ok {
		return machineShape{}, false
	}

	vcpus := decimal.NewFromInt(int64(n))
	return machineShape{
		family: family,
		vcpus:  vcpus,
		memGB:  vcpus.Mul(decimal.RequireFromString(ratio)),
	}, true
}

type resourceRates struct {
	core *decimal.Decimal
	ram  *decimal.Decimal
}

// rateTable maps usage type to the core and RAM rates of one family and region.
type rateTable map[string]*resourceRates

func (t rateTable) price(usage string, shape machineShape) (decimal.Decimal, bool) {
	r, ok := t[usage]
	if !ok || r.core == nil || r.ram == nil {
		return decimal.Decimal{}, false
	}
	return shape.vcpus.Mul(*r.core).Add(shape.memGB.Mul(*r.ram)), true
}

// collectRates picks the core and RAM SKUs of family in region.
func collectRates(skus []sku, family, region string) rateTable {
	table := rateTable{}
	for _, s := range skus {
		if s.Category.ResourceFamily != "Compute" || !servesRegion(s, region) {
			continue
		}
		usage := s.Category.UsageType
		switch usage {
		case usageOnDemand, usagePreemptible, usageCommit1Yr, usageCommit3Yr:
		default:
			continue
		}
		if !matchesFamily(s.Description, family, usage) {
			continue
		}

		kind := resourceKind(s.Description)
		if kind == "" {
			continue
		}
		price, ok := hourlyPrice(s)
		if !ok {
			continue
		}

		r, ok := table[usage]
		if !ok {
			r = &resourceRates{}
			table[usage] = r
		}
		if kind == "core" && r.core == nil {
			r.core = &price
		}
		if kind == "ram" && r.ram == nil {
			r.ram = &price
		}
	}
	return table
}

func servesRegion(s sku, region string) bool {
	for _, r := range s.ServiceRegions {
		if r == region {
			return true
		}
	}
	return false
}

var excludedVariants = []string{"custom", "sole tenancy", "extended", "premium", "gpu", "local ssd"}

// matchesFamily recognises descriptions such as "N2 Instance Core running in
// Americas", "N1 Predefined Instance Ram running in EMEA" and
// "Commitment v1: N2 Cpu in Americas for 1 Year". N1 commitments carry no
// family prefix.
func matchesFamily(description, family, usage string) bool {
	d := strings.ToLower(description)
	for _, v := range excludedVariants {
		if strings.Contains(d, v) {
			return false
		}
	}

	commitment := usage == usageCommit1Yr || usage == usageCommit3Yr
	if commitment {
		d = strings.TrimSpace(strings.TrimPrefix(d, "commitment v1:"))
		if family == "n1" && (strings.HasPrefix(d, "cpu ") || strings.HasPrefix(d, "ram ")) {
			return true
		}
	}
	if strings.HasPrefix(d, "spot preemptible ") {
		d = strings.TrimPrefix(d, "spot preemptible ")
	} else if strings.HasPrefix(d, "preemptible ") {
		d = strings.TrimPrefix(d, "preemptible ")
	}
	return strings.HasPrefix(d, family+" ")
}

func resourceKind(description string) string {
	d := strings.ToLower(description)
	switch {
	case strings.Contains(d, " core ") || strings.Contains(d, " cpu "):
		return "core"
	case strings.Contains(d, " ram "):
		return "ram"
	}
	return ""
}

func hourlyPrice(s sku) (decimal.Decimal, bool) {
	if len(s.PricingInfo) == 0 {
		return decimal.Decimal{}, false
	}
	expr := s.PricingInfo[0].PricingExpression
	if len(expr.TieredRates) == 0 {
		return decimal.Decimal{}, false
	}
	// The last tier is the steady-state rate; the first is often a free tier.
	rate := expr.TieredRates[len(expr.TieredRates)-1]
	price, err := rate.UnitPrice.decimal()
	if err != nil {
		return decimal.Decimal{}, false
	}
	return price, true
}
