package entity

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/diillson/cloud-price-comparator/internal/shared/types"
	"github.com/shopspring/decimal"
)

// Provider identifies a pricing source.
type Provider string

const (
	ProviderAWS   Provider = "aws"
	ProviderAzure Provider = "azure"
	ProviderGCP   Provider = "gcp"
)

// AllProviders returns every supported provider in lexicographic order.
func AllProviders() []Provider {
	return []Provider{ProviderAWS, ProviderAzure, ProviderGCP}
}

// ParseProvider converts a case-insensitive name into a Provider.
func ParseProvider(name string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(name)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown provider %q (expected aws, azure or gcp)", name)
	}
	return p, nil
}

// Valid reports whether p is one of the supported providers.
func (p Provider) Valid() bool {
	switch p {
	case ProviderAWS, ProviderAzure, ProviderGCP:
		return true
	}
	return false
}

// Tier is a pricing plan variant.
type Tier string

const (
	TierOnDemand   Tier = "On-Demand"
	TierSpot       Tier = "Spot"
	TierReserved1y Tier = "1-Year Reserved"
	TierReserved3y Tier = "3-Year Reserved"
)

// OptionalTiers are the tiers compared against on-demand, in display order.
func OptionalTiers() []Tier {
	return []Tier{TierSpot, TierReserved1y, TierReserved3y}
}

// OptionalPrice is an hourly price that a provider may not offer.
// The zero value means "not offered", which is distinct from a price of 0.
type OptionalPrice struct {
	Value   float64 `json:"value"`
	Present bool    `json:"present"`
}

// Price returns a present OptionalPrice.
func Price(v float64) OptionalPrice {
	return OptionalPrice{Value: v, Present: true}
}

// PriceInput carries unvalidated values for NewPriceRecord. A nil OnDemandPrice
// means the source did not report one.
type PriceInput struct {
	Provider        Provider
	InstanceType    string
	Region          string
	OnDemandPrice   *float64
	SpotPrice       OptionalPrice
	Reserved1yPrice OptionalPrice
	Reserved3yPrice OptionalPrice
}

// PriceRecord is one provider's hourly price for an (instance type, region)
// pair. It is immutable and comparable with ==.
type PriceRecord struct {
	provider     Provider
	instanceType string
	region       string
	onDemand     float64
	spot         OptionalPrice
	reserved1y   OptionalPrice
	reserved3y   OptionalPrice
}

// NewPriceRecord validates in and builds a PriceRecord.
func NewPriceRecord(in PriceInput) (PriceRecord, error) {
	provider := string(in.Provider)
	if !in.Provider.Valid() {
		return PriceRecord{}, &types.ValidationError{Provider: provider, Field: "provider", Reason: fmt.Sprintf("unknown provider %q", provider)}
	}
	if strings.TrimSpace(in.InstanceType) == "" {
		return PriceRecord{}, &types.ValidationError{Provider: provider, Field: "instance_type", Reason: "is required"}
	}
	if strings.TrimSpace(in.Region) == "" {
		return PriceRecord{}, &types.ValidationError{Provider: provider, Field: "region", Reason: "is required"}
	}
	if in.OnDemandPrice == nil {
		return PriceRecord{}, &types.ValidationError{Provider: provider, Field: "on_demand_price", Reason: "is required"}
	}
	if err := checkPrice(provider, "on_demand_price", *in.OnDemandPrice); err != nil {
		return PriceRecord{}, err
	}

	optional := []struct {
		field string
		price OptionalPrice
	}{
		{"spot_price", in.SpotPrice},
		{"reserved_price_1y", in.Reserved1yPrice},
		{"reserved_price_3y", in.Reserved3yPrice},
	}
	for _, o := range optional {
		if !o.price.Present {
			continue
		}
		if err := checkPrice(provider, o.field, o.price.Value); err != nil {
			return PriceRecord{}, err
		}
	}

	return PriceRecord{
		provider:     in.Provider,
		instanceType: in.InstanceType,
		region:       in.Region,
		onDemand:     *in.OnDemandPrice,
		spot:         in.SpotPrice,
		reserved1y:   in.Reserved1yPrice,
		reserved3y:   in.Reserved3yPrice,
	}, nil
}

func checkPrice(provider, field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &types.ValidationError{Provider: provider, Field: field, Reason: "must be a finite number"}
	}
	if v < 0 {
		return &types.ValidationError{Provider: provider, Field: field, Reason: fmt.Sprintf("must not be negative (got %v)", v)}
	}
	return nil
}

func (r PriceRecord) Provider() Provider             { return r.provider }
func (r PriceRecord) InstanceType() string           { return r.instanceType }
func (r PriceRecord) Region() string                 { return r.region }
func (r PriceRecord) OnDemandPrice() float64         { return r.onDemand }
func (r PriceRecord) SpotPrice() OptionalPrice       { return r.spot }
func (r PriceRecord) Reserved1yPrice() OptionalPrice { return r.reserved1y }
func (r PriceRecord) Reserved3yPrice() OptionalPrice { return r.reserved3y }

// TierPrice returns the price for any tier; on-demand is always present.
func (r PriceRecord) TierPrice(t Tier) OptionalPrice {
	switch t {
	case TierOnDemand:
		return Price(r.onDemand)
	case TierSpot:
		return r.spot
	case TierReserved1y:
		return r.reserved1y
	case TierReserved3y:
		return r.reserved3y
	}
	return OptionalPrice{}
}

type priceRecordJSON struct {
	Provider        Provider `json:"provider"`
	InstanceType    string   `json:"instance_type"`
	Region          string   `json:"region"`
	OnDemandPrice   float64  `json:"on_demand_price"`
	SpotPrice       *float64 `json:"spot_price,omitempty"`
	Reserved1yPrice *float64 `json:"reserved_price_1y,omitempty"`
	Reserved3yPrice *float64 `json:"reserved_price_3y,omitempty"`
}

func optionalPtr(p OptionalPrice) *float64 {
	if !p.Present {
		return nil
	}
	v := p.Value
	return &v
}

// MarshalJSON emits the same field names accepted by ParsePriceRecord.
func (r PriceRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(priceRecordJSON{
		Provider:        r.provider,
		InstanceType:    r.instanceType,
		Region:          r.region,
		OnDemandPrice:   r.onDemand,
		SpotPrice:       optionalPtr(r.spot),
		Reserved1yPrice: optionalPtr(r.reserved1y),
		Reserved3yPrice: optionalPtr(r.reserved3y),
	})
}

// RawPriceEntry is a loosely typed price entry as decoded from a source's JSON.
type RawPriceEntry map[string]any

// ParsePriceRecord converts a raw entry into a validated PriceRecord.
func ParsePriceRecord(raw RawPriceEntry) (PriceRecord, error) {
	provider, _ := raw["provider"].(string)
	in := PriceInput{Provider: Provider(strings.ToLower(provider))}

	var err error
	if in.InstanceType, err = rawString(raw, provider, "instance_type"); err != nil {
		return PriceRecord{}, err
	}
	if in.Region, err = rawString(raw, provider, "region"); err != nil {
		return PriceRecord{}, err
	}

	onDemand, err := rawPrice(raw, provider, "on_demand_price")
	if err != nil {
		return PriceRecord{}, err
	}
	if onDemand.Present {
		in.OnDemandPrice = &onDemand.Value
	}
	if in.SpotPrice, err = rawPrice(raw, provider, "spot_price"); err != nil {
		return PriceRecord{}, err
	}
	if in.Reserved1yPrice, err = rawPrice(raw, provider, "reserved_price_1y"); err != nil {
		return PriceRecord{}, err
	}
	if in.Reserved3yPrice, err = rawPrice(raw, provider, "reserved_price_3y"); err != nil {
		return PriceRecord{}, err
	}

	return NewPriceRecord(in)
}

func rawString(raw map[string]any, provider, key string) (string, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", &types.ValidationError{Provider: provider, Field: key, Reason: fmt.Sprintf("expected a string, got %T", v)}
	}
	return s, nil
}

func rawPrice(raw map[string]any, provider, key string) (OptionalPrice, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return OptionalPrice{}, nil
	}

	switch n := v.(type) {
	case float64:
		return Price(n), nil
	case float32:
		return Price(float64(n)), nil
	case int:
		return Price(float64(n)), nil
	case int8:
		return Price(float64(n)), nil
	case int16:
		return Price(float64(n)), nil
	case int32:
		return Price(float64(n)), nil
	case int64:
		return Price(float64(n)), nil
	case uint:
		return Price(float64(n)), nil
	case uint8:
		return Price(float64(n)), nil
	case uint16:
		return Price(float64(n)), nil
	case uint32:
		return Price(float64(n)), nil
	case uint64:
		return Price(float64(n)), nil
	case json.Number:
		return parseDecimal(provider, key, n.String())
	case decimal.Decimal:
		return Price(n.InexactFloat64()), nil
	case string:
		return parseDecimal(provider, key, n)
	}
	return OptionalPrice{}, &types.ValidationError{Provider: provider, Field: key, Reason: fmt.Sprintf("expected a number, got %T", v)}
}

func parseDecimal(provider, key, s string) (OptionalPrice, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return OptionalPrice{}, &types.ValidationError{Provider: provider, Field: key, Reason: fmt.Sprintf("%q is not a finite number", s)}
	}
	return Price(d.InexactFloat64()), nil
}
