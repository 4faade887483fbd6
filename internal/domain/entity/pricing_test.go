package entity

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/diillson/cloud-price-comparator/internal/shared/types"
	"github.com/shopspring/decimal"
)

func ptr(v float64) *float64 { return &v }

func TestNewPriceRecord_RoundTrip(t *testing.T) {
	in := PriceInput{
		Provider:        ProviderAWS,
		InstanceType:    "t2.micro",
		Region:          "us-east-1",
		OnDemandPrice:   ptr(0.0464),
		SpotPrice:       Price(0.0139),
		Reserved1yPrice: Price(0.0299),
	}

	rec, err := NewPriceRecord(in)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Provider() != ProviderAWS || rec.InstanceType() != "t2.micro" || rec.Region() != "us-east-1" {
		t.Fatalf("identity fields not preserved: %+v", rec)
	}
	if rec.OnDemandPrice() != 0.0464 {
		t.Fatalf("expected on-demand 0.0464, got %v", rec.OnDemandPrice())
	}
	if rec.SpotPrice() != Price(0.0139) || rec.Reserved1yPrice() != Price(0.0299) {
		t.Fatalf("optional prices not preserved: %+v", rec)
	}
	if rec.Reserved3yPrice().Present {
		t.Fatalf("expected 3-year reserved to be absent")
	}

	again, _ := NewPriceRecord(in)
	if rec != again {
		t.Fatalf("records built from the same input should be equal")
	}
}

func TestNewPriceRecord_ZeroIsNotAbsent(t *testing.T) {
	rec, err := NewPriceRecord(PriceInput{
		Provider:      ProviderGCP,
		InstanceType:  "e2-micro",
		Region:        "us-central1",
		OnDemandPrice: ptr(0),
		SpotPrice:     Price(0),
	})
	if err != nil {
		t.Fatalf("expected zero prices to be valid, got %v", err)
	}
	if !rec.SpotPrice().Present || rec.SpotPrice().Value != 0 {
		t.Fatalf("expected spot price present with value 0, got %+v", rec.SpotPrice())
	}
	if rec.Reserved1yPrice().Present {
		t.Fatalf("expected reserved 1y absent")
	}
}

func TestNewPriceRecord_Rejects(t *testing.T) {
	base := func() PriceInput {
		return PriceInput{Provider: ProviderAzure, InstanceType: "Standard_B1s", Region: "eastus", OnDemandPrice: ptr(0.05)}
	}

	tests := []struct {
		name  string
		field string
		edit  func(*PriceInput)
	}{
		{"missing on-demand", "on_demand_price", func(in *PriceInput) { in.OnDemandPrice = nil }},
		{"negative on-demand", "on_demand_price", func(in *PriceInput) { in.OnDemandPrice = ptr(-0.01) }},
		{"NaN on-demand", "on_demand_price", func(in *PriceInput) { in.OnDemandPrice = ptr(math.NaN()) }},
		{"infinite on-demand", "on_demand_price", func(in *PriceInput) { in.OnDemandPrice = ptr(math.Inf(1)) }},
		{"negative spot", "spot_price", func(in *PriceInput) { in.SpotPrice = Price(-1) }},
		{"infinite reserved 3y", "reserved_price_3y", func(in *PriceInput) { in.Reserved3yPrice = Price(math.Inf(-1)) }},
		{"unknown provider", "provider", func(in *PriceInput) { in.Provider = "oracle" }},
		{"empty instance type", "instance_type", func(in *PriceInput) { in.InstanceType = "  " }},
		{"empty region", "region", func(in *PriceInput) { in.Region = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base()
			tt.edit(&in)

			_, err := NewPriceRecord(in)
			if err == nil {
				t.Fatalf("expected an error")
			}
			if !errors.Is(err, types.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			var vErr *types.ValidationError
			if !errors.As(err, &vErr) || vErr.Field != tt.field {
				t.Fatalf("expected field %q, got %v", tt.field, err)
			}
		})
	}
}

func TestNewPriceRecord_NoUpperBound(t *testing.T) {
	// A spot price above on-demand is unusual but valid.
	if _, err := NewPriceRecord(PriceInput{
		Provider: ProviderAWS, InstanceType: "m5.large", Region: "us-east-1",
		OnDemandPrice: ptr(0.10), SpotPrice: Price(0.12),
	}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestParsePriceRecord_NumberForms(t *testing.T) {
	raw := RawPriceEntry{
		"provider":          "AWS",
		"instance_type":     "t2.micro",
		"region":            "us-east-1",
		"on_demand_price":   "0.0464",
		"spot_price":        json.Number("0.0139"),
		"reserved_price_1y": decimal.RequireFromString("0.0299"),
		"reserved_price_3y": nil,
	}

	rec, err := ParsePriceRecord(raw)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Provider() != ProviderAWS {
		t.Fatalf("expected provider to be normalised to aws, got %s", rec.Provider())
	}
	if rec.OnDemandPrice() != 0.0464 || rec.SpotPrice().Value != 0.0139 || rec.Reserved1yPrice().Value != 0.0299 {
		t.Fatalf("unexpected prices: %+v", rec)
	}
	if rec.Reserved3yPrice().Present {
		t.Fatalf("null reserved 3y should be absent")
	}
}

func TestParsePriceRecord_IntegerKinds(t *testing.T) {
	values := []any{int(2), int8(2), int16(2), int32(2), int64(2), uint(2), uint8(2), uint16(2), uint32(2), uint64(2), float32(2)}

	for _, v := range values {
		t.Run(fmt.Sprintf("%T", v), func(t *testing.T) {
			rec, err := ParsePriceRecord(RawPriceEntry{
				"provider":        "azure",
				"instance_type":   "Standard_B1s",
				"region":          "eastus",
				"on_demand_price": v,
				"spot_price":      v,
			})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if rec.OnDemandPrice() != 2 || rec.SpotPrice() != Price(2) {
				t.Fatalf("expected 2 for %T, got %+v", v, rec)
			}
		})
	}
}

func TestParsePriceRecord_FromJSON(t *testing.T) {
	var raw RawPriceEntry
	doc := `{"provider":"gcp","instance_type":"n1-standard-1","region":"us-central1","on_demand_price":0.0475,"spot_price":0.01}`
	if err := json.Unmarshal([]byte(doc), &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	rec, err := ParsePriceRecord(raw)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.OnDemandPrice() != 0.0475 || rec.SpotPrice() != Price(0.01) {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestParsePriceRecord_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  RawPriceEntry
	}{
		{"missing on-demand", RawPriceEntry{"provider": "aws", "instance_type": "t2.micro", "region": "us-east-1"}},
		{"non numeric price", RawPriceEntry{"provider": "aws", "instance_type": "t2.micro", "region": "us-east-1", "on_demand_price": "cheap"}},
		{"boolean price", RawPriceEntry{"provider": "aws", "instance_type": "t2.micro", "region": "us-east-1", "on_demand_price": true}},
		{"numeric region", RawPriceEntry{"provider": "aws", "instance_type": "t2.micro", "region": 1, "on_demand_price": 0.1}},
		{"negative string price", RawPriceEntry{"provider": "aws", "instance_type": "t2.micro", "region": "us-east-1", "on_demand_price": "-0.5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParsePriceRecord(tt.raw); !errors.Is(err, types.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestPriceRecord_MarshalJSON(t *testing.T) {
	rec, err := NewPriceRecord(PriceInput{
		Provider: ProviderAzure, InstanceType: "Standard_B1s", Region: "eastus",
		OnDemandPrice: ptr(0.0496), Reserved3yPrice: Price(0.0199),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got := string(data)
	for _, want := range []string{`"provider":"azure"`, `"on_demand_price":0.0496`, `"reserved_price_3y":0.0199`} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %s in %s", want, got)
		}
	}
}

func TestOptionalPrice_Format(t *testing.T) {
	if got := Price(0.0464).Format(); got != "$0.0464/hr" {
		t.Fatalf("expected $0.0464/hr, got %s", got)
	}
	if got := (OptionalPrice{}).Format(); got != "N/A" {
		t.Fatalf("expected N/A, got %s", got)
	}
}

func TestParseProvider(t *testing.T) {
	p, err := ParseProvider(" Azure ")
	if err != nil || p != ProviderAzure {
		t.Fatalf("expected azure, got %q (%v)", p, err)
	}
	if _, err := ParseProvider("oracle"); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}
