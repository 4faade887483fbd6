package gcp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/diillson/cloud-price-comparator/internal/domain/entity"
)

func skuJSON(description, usage string, regions []string, nanos ...int64) map[string]interface{} {
	rates := make([]map[string]interface{}, 0, len(nanos))
	for i, n := range nanos {
		rates = append(rates, map[string]interface{}{
			"startUsageAmount": i,
			"unitPrice":        map[string]interface{}{"currencyCode": "USD", "units": "0", "nanos": n},
		})
	}
	return map[string]interface{}{
		"description":    description,
		"category":       map[string]string{"resourceFamily": "Compute", "resourceGroup": "N1Standard", "usageType": usage},
		"serviceRegions": regions,
		"pricingInfo": []map[string]interface{}{{
			"pricingExpression": map[string]interface{}{"usageUnit": "h", "tieredRates": rates},
		}},
	}
}

func newCatalogServer(t *testing.T) *httptest.Server {
	t.Helper()
	central := []string{"us-central1", "us-east1"}

	first := []map[string]interface{}{
		skuJSON("N1 Predefined Instance Core running in Americas", "OnDemand", central, 0, 31611000),
		skuJSON("N1 Predefined Instance Core running in EMEA", "OnDemand", []string{"europe-west1"}, 34773000),
		skuJSON("Custom Instance Core running in Americas", "OnDemand", central, 33174000),
		skuJSON("N2 Instance Core running in Americas", "OnDemand", central, 31611000),
	}
	second := []map[string]interface{}{
		skuJSON("N1 Predefined Instance Ram running in Americas", "OnDemand", central, 4237000),
		skuJSON("Spot Preemptible N1 Predefined Instance Core running in Americas", "Preemptible", central, 6980000),
		skuJSON("Spot Preemptible N1 Predefined Instance Ram running in Americas", "Preemptible", central, 940000),
		skuJSON("Commitment v1: Cpu in Americas for 1 Year", "Commit1Yr", central, 19915000),
		skuJSON("Commitment v1: Ram in Americas for 1 Year", "Commit1Yr", central, 2669000),
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/services/6F81-5844-456A/skus" {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		if q.Get("key") != "test-key" || q.Get("currencyCode") != "USD" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		page := map[string]interface{}{"skus": first, "nextPageToken": "page-2"}
		if q.Get("pageToken") == "page-2" {
			page = map[string]interface{}{"skus": second}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(page); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
}

func TestFetchPrices_ComposesMachineRates(t *testing.T) {
	server := newCatalogServer(t)
	defer server.Close()

	client := NewClient(server.URL, "test-key", time.Second)

	entries, err := client.FetchPrices(context.Background(), "n1-standard-1", "us-central1", "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	rec, err := entity.ParsePriceRecord(entries[0])
	if err != nil {
		t.Fatalf("expected a valid record, got %v", err)
	}
	// 1 vCPU + 3.75 GB
	if rec.OnDemandPrice() != 0.04749975 {
		t.Fatalf("expected on-demand 0.04749975, got %v", rec.OnDemandPrice())
	}
	if rec.SpotPrice() != entity.Price(0.010505) {
		t.Fatalf("expected spot 0.010505, got %+v", rec.SpotPrice())
	}
	if rec.Reserved1yPrice() != entity.Price(0.02992375) {
		t.Fatalf("expected 1y commitment 0.02992375, got %+v", rec.Reserved1yPrice())
	}
	if rec.Reserved3yPrice().Present {
		t.Fatalf("expected no 3y commitment price")
	}
}

func TestFetchPrices_RegionWithoutRates(t *testing.T) {
	server := newCatalogServer(t)
	defer server.Close()

	entries, err := NewClient(server.URL, "test-key", time.Second).FetchPrices(context.Background(), "n1-standard-1", "asia-east1", "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %v", entries)
	}
}

func TestFetchPrices_MissingAPIKey(t *testing.T) {
	_, err := NewClient("", "", time.Second).FetchPrices(context.Background(), "n1-standard-1", "us-central1", "")
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestFetchPrices_Forbidden(t *testing.T) {
	server := newCatalogServer(t)
	defer server.Close()

	if _, err := NewClient(server.URL, "wrong", time.Second).FetchPrices(context.Background(), "n1-standard-1", "us-central1", ""); err == nil {
		t.Fatalf("expected an error for a rejected key")
	}
}

func TestParseMachineType(t *testing.T) {
	tests := []struct {
		name   string
		ok     bool
		family string
		vcpus  string
		mem    string
	}{
		{"n1-standard-1", true, "n1", "1", "3.75"},
		{"n1-highmem-2", true, "n1", "2", "13"},
		{"n2-standard-4", true, "n2", "4", "16"},
		{"e2-highcpu-8", true, "e2", "8", "8"},
		{"e2-micro", false, "", "", ""},
		{"n2-custom-4", false, "", "", ""},
		{"n1-standard-x", false, "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shape, ok := parseMachineType(tt.name)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if !ok {
				return
			}
			if shape.family != tt.family || shape.vcpus.String() != tt.vcpus || shape.memGB.String() != tt.mem {
				t.Fatalf("unexpected shape %s/%s/%s", shape.family, shape.vcpus, shape.memGB)
			}
		})
	}
}

func TestMatchesFamily(t *testing.T) {
	tests := []struct {
		description, family, usage string
		want                       bool
	}{
		{"N2 Instance Core running in Americas", "n2", usageOnDemand, true},
		{"N2 Instance Core running in Americas", "n1", usageOnDemand, false},
		{"N2D AMD Instance Core running in Americas", "n2", usageOnDemand, false},
		{"Preemptible N1 Predefined Instance Ram running in Americas", "n1", usagePreemptible, true},
		{"Commitment v1: N2 Cpu in Americas for 3 Year", "n2", usageCommit3Yr, true},
		{"Commitment v1: Cpu in Americas for 1 Year", "n1", usageCommit1Yr, true},
		{"Commitment v1: Cpu in Americas for 1 Year", "n2", usageCommit1Yr, false},
		{"N1 Predefined Instance Core running on Sole Tenancy", "n1", usageOnDemand, false},
	}

	for _, tt := range tests {
		if got := matchesFamily(tt.description, tt.family, tt.usage); got != tt.want {
			t.Fatalf("%q (%s): expected %v, got %v", tt.description, tt.family, tt.want, got)
		}
	}
}
