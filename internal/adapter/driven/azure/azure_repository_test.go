package azure

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/diillson/cloud-price-comparator/internal/domain/entity"
)

func writeJSON(t *testing.T, w http.ResponseWriter, v interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func TestFetchPrices_RetailAPI(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/prices":
			filter := r.URL.Query().Get("$filter")
			if !strings.Contains(filter, "armRegionName eq 'eastus'") || !strings.Contains(filter, "armSkuName eq 'Standard_B1s'") {
				t.Errorf("unexpected filter %q", filter)
			}
			writeJSON(t, w, map[string]interface{}{
				"Items": []map[string]interface{}{
					{"type": "Consumption", "retailPrice": 0.0104, "skuName": "B1s", "productName": "Virtual Machines BS Series"},
					{"type": "Consumption", "retailPrice": 0.0146, "skuName": "B1s", "productName": "Virtual Machines BS Series Windows"},
					{"type": "Consumption", "retailPrice": 0.0021, "skuName": "B1s Low Priority", "productName": "Virtual Machines BS Series"},
				},
				"NextPageLink": server.URL + "/prices/page2",
			})
		case "/prices/page2":
			writeJSON(t, w, map[string]interface{}{
				"Items": []map[string]interface{}{
					{"type": "Consumption", "retailPrice": 0.0031, "skuName": "B1s Spot", "productName": "Virtual Machines BS Series"},
					{"type": "Reservation", "unitPrice": 262.8, "reservationTerm": "1 Year", "productName": "Virtual Machines BS Series"},
					{"type": "Reservation", "unitPrice": 394.2, "reservationTerm": "3 Years", "productName": "Virtual Machines BS Series"},
				},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewClient(time.Second, WithRetailURL(server.URL+"/prices"))

	entries, err := client.FetchPrices(context.Background(), "Standard_B1s", "eastus", "")
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
	if rec.OnDemandPrice() != 0.0104 {
		t.Fatalf("expected Linux on-demand 0.0104, got %v", rec.OnDemandPrice())
	}
	if rec.SpotPrice() != entity.Price(0.0031) {
		t.Fatalf("expected spot 0.0031, got %+v", rec.SpotPrice())
	}
	if rec.Reserved1yPrice() != entity.Price(0.03) || rec.Reserved3yPrice() != entity.Price(0.015) {
		t.Fatalf("expected hourly reservation prices, got %+v / %+v", rec.Reserved1yPrice(), rec.Reserved3yPrice())
	}
}

func TestFetchPrices_NoMeters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]interface{}{"Items": []interface{}{}})
	}))
	defer server.Close()

	entries, err := NewClient(time.Second, WithRetailURL(server.URL)).FetchPrices(context.Background(), "t2.micro", "eastus", "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries for an unknown SKU, got %v", entries)
	}
}

func TestFetchPrices_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewClient(time.Second, WithRetailURL(server.URL)).FetchPrices(context.Background(), "Standard_B1s", "eastus", "")
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Fatalf("expected a 503 error, got %v", err)
	}
}

func TestFetchAccountScopes(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer token-123" {
			t.Errorf("unexpected authorization header %q", got)
		}
		if r.URL.Query().Get("skiptoken") == "" {
			writeJSON(t, w, map[string]interface{}{
				"value":    []map[string]string{{"subscriptionId": "sub-1", "displayName": "Main", "state": "Enabled"}},
				"nextLink": server.URL + "/subscriptions?api-version=2022-12-01&skiptoken=2",
			})
			return
		}
		writeJSON(t, w, map[string]interface{}{
			"value": []map[string]string{{"subscriptionId": "sub-2", "displayName": "Old", "state": "Disabled"}},
		})
	}))
	defer server.Close()

	client := NewClient(time.Second, WithARMURL(server.URL), WithAccessToken("token-123"))

	raw, err := client.FetchAccountScopes(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(raw) != 2 {
		t.Fatalf("expected 2 subscriptions, got %d", len(raw))
	}
	scope, err := entity.ParseAccountScope(raw[1])
	if err != nil {
		t.Fatalf("expected a valid scope, got %v", err)
	}
	if scope.ID != "sub-2" || !scope.Disabled() || scope.Provider != entity.ProviderAzure {
		t.Fatalf("unexpected scope: %+v", scope)
	}
}

func TestFetchAccountScopes_NoToken(t *testing.T) {
	raw, err := NewClient(time.Second, WithARMURL("http://127.0.0.1:0")).FetchAccountScopes(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(raw) != 0 {
		t.Fatalf("expected no scopes without a token, got %v", raw)
	}
}

func TestFetchRegions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/subscriptions/sub-1/locations" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		writeJSON(t, w, map[string]interface{}{
			"value": []map[string]interface{}{
				{"name": "eastus", "displayName": "East US", "metadata": map[string]string{"regionType": "Physical"}},
				{"name": "eastusstg", "displayName": "East US (Stage)", "metadata": map[string]string{"regionType": "Logical"}},
			},
		})
	}))
	defer server.Close()

	client := NewClient(time.Second, WithARMURL(server.URL), WithAccessToken("t"))

	entries, err := client.FetchRegions(context.Background(), "sub-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(entries) != 1 || entries[0]["id"] != "eastus" {
		t.Fatalf("expected only physical regions, got %v", entries)
	}

	fallback, err := client.FetchRegions(context.Background(), "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(fallback) == 0 {
		t.Fatalf("expected the built-in region list without a scope")
	}
}

func TestCollectPrices_KeepsLowest(t *testing.T) {
	prices := collectPrices([]retailItem{
		{Type: "Consumption", RetailPrice: "0.20", SkuName: "D2s v3"},
		{Type: "Consumption", RetailPrice: "0.096", SkuName: "D2s v3"},
		{Type: "Consumption", RetailPrice: "0.05", MeterName: "D2s v3 Spot"},
		{Type: "Reservation", UnitPrice: "500", ReservationTerm: "5 Years"},
	})
	if prices.onDemand == nil || prices.onDemand.String() != "0.096" {
		t.Fatalf("expected lowest on-demand 0.096, got %v", prices.onDemand)
	}
	if prices.spot == nil || prices.spot.String() != "0.05" {
		t.Fatalf("expected spot 0.05, got %v", prices.spot)
	}
	if prices.reserved1y != nil || prices.reserved3y != nil {
		t.Fatalf("unknown reservation terms must be ignored")
	}
}
