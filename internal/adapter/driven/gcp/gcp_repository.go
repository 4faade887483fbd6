// Package gcp prices Compute Engine machine types from the Cloud Billing
// Catalog API by combining per-vCPU and per-GB SKU rates.
package gcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/diillson/cloud-price-comparator/internal/adapter/driven/static"
	"github.com/diillson/cloud-price-comparator/internal/domain/entity"
	"github.com/diillson/cloud-price-comparator/internal/domain/repository"
	"github.com/shopspring/decimal"
)

const (
	DefaultCatalogURL = "https://cloudbilling.googleapis.com/v1"

	// Compute Engine service id in the billing catalog.
	computeServiceID = "6F81-5844-456A"

	maxPages = 50
)

// ErrMissingAPIKey is returned when no API key is configured.
var ErrMissingAPIKey = errors.New("GCP API key not configured")

// Client is a PriceSource for Compute Engine.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	fallback   static.Catalog
}

var _ repository.PriceSource = (*Client)(nil)

// NewClient creates a billing catalog client. An empty baseURL uses the
// public endpoint.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultCatalogURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: timeout},
		fallback:   static.DefaultCatalog(entity.ProviderGCP),
	}
}

func (c *Client) Provider() entity.Provider {
	return entity.ProviderGCP
}

type skuPage struct {
	Skus          []sku  `json:"skus"`
	NextPageToken string `json:"nextPageToken"`
}

type sku struct {
	Description string `json:"description"`
	Category    struct {
		ResourceFamily string `json:"resourceFamily"`
		ResourceGroup  string `json:"resourceGroup"`
		UsageType      string `json:"usageType"`
	} `json:"category"`
	ServiceRegions []string `json:"serviceRegions"`
	PricingInfo    []struct {
		PricingExpression struct {
			UsageUnit   string `json:"usageUnit"`
			TieredRates []struct {
				StartUsageAmount float64 `json:"startUsageAmount"`
				UnitPrice        money   `json:"unitPrice"`
			} `json:"tieredRates"`
		} `json:"pricingExpression"`
	} `json:"pricingInfo"`
}

type money struct {
	CurrencyCode string `json:"currencyCode"`
	Units        string `json:"units"`
	Nanos        int64  `json:"nanos"`
}

func (m money) decimal() (decimal.Decimal, error) {
	units := decimal.Zero
	if m.Units != "" {
		u, err := decimal.NewFromString(m.Units)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("invalid units %q: %w", m.Units, err)
		}
		units = u
	}
	return units.Add(decimal.New(m.Nanos, -9)), nil
}

// FetchPrices returns the hourly price of a predefined machine type as
// vCPUs x core rate + memory GB x RAM rate, per usage type.
func (c *Client) FetchPrices(ctx context.Context, instanceType, region, scope string) ([]entity.RawPriceEntry, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	shape, ok := parseMachineType(instanceType)
	if !ok {
		return []entity.RawPriceEntry{}, nil
	}

	skus, err := c.listSkus(ctx)
	if err != nil {
		return nil, err
	}

	rates := collectRates(skus, shape.family, region)
	onDemand, ok := rates.price(usageOnDemand, shape)
	if !ok {
		return []entity.RawPriceEntry{}, nil
	}

	entry := entity.RawPriceEntry{
		"provider":        string(entity.ProviderGCP),
		"instance_type":   instanceType,
		"region":          region,
		"on_demand_price": onDemand.String(),
	}
	if p, ok := rates.price(usagePreemptible, shape); ok {
		entry["spot_price"] = p.String()
	}
	if p, ok := rates.price(usageCommit1Yr, shape); ok {
		entry["reserved_price_1y"] = p.String()
	}
	if p, ok := rates.price(usageCommit3Yr, shape); ok {
		entry["reserved_price_3y"] = p.String()
	}
	return []entity.RawPriceEntry{entry}, nil
}

func (c *Client) listSkus(ctx context.Context) ([]sku, error) {
	var all []sku
	pageToken := ""
	for page := 0; page < maxPages; page++ {
		q := url.Values{}
		q.Set("key", c.apiKey)
		q.Set("currencyCode", "USD")
		q.Set("pageSize", "5000")
		if pageToken != "" {
			q.Set("pageToken", pageToken)
		}
		u := fmt.Sprintf("%s/services/%s/skus?%s", c.baseURL, computeServiceID, q.Encode())

		var p skuPage
		if err := c.getJSON(ctx, u, &p); err != nil {
			return nil, fmt.Errorf("list compute skus: %w", err)
		}
		all = append(all, p.Skus...)
		if p.NextPageToken == "" {
			break
		}
		pageToken = p.NextPageToken
	}
	return all, nil
}

func (c *Client) getJSON(ctx context.Context, u string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request billing catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("billing catalog returned %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode billing catalog response: %w", err)
	}
	return nil
}

// FetchRegions returns the built-in region list.
func (c *Client) FetchRegions(ctx context.Context, scope string) ([]entity.RawCatalogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return catalogEntries(c.fallback.Regions), nil
}

// FetchInstanceTypes returns the built-in machine type list.
func (c *Client) FetchInstanceTypes(ctx context.Context, scope string) ([]entity.RawCatalogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return catalogEntries(c.fallback.InstanceTypes), nil
}

func catalogEntries(m map[string]string) []entity.RawCatalogEntry {
	entries := make([]entity.RawCatalogEntry, 0, len(m))
	for id, name := range m {
		entries = append(entries, entity.RawCatalogEntry{
			"id":       id,
			"name":     name,
			"provider": string(entity.ProviderGCP),
		})
	}
	return entries
}
