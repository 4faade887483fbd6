// Package azure reads compute prices from the Azure Retail Prices API and
// subscriptions and locations from Azure Resource Manager.
package azure

import (
	"context"
	"encoding/json"
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
	DefaultRetailURL = "https://prices.azure.com/api/retail/prices"
	DefaultARMURL    = "https://management.azure.com"

	armAPIVersion = "2022-12-01"

	// Hours in a one and three year reservation term.
	hoursPerYear      = 8760
	hoursPerThreeYear = 26280

	// maxPages bounds NextPageLink/nextLink walks.
	maxPages = 20
)

// Client is a PriceSource and ScopeRepository for Azure. Without an access
// token, catalogs fall back to the built-in lists and no scope is listed.
type Client struct {
	retailURL   string
	armURL      string
	accessToken string
	httpClient  *http.Client
	fallback    static.Catalog
}

var (
	_ repository.PriceSource     = (*Client)(nil)
	_ repository.ScopeRepository = (*Client)(nil)
)

// Option configures a Client.
type Option func(*Client)

// WithRetailURL overrides the Retail Prices API endpoint.
func WithRetailURL(u string) Option {
	return func(c *Client) { c.retailURL = strings.TrimRight(u, "/") }
}

// WithARMURL overrides the Resource Manager endpoint.
func WithARMURL(u string) Option {
	return func(c *Client) { c.armURL = strings.TrimRight(u, "/") }
}

// WithAccessToken sets the bearer token used for Resource Manager calls.
func WithAccessToken(token string) Option {
	return func(c *Client) { c.accessToken = strings.TrimSpace(token) }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates an Azure client with the given request timeout.
func NewClient(timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		retailURL:  DefaultRetailURL,
		armURL:     DefaultARMURL,
		httpClient: &http.Client{Timeout: timeout},
		fallback:   static.DefaultCatalog(entity.ProviderAzure),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Provider() entity.Provider {
	return entity.ProviderAzure
}

// --- Retail Prices API ---

type retailPage struct {
	Items        []retailItem `json:"Items"`
	NextPageLink string       `json:"NextPageLink"`
}

type retailItem struct {
	RetailPrice     json.Number `json:"retailPrice"`
	UnitPrice       json.Number `json:"unitPrice"`
	ArmRegionName   string      `json:"armRegionName"`
	ArmSkuName      string      `json:"armSkuName"`
	ProductName     string      `json:"productName"`
	SkuName         string      `json:"skuName"`
	MeterName       string      `json:"meterName"`
	Type            string      `json:"type"`
	ReservationTerm string      `json:"reservationTerm"`
	UnitOfMeasure   string      `json:"unitOfMeasure"`
}

// FetchPrices queries Linux virtual machine meters for the SKU and region.
// Scope is not used: retail prices are the same for every subscription.
func (c *Client) FetchPrices(ctx context.Context, instanceType, region, scope string) ([]entity.RawPriceEntry, error) {
	filter := fmt.Sprintf("serviceName eq 'Virtual Machines' and armRegionName eq '%s' and armSkuName eq '%s'",
		odataEscape(region), odataEscape(instanceType))

	q := url.Values{}
	q.Set("$filter", filter)
	next := c.retailURL + "?" + q.Encode()

	var items []retailItem
	for page := 0; next != "" && page < maxPages; page++ {
		var p retailPage
		if err := c.getJSON(ctx, next, false, &p); err != nil {
			return nil, fmt.Errorf("retail prices for %s in %s: %w", instanceType, region, err)
		}
		items = append(items, p.Items...)
		next = p.NextPageLink
	}

	prices := collectPrices(items)
	if prices.onDemand == nil {
		return []entity.RawPriceEntry{}, nil
	}

	entry := entity.RawPriceEntry{
		"provider":        string(entity.ProviderAzure),
		"instance_type":   instanceType,
		"region":          region,
		"on_demand_price": prices.onDemand.String(),
	}
	if prices.spot != nil {
		entry["spot_price"] = prices.spot.String()
	}
	if prices.reserved1y != nil {
		entry["reserved_price_1y"] = prices.reserved1y.String()
	}
	if prices.reserved3y != nil {
		entry["reserved_price_3y"] = prices.reserved3y.String()
	}
	return []entity.RawPriceEntry{entry}, nil
}

type tierPrices struct {
	onDemand   *decimal.Decimal
	spot       *decimal.Decimal
	reserved1y *decimal.Decimal
	reserved3y *decimal.Decimal
}

// collectPrices keeps the lowest hourly price per tier. Windows and Low
// Priority meters are ignored; reservation totals are spread over the term.
func collectPrices(items []retailItem) tierPrices {
	var out tierPrices

	keepLowest := func(dst **decimal.Decimal, v decimal.Decimal) {
		if *dst == nil || v.LessThan(**dst) {
			*dst = &v
		}
	}

	for _, it := range items {
		if strings.Contains(it.ProductName, "Windows") || strings.Contains(it.SkuName, "Low Priority") {
			continue
		}

		switch it.Type {
		case "Consumption":
			price, err := decimal.NewFromString(it.RetailPrice.String())
			if err != nil {
				continue
			}
			if strings.Contains(it.SkuName, "Spot") || strings.Contains(it.MeterName, "Spot") {
				keepLowest(&out.spot, price)
			} else {
				keepLowest(&out.onDemand, price)
			}
		case "Reservation":
			total, err := decimal.NewFromString(it.UnitPrice.String())
			if err != nil {
				continue
			}
			switch it.ReservationTerm {
			case "1 Year":
				keepLowest(&out.reserved1y, total.Div(decimal.NewFromInt(hoursPerYear)))
			case "3 Years":
				keepLowest(&out.reserved3y, total.Div(decimal.NewFromInt(hoursPerThreeYear)))
			}
		}
	}
	return out
}

func odataEscape(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// --- Resource Manager ---

type subscriptionPage struct {
	Value []struct {
		SubscriptionID string `json:"subscriptionId"`
		DisplayName    string `json:"displayName"`
		State          string `json:"state"`
	} `json:"value"`
	NextLink string `json:"nextLink"`
}

// FetchAccountScopes lists the subscriptions visible to the access token.
func (c *Client) FetchAccountScopes(ctx context.Context) ([]entity.RawScope, error) {
	if c.accessToken == "" {
		return []entity.RawScope{}, nil
	}

	next := fmt.Sprintf("%s/subscriptions?api-version=%s", c.armURL, armAPIVersion)
	scopes := []entity.RawScope{}
	for page := 0; next != "" && page < maxPages; page++ {
		var p subscriptionPage
		if err := c.getJSON(ctx, next, true, &p); err != nil {
			return nil, fmt.Errorf("list subscriptions: %w", err)
		}
		for _, s := range p.Value {
			scopes = append(scopes, entity.RawScope{
				"subscriptionId": s.SubscriptionID,
				"displayName":    s.DisplayName,
				"state":          s.State,
				"provider":       string(entity.ProviderAzure),
			})
		}
		next = p.NextLink
	}
	return scopes, nil
}

type locationList struct {
	Value []struct {
		Name        string `json:"name"`
		DisplayName string `json:"displayName"`
		Metadata    struct {
			RegionType string `json:"regionType"`
		} `json:"metadata"`
	} `json:"value"`
}

// FetchRegions lists the physical locations of the subscription, or the
// built-in region list when no subscription or token is available.
func (c *Client) FetchRegions(ctx context.Context, scope string) ([]entity.RawCatalogEntry, error) {
	if c.accessToken == "" || scope == "" {
		return catalogEntries(c.fallback.Regions), nil
	}

	u := fmt.Sprintf("%s/subscriptions/%s/locations?api-version=%s", c.armURL, url.PathEscape(scope), armAPIVersion)
	var list locationList
	if err := c.getJSON(ctx, u, true, &list); err != nil {
		return nil, fmt.Errorf("list locations for subscription %s: %w", scope, err)
	}

	entries := make([]entity.RawCatalogEntry, 0, len(list.Value))
	for _, loc := range list.Value {
		if loc.Metadata.RegionType != "" && loc.Metadata.RegionType != "Physical" {
			continue
		}
		entries = append(entries, entity.RawCatalogEntry{
			"id":       loc.Name,
			"name":     loc.DisplayName,
			"provider": string(entity.ProviderAzure),
		})
	}
	return entries, nil
}

// FetchInstanceTypes returns the built-in VM size list.
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
			"provider": string(entity.ProviderAzure),
		})
	}
	return entries
}

// --- HTTP ---

func (c *Client) getJSON(ctx context.Context, u string, authenticated bool, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if authenticated {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request Azure API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("azure API returned %s", resp.Status)
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode Azure response: %w", err)
	}
	return nil
}
