package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/diillson/cloud-price-comparator/internal/domain/entity"
	"github.com/diillson/cloud-price-comparator/internal/shared/types"
)

// fakeSource is an in-memory PriceSource.
type fakeSource struct {
	provider entity.Provider
	prices   []entity.RawPriceEntry
	regions  []string
	types    []string
	err      error
	delay    time.Duration
	block    chan struct{} // when set, FetchPrices ignores ctx and waits on it

	regionsErr  error
	hangRegions bool // FetchRegions waits until ctx is done

	mu         sync.Mutex
	priceCalls int
	scopes     []string
}

func newFakeSource(p entity.Provider, onDemand string) *fakeSource {
	return &fakeSource{
		provider: p,
		prices: []entity.RawPriceEntry{{
			"provider":        string(p),
			"instance_type":   "std",
			"region":          "r1",
			"on_demand_price": onDemand,
		}},
		regions: []string{"r1"},
		types:   []string{"std"},
	}
}

func (s *fakeSource) Provider() entity.Provider { return s.provider }

func (s *fakeSource) FetchPrices(ctx context.Context, instanceType, region, scope string) ([]entity.RawPriceEntry, error) {
	s.mu.Lock()
	s.priceCalls++
	s.scopes = append(s.scopes, scope)
	s.mu.Unlock()

	if s.block != nil {
		<-s.block
		return nil, fmt.Errorf("released")
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.prices, nil
}

func (s *fakeSource) FetchRegions(ctx context.Context, scope string) ([]entity.RawCatalogEntry, error) {
	if s.hangRegions {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.regionsErr != nil {
		return nil, s.regionsErr
	}
	return s.catalog(s.regions), nil
}

func (s *fakeSource) FetchInstanceTypes(ctx context.Context, scope string) ([]entity.RawCatalogEntry, error) {
	return s.catalog(s.types), nil
}

func (s *fakeSource) catalog(ids []string) []entity.RawCatalogEntry {
	out := make([]entity.RawCatalogEntry, 0, len(ids))
	for _, id := range ids {
		out = append(out, entity.RawCatalogEntry{"id": id, "name": strings.ToUpper(id), "provider": string(s.provider)})
	}
	return out
}

func (s *fakeSource) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.priceCalls
}

func (s *fakeSource) seenScopes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.scopes...)
}

type fakeScopes struct {
	scopes []entity.RawScope
	err    error
}

func (f *fakeScopes) FetchAccountScopes(ctx context.Context) ([]entity.RawScope, error) {
	return f.scopes, f.err
}

// fakeConsole records every message instead of printing it.
type fakeConsole struct {
	mu       sync.Mutex
	infos    []string
	warnings []string
	errors   []string
	success  []string
	printed  []string
	bars     []types.PriceBar
	tables   []*fakeTable
}

func (c *fakeConsole) Print(a ...interface{})                 { c.record(&c.printed, fmt.Sprint(a...)) }
func (c *fakeConsole) Printf(format string, a ...interface{}) { c.record(&c.printed, fmt.Sprintf(format, a...)) }
func (c *fakeConsole) Println(a ...interface{})               { c.record(&c.printed, fmt.Sprint(a...)) }

func (c *fakeConsole) LogInfo(format string, a ...interface{}) {
	c.record(&c.infos, fmt.Sprintf(format, a...))
}

func (c *fakeConsole) LogWarning(format string, a ...interface{}) {
	c.record(&c.warnings, fmt.Sprintf(format, a...))
}

func (c *fakeConsole) LogError(format string, a ...interface{}) {
	c.record(&c.errors, fmt.Sprintf(format, a...))
}

func (c *fakeConsole) LogSuccess(format string, a ...interface{}) {
	c.record(&c.success, fmt.Sprintf(format, a...))
}

func (c *fakeConsole) Status(message string) types.StatusHandle { return fakeStatus{} }

func (c *fakeConsole) CreateTable() types.TableInterface {
	c.mu.Lock()
	defer c.mu.Unlock()
	table := &fakeTable{}
	c.tables = append(c.tables, table)
	return table
}

func (c *fakeConsole) DisplayPriceBars(title string, bars []types.PriceBar) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bars = append(c.bars, bars...)
}

func (c *fakeConsole) record(dst *[]string, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	*dst = append(*dst, msg)
}

func (c *fakeConsole) hasWarning(substr string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, w := range c.warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

type fakeStatus struct{}

func (fakeStatus) Update(string) {}
func (fakeStatus) Stop()         {}

type fakeTable struct {
	columns []string
	rows    [][]interface{}
}

func (t *fakeTable) AddColumn(name string, options ...interface{}) { t.columns = append(t.columns, name) }
func (t *fakeTable) AddRow(cells ...interface{})                   { t.rows = append(t.rows, cells) }
func (t *fakeTable) Render() string                                { return fmt.Sprint(t.rows) }

type fakeExport struct {
	calls []string
}

func (e *fakeExport) ExportComparisonToCSV(result entity.ComparisonResult, rows []entity.SavingsRow, filename, outputDir string) (string, error) {
	e.calls = append(e.calls, "csv")
	return outputDir + "/" + filename + ".csv", nil
}

func (e *fakeExport) ExportComparisonToJSON(result entity.ComparisonResult, rows []entity.SavingsRow, filename, outputDir string) (string, error) {
	e.calls = append(e.calls, "json")
	return outputDir + "/" + filename + ".json", nil
}

func (e *fakeExport) ExportComparisonToPDF(result entity.ComparisonResult, rows []entity.SavingsRow, filename, outputDir string) (string, error) {
	e.calls = append(e.calls, "pdf")
	return "", fmt.Errorf("disk full")
}

type fakeMetrics struct {
	mu          sync.Mutex
	fetches     map[string]string
	comparisons int
	partial     bool
}

func (m *fakeMetrics) ObserveFetch(provider, outcome string, elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetches == nil {
		m.fetches = make(map[string]string)
	}
	m.fetches[provider] = outcome
}

func (m *fakeMetrics) ObserveComparison(records int, partial bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.comparisons++
	m.partial = partial
}
