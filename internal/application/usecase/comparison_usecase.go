package usecase

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/diillson/cloud-price-comparator/internal/domain/entity"
	"github.com/diillson/cloud-price-comparator/internal/domain/repository"
	"github.com/diillson/cloud-price-comparator/internal/domain/savings"
	"github.com/diillson/cloud-price-comparator/internal/shared/types"
)

// Fetch outcomes reported to the metrics recorder.
const (
	OutcomeSuccess = "success"
	OutcomeTimeout = "timeout"
	OutcomeError   = "error"
)

// ComparisonUseCase assembles a savings-annotated comparison across providers.
type ComparisonUseCase struct {
	resolver *CatalogResolver
	sources  []repository.PriceSource
	metrics  repository.MetricsRecorder
	timeout  time.Duration
}

// NewComparisonUseCase creates a new comparison use case. A nil recorder
// disables metrics; a non-positive timeout uses the default.
func NewComparisonUseCase(
	resolver *CatalogResolver,
	sources []repository.PriceSource,
	metrics repository.MetricsRecorder,
	timeout time.Duration,
) *ComparisonUseCase {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if timeout <= 0 {
		timeout = types.DefaultTimeoutSeconds * time.Second
	}
	return &ComparisonUseCase{
		resolver: resolver,
		sources:  sources,
		metrics:  metrics,
		timeout:  timeout,
	}
}

type fetchOutcome struct {
	entries []entity.RawPriceEntry
	err     error
}

// GetComparison validates sel, queries every source concurrently and returns
// the ordered comparison. A provider failure marks the result partial; only a
// failure of every provider is an AggregationError.
func (uc *ComparisonUseCase) GetComparison(ctx context.Context, sel entity.Selection) (entity.ComparisonResult, error) {
	sel = sel.Normalize()
	if len(uc.sources) == 0 {
		return entity.ComparisonResult{}, types.ErrNoSources
	}

	scope, unavailable, err := uc.resolver.validate(ctx, sel)
	if err != nil {
		return entity.ComparisonResult{}, err
	}

	outcomes := uc.fanOut(ctx, sel, scope, unavailable)
	if err := ctx.Err(); err != nil {
		return entity.ComparisonResult{}, err
	}

	result := entity.ComparisonResult{
		Selection: sel,
		Records:   []entity.PriceRecord{},
		Savings:   []entity.Savings{},
	}
	var failures []*types.ProviderError

	for i, src := range uc.sources {
		provider := src.Provider()
		if outcomes[i].err != nil {
			failures = append(failures, &types.ProviderError{
				Provider: string(provider),
				Timeout:  isTimeout(outcomes[i].err),
				Err:      outcomes[i].err,
			})
			continue
		}
		for _, raw := range outcomes[i].entries {
			rec, err := normalizeEntry(provider, sel, raw)
			if err != nil {
				result.Rejected = append(result.Rejected, entity.RejectedRecord{Provider: provider, Reason: err.Error()})
				continue
			}
			result.Records = append(result.Records, rec)
		}
	}

	if len(failures) == len(uc.sources) {
		uc.metrics.ObserveComparison(0, false)
		return entity.ComparisonResult{}, &types.AggregationError{Selection: sel.String(), Failures: failures}
	}

	entity.SortRecords(result.Records)
	for _, rec := range result.Records {
		result.Savings = append(result.Savings, savings.Calculate(rec))
	}

	for _, f := range failures {
		kind := entity.FailureUnavailable
		if f.Timeout {
			kind = entity.FailureTimeout
		}
		result.Failures = append(result.Failures, entity.ProviderFailure{
			Provider: entity.Provider(f.Provider),
			Kind:     kind,
			Reason:   f.Err.Error(),
		})
	}
	sort.SliceStable(result.Failures, func(i, j int) bool {
		return result.Failures[i].Provider < result.Failures[j].Provider
	})
	sort.SliceStable(result.Rejected, func(i, j int) bool {
		return result.Rejected[i].Provider < result.Rejected[j].Provider
	})
	result.Partial = len(result.Failures) > 0

	uc.metrics.ObserveComparison(len(result.Records), result.Partial)
	return result, nil
}

// fanOut issues one request per source and waits for all of them to settle.
// Sources whose catalog could not be loaded are not queried and keep that
// failure. Each goroutine writes only its own slot.
func (uc *ComparisonUseCase) fanOut(ctx context.Context, sel entity.Selection, scope *entity.AccountScope, unavailable sourceFailures) []fetchOutcome {
	outcomes := make([]fetchOutcome, len(uc.sources))

	var wg sync.WaitGroup
	for i, src := range uc.sources {
		if f, ok := unavailable[src.Provider()]; ok {
			outcomes[i] = fetchOutcome{err: f.Err}
			uc.metrics.ObserveFetch(string(src.Provider()), fetchOutcomeLabel(f.Err), 0)
			continue
		}
		wg.Add(1)
		go func(i int, src repository.PriceSource) {
			defer wg.Done()

			start := time.Now()
			outcomes[i] = uc.fetchWithTimeout(ctx, src, sel, scopeFor(src, scope))
			uc.metrics.ObserveFetch(string(src.Provider()), fetchOutcomeLabel(outcomes[i].err), time.Since(start))
		}(i, src)
	}
	wg.Wait()

	return outcomes
}

// fetchWithTimeout bounds a source call even when the source ignores its context.
func (uc *ComparisonUseCase) fetchWithTimeout(ctx context.Context, src repository.PriceSource, sel entity.Selection, scope string) fetchOutcome {
	entries, err := callWithTimeout(ctx, uc.timeout, "fetch prices", func(ctx context.Context) ([]entity.RawPriceEntry, error) {
		return src.FetchPrices(ctx, sel.InstanceType, sel.Region, scope)
	})
	return fetchOutcome{entries: entries, err: err}
}

// normalizeEntry fills fields a source may omit and rejects entries that
// contradict the source or the selection before validating them.
func normalizeEntry(provider entity.Provider, sel entity.Selection, raw entity.RawPriceEntry) (entity.PriceRecord, error) {
	entry := make(entity.RawPriceEntry, len(raw)+3)
	for k, v := range raw {
		entry[k] = v
	}

	fill := func(key, want string) error {
		v, ok := entry[key]
		if !ok || v == nil || v == "" {
			entry[key] = want
			return nil
		}
		got, isString := v.(string)
		if isString && !strings.EqualFold(got, want) {
			return &types.ValidationError{
				Provider: string(provider),
				Field:    key,
				Reason:   fmt.Sprintf("%q does not match %q", got, want),
			}
		}
		return nil
	}

	if err := fill("provider", string(provider)); err != nil {
		return entity.PriceRecord{}, err
	}
	if err := fill("instance_type", sel.InstanceType); err != nil {
		return entity.PriceRecord{}, err
	}
	if err := fill("region", sel.Region); err != nil {
		return entity.PriceRecord{}, err
	}
	return entity.ParsePriceRecord(entry)
}

// GetSavingsTable returns one row per record in the result's order.
func (uc *ComparisonUseCase) GetSavingsTable(result entity.ComparisonResult) []entity.SavingsRow {
	return SavingsTable(result)
}

// SavingsTable builds the tabular view of a comparison, preserving its order.
func SavingsTable(result entity.ComparisonResult) []entity.SavingsRow {
	rows := make([]entity.SavingsRow, 0, len(result.Records))
	for _, rec := range result.Records {
		rows = append(rows, savings.Row(rec))
	}
	return rows
}

func fetchOutcomeLabel(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case isTimeout(err):
		return OutcomeTimeout
	default:
		return OutcomeError
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

type nopMetrics struct{}

func (nopMetrics) ObserveFetch(string, string, time.Duration) {}
func (nopMetrics) ObserveComparison(int, bool)                {}
