package types

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrValidation      = errors.New("invalid price data")
	ErrSelection       = errors.New("invalid selection")
	ErrAggregation     = errors.New("price aggregation failed")
	ErrStaleComparison = errors.New("comparison discarded: selection changed while it was running")
	ErrNoSources       = errors.New("no price sources configured. Enable at least one provider")
	ErrUnsupportedType = errors.New("unsupported report type")
)

// ValidationError reports malformed price or catalog data received from a source.
// The offending record is excluded; it is never retried.
type ValidationError struct {
	Provider string
	Field    string
	Reason   string
}

func (e *ValidationError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("invalid record from %s: %s: %s", e.Provider, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid record: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// SelectionError is a user-correctable error: the selection references an id
// that the catalog does not list for the given scope.
type SelectionError struct {
	Field string // "instance_type", "region" or "scope"
	ID    string
	Scope string
}

func (e *SelectionError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("no %s selected", strings.ReplaceAll(e.Field, "_", " "))
	}
	if e.Scope != "" && e.Field != "scope" {
		return fmt.Sprintf("unknown %s %q for scope %q", strings.ReplaceAll(e.Field, "_", " "), e.ID, e.Scope)
	}
	return fmt.Sprintf("unknown %s %q", strings.ReplaceAll(e.Field, "_", " "), e.ID)
}

func (e *SelectionError) Is(target error) bool { return target == ErrSelection }

// ProviderError is the failure of a single provider during an aggregation.
type ProviderError struct {
	Provider string
	Timeout  bool
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s: timed out: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// AggregationError is returned when no provider could be reached for a
// selection. It is retryable; partial failures are reported on the result instead.
type AggregationError struct {
	Selection string
	Failures  []*ProviderError
}

func (e *AggregationError) Error() string {
	failures := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		failures = append(failures, f.Error())
	}
	sort.Strings(failures)
	return fmt.Sprintf("%v for %s: %s", ErrAggregation, e.Selection, strings.Join(failures, "; "))
}

func (e *AggregationError) Is(target error) bool { return target == ErrAggregation }

func (e *AggregationError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f)
	}
	return errs
}

// Retryable reports that the same selection may be submitted again.
func (e *AggregationError) Retryable() bool { return true }

// Timeout reports whether every provider failed by timing out.
func (e *AggregationError) Timeout() bool {
	if len(e.Failures) == 0 {
		return false
	}
	for _, f := range e.Failures {
		if !f.Timeout {
			return false
		}
	}
	return true
}

// Providers returns the names of the failing providers, sorted.
func (e *AggregationError) Providers() []string {
	names := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		names = append(names, f.Provider)
	}
	sort.Strings(names)
	return names
}
