package usecase

import (
	"context"
	"sync"

	"github.com/diillson/cloud-price-comparator/internal/domain/entity"
	"github.com/diillson/cloud-price-comparator/internal/shared/types"
	"github.com/google/uuid"
)

// Comparer produces a comparison for a selection.
type Comparer interface {
	GetComparison(ctx context.Context, sel entity.Selection) (entity.ComparisonResult, error)
}

type ticket struct {
	id  uuid.UUID
	key string
}

// ComparisonSession tracks the selection a user is currently looking at.
// Every Select issues a ticket; a comparison whose ticket was superseded is
// discarded instead of replacing the newer result.
type ComparisonSession struct {
	comparer Comparer

	mu      sync.Mutex
	current ticket
	cancel  context.CancelFunc
	last    *entity.ComparisonResult
}

// NewComparisonSession creates a session over the given comparer.
func NewComparisonSession(comparer Comparer) *ComparisonSession {
	return &ComparisonSession{comparer: comparer}
}

// Select runs a comparison for sel, cancelling any comparison still in flight.
// It returns types.ErrStaleComparison if another Select superseded this one.
// On error the previous successful result stays available through Last.
func (s *ComparisonSession) Select(ctx context.Context, sel entity.Selection) (entity.ComparisonResult, error) {
	sel = sel.Normalize()
	runCtx, cancel := context.WithCancel(ctx)
	t := ticket{id: uuid.New(), key: sel.Key()}

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.current = t
	s.cancel = cancel
	s.mu.Unlock()

	result, err := s.comparer.GetComparison(runCtx, sel)

	s.mu.Lock()
	defer s.mu.Unlock()
	defer cancel()

	if s.current.id != t.id {
		return entity.ComparisonResult{}, types.ErrStaleComparison
	}
	s.cancel = nil
	if err != nil {
		return entity.ComparisonResult{}, err
	}
	if result.Selection.Key() != t.key {
		return entity.ComparisonResult{}, types.ErrStaleComparison
	}

	s.last = &result
	return result, nil
}

// Last returns the most recent successful comparison.
func (s *ComparisonSession) Last() (entity.ComparisonResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return entity.ComparisonResult{}, false
	}
	return *s.last, true
}

// Pending reports the selection key of the comparison currently in flight.
func (s *ComparisonSession) Pending() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return "", false
	}
	return s.current.key, true
}
