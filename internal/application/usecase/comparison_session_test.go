package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/diillson/cloud-price-comparator/internal/domain/entity"
	"github.com/diillson/cloud-price-comparator/internal/shared/types"
)

// comparerFunc adapts a function to the Comparer interface.
type comparerFunc func(ctx context.Context, sel entity.Selection) (entity.ComparisonResult, error)

func (f comparerFunc) GetComparison(ctx context.Context, sel entity.Selection) (entity.ComparisonResult, error) {
	return f(ctx, sel)
}

func TestComparisonSession_DiscardsSupersededSelection(t *testing.T) {
	started := make(chan struct{})
	slow := entity.Selection{InstanceType: "t2.micro", Region: "us-east-1"}
	fast := entity.Selection{InstanceType: "t2.micro", Region: "eu-west-1"}

	session := NewComparisonSession(comparerFunc(func(ctx context.Context, sel entity.Selection) (entity.ComparisonResult, error) {
		if sel == slow {
			close(started)
			<-ctx.Done()
			return entity.ComparisonResult{Selection: sel}, nil
		}
		return entity.ComparisonResult{Selection: sel}, nil
	}))

	errCh := make(chan error, 1)
	go func() {
		_, err := session.Select(context.Background(), slow)
		errCh <- err
	}()
	<-started

	result, err := session.Select(context.Background(), fast)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Selection != fast {
		t.Fatalf("expected result for %s, got %s", fast, result.Selection)
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, types.ErrStaleComparison) {
			t.Fatalf("expected ErrStaleComparison, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("superseded comparison was not cancelled")
	}

	last, ok := session.Last()
	if !ok || last.Selection != fast {
		t.Fatalf("expected last result for %s, got %+v", fast, last)
	}
	if _, pending := session.Pending(); pending {
		t.Fatalf("expected nothing pending")
	}
}

func TestComparisonSession_KeepsLastOnFailure(t *testing.T) {
	good := entity.Selection{InstanceType: "std", Region: "r1"}
	bad := entity.Selection{InstanceType: "std", Region: "r2"}

	session := NewComparisonSession(comparerFunc(func(ctx context.Context, sel entity.Selection) (entity.ComparisonResult, error) {
		if sel == bad {
			return entity.ComparisonResult{}, &types.AggregationError{Selection: sel.String()}
		}
		return entity.ComparisonResult{Selection: sel}, nil
	}))

	if _, ok := session.Last(); ok {
		t.Fatalf("expected no result before the first selection")
	}
	if _, err := session.Select(context.Background(), good); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := session.Select(context.Background(), bad); !errors.Is(err, types.ErrAggregation) {
		t.Fatalf("expected ErrAggregation, got %v", err)
	}

	last, ok := session.Last()
	if !ok || last.Selection != good {
		t.Fatalf("expected previous result to be retained, got %+v", last)
	}
}

func TestComparisonSession_RejectsMismatchedResult(t *testing.T) {
	session := NewComparisonSession(comparerFunc(func(ctx context.Context, sel entity.Selection) (entity.ComparisonResult, error) {
		return entity.ComparisonResult{Selection: entity.Selection{InstanceType: "other", Region: sel.Region}}, nil
	}))

	_, err := session.Select(context.Background(), entity.Selection{InstanceType: "std", Region: "r1"})
	if !errors.Is(err, types.ErrStaleComparison) {
		t.Fatalf("expected ErrStaleComparison, got %v", err)
	}
	if _, ok := session.Last(); ok {
		t.Fatalf("a mismatched result must not be stored")
	}
}

func TestComparisonSession_NormalizesSelection(t *testing.T) {
	uc, _, _ := newComparison(t, time.Second, nil, newFakeSource(entity.ProviderAWS, "0.1"))
	session := NewComparisonSession(uc)

	result, err := session.Select(context.Background(), entity.Selection{InstanceType: " std ", Region: "r1\n"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Selection != stdSelection {
		t.Fatalf("expected normalized selection, got %+v", result.Selection)
	}
}
