package sale

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	pkgerrors "github.com/dlemaitre/sales-analytics-backend/pkg/errors"
)

type stubAggregator struct {
	overall    OverallStats
	overallErr error
	byCategory []CategoryStats
	catErr     error
}

func (s *stubAggregator) AggregateOverall(ctx context.Context) (OverallStats, error) {
	return s.overall, s.overallErr
}

func (s *stubAggregator) AggregateByCategory(ctx context.Context) ([]CategoryStats, error) {
	return s.byCategory, s.catErr
}

func TestGetStats(t *testing.T) {
	svc, err := NewStatsService(&stubAggregator{
		overall: OverallStats{
			TotalRevenue:   600,
			TotalSales:     3,
			AverageRevenue: 200,
			MaxRevenue:     300,
			MinRevenue:     100,
		},
		byCategory: []CategoryStats{
			{Category: "Clothing", TotalRevenue: 100, TotalSales: 1},
			{Category: "Electronics", TotalRevenue: 500, TotalSales: 2},
		},
	})
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}

	stats, err := svc.GetStats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Overall.TotalSales != 3 {
		t.Fatalf("expected 3 total sales, got %d", stats.Overall.TotalSales)
	}
	if len(stats.ByCategory) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(stats.ByCategory))
	}
}

func TestGetStatsEmptyStore(t *testing.T) {
	svc, err := NewStatsService(&stubAggregator{})
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}

	stats, err := svc.GetStats(context.Background())
	if err != nil {
		t.Fatalf("empty store must not error: %v", err)
	}

	payload, err := json.Marshal(stats)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	body := string(payload)
	if !strings.Contains(body, `"overall":{}`) {
		t.Fatalf("empty store should render overall as empty mapping, got %s", body)
	}
	if !strings.Contains(body, `"byCategory":[]`) {
		t.Fatalf("empty store should render byCategory as empty list, got %s", body)
	}
}

func TestGetStatsStoreError(t *testing.T) {
	svc, err := NewStatsService(&stubAggregator{overallErr: errors.New("connection refused")})
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}

	_, err = svc.GetStats(context.Background())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestOverallStatsMarshalNonEmpty(t *testing.T) {
	payload, err := json.Marshal(OverallStats{TotalRevenue: 100, TotalSales: 1, AverageRevenue: 100, MaxRevenue: 100, MinRevenue: 100})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(payload), `"totalRevenue":100`) {
		t.Fatalf("expected camelCase fields, got %s", payload)
	}
}
