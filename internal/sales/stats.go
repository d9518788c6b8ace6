package sale

import (
	"context"
	"encoding/json"
	"fmt"

	pkgerrors "github.com/dlemaitre/sales-analytics-backend/pkg/errors"
)

// Stats is the payload of the statistics endpoint.
type Stats struct {
	Overall    OverallStats    `json:"overall"`
	ByCategory []CategoryStats `json:"byCategory"`
}

// OverallStats aggregates total_revenue across every stored sale.
type OverallStats struct {
	TotalRevenue   float64 `json:"totalRevenue"`
	TotalSales     int64   `json:"totalSales"`
	AverageRevenue float64 `json:"averageRevenue"`
	MaxRevenue     float64 `json:"maxRevenue"`
	MinRevenue     float64 `json:"minRevenue"`
}

// MarshalJSON renders an empty object when the store holds no sales. Callers
// of the stats endpoint expect an empty mapping rather than zeroed fields.
func (o OverallStats) MarshalJSON() ([]byte, error) {
	if o.TotalSales == 0 {
		return []byte("{}"), nil
	}
	type alias OverallStats
	return json.Marshal(alias(o))
}

// CategoryStats aggregates revenue for one category.
type CategoryStats struct {
	Category     string  `json:"category"`
	TotalRevenue float64 `json:"totalRevenue"`
	TotalSales   int64   `json:"totalSales"`
}

// StatsService exposes aggregate statistics over the stored sales.
type StatsService interface {
	GetStats(ctx context.Context) (*Stats, error)
}

type statsAggregator interface {
	AggregateOverall(ctx context.Context) (OverallStats, error)
	AggregateByCategory(ctx context.Context) ([]CategoryStats, error)
}

type statsService struct {
	repo statsAggregator
}

// NewStatsService constructs the statistics service.
func NewStatsService(repo statsAggregator) (StatsService, error) {
	if repo == nil {
		return nil, fmt.Errorf("sale repository required")
	}
	return &statsService{repo: repo}, nil
}

// GetStats returns the overall and per-category aggregates.
func (s *statsService) GetStats(ctx context.Context) (*Stats, error) {
	overall, err := s.repo.AggregateOverall(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: aggregate overall stats")
	}
	byCategory, err := s.repo.AggregateByCategory(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: aggregate category stats")
	}
	if byCategory == nil {
		byCategory = []CategoryStats{}
	}
	return &Stats{Overall: overall, ByCategory: byCategory}, nil
}
