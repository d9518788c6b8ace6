package sale

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/dlemaitre/sales-analytics-backend/pkg/db/models"
	pkgerrors "github.com/dlemaitre/sales-analytics-backend/pkg/errors"
	"github.com/dlemaitre/sales-analytics-backend/pkg/pagination"
	"github.com/dlemaitre/sales-analytics-backend/pkg/types"
)

// QueryService exposes read operations over the stored sales.
type QueryService interface {
	ListSales(ctx context.Context, input ListSalesInput) (*SaleListResult, error)
	GetSaleByID(ctx context.Context, id int64) (*models.Sale, error)
}

// ListSalesInput holds the validated listing parameters.
type ListSalesInput struct {
	Pagination pagination.Params
	Filters    ListFilters
}

// SaleListResult is one page of sales plus its pagination block.
type SaleListResult struct {
	Sales      []models.Sale
	Pagination types.Pagination
}

type saleLister interface {
	List(ctx context.Context, filters ListFilters, page pagination.Params) ([]models.Sale, error)
	Count(ctx context.Context, filters ListFilters) (int64, error)
	FindByID(ctx context.Context, id int64) (*models.Sale, error)
}

type queryService struct {
	repo saleLister
}

// NewQueryService constructs the sale query service.
func NewQueryService(repo saleLister) (QueryService, error) {
	if repo == nil {
		return nil, fmt.Errorf("sale repository required")
	}
	return &queryService{repo: repo}, nil
}

// ListSales returns the requested page together with the total-count
// pagination metadata.
func (s *queryService) ListSales(ctx context.Context, input ListSalesInput) (*SaleListResult, error) {
	page := input.Pagination.Normalize()

	rows, err := s.repo.List(ctx, input.Filters, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list sales")
	}
	total, err := s.repo.Count(ctx, input.Filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count sales")
	}
	if rows == nil {
		rows = []models.Sale{}
	}

	return &SaleListResult{
		Sales:      rows,
		Pagination: page.Meta(total),
	}, nil
}

// GetSaleByID returns a single sale by its business id.
func (s *queryService) GetSaleByID(ctx context.Context, id int64) (*models.Sale, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Sale not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load sale")
	}
	return record, nil
}
