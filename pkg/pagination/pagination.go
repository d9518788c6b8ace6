package pagination

import "github.com/dlemaitre/sales-analytics-backend/pkg/types"

const (
	// DefaultPage is used when the caller does not ask for a specific page.
	DefaultPage = 1
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 10
	// MaxLimit caps how many rows any listing can request.
	MaxLimit = 100
)

// Params holds page-number pagination inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// NormalizePage enforces the minimum page number.
func NormalizePage(page int) int {
	if page <= 0 {
		return DefaultPage
	}
	return page
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Normalize returns the params with defaults and caps applied.
func (p Params) Normalize() Params {
	return Params{
		Page:  NormalizePage(p.Page),
		Limit: NormalizeLimit(p.Limit),
	}
}

// Offset converts the page number into the rows to skip.
func (p Params) Offset() int {
	norm := p.Normalize()
	return (norm.Page - 1) * norm.Limit
}

// Meta builds the response pagination block for a total row count.
func (p Params) Meta(totalItems int64) types.Pagination {
	norm := p.Normalize()
	totalPages := int((totalItems + int64(norm.Limit) - 1) / int64(norm.Limit))
	return types.Pagination{
		CurrentPage:  norm.Page,
		TotalPages:   totalPages,
		TotalItems:   totalItems,
		ItemsPerPage: norm.Limit,
	}
}
