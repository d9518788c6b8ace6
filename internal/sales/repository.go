package sale

import (
	"context"
	"database/sql"

	"gorm.io/gorm"

	"github.com/dlemaitre/sales-analytics-backend/pkg/db/models"
	"github.com/dlemaitre/sales-analytics-backend/pkg/pagination"
)

// ListFilters holds the optional equality constraints for sale listings.
// Empty fields impose no constraint.
type ListFilters struct {
	Category string
	Region   string
}

// SaleRepository defines persistence operations over the sales table.
type SaleRepository interface {
	List(ctx context.Context, filters ListFilters, page pagination.Params) ([]models.Sale, error)
	Count(ctx context.Context, filters ListFilters) (int64, error)
	FindByID(ctx context.Context, id int64) (*models.Sale, error)
	MaxID(ctx context.Context) (int64, bool, error)
	Insert(ctx context.Context, sale *models.Sale) error
	AggregateOverall(ctx context.Context) (OverallStats, error)
	AggregateByCategory(ctx context.Context) ([]CategoryStats, error)
	DeleteSeedRecords(ctx context.Context, idFloor int64) (int64, error)
}

// Repository wires together all sale persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// List returns one page of sales matching the filters, newest sale_date first.
func (r *Repository) List(ctx context.Context, filters ListFilters, page pagination.Params) ([]models.Sale, error) {
	norm := page.Normalize()
	var rows []models.Sale
	err := r.scoped(ctx, filters).
		Order("sale_date DESC").
		Order("id DESC").
		Limit(norm.Limit).
		Offset(norm.Offset()).
		Find(&rows).
		Error
	return rows, err
}

// Count returns how many sales match the filters.
func (r *Repository) Count(ctx context.Context, filters ListFilters) (int64, error) {
	var total int64
	err := r.scoped(ctx, filters).Count(&total).Error
	return total, err
}

// FindByID loads a single sale by its business id.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Sale, error) {
	var sale models.Sale
	if err := r.db.WithContext(ctx).First(&sale, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

// MaxID returns the largest business id in the store. The second return is
// false when the table is empty.
func (r *Repository) MaxID(ctx context.Context) (int64, bool, error) {
	var max sql.NullInt64
	err := r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Select("MAX(id)").
		Scan(&max).
		Error
	if err != nil {
		return 0, false, err
	}
	if !max.Valid {
		return 0, false, nil
	}
	return max.Int64, true, nil
}

// Insert creates a new sale row. The caller assigns the business id; a
// duplicate id surfaces as a unique violation.
func (r *Repository) Insert(ctx context.Context, sale *models.Sale) error {
	return r.db.WithContext(ctx).Create(sale).Error
}

// InsertBatch creates rows in chunks of batchSize. Used by the ETL loader.
func (r *Repository) InsertBatch(ctx context.Context, rows []models.Sale, batchSize int) error {
	if len(rows) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = len(rows)
	}
	return r.db.WithContext(ctx).CreateInBatches(&rows, batchSize).Error
}

type overallRecord struct {
	TotalRevenue   sql.NullFloat64
	TotalSales     int64
	AverageRevenue sql.NullFloat64
	MaxRevenue     sql.NullFloat64
	MinRevenue     sql.NullFloat64
}

// AggregateOverall computes revenue aggregates across every stored sale.
// An empty table yields the zero value, which renders as an empty mapping.
func (r *Repository) AggregateOverall(ctx context.Context) (OverallStats, error) {
	var record overallRecord
	err := r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Select("COALESCE(SUM(total_revenue), 0) AS total_revenue, " +
			"COUNT(*) AS total_sales, " +
			"AVG(total_revenue) AS average_revenue, " +
			"MAX(total_revenue) AS max_revenue, " +
			"MIN(total_revenue) AS min_revenue").
		Scan(&record).
		Error
	if err != nil {
		return OverallStats{}, err
	}
	return OverallStats{
		TotalRevenue:   record.TotalRevenue.Float64,
		TotalSales:     record.TotalSales,
		AverageRevenue: record.AverageRevenue.Float64,
		MaxRevenue:     record.MaxRevenue.Float64,
		MinRevenue:     record.MinRevenue.Float64,
	}, nil
}

// AggregateByCategory computes per-category revenue aggregates ordered by
// category name.
func (r *Repository) AggregateByCategory(ctx context.Context) ([]CategoryStats, error) {
	var rows []CategoryStats
	err := r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Select("category, COALESCE(SUM(total_revenue), 0) AS total_revenue, COUNT(*) AS total_sales").
		Group("category").
		Order("category ASC").
		Scan(&rows).
		Error
	return rows, err
}

// DeleteSeedRecords removes every sale below the id floor. API-created
// records (id at or above the floor) are preserved.
func (r *Repository) DeleteSeedRecords(ctx context.Context, idFloor int64) (int64, error) {
	result := r.db.WithContext(ctx).Where("id < ?", idFloor).Delete(&models.Sale{})
	return result.RowsAffected, result.Error
}

func (r *Repository) scoped(ctx context.Context, filters ListFilters) *gorm.DB {
	qb := r.db.WithContext(ctx).Model(&models.Sale{})
	if filters.Category != "" {
		qb = qb.Where("category = ?", filters.Category)
	}
	if filters.Region != "" {
		qb = qb.Where("region = ?", filters.Region)
	}
	return qb
}
