package etl

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	sale "github.com/dlemaitre/sales-analytics-backend/internal/sales"
	"github.com/dlemaitre/sales-analytics-backend/pkg/db/models"
	"github.com/dlemaitre/sales-analytics-backend/pkg/logger"
)

const extractQuery = `SELECT id, product_name, quantity, price, sale_date, category, region, customer_id FROM sales`

// SourceRow is one sale as stored in the upstream Postgres system.
type SourceRow struct {
	ID          int64
	ProductName string
	Quantity    float64
	Price       float64
	SaleDate    sql.NullString
	Category    sql.NullString
	Region      sql.NullString
	CustomerID  sql.NullInt64
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Params configure the ETL pipeline.
type Params struct {
	Logger    *logger.Logger
	Source    *sql.DB
	DB        txRunner
	Repo      *sale.Repository
	IDFloor   int64
	BatchSize int
}

// Pipeline moves seed sales from the upstream Postgres store into the
// serving store, deriving the computed fields on the way. API-created sales
// (id at or above the floor) are never touched.
type Pipeline struct {
	logg    *logger.Logger
	source  *sql.DB
	db      txRunner
	repo    *sale.Repository
	idFloor int64
	batch   int
	now     func() time.Time
}

// Summary reports what one pipeline run did.
type Summary struct {
	Extracted      int
	Skipped        int
	Deleted        int64
	Loaded         int
	TotalRevenue   float64
	HighValueSales int
}

// New constructs the ETL pipeline.
func New(params Params) (*Pipeline, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Source == nil {
		return nil, fmt.Errorf("source db required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("sale repository required")
	}
	if params.IDFloor <= 0 {
		return nil, fmt.Errorf("id floor must be positive")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = 500
	}
	return &Pipeline{
		logg:    params.Logger,
		source:  params.Source,
		db:      params.DB,
		repo:    params.Repo,
		idFloor: params.IDFloor,
		batch:   batch,
		now:     time.Now,
	}, nil
}

// Run executes extract, transform, and load, and returns the run summary.
// An unreachable source aborts the run before any seed record is deleted.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	rows, scanErrs, err := p.Extract(ctx)
	if err != nil {
		return nil, fmt.Errorf("extract source sales: %w", err)
	}
	if scanErrs != nil {
		logCtx := p.logg.WithFields(ctx, map[string]any{
			"bad_rows": len(multierr.Errors(scanErrs)),
			"error":    scanErrs.Error(),
		})
		p.logg.Warn(logCtx, "skipped unreadable source rows")
	}
	p.logg.Info(p.logg.WithField(ctx, "count", len(rows)), "extracted source sales")

	records, skipped := p.Transform(rows)
	p.logg.Info(p.logg.WithField(ctx, "count", len(records)), "transformed source sales")

	deleted, err := p.Load(ctx, records)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Extracted: len(rows),
		Skipped:   skipped,
		Deleted:   deleted,
		Loaded:    len(records),
	}
	for _, record := range records {
		summary.TotalRevenue += record.TotalRevenue
		if record.IsHighValue {
			summary.HighValueSales++
		}
	}

	logCtx := p.logg.WithFields(ctx, map[string]any{
		"loaded":           summary.Loaded,
		"deleted":          summary.Deleted,
		"skipped":          summary.Skipped,
		"total_revenue":    summary.TotalRevenue,
		"high_value_sales": summary.HighValueSales,
	})
	p.logg.Info(logCtx, "etl run complete")
	return summary, nil
}

// Extract reads every sale from the source store. Rows that fail to scan are
// skipped and reported in the aggregated scanErrs value; err is reserved for
// failures of the query itself, which make the whole result set untrustworthy.
func (p *Pipeline) Extract(ctx context.Context) (result []SourceRow, scanErrs, err error) {
	rows, err := p.source.QueryContext(ctx, extractQuery)
	if err != nil {
		return nil, nil, fmt.Errorf("query source sales: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row SourceRow
		if err := rows.Scan(
			&row.ID,
			&row.ProductName,
			&row.Quantity,
			&row.Price,
			&row.SaleDate,
			&row.Category,
			&row.Region,
			&row.CustomerID,
		); err != nil {
			scanErrs = multierr.Append(scanErrs, fmt.Errorf("scan source row: %w", err))
			continue
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate source rows: %w", err)
	}
	return result, scanErrs, nil
}

// Transform derives the computed fields for every source row. Rows whose id
// falls in the API range are skipped so they cannot collide with records the
// ingestion service created.
func (p *Pipeline) Transform(rows []SourceRow) ([]models.Sale, int) {
	processedAt := p.now().UTC().Format(time.RFC3339)
	out := make([]models.Sale, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		if row.ID >= p.idFloor {
			skipped++
			continue
		}
		total, high, category := sale.DeriveRevenue(row.Quantity, row.Price)
		record := models.Sale{
			ID:              row.ID,
			ProductName:     row.ProductName,
			Quantity:        row.Quantity,
			Price:           row.Price,
			SaleDate:        normalizeSaleDate(row.SaleDate),
			Category:        row.Category.String,
			Region:          row.Region.String,
			CustomerID:      row.CustomerID.Int64,
			TotalRevenue:    total,
			IsHighValue:     high,
			RevenueCategory: category,
			ETLProcessedAt:  processedAt,
		}
		out = append(out, record)
	}
	return out, skipped
}

// Load replaces the seed records below the id floor with the transformed
// rows, inside a single transaction.
func (p *Pipeline) Load(ctx context.Context, records []models.Sale) (int64, error) {
	var deleted int64
	err := p.db.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := p.repo.WithTx(tx)
		var err error
		deleted, err = txRepo.DeleteSeedRecords(ctx, p.idFloor)
		if err != nil {
			return fmt.Errorf("delete seed sales: %w", err)
		}
		if err := txRepo.InsertBatch(ctx, records, p.batch); err != nil {
			return fmt.Errorf("insert seed sales: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// normalizeSaleDate reduces a scanned date value to YYYY-MM-DD. Drivers hand
// dates back either as plain strings or RFC3339 timestamps.
func normalizeSaleDate(value sql.NullString) string {
	if !value.Valid {
		return ""
	}
	s := value.String
	if len(s) > 10 {
		s = s[:10]
	}
	return s
}
