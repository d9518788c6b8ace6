package sale

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/dlemaitre/sales-analytics-backend/pkg/db"
	"github.com/dlemaitre/sales-analytics-backend/pkg/db/models"
	pkgerrors "github.com/dlemaitre/sales-analytics-backend/pkg/errors"
)

const (
	defaultCategory   = "General"
	defaultRegion     = "Unknown"
	defaultCustomerID = 1000

	// maxInsertRetries bounds the id allocation loop. Every lost insert means
	// another creation committed, so a worker can lose at most once per
	// concurrent peer; the bound only guards against a pathological store.
	maxInsertRetries = 32
	retryBaseDelay   = 2 * time.Millisecond
	retryMaxShift    = 5
)

// Service exposes sale ingestion.
type Service interface {
	CreateSale(ctx context.Context, input CreateSaleInput) (*models.Sale, error)
}

// CreateSaleInput is the raw creation payload before coercion. Quantity,
// price, and customer_id may arrive as JSON numbers or numeric strings.
type CreateSaleInput struct {
	ProductName string `json:"product_name"`
	Quantity    any    `json:"quantity"`
	Price       any    `json:"price"`
	SaleDate    string `json:"sale_date"`
	Category    string `json:"category"`
	Region      string `json:"region"`
	CustomerID  any    `json:"customer_id"`
}

type saleInserter interface {
	MaxID(ctx context.Context) (int64, bool, error)
	Insert(ctx context.Context, sale *models.Sale) error
}

// service implements the ingestion service.
type service struct {
	repo    saleInserter
	idFloor int64
	now     func() time.Time
}

// NewService constructs the ingestion service. idFloor is the first business
// id handed out when the store is empty.
func NewService(repo saleInserter, idFloor int64) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sale repository required")
	}
	if idFloor <= 0 {
		return nil, fmt.Errorf("id floor must be positive")
	}
	return &service{
		repo:    repo,
		idFloor: idFloor,
		now:     time.Now,
	}, nil
}

// CreateSale validates the raw input, derives the computed fields, and
// persists the record under the next free business id.
func (s *service) CreateSale(ctx context.Context, input CreateSaleInput) (*models.Sale, error) {
	productName := strings.TrimSpace(input.ProductName)
	if productName == "" || input.Quantity == nil || input.Price == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "missing required field")
	}

	quantity, ok := coerceNumber(input.Quantity)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid numeric value")
	}
	price, ok := coerceNumber(input.Price)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid numeric value")
	}

	customerID := int64(defaultCustomerID)
	if input.CustomerID != nil {
		if v, ok := coerceNumber(input.CustomerID); ok {
			customerID = int64(v)
		}
	}

	now := s.now().UTC()
	saleDate := strings.TrimSpace(input.SaleDate)
	if saleDate == "" {
		saleDate = now.Format("2006-01-02")
	}
	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = defaultCategory
	}
	region := strings.TrimSpace(input.Region)
	if region == "" {
		region = defaultRegion
	}

	totalRevenue, isHighValue, revenueCategory := DeriveRevenue(quantity, price)

	record := &models.Sale{
		ProductName:     productName,
		Quantity:        quantity,
		Price:           price,
		SaleDate:        saleDate,
		Category:        category,
		Region:          region,
		CustomerID:      customerID,
		TotalRevenue:    totalRevenue,
		IsHighValue:     isHighValue,
		RevenueCategory: revenueCategory,
		ETLProcessedAt:  now.Format(time.RFC3339),
	}

	if err := s.insertWithNextID(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// insertWithNextID allocates max+1 (or the floor on an empty store) and
// inserts. The lookup and the insert are not atomic, so a concurrent
// creation can win the same id; the primary key rejects the loser and the
// allocation is retried.
func (s *service) insertWithNextID(ctx context.Context, record *models.Sale) error {
	for attempt := 0; attempt < maxInsertRetries; attempt++ {
		if attempt > 0 {
			if err := backoff(ctx, attempt); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "canceled while allocating sale id")
			}
		}

		maxID, found, err := s.repo.MaxID(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: max sale id")
		}
		record.ID = s.idFloor
		if found {
			record.ID = maxID + 1
		}

		err = s.repo.Insert(ctx, record)
		if err == nil {
			return nil
		}
		if !db.IsUniqueViolation(err) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert sale")
		}
	}
	return pkgerrors.New(pkgerrors.CodeConflict, "could not allocate a sale id, please retry")
}

// backoff sleeps exponentially longer per attempt, with jitter so
// concurrent losers do not retry in lockstep.
func backoff(ctx context.Context, attempt int) error {
	shift := attempt - 1
	if shift > retryMaxShift {
		shift = retryMaxShift
	}
	delay := retryBaseDelay << uint(shift)
	delay += time.Duration(rand.Int63n(int64(retryBaseDelay)))

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}
