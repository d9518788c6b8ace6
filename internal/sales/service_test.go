package sale

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dlemaitre/sales-analytics-backend/pkg/db/models"
	pkgerrors "github.com/dlemaitre/sales-analytics-backend/pkg/errors"
)

// stubStore enforces id uniqueness under a mutex so allocation races can be
// exercised without a database.
type stubStore struct {
	mu        sync.Mutex
	rows      map[int64]*models.Sale
	maxErr    error
	insertErr error
	// raceDelay widens the window between MaxID and Insert.
	raceDelay time.Duration
}

func newStubStore() *stubStore {
	return &stubStore{rows: make(map[int64]*models.Sale)}
}

func (s *stubStore) MaxID(ctx context.Context) (int64, bool, error) {
	if s.maxErr != nil {
		return 0, false, s.maxErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var max int64
	found := false
	for id := range s.rows {
		if !found || id > max {
			max = id
			found = true
		}
	}
	return max, found, nil
}

func (s *stubStore) Insert(ctx context.Context, record *models.Sale) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	if s.raceDelay > 0 {
		time.Sleep(s.raceDelay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rows[record.ID]; exists {
		return errors.New("duplicate key value violates unique constraint \"sales_pkey\"")
	}
	copied := *record
	s.rows[record.ID] = &copied
	return nil
}

func newTestService(t *testing.T, store *stubStore) *service {
	t.Helper()
	svc, err := NewService(store, 1000)
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	return svc.(*service)
}

func TestCreateSaleMissingFields(t *testing.T) {
	svc := newTestService(t, newStubStore())

	cases := []struct {
		name  string
		input CreateSaleInput
	}{
		{"noProductName", CreateSaleInput{Quantity: 2.0, Price: 10.0}},
		{"blankProductName", CreateSaleInput{ProductName: "   ", Quantity: 2.0, Price: 10.0}},
		{"noQuantity", CreateSaleInput{ProductName: "Widget", Price: 10.0}},
		{"noPrice", CreateSaleInput{ProductName: "Widget", Quantity: 2.0}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateSale(context.Background(), tc.input)
			if err == nil {
				t.Fatal("expected validation error")
			}
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error code, got %v", err)
			}
			if typed.Message() != "missing required field" {
				t.Fatalf("unexpected message %q", typed.Message())
			}
		})
	}
}

func TestCreateSaleInvalidNumbers(t *testing.T) {
	svc := newTestService(t, newStubStore())

	cases := []struct {
		name  string
		input CreateSaleInput
	}{
		{"quantityNotNumeric", CreateSaleInput{ProductName: "Widget", Quantity: "abc", Price: 10.0}},
		{"priceNotNumeric", CreateSaleInput{ProductName: "Widget", Quantity: 2.0, Price: "ten"}},
		{"quantityWrongType", CreateSaleInput{ProductName: "Widget", Quantity: []any{1}, Price: 10.0}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateSale(context.Background(), tc.input)
			if err == nil {
				t.Fatal("expected validation error")
			}
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error code, got %v", err)
			}
			if typed.Message() != "invalid numeric value" {
				t.Fatalf("unexpected message %q", typed.Message())
			}
		})
	}
}

func TestCreateSaleCoercesNumericStrings(t *testing.T) {
	store := newStubStore()
	svc := newTestService(t, store)

	record, err := svc.CreateSale(context.Background(), CreateSaleInput{
		ProductName: "Widget",
		Quantity:    "3",
		Price:       "19.99",
		CustomerID:  "2048",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.Quantity != 3 {
		t.Fatalf("expected quantity 3, got %v", record.Quantity)
	}
	if record.Price != 19.99 {
		t.Fatalf("expected price 19.99, got %v", record.Price)
	}
	if record.CustomerID != 2048 {
		t.Fatalf("expected customer_id 2048, got %v", record.CustomerID)
	}
}

func TestCreateSaleDefaults(t *testing.T) {
	store := newStubStore()
	svc := newTestService(t, store)
	svc.now = func() time.Time {
		return time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	}

	record, err := svc.CreateSale(context.Background(), CreateSaleInput{
		ProductName: "Widget",
		Quantity:    2.0,
		Price:       10.0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if record.SaleDate != "2025-06-15" {
		t.Fatalf("expected today's date, got %q", record.SaleDate)
	}
	if record.Category != "General" {
		t.Fatalf("expected default category, got %q", record.Category)
	}
	if record.Region != "Unknown" {
		t.Fatalf("expected default region, got %q", record.Region)
	}
	if record.CustomerID != 1000 {
		t.Fatalf("expected default customer_id, got %d", record.CustomerID)
	}
	if record.ETLProcessedAt != "2025-06-15T10:30:00Z" {
		t.Fatalf("unexpected etl_processed_at %q", record.ETLProcessedAt)
	}
}

func TestCreateSaleDerivedFields(t *testing.T) {
	cases := []struct {
		name         string
		quantity     float64
		price        float64
		wantRevenue  float64
		wantHigh     bool
		wantCategory string
	}{
		{"exactlyHighThreshold", 10, 100, 1000, false, models.RevenueCategoryMedium},
		{"justAboveHighThreshold", 1, 1000.01, 1000.01, true, models.RevenueCategoryHigh},
		{"exactlyMediumThreshold", 5, 100, 500, false, models.RevenueCategoryLow},
		{"justAboveMediumThreshold", 1, 500.01, 500.01, false, models.RevenueCategoryMedium},
		{"low", 2, 10, 20, false, models.RevenueCategoryLow},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestService(t, newStubStore())
			record, err := svc.CreateSale(context.Background(), CreateSaleInput{
				ProductName: "Widget",
				Quantity:    tc.quantity,
				Price:       tc.price,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if record.TotalRevenue != tc.wantRevenue {
				t.Fatalf("expected revenue %v, got %v", tc.wantRevenue, record.TotalRevenue)
			}
			if record.IsHighValue != tc.wantHigh {
				t.Fatalf("expected is_high_value %v, got %v", tc.wantHigh, record.IsHighValue)
			}
			if record.RevenueCategory != tc.wantCategory {
				t.Fatalf("expected category %q, got %q", tc.wantCategory, record.RevenueCategory)
			}
		})
	}
}

func TestCreateSaleIDAssignment(t *testing.T) {
	store := newStubStore()
	svc := newTestService(t, store)

	first, err := svc.CreateSale(context.Background(), CreateSaleInput{
		ProductName: "Widget", Quantity: 1.0, Price: 10.0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.ID != 1000 {
		t.Fatalf("first sale on an empty store should get id 1000, got %d", first.ID)
	}

	store.rows[1050] = &models.Sale{ID: 1050}
	second, err := svc.CreateSale(context.Background(), CreateSaleInput{
		ProductName: "Widget", Quantity: 1.0, Price: 10.0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.ID != 1051 {
		t.Fatalf("expected id max+1 = 1051, got %d", second.ID)
	}
}

func TestCreateSaleConcurrentIDAllocation(t *testing.T) {
	store := newStubStore()
	store.raceDelay = time.Millisecond
	svc := newTestService(t, store)

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateSale(context.Background(), CreateSaleInput{
				ProductName: "Widget", Quantity: 1.0, Price: 10.0,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	// every allocation must land, losers retry until they find a free id
	for err := range errs {
		if err != nil {
			t.Fatalf("creation failed under contention: %v", err)
		}
	}
	if len(store.rows) != workers {
		t.Fatalf("expected %d stored rows, got %d", workers, len(store.rows))
	}
	for id := int64(1000); id < 1000+int64(workers); id++ {
		if _, ok := store.rows[id]; !ok {
			t.Fatalf("expected id %d to be allocated", id)
		}
	}
}

func TestCreateSaleStoreErrors(t *testing.T) {
	store := newStubStore()
	store.maxErr = errors.New("connection refused")
	svc := newTestService(t, store)

	_, err := svc.CreateSale(context.Background(), CreateSaleInput{
		ProductName: "Widget", Quantity: 1.0, Price: 10.0,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}

	store = newStubStore()
	store.insertErr = errors.New("disk full")
	svc = newTestService(t, store)
	_, err = svc.CreateSale(context.Background(), CreateSaleInput{
		ProductName: "Widget", Quantity: 1.0, Price: 10.0,
	})
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestNewServiceValidation(t *testing.T) {
	if _, err := NewService(nil, 1000); err == nil {
		t.Fatal("expected error for nil repository")
	}
	if _, err := NewService(newStubStore(), 0); err == nil {
		t.Fatal("expected error for non-positive id floor")
	}
}
