package sale

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/dlemaitre/sales-analytics-backend/pkg/db/models"
)

// Revenue thresholds are strict: revenue of exactly 1000 is Medium, exactly
// 500 is Low.
const (
	highValueThreshold   = 1000
	mediumValueThreshold = 500
)

// DeriveRevenue computes the fields derived from quantity and price. The
// ingestion service and the ETL loader share the same rules.
func DeriveRevenue(quantity, price float64) (totalRevenue float64, isHighValue bool, revenueCategory string) {
	totalRevenue = quantity * price
	isHighValue = totalRevenue > highValueThreshold
	switch {
	case totalRevenue > highValueThreshold:
		revenueCategory = models.RevenueCategoryHigh
	case totalRevenue > mediumValueThreshold:
		revenueCategory = models.RevenueCategoryMedium
	default:
		revenueCategory = models.RevenueCategoryLow
	}
	return totalRevenue, isHighValue, revenueCategory
}

// coerceNumber converts a raw JSON value into a float64. Numbers pass
// through, numeric strings are parsed, everything else fails.
func coerceNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
