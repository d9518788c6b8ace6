package models

import "time"

// Revenue classification tiers for a sale's total revenue.
const (
	RevenueCategoryHigh   = "High"
	RevenueCategoryMedium = "Medium"
	RevenueCategoryLow    = "Low"
)

// Sale is one persisted sales transaction. The business id is assigned by the
// ingestion service (API records, id >= 1000) or carried over from the source
// system by the ETL loader (seed records, id < 1000); it is the primary key,
// not a store-generated surrogate.
type Sale struct {
	ID              int64     `gorm:"column:id;primaryKey;autoIncrement:false" json:"id"`
	ProductName     string    `gorm:"column:product_name;not null" json:"product_name"`
	Quantity        float64   `gorm:"column:quantity;not null" json:"quantity"`
	Price           float64   `gorm:"column:price;not null" json:"price"`
	SaleDate        string    `gorm:"column:sale_date;not null" json:"sale_date"`
	Category        string    `gorm:"column:category;not null" json:"category"`
	Region          string    `gorm:"column:region;not null" json:"region"`
	CustomerID      int64     `gorm:"column:customer_id;not null" json:"customer_id"`
	TotalRevenue    float64   `gorm:"column:total_revenue;not null" json:"total_revenue"`
	IsHighValue     bool      `gorm:"column:is_high_value;not null" json:"is_high_value"`
	RevenueCategory string    `gorm:"column:revenue_category;not null" json:"revenue_category"`
	ETLProcessedAt  string    `gorm:"column:etl_processed_at;not null" json:"etl_processed_at"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName pins the table used by the ETL loader and the API alike.
func (Sale) TableName() string {
	return "sales"
}
