package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is one sellable SKU in the catalog. Stock and price on this row are
// the authoritative figures the cart checks against.
type Product struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string          `gorm:"column:name;not null"`
	Summary   *string         `gorm:"column:summary"`
	Unit      string          `gorm:"column:unit;not null;default:'piece'"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	Stock     int64           `gorm:"column:stock;not null;default:0"`
	Sales     int64           `gorm:"column:sales;not null;default:0"`
	ImageURL  *string         `gorm:"column:image_url"`
	IsActive  bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
