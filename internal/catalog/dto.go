package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lifeimang/dfresh/pkg/db/models"
)

// Availability carries the stock and price figures the cart checks against.
type Availability struct {
	ProductID uuid.UUID
	Name      string
	Unit      string
	Price     decimal.Decimal
	Stock     int64
}

// ProductDTO represents the product payload returned to clients.
type ProductDTO struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Summary   *string         `json:"summary,omitempty"`
	Unit      string          `json:"unit"`
	Price     decimal.Decimal `json:"price"`
	Stock     int64           `json:"stock"`
	Sales     int64           `json:"sales"`
	ImageURL  *string         `json:"image_url,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewProductDTO builds a DTO from the persisted model.
func NewProductDTO(product *models.Product) *ProductDTO {
	return &ProductDTO{
		ID:        product.ID,
		Name:      product.Name,
		Summary:   product.Summary,
		Unit:      product.Unit,
		Price:     product.Price,
		Stock:     product.Stock,
		Sales:     product.Sales,
		ImageURL:  product.ImageURL,
		CreatedAt: product.CreatedAt,
		UpdatedAt: product.UpdatedAt,
	}
}

func newAvailability(product *models.Product) *Availability {
	return &Availability{
		ProductID: product.ID,
		Name:      product.Name,
		Unit:      product.Unit,
		Price:     product.Price,
		Stock:     product.Stock,
	}
}
