package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lifeimang/dfresh/internal/catalog"
)

// LineItem is one displayable cart row. Prices come from the catalog at read
// time, so subtotals always reflect current pricing.
type LineItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Unit      string          `json:"unit"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Stock     int64           `json:"stock"`
}

// CartView is the display-ready cart read model. Aggregates are recomputed on
// every read and never cached. Item order carries no guarantee.
type CartView struct {
	Items       []LineItem      `json:"items"`
	EntryCount  int64           `json:"entry_count"`
	TotalUnits  int64           `json:"total_units"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

func newLineItem(availability *catalog.Availability, quantity int64) LineItem {
	return LineItem{
		ProductID: availability.ProductID,
		Name:      availability.Name,
		Unit:      availability.Unit,
		Quantity:  quantity,
		UnitPrice: availability.Price,
		Subtotal:  availability.Price.Mul(decimal.NewFromInt(quantity)),
		Stock:     availability.Stock,
	}
}

func newCartView(lines []LineItem) *CartView {
	view := &CartView{
		Items:       lines,
		EntryCount:  int64(len(lines)),
		TotalAmount: decimal.Zero,
	}
	for _, line := range lines {
		view.TotalUnits += line.Quantity
		view.TotalAmount = view.TotalAmount.Add(line.Subtotal)
	}
	return view
}
