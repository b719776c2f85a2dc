package cart

// AddItemRequest adds a delta to the stored quantity of one product.
// Quantity carries no validate tag on purpose: a missing or non-positive
// value is reported as INVALID_QUANTITY by the service, while an unparseable
// body stays a plain validation failure.
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int64  `json:"quantity"`
}

// UpdateItemRequest replaces the stored quantity with an absolute value.
type UpdateItemRequest struct {
	Quantity int64 `json:"quantity"`
}
