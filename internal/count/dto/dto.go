package dto

// FailedItem carries one per-item write failure out of a batch, with enough
// detail for the operator to retry just that item.
type FailedItem struct {
	ItemID string `json:"item_id"`
	Error  string `json:"error"`
}

type BulkUpdateResult struct {
	Saved  int          `json:"saved"`
	Failed []FailedItem `json:"failed"`
}

// CountStats is the aggregate snapshot the recalculator derives from the
// current line items.
type CountStats struct {
	TotalItems    int `db:"total_items"`
	CountedItems  int `db:"counted_items"`
	VarianceItems int `db:"variance_items"`
}

// TemplateRow is a template line joined against its (still active) catalog
// item, carrying the live stock for the no-baseline fallback.
type TemplateRow struct {
	ItemID           string   `db:"item_id"`
	ExpectedQuantity *float64 `db:"expected_quantity"`
	MinimumQuantity  *float64 `db:"minimum_quantity"`
	MaximumQuantity  *float64 `db:"maximum_quantity"`
	CurrentStock     float64  `db:"current_stock"`
}

type ActiveItemRow struct {
	ItemID       string  `db:"item_id"`
	CurrentStock float64 `db:"current_stock"`
}
