package dto

// UniquenessResult is the structured outcome of a manual-entry uniqueness
// check. When not unique, the conflicting item is named so the operator gets
// an actionable message instead of a bare constraint violation.
type UniquenessResult struct {
	Unique           bool   `json:"unique"`
	Field            string `json:"field,omitempty"` // "sku" or "barcode"
	ConflictItemID   string `json:"conflict_item_id,omitempty"`
	ConflictItemName string `json:"conflict_item_name,omitempty"`
}

type TransactionFilters struct {
	OrganizationID string
	ItemID         string
	Type           string
	ReferenceID    string
	Page           int
	PageSize       int
}
