package model

// InventoryItem is a catalog entry. Items are never physically deleted;
// deactivation flips IsActive and hides the item from counts and lookups.
type InventoryItem struct {
	BaseModel
	OrganizationID string  `db:"organization_id" json:"organization_id"`
	CategoryID     *string `db:"category_id" json:"category_id"` // Nullable
	SKU            string  `db:"sku" json:"sku"`
	Barcode        *string `db:"barcode" json:"barcode"` // Nullable, unique per org when present
	Name           string  `db:"name" json:"name"`
	Description    *string `db:"description" json:"description"`
	Unit           *string `db:"unit" json:"unit"`
	CurrentStock   float64 `db:"current_stock" json:"current_stock"`
	IsActive       bool    `db:"is_active" json:"is_active"`
	CreatedBy      *string `db:"created_by" json:"created_by"`
}
