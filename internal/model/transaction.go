package model

import "time"

type TransactionType string

const (
	// TransactionTypeAdjustment marks a reconciliation-sourced stock change.
	TransactionTypeAdjustment TransactionType = "adjustment"
)

// InventoryTransaction is an immutable audit record of a stock change.
// Append-only: the engine exposes no update or delete surface for it.
// The sum of all deltas for an item, applied to an initial stock of zero,
// equals the item's current stock.
type InventoryTransaction struct {
	ID             string          `db:"id" json:"id"`
	OrganizationID string          `db:"organization_id" json:"organization_id"`
	ItemID         string          `db:"item_id" json:"item_id"`
	Type           TransactionType `db:"transaction_type" json:"transaction_type"`
	Quantity       float64         `db:"quantity" json:"quantity"` // signed delta
	ReferenceType  *string         `db:"reference_type" json:"reference_type"`
	ReferenceID    *string         `db:"reference_id" json:"reference_id"`
	Notes          string          `db:"notes" json:"notes"`
	CreatedBy      *string         `db:"created_by" json:"created_by"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}
