package model

import (
	"math"
	"time"
)

// VarianceEpsilon is the threshold beyond which a counted quantity is treated
// as a real variance against its baseline. Inherited from the legacy system;
// not validated for unit scales that count by the thousand.
const VarianceEpsilon = 0.01

type CountStatus string

const (
	CountStatusInProgress CountStatus = "in_progress"
	CountStatusCompleted  CountStatus = "completed"
	CountStatusCancelled  CountStatus = "cancelled"
)

// CanTransition reports whether a status change is legal. Completed and
// cancelled are terminal; voiding is tracked separately because a count can
// be voided even after completion.
func (s CountStatus) CanTransition(to CountStatus) bool {
	if s != CountStatusInProgress {
		return false
	}
	return to == CountStatusCompleted || to == CountStatusCancelled
}

func (s CountStatus) Terminal() bool {
	return s == CountStatusCompleted || s == CountStatusCancelled
}

// InventoryCount is one counting session. Aggregate fields are derived from
// the session's line items and rewritten wholesale on every recalculation.
type InventoryCount struct {
	BaseModel
	OrganizationID       string      `db:"organization_id" json:"organization_id"`
	TemplateID           *string     `db:"template_id" json:"template_id"`
	Status               CountStatus `db:"status" json:"status"`
	CountDate            time.Time   `db:"count_date" json:"count_date"`
	ConductedBy          *string     `db:"conducted_by" json:"conducted_by"`
	Notes                *string     `db:"notes" json:"notes"`
	TotalItemsCount      int         `db:"total_items_count" json:"total_items_count"`
	CompletionPercentage float64     `db:"completion_percentage" json:"completion_percentage"`
	VarianceCount        int         `db:"variance_count" json:"variance_count"`
	IsVoided             bool        `db:"is_voided" json:"is_voided"`
	VoidReason           *string     `db:"void_reason" json:"void_reason"`
	VoidedBy             *string     `db:"voided_by" json:"voided_by"`
	VoidedAt             *time.Time  `db:"voided_at" json:"voided_at"`
}

// Active reports whether the count still accepts counting operations.
func (c *InventoryCount) Active() bool {
	return c.Status == CountStatusInProgress && !c.IsVoided
}

// InventoryCountItem is one line in a count. InStockQuantity is the expected
// baseline captured at initialization time, a snapshot rather than a live
// value. ActualQuantity is nil exactly until the line has been counted.
type InventoryCountItem struct {
	ID                      string     `db:"id" json:"id"`
	CountID                 string     `db:"count_id" json:"count_id"`
	ItemID                  string     `db:"item_id" json:"item_id"`
	InStockQuantity         float64    `db:"in_stock_quantity" json:"in_stock_quantity"`
	ActualQuantity          *float64   `db:"actual_quantity" json:"actual_quantity"`
	TemplateMinimumQuantity *float64   `db:"template_minimum_quantity" json:"template_minimum_quantity"`
	TemplateMaximumQuantity *float64   `db:"template_maximum_quantity" json:"template_maximum_quantity"`
	Notes                   *string    `db:"notes" json:"notes"`
	CountedBy               *string    `db:"counted_by" json:"counted_by"`
	CountedAt               *time.Time `db:"counted_at" json:"counted_at"`
	CreatedAt               time.Time  `db:"created_at" json:"created_at"`
}

func (ci *InventoryCountItem) Counted() bool {
	return ci.ActualQuantity != nil
}

// Variant reports whether the counted quantity differs from the baseline by
// more than VarianceEpsilon. Uncounted lines are never variant.
func (ci *InventoryCountItem) Variant() bool {
	if ci.ActualQuantity == nil {
		return false
	}
	return math.Abs(*ci.ActualQuantity-ci.InStockQuantity) > VarianceEpsilon
}
