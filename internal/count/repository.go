package count

import (
	"context"
	"time"

	"github.com/opshub/inventory-count-service/internal/count/dto"
	"github.com/opshub/inventory-count-service/internal/model"
)

type Repository interface {
	// Counts
	CreateCount(ctx context.Context, c *model.InventoryCount) error
	GetCount(ctx context.Context, id string) (*model.InventoryCount, error)
	SetAggregates(ctx context.Context, id string, totalItems int, completionPercentage float64, varianceCount int) error
	// TransitionStatus flips the status only when the row is still at `from`
	// and not voided; reports whether a row was changed. This conditional
	// update is the at-most-once gate for count completion.
	TransitionStatus(ctx context.Context, id string, from, to model.CountStatus) (bool, error)
	MarkVoided(ctx context.Context, id, reason, actorID string, at time.Time) (bool, error)

	// Count items
	InsertCountItems(ctx context.Context, items []model.InventoryCountItem) error
	HasCountItems(ctx context.Context, countID string) (bool, error)
	ListCountItems(ctx context.Context, countID string) ([]model.InventoryCountItem, error)
	// ApplyItemUpdate writes one batch submission, addressed by catalog item id.
	ApplyItemUpdate(ctx context.Context, countID, itemID string, actualQuantity float64, notes, countedBy *string, at time.Time) error
	// AddToActual is a single-statement store-side increment
	// (COALESCE(actual_quantity,0) + delta) addressed by the count item's own
	// id; returns the new value.
	AddToActual(ctx context.Context, countID, countItemID string, delta float64, countedBy *string, at time.Time) (float64, error)
	SetActual(ctx context.Context, countID, countItemID string, actualQuantity float64, notes, countedBy *string, at time.Time) error
	SetExpected(ctx context.Context, countID, itemID string, expected float64) error
	Stats(ctx context.Context, countID string, epsilon float64) (*dto.CountStats, error)

	// Seeding inputs
	TemplateRows(ctx context.Context, templateID string) ([]dto.TemplateRow, error)
	ActiveItemRows(ctx context.Context, organizationID string) ([]dto.ActiveItemRow, error)

	// Reconciliation
	ItemStock(ctx context.Context, itemID string) (float64, error)
	SetItemStock(ctx context.Context, itemID string, stock float64, at time.Time) error
	InsertTransaction(ctx context.Context, t *model.InventoryTransaction) error
}
