package count

import (
	"context"
	"errors"

	"github.com/opshub/inventory-count-service/internal/count/dto"
	"github.com/opshub/inventory-count-service/internal/model"
)

var (
	ErrNoOrganization     = errors.New("organization scope required")
	ErrNoActor            = errors.New("caller identity required")
	ErrCountNotFound      = errors.New("inventory count not found")
	ErrCountNotActive     = errors.New("inventory count is not in progress")
	ErrCountVoided        = errors.New("inventory count has been voided")
	ErrCountItemNotFound  = errors.New("count line item not found")
	ErrAlreadyInitialized = errors.New("inventory count already has line items")
	ErrVoidReasonRequired = errors.New("void reason required")
)

type UseCase interface {
	// Start creates an in_progress count and seeds its line items.
	Start(ctx context.Context, input *dto.StartCountInput) (*model.InventoryCount, error)

	// Initialize populates line items for a newly created, empty count: from
	// the template when given, otherwise from the full active catalog. Zero
	// eligible items is not an error.
	Initialize(ctx context.Context, countID string, templateID *string) error

	// SubmitBatch applies independent per-item submissions in bounded
	// concurrent chunks. Per-item failures come back in the result, never as
	// an error; the error return is reserved for caller-level mistakes.
	SubmitBatch(ctx context.Context, countID string, updates []dto.ItemUpdate) (*dto.BulkUpdateResult, error)

	// Recalculate rewrites the count's aggregates from its current line items.
	Recalculate(ctx context.Context, countID string) error

	// Bump atomically adds delta to a line's actual quantity (nil counts as 0)
	// and returns the new value. Addressed by count item id, not catalog item
	// id.
	Bump(ctx context.Context, countID, countItemID string, delta float64, countedBy string) (float64, error)
	SetQuantity(ctx context.Context, countID, countItemID string, quantity float64, notes *string, countedBy string) error

	// Complete transitions the count to completed and reconciles: counted
	// quantities become authoritative stock, and each real variance emits one
	// adjustment transaction. At most one invocation per count can succeed.
	Complete(ctx context.Context, countID, actorID string) error

	Cancel(ctx context.Context, countID string) error
	// Void soft-deletes a count for compliance. Unlike Cancel it also applies
	// to completed counts; it never undoes reconciled stock.
	Void(ctx context.Context, countID, reason, actorID string) error

	// RepairExpectedQuantities re-derives the expected baselines from the
	// source template, or from current stock when there is no template.
	RepairExpectedQuantities(ctx context.Context, countID string) error

	GetCount(ctx context.Context, countID string) (*model.InventoryCount, error)
	ListCountItems(ctx context.Context, countID string) ([]model.InventoryCountItem, error)
}
