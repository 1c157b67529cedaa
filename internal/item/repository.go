package item

import (
	"context"
	"errors"

	"github.com/opshub/inventory-count-service/internal/item/dto"
	"github.com/opshub/inventory-count-service/internal/model"
)

// Sentinel errors the Postgres repository maps unique violations onto, so
// callers can tell an SKU collision from a barcode collision from anything
// else.
var (
	ErrSKUConflict     = errors.New("sku is already used by another item")
	ErrBarcodeConflict = errors.New("barcode is already used by another item")
)

type Repository interface {
	Create(ctx context.Context, i *model.InventoryItem) error
	Update(ctx context.Context, i *model.InventoryItem) error
	FindByID(ctx context.Context, id string) (*model.InventoryItem, error)
	// FindActiveBySKU matches case-sensitively among active items in the
	// organization, optionally excluding one item id (edit flows).
	FindActiveBySKU(ctx context.Context, organizationID, sku, excludeID string) (*model.InventoryItem, error)
	FindActiveByBarcode(ctx context.Context, organizationID, barcode, excludeID string) (*model.InventoryItem, error)
	// Deactivate soft-deletes; items are never physically removed.
	Deactivate(ctx context.Context, id string) error

	// NextSKUSequence calls the store-side atomic counter keyed by
	// (organization, prefix). Concurrent callers never observe the same value.
	NextSKUSequence(ctx context.Context, organizationID, prefix string) (int64, error)

	ListTransactions(ctx context.Context, f *dto.TransactionFilters) ([]model.InventoryTransaction, int, error)
}
