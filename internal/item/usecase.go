package item

import (
	"context"
	"errors"

	"github.com/opshub/inventory-count-service/internal/item/dto"
	"github.com/opshub/inventory-count-service/internal/model"
)

var (
	ErrNoOrganization = errors.New("organization scope required")
	ErrItemNotFound   = errors.New("inventory item not found")
)

type UseCase interface {
	// GenerateSKU returns an SKU unique within the organization. The numeric
	// suffix comes from a store-side atomic counter; on any failure of that
	// path it degrades to a timestamp-derived fallback rather than failing.
	GenerateSKU(ctx context.Context, organizationID, categoryName string) (string, error)

	// CheckSKUUnique supports manual SKU entry: exact match against active
	// items, excluding excludeItemID, with the conflicting item named in the
	// result.
	CheckSKUUnique(ctx context.Context, organizationID, sku, excludeItemID string) (*dto.UniquenessResult, error)
	CheckBarcodeUnique(ctx context.Context, organizationID, barcode, excludeItemID string) (*dto.UniquenessResult, error)

	CreateItem(ctx context.Context, input *dto.CreateItemInput) (*model.InventoryItem, error)
	UpdateItem(ctx context.Context, input *dto.UpdateItemInput) (*model.InventoryItem, error)
	DeactivateItem(ctx context.Context, id string) error
	GetItem(ctx context.Context, id string) (*model.InventoryItem, error)
	GetByBarcode(ctx context.Context, organizationID, barcode string) (*model.InventoryItem, error)

	ListTransactions(ctx context.Context, f *dto.TransactionFilters) ([]model.InventoryTransaction, int, error)
}
