package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/opshub/inventory-count-service/internal/auth"
	"github.com/opshub/inventory-count-service/internal/item"
	"github.com/opshub/inventory-count-service/internal/item/dto"
	"github.com/opshub/inventory-count-service/internal/model"
	"github.com/opshub/inventory-count-service/pkg/search"
	"go.uber.org/zap"
)

const itemIndex = "inventory_items"

type itemUseCase struct {
	repo   item.Repository
	es     *search.Client
	logger *zap.Logger
}

// NewItemUseCase wires the catalog slice the count engine owns. es may be nil;
// index sync is best-effort and never blocks catalog writes.
func NewItemUseCase(repo item.Repository, es *search.Client, log *zap.Logger) item.UseCase {
	return &itemUseCase{
		repo:   repo,
		es:     es,
		logger: log,
	}
}

func (uc *itemUseCase) GenerateSKU(ctx context.Context, organizationID, categoryName string) (string, error) {
	if organizationID == "" {
		return "", item.ErrNoOrganization
	}

	prefix := skuPrefix(categoryName)
	seq, err := uc.repo.NextSKUSequence(ctx, organizationID, prefix)
	if err != nil {
		// Degraded but never fatal: forward progress over readable prefixes.
		sku := fallbackSKU()
		uc.logger.Warn("atomic SKU sequence unavailable, using timestamp fallback",
			zap.String("organization_id", organizationID),
			zap.String("prefix", prefix),
			zap.String("fallback_sku", sku),
			zap.Error(err),
		)
		return sku, nil
	}

	return fmt.Sprintf("%s-%04d", prefix, seq), nil
}

func (uc *itemUseCase) CheckSKUUnique(ctx context.Context, organizationID, sku, excludeItemID string) (*dto.UniquenessResult, error) {
	if organizationID == "" {
		return nil, item.ErrNoOrganization
	}

	existing, err := uc.repo.FindActiveBySKU(ctx, organizationID, sku, excludeItemID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return &dto.UniquenessResult{Unique: true}, nil
	}
	return &dto.UniquenessResult{
		Unique:           false,
		Field:            "sku",
		ConflictItemID:   existing.ID,
		ConflictItemName: existing.Name,
	}, nil
}

func (uc *itemUseCase) CheckBarcodeUnique(ctx context.Context, organizationID, barcode, excludeItemID string) (*dto.UniquenessResult, error) {
	if organizationID == "" {
		return nil, item.ErrNoOrganization
	}

	existing, err := uc.repo.FindActiveByBarcode(ctx, organizationID, barcode, excludeItemID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return &dto.UniquenessResult{Unique: true}, nil
	}
	return &dto.UniquenessResult{
		Unique:           false,
		Field:            "barcode",
		ConflictItemID:   existing.ID,
		ConflictItemName: existing.Name,
	}, nil
}

func (uc *itemUseCase) CreateItem(ctx context.Context, input *dto.CreateItemInput) (*model.InventoryItem, error) {
	if input.OrganizationID == "" {
		input.OrganizationID = auth.OrganizationID(ctx)
	}
	if input.CreatedBy == "" {
		input.CreatedBy = auth.UserID(ctx)
	}
	if input.OrganizationID == "" {
		return nil, item.ErrNoOrganization
	}

	sku := strings.TrimSpace(input.SKU)
	if sku == "" {
		generated, err := uc.GenerateSKU(ctx, input.OrganizationID, input.CategoryName)
		if err != nil {
			return nil, err
		}
		sku = generated
	} else {
		res, err := uc.CheckSKUUnique(ctx, input.OrganizationID, sku, "")
		if err != nil {
			return nil, err
		}
		if !res.Unique {
			return nil, fmt.Errorf("sku %q is already used by %q: %w", sku, res.ConflictItemName, item.ErrSKUConflict)
		}
	}

	if barcode := strings.TrimSpace(input.Barcode); barcode != "" {
		res, err := uc.CheckBarcodeUnique(ctx, input.OrganizationID, barcode, "")
		if err != nil {
			return nil, err
		}
		if !res.Unique {
			return nil, fmt.Errorf("barcode is already used by %q: %w", res.ConflictItemName, item.ErrBarcodeConflict)
		}
	}

	now := time.Now()
	i := &model.InventoryItem{
		BaseModel:      model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		OrganizationID: input.OrganizationID,
		CategoryID:     optional(input.CategoryID),
		SKU:            sku,
		Barcode:        optional(strings.TrimSpace(input.Barcode)),
		Name:           input.Name,
		Description:    optional(input.Description),
		Unit:           optional(input.Unit),
		CurrentStock:   input.CurrentStock,
		IsActive:       true,
		CreatedBy:      optional(input.CreatedBy),
	}

	// The pre-checks race against concurrent creates; the store's unique
	// constraints are the backstop and the repository maps them to the same
	// sentinels.
	if err := uc.repo.Create(ctx, i); err != nil {
		return nil, err
	}

	go uc.syncToIndex(context.Background(), i)

	return i, nil
}

func (uc *itemUseCase) UpdateItem(ctx context.Context, input *dto.UpdateItemInput) (*model.InventoryItem, error) {
	if input.OrganizationID == "" {
		return nil, item.ErrNoOrganization
	}

	i, err := uc.repo.FindByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if i == nil {
		return nil, item.ErrItemNotFound
	}

	sku := strings.TrimSpace(input.SKU)
	if sku != "" && sku != i.SKU {
		res, err := uc.CheckSKUUnique(ctx, input.OrganizationID, sku, i.ID)
		if err != nil {
			return nil, err
		}
		if !res.Unique {
			return nil, fmt.Errorf("sku %q is already used by %q: %w", sku, res.ConflictItemName, item.ErrSKUConflict)
		}
		i.SKU = sku
	}

	barcode := strings.TrimSpace(input.Barcode)
	if barcode != "" && (i.Barcode == nil || barcode != *i.Barcode) {
		res, err := uc.CheckBarcodeUnique(ctx, input.OrganizationID, barcode, i.ID)
		if err != nil {
			return nil, err
		}
		if !res.Unique {
			return nil, fmt.Errorf("barcode is already used by %q: %w", res.ConflictItemName, item.ErrBarcodeConflict)
		}
	}
	i.Barcode = optional(barcode)

	i.Name = input.Name
	i.CategoryID = optional(input.CategoryID)
	i.Description = optional(input.Description)
	i.Unit = optional(input.Unit)
	i.UpdatedAt = time.Now()

	if err := uc.repo.Update(ctx, i); err != nil {
		return nil, err
	}

	go uc.syncToIndex(context.Background(), i)

	return i, nil
}

func (uc *itemUseCase) DeactivateItem(ctx context.Context, id string) error {
	i, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if i == nil {
		return item.ErrItemNotFound
	}

	if err := uc.repo.Deactivate(ctx, id); err != nil {
		return err
	}

	go uc.removeFromIndex(context.Background(), id)

	return nil
}

func (uc *itemUseCase) GetItem(ctx context.Context, id string) (*model.InventoryItem, error) {
	i, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if i == nil {
		return nil, item.ErrItemNotFound
	}
	return i, nil
}

func (uc *itemUseCase) GetByBarcode(ctx context.Context, organizationID, barcode string) (*model.InventoryItem, error) {
	if organizationID == "" {
		return nil, item.ErrNoOrganization
	}
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, item.ErrItemNotFound
	}
	i, err := uc.repo.FindActiveByBarcode(ctx, organizationID, barcode, "")
	if err != nil {
		return nil, err
	}
	if i == nil {
		return nil, item.ErrItemNotFound
	}
	return i, nil
}

func (uc *itemUseCase) ListTransactions(ctx context.Context, f *dto.TransactionFilters) ([]model.InventoryTransaction, int, error) {
	if f.OrganizationID == "" {
		return nil, 0, item.ErrNoOrganization
	}
	return uc.repo.ListTransactions(ctx, f)
}

func (uc *itemUseCase) syncToIndex(ctx context.Context, i *model.InventoryItem) {
	if uc.es == nil {
		return
	}

	mapping := `{
		"mappings": {
			"properties": {
				"organization_id": { "type": "keyword" },
				"name": { "type": "text" },
				"sku": { "type": "keyword" },
				"barcode": { "type": "keyword" },
				"current_stock": { "type": "double" },
				"is_active": { "type": "boolean" },
				"created_at": { "type": "date" }
			}
		}
	}`
	_ = uc.es.CreateIndex(ctx, itemIndex, mapping)

	if err := uc.es.Index(ctx, itemIndex, i.ID, i); err != nil {
		uc.logger.Error("failed to index inventory item", zap.String("item_id", i.ID), zap.Error(err))
	}
}

func (uc *itemUseCase) removeFromIndex(ctx context.Context, id string) {
	if uc.es == nil {
		return
	}
	if err := uc.es.Delete(ctx, itemIndex, id); err != nil {
		uc.logger.Error("failed to remove inventory item from index", zap.String("item_id", id), zap.Error(err))
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
