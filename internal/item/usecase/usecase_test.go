package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/opshub/inventory-count-service/internal/item"
	"github.com/opshub/inventory-count-service/internal/item/dto"
	"github.com/opshub/inventory-count-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func seedItem(t *testing.T, repo *fakeItemRepo, id, sku, barcode, name string) *model.InventoryItem {
	t.Helper()
	i := &model.InventoryItem{
		BaseModel:      model.BaseModel{ID: id, CreatedAt: time.Now(), UpdatedAt: time.Now()},
		OrganizationID: "org-1",
		SKU:            sku,
		Name:           name,
		IsActive:       true,
	}
	if barcode != "" {
		i.Barcode = &barcode
	}
	require.NoError(t, repo.Create(context.Background(), i))
	return i
}

func TestCheckSKUUnique(t *testing.T) {
	repo := newFakeItemRepo()
	uc := NewItemUseCase(repo, nil, zap.NewNop())
	seedItem(t, repo, "item-1", "BEVE-0001", "", "Sparkling Water")

	res, err := uc.CheckSKUUnique(context.Background(), "org-1", "BEVE-0001", "")
	require.NoError(t, err)
	assert.False(t, res.Unique)
	assert.Equal(t, "sku", res.Field)
	assert.Equal(t, "item-1", res.ConflictItemID)
	assert.Equal(t, "Sparkling Water", res.ConflictItemName)

	// Excluding the holder itself makes the value available again, as edit
	// flows need.
	res, err = uc.CheckSKUUnique(context.Background(), "org-1", "BEVE-0001", "item-1")
	require.NoError(t, err)
	assert.True(t, res.Unique)

	res, err = uc.CheckSKUUnique(context.Background(), "org-1", "BEVE-0002", "")
	require.NoError(t, err)
	assert.True(t, res.Unique)
}

func TestCheckBarcodeUnique(t *testing.T) {
	repo := newFakeItemRepo()
	uc := NewItemUseCase(repo, nil, zap.NewNop())
	seedItem(t, repo, "item-1", "BEVE-0001", "4006381333931", "Sparkling Water")

	res, err := uc.CheckBarcodeUnique(context.Background(), "org-1", "4006381333931", "")
	require.NoError(t, err)
	assert.False(t, res.Unique)
	assert.Equal(t, "barcode", res.Field)
	assert.Equal(t, "Sparkling Water", res.ConflictItemName)
}

func TestCheckUniqueIgnoresInactiveItems(t *testing.T) {
	repo := newFakeItemRepo()
	uc := NewItemUseCase(repo, nil, zap.NewNop())
	seedItem(t, repo, "item-1", "BEVE-0001", "", "Sparkling Water")
	require.NoError(t, repo.Deactivate(context.Background(), "item-1"))

	res, err := uc.CheckSKUUnique(context.Background(), "org-1", "BEVE-0001", "")
	require.NoError(t, err)
	assert.True(t, res.Unique, "deactivated items must not block SKU reuse")
}

func TestCreateItemGeneratesSKUWhenBlank(t *testing.T) {
	repo := newFakeItemRepo()
	uc := NewItemUseCase(repo, nil, zap.NewNop())

	created, err := uc.CreateItem(context.Background(), &dto.CreateItemInput{
		OrganizationID: "org-1",
		Name:           "Whole Milk",
		CategoryName:   "Dairy Products",
		CurrentStock:   12,
	})
	require.NoError(t, err)
	assert.Equal(t, "DAPR-0001", created.SKU)
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.IsActive)
	assert.Nil(t, created.Barcode)
}

func TestCreateItemRejectsDuplicateSKU(t *testing.T) {
	repo := newFakeItemRepo()
	uc := NewItemUseCase(repo, nil, zap.NewNop())
	seedItem(t, repo, "item-1", "DAPR-0001", "", "Whole Milk")

	_, err := uc.CreateItem(context.Background(), &dto.CreateItemInput{
		OrganizationID: "org-1",
		Name:           "Skim Milk",
		SKU:            "DAPR-0001",
	})
	assert.ErrorIs(t, err, item.ErrSKUConflict)
}

func TestCreateItemRejectsDuplicateBarcode(t *testing.T) {
	repo := newFakeItemRepo()
	uc := NewItemUseCase(repo, nil, zap.NewNop())
	seedItem(t, repo, "item-1", "DAPR-0001", "4006381333931", "Whole Milk")

	_, err := uc.CreateItem(context.Background(), &dto.CreateItemInput{
		OrganizationID: "org-1",
		Name:           "Skim Milk",
		SKU:            "DAPR-0002",
		Barcode:        " 4006381333931 ",
	})
	assert.ErrorIs(t, err, item.ErrBarcodeConflict)
}

func TestUpdateItemSKUChangeRechecked(t *testing.T) {
	repo := newFakeItemRepo()
	uc := NewItemUseCase(repo, nil, zap.NewNop())
	seedItem(t, repo, "item-1", "DAPR-0001", "", "Whole Milk")
	seedItem(t, repo, "item-2", "DAPR-0002", "", "Skim Milk")

	_, err := uc.UpdateItem(context.Background(), &dto.UpdateItemInput{
		ID:             "item-2",
		OrganizationID: "org-1",
		Name:           "Skim Milk",
		SKU:            "DAPR-0001",
	})
	assert.ErrorIs(t, err, item.ErrSKUConflict)

	// Keeping the item's own SKU is not a conflict.
	updated, err := uc.UpdateItem(context.Background(), &dto.UpdateItemInput{
		ID:             "item-2",
		OrganizationID: "org-1",
		Name:           "Skim Milk 1L",
		SKU:            "DAPR-0002",
	})
	require.NoError(t, err)
	assert.Equal(t, "Skim Milk 1L", updated.Name)
	assert.Equal(t, "DAPR-0002", updated.SKU)
}

func TestGetByBarcode(t *testing.T) {
	repo := newFakeItemRepo()
	uc := NewItemUseCase(repo, nil, zap.NewNop())
	seedItem(t, repo, "item-1", "DAPR-0001", "4006381333931", "Whole Milk")

	found, err := uc.GetByBarcode(context.Background(), "org-1", "4006381333931")
	require.NoError(t, err)
	assert.Equal(t, "item-1", found.ID)

	_, err = uc.GetByBarcode(context.Background(), "org-1", "0000000000000")
	assert.ErrorIs(t, err, item.ErrItemNotFound)

	_, err = uc.GetByBarcode(context.Background(), "org-1", "  ")
	assert.ErrorIs(t, err, item.ErrItemNotFound)
}
