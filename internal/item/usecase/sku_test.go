package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/opshub/inventory-count-service/internal/item"
	"github.com/opshub/inventory-count-service/internal/item/dto"
	"github.com/opshub/inventory-count-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeItemRepo backs SKU generation tests; only the sequence counter matters
// here, the catalog methods are inert.
type fakeItemRepo struct {
	seq     atomic.Int64
	seqErr  error
	mu      sync.Mutex
	created []*model.InventoryItem
	bySKU   map[string]*model.InventoryItem
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{bySKU: map[string]*model.InventoryItem{}}
}

func (f *fakeItemRepo) Create(_ context.Context, i *model.InventoryItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.bySKU[i.SKU]; ok {
		return item.ErrSKUConflict
	}
	f.bySKU[i.SKU] = i
	f.created = append(f.created, i)
	return nil
}

func (f *fakeItemRepo) Update(_ context.Context, i *model.InventoryItem) error { return nil }

func (f *fakeItemRepo) FindByID(_ context.Context, id string) (*model.InventoryItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, i := range f.created {
		if i.ID == id {
			return i, nil
		}
	}
	return nil, nil
}

func (f *fakeItemRepo) FindActiveBySKU(_ context.Context, _, sku, excludeID string) (*model.InventoryItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i, ok := f.bySKU[sku]; ok && i.ID != excludeID && i.IsActive {
		return i, nil
	}
	return nil, nil
}

func (f *fakeItemRepo) FindActiveByBarcode(_ context.Context, _, barcode, excludeID string) (*model.InventoryItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, i := range f.created {
		if i.Barcode != nil && *i.Barcode == barcode && i.ID != excludeID && i.IsActive {
			return i, nil
		}
	}
	return nil, nil
}

func (f *fakeItemRepo) Deactivate(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, i := range f.created {
		if i.ID == id {
			i.IsActive = false
			return nil
		}
	}
	return item.ErrItemNotFound
}

func (f *fakeItemRepo) NextSKUSequence(_ context.Context, _, _ string) (int64, error) {
	if f.seqErr != nil {
		return 0, f.seqErr
	}
	return f.seq.Add(1), nil
}

func (f *fakeItemRepo) ListTransactions(_ context.Context, _ *dto.TransactionFilters) ([]model.InventoryTransaction, int, error) {
	return nil, 0, nil
}

func TestSKUPrefix(t *testing.T) {
	cases := []struct {
		name     string
		category string
		want     string
	}{
		{"two words", "Dairy Products", "DAPR"},
		{"many words use first two", "Frozen Foods Snacks", "FRFO"},
		{"single long word", "Beverages", "BEVE"},
		{"single short word", "Tea", "TEA"},
		{"lowercase input", "produce", "PROD"},
		{"multi byte letters", "Ökologie", "ÖKOL"},
		{"multi byte two words", "Süße Öle", "SÜÖL"},
		{"empty category", "", defaultSKUPrefix},
		{"whitespace only", "   ", defaultSKUPrefix},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, skuPrefix(tc.category))
		})
	}
}

func TestGenerateSKUFormat(t *testing.T) {
	repo := newFakeItemRepo()
	uc := NewItemUseCase(repo, nil, zap.NewNop())

	sku, err := uc.GenerateSKU(context.Background(), "org-1", "Dairy Products")
	require.NoError(t, err)
	assert.Equal(t, "DAPR-0001", sku)

	sku, err = uc.GenerateSKU(context.Background(), "org-1", "Dairy Products")
	require.NoError(t, err)
	assert.Equal(t, "DAPR-0002", sku)
}

func TestGenerateSKUConcurrentDistinct(t *testing.T) {
	repo := newFakeItemRepo()
	uc := NewItemUseCase(repo, nil, zap.NewNop())

	const n = 100
	skus := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sku, err := uc.GenerateSKU(context.Background(), "org-1", "Beverages")
			require.NoError(t, err)
			skus[idx] = sku
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, sku := range skus {
		require.False(t, seen[sku], "duplicate sku %q", sku)
		seen[sku] = true
	}
	assert.Len(t, seen, n)
}

func TestGenerateSKUFallbackOnSequenceFailure(t *testing.T) {
	repo := newFakeItemRepo()
	repo.seqErr = errors.New("connection refused")
	uc := NewItemUseCase(repo, nil, zap.NewNop())

	const n = 100
	skus := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sku, err := uc.GenerateSKU(context.Background(), "org-1", "Dairy Products")
			require.NoError(t, err)
			skus[idx] = sku
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, sku := range skus {
		assert.True(t, strings.HasPrefix(sku, defaultSKUPrefix+"-"), "fallback sku %q should carry the generic prefix", sku)
		require.False(t, seen[sku], "duplicate fallback sku %q", sku)
		seen[sku] = true
	}
}

func TestGenerateSKURequiresOrganization(t *testing.T) {
	uc := NewItemUseCase(newFakeItemRepo(), nil, zap.NewNop())

	_, err := uc.GenerateSKU(context.Background(), "", "Beverages")
	assert.ErrorIs(t, err, item.ErrNoOrganization)
}
