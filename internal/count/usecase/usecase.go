package usecase

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/opshub/inventory-count-service/internal/auth"
	"github.com/opshub/inventory-count-service/internal/count"
	"github.com/opshub/inventory-count-service/internal/count/dto"
	"github.com/opshub/inventory-count-service/internal/model"
	"github.com/opshub/inventory-count-service/pkg/cache"
	"go.uber.org/zap"
)

const (
	defaultChunkSize  = 8
	defaultChunkDelay = 120 * time.Millisecond

	commitLockTTL = 30 * time.Second
)

type countUseCase struct {
	repo       count.Repository
	cache      *cache.RedisClient
	logger     *zap.Logger
	chunkSize  int
	chunkDelay time.Duration
}

// NewCountUseCase wires the count engine. cache may be nil; completion then
// relies on the store-side status gate alone. A non-positive chunkSize falls
// back to the default; a zero chunkDelay disables the inter-chunk pause.
func NewCountUseCase(repo count.Repository, cache *cache.RedisClient, log *zap.Logger, chunkSize int, chunkDelay time.Duration) count.UseCase {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if chunkDelay < 0 {
		chunkDelay = defaultChunkDelay
	}
	return &countUseCase{
		repo:       repo,
		cache:      cache,
		logger:     log,
		chunkSize:  chunkSize,
		chunkDelay: chunkDelay,
	}
}

func (uc *countUseCase) Start(ctx context.Context, input *dto.StartCountInput) (*model.InventoryCount, error) {
	if input.OrganizationID == "" {
		input.OrganizationID = auth.OrganizationID(ctx)
	}
	if input.ConductedBy == "" {
		input.ConductedBy = auth.UserID(ctx)
	}
	if input.OrganizationID == "" {
		return nil, count.ErrNoOrganization
	}
	if input.ConductedBy == "" {
		return nil, count.ErrNoActor
	}

	now := time.Now()
	conductedBy := input.ConductedBy
	c := &model.InventoryCount{
		BaseModel:      model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		OrganizationID: input.OrganizationID,
		TemplateID:     input.TemplateID,
		Status:         model.CountStatusInProgress,
		CountDate:      now,
		ConductedBy:    &conductedBy,
		Notes:          input.Notes,
	}

	if err := uc.repo.CreateCount(ctx, c); err != nil {
		return nil, fmt.Errorf("create count: %w", err)
	}

	if err := uc.Initialize(ctx, c.ID, input.TemplateID); err != nil {
		return nil, err
	}

	return uc.repo.GetCount(ctx, c.ID)
}

func (uc *countUseCase) Initialize(ctx context.Context, countID string, templateID *string) error {
	c, err := uc.activeCount(ctx, countID)
	if err != nil {
		return err
	}

	has, err := uc.repo.HasCountItems(ctx, countID)
	if err != nil {
		return fmt.Errorf("check count items: %w", err)
	}
	if has {
		return count.ErrAlreadyInitialized
	}

	now := time.Now()
	var items []model.InventoryCountItem

	if templateID != nil && *templateID != "" {
		rows, err := uc.repo.TemplateRows(ctx, *templateID)
		if err != nil {
			return fmt.Errorf("load template items: %w", err)
		}
		for _, r := range rows {
			// The template's captured quantity is the baseline; live stock
			// only when the template row carries none of its own.
			expected := r.CurrentStock
			if r.ExpectedQuantity != nil {
				expected = *r.ExpectedQuantity
			}
			items = append(items, model.InventoryCountItem{
				ID:                      uuid.New().String(),
				CountID:                 countID,
				ItemID:                  r.ItemID,
				InStockQuantity:         expected,
				TemplateMinimumQuantity: r.MinimumQuantity,
				TemplateMaximumQuantity: r.MaximumQuantity,
				CreatedAt:               now,
			})
		}
	} else {
		rows, err := uc.repo.ActiveItemRows(ctx, c.OrganizationID)
		if err != nil {
			return fmt.Errorf("load active items: %w", err)
		}
		for _, r := range rows {
			items = append(items, model.InventoryCountItem{
				ID:              uuid.New().String(),
				CountID:         countID,
				ItemID:          r.ItemID,
				InStockQuantity: r.CurrentStock,
				CreatedAt:       now,
			})
		}
	}

	if len(items) == 0 {
		uc.logger.Warn("no eligible items for count initialization", zap.String("count_id", countID))
	} else if err := uc.repo.InsertCountItems(ctx, items); err != nil {
		return fmt.Errorf("insert count items: %w", err)
	}

	return uc.Recalculate(ctx, countID)
}

func (uc *countUseCase) SubmitBatch(ctx context.Context, countID string, updates []dto.ItemUpdate) (*dto.BulkUpdateResult, error) {
	if _, err := uc.activeCount(ctx, countID); err != nil {
		return nil, err
	}

	result := &dto.BulkUpdateResult{Failed: []dto.FailedItem{}}
	var mu sync.Mutex

	chunks := 0
	for start := 0; start < len(updates); start += uc.chunkSize {
		end := min(start+uc.chunkSize, len(updates))
		chunk := updates[start:end]
		chunks++

		var wg sync.WaitGroup
		for i := range chunk {
			upd := chunk[i]
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := uc.repo.ApplyItemUpdate(ctx, countID, upd.ItemID, upd.ActualQuantity, upd.Notes, upd.CountedBy, time.Now())

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					result.Failed = append(result.Failed, dto.FailedItem{ItemID: upd.ItemID, Error: err.Error()})
					return
				}
				result.Saved++
			}()
		}
		// A failing or slow item must not poison its chunk-mates, and a
		// failing chunk must not abort the rest of the batch.
		wg.Wait()

		if end < len(updates) && uc.chunkDelay > 0 {
			time.Sleep(uc.chunkDelay)
		}
	}

	// One recalculation for the whole batch, not one per chunk.
	if err := uc.Recalculate(ctx, countID); err != nil {
		uc.logger.Error("failed to recalculate count totals after batch",
			zap.String("count_id", countID), zap.Error(err))
	}

	uc.logger.Info("bulk count update finished",
		zap.String("count_id", countID),
		zap.Int("submitted", len(updates)),
		zap.Int("saved", result.Saved),
		zap.Int("failed", len(result.Failed)),
		zap.Int("chunks", chunks),
	)

	return result, nil
}

func (uc *countUseCase) Recalculate(ctx context.Context, countID string) error {
	stats, err := uc.repo.Stats(ctx, countID, model.VarianceEpsilon)
	if err != nil {
		return fmt.Errorf("count stats: %w", err)
	}

	completion := 0.0
	if stats.TotalItems > 0 {
		completion = 100 * float64(stats.CountedItems) / float64(stats.TotalItems)
	}

	return uc.repo.SetAggregates(ctx, countID, stats.TotalItems, completion, stats.VarianceItems)
}

func (uc *countUseCase) Bump(ctx context.Context, countID, countItemID string, delta float64, countedBy string) (float64, error) {
	if _, err := uc.activeCount(ctx, countID); err != nil {
		return 0, err
	}

	var by *string
	if countedBy != "" {
		by = &countedBy
	}
	newValue, err := uc.repo.AddToActual(ctx, countID, countItemID, delta, by, time.Now())
	if err != nil {
		return 0, err
	}

	if err := uc.Recalculate(ctx, countID); err != nil {
		return newValue, err
	}
	return newValue, nil
}

func (uc *countUseCase) SetQuantity(ctx context.Context, countID, countItemID string, quantity float64, notes *string, countedBy string) error {
	if _, err := uc.activeCount(ctx, countID); err != nil {
		return err
	}

	var by *string
	if countedBy != "" {
		by = &countedBy
	}
	if err := uc.repo.SetActual(ctx, countID, countItemID, quantity, notes, by, time.Now()); err != nil {
		return err
	}

	return uc.Recalculate(ctx, countID)
}

func (uc *countUseCase) Complete(ctx context.Context, countID, actorID string) error {
	if actorID == "" {
		return count.ErrNoActor
	}

	// The redis lock only serializes racing callers; at-most-once is enforced
	// by the status transition below.
	if uc.cache != nil {
		lockKey := "lock:inventory_count:commit:" + countID
		lockValue := uuid.New().String()

		acquired := false
		for i := 0; i < 3; i++ {
			ok, err := uc.cache.AcquireLock(ctx, lockKey, lockValue, commitLockTTL)
			if err != nil {
				uc.logger.Error("failed to acquire commit lock", zap.Error(err))
			}
			if ok {
				acquired = true
				break
			}
			time.Sleep(100 * time.Millisecond)
		}
		if !acquired {
			return fmt.Errorf("count %s: commit already in progress", countID)
		}
		defer uc.cache.ReleaseLock(ctx, lockKey, lockValue)
	}

	c, err := uc.repo.GetCount(ctx, countID)
	if err != nil {
		return fmt.Errorf("load count: %w", err)
	}
	if c == nil {
		return count.ErrCountNotFound
	}
	if c.IsVoided {
		return count.ErrCountVoided
	}

	ok, err := uc.repo.TransitionStatus(ctx, countID, model.CountStatusInProgress, model.CountStatusCompleted)
	if err != nil {
		return fmt.Errorf("complete count: %w", err)
	}
	if !ok {
		return count.ErrCountNotActive
	}

	items, err := uc.repo.ListCountItems(ctx, countID)
	if err != nil {
		return fmt.Errorf("load count items for reconciliation: %w", err)
	}

	now := time.Now()
	actor := actorID
	counted, failed := 0, 0
	var firstErr error

	for _, ci := range items {
		// Lines never counted keep whatever stock they had.
		if ci.ActualQuantity == nil {
			continue
		}
		counted++
		actual := *ci.ActualQuantity

		// Observed pre-commit stock is logged so an out-of-order commit
		// against the same item can be detected after the fact. The read is
		// observability only; a failure must not block the overwrite.
		stockBefore, err := uc.repo.ItemStock(ctx, ci.ItemID)
		if err != nil {
			uc.logger.Warn("failed to read stock before reconciliation, proceeding with overwrite",
				zap.String("count_id", countID), zap.String("item_id", ci.ItemID), zap.Error(err))
		} else {
			uc.logger.Info("reconciling counted quantity",
				zap.String("count_id", countID),
				zap.String("item_id", ci.ItemID),
				zap.Float64("stock_before", stockBefore),
				zap.Float64("counted", actual),
				zap.Float64("expected", ci.InStockQuantity),
			)
		}

		// The count result is authoritative: unconditional overwrite, not a
		// merge with whatever stock drifted to in the meantime.
		if err := uc.repo.SetItemStock(ctx, ci.ItemID, actual, now); err != nil {
			uc.logger.Error("failed to write reconciled stock",
				zap.String("count_id", countID), zap.String("item_id", ci.ItemID), zap.Error(err))
			failed++
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		// Delta against the baseline captured at initialization, not live
		// stock: this measures what the count found.
		delta := actual - ci.InStockQuantity
		if math.Abs(delta) <= model.VarianceEpsilon {
			continue
		}

		refType := "inventory_count"
		refID := countID
		txn := &model.InventoryTransaction{
			ID:             uuid.New().String(),
			OrganizationID: c.OrganizationID,
			ItemID:         ci.ItemID,
			Type:           model.TransactionTypeAdjustment,
			Quantity:       delta,
			ReferenceType:  &refType,
			ReferenceID:    &refID,
			Notes:          fmt.Sprintf("Inventory count adjustment: counted %.2f, expected %.2f", actual, ci.InStockQuantity),
			CreatedBy:      &actor,
			CreatedAt:      now,
		}
		if err := uc.repo.InsertTransaction(ctx, txn); err != nil {
			// Stock accuracy outranks a complete audit trail: the stock write
			// already landed and stays.
			uc.logger.Error("failed to record adjustment transaction, stock already updated",
				zap.String("count_id", countID),
				zap.String("item_id", ci.ItemID),
				zap.Float64("delta", delta),
				zap.Error(err),
			)
		}
	}

	if failed > 0 {
		return fmt.Errorf("reconciliation finished with %d of %d stock writes failed: %w", failed, counted, firstErr)
	}
	return nil
}

func (uc *countUseCase) Cancel(ctx context.Context, countID string) error {
	c, err := uc.repo.GetCount(ctx, countID)
	if err != nil {
		return fmt.Errorf("load count: %w", err)
	}
	if c == nil {
		return count.ErrCountNotFound
	}

	ok, err := uc.repo.TransitionStatus(ctx, countID, model.CountStatusInProgress, model.CountStatusCancelled)
	if err != nil {
		return fmt.Errorf("cancel count: %w", err)
	}
	if !ok {
		return count.ErrCountNotActive
	}
	return nil
}

func (uc *countUseCase) Void(ctx context.Context, countID, reason, actorID string) error {
	if actorID == "" {
		return count.ErrNoActor
	}
	if reason == "" {
		return count.ErrVoidReasonRequired
	}

	c, err := uc.repo.GetCount(ctx, countID)
	if err != nil {
		return fmt.Errorf("load count: %w", err)
	}
	if c == nil {
		return count.ErrCountNotFound
	}

	ok, err := uc.repo.MarkVoided(ctx, countID, reason, actorID, time.Now())
	if err != nil {
		return fmt.Errorf("void count: %w", err)
	}
	if !ok {
		return count.ErrCountVoided
	}

	uc.logger.Warn("inventory count voided",
		zap.String("count_id", countID),
		zap.String("voided_by", actorID),
		zap.String("reason", reason),
	)
	return nil
}

func (uc *countUseCase) RepairExpectedQuantities(ctx context.Context, countID string) error {
	c, err := uc.repo.GetCount(ctx, countID)
	if err != nil {
		return fmt.Errorf("load count: %w", err)
	}
	if c == nil {
		return count.ErrCountNotFound
	}
	if c.IsVoided {
		return count.ErrCountVoided
	}

	repaired, failed := 0, 0
	var firstErr error

	if c.TemplateID != nil && *c.TemplateID != "" {
		rows, err := uc.repo.TemplateRows(ctx, *c.TemplateID)
		if err != nil {
			return fmt.Errorf("load template items: %w", err)
		}
		for _, r := range rows {
			expected := r.CurrentStock
			if r.ExpectedQuantity != nil {
				expected = *r.ExpectedQuantity
			}
			if err := uc.repo.SetExpected(ctx, countID, r.ItemID, expected); err != nil {
				failed++
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			repaired++
		}
	} else {
		items, err := uc.repo.ListCountItems(ctx, countID)
		if err != nil {
			return fmt.Errorf("load count items: %w", err)
		}
		for _, ci := range items {
			stock, err := uc.repo.ItemStock(ctx, ci.ItemID)
			if err != nil {
				failed++
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			if err := uc.repo.SetExpected(ctx, countID, ci.ItemID, stock); err != nil {
				failed++
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			repaired++
		}
	}

	if failed > 0 {
		return fmt.Errorf("failed to repair %d of %d baselines: %w", failed, repaired+failed, firstErr)
	}

	uc.logger.Info("repaired expected quantities",
		zap.String("count_id", countID), zap.Int("items", repaired))

	return uc.Recalculate(ctx, countID)
}

func (uc *countUseCase) GetCount(ctx context.Context, countID string) (*model.InventoryCount, error) {
	c, err := uc.repo.GetCount(ctx, countID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, count.ErrCountNotFound
	}
	return c, nil
}

func (uc *countUseCase) ListCountItems(ctx context.Context, countID string) ([]model.InventoryCountItem, error) {
	return uc.repo.ListCountItems(ctx, countID)
}

// activeCount loads the count and rejects operations on anything that no
// longer accepts counting.
func (uc *countUseCase) activeCount(ctx context.Context, countID string) (*model.InventoryCount, error) {
	c, err := uc.repo.GetCount(ctx, countID)
	if err != nil {
		return nil, fmt.Errorf("load count: %w", err)
	}
	if c == nil {
		return nil, count.ErrCountNotFound
	}
	if c.IsVoided {
		return nil, count.ErrCountVoided
	}
	if c.Status != model.CountStatusInProgress {
		return nil, count.ErrCountNotActive
	}
	return c, nil
}
