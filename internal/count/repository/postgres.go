package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/opshub/inventory-count-service/internal/count"
	"github.com/opshub/inventory-count-service/internal/count/dto"
	"github.com/opshub/inventory-count-service/internal/model"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) CreateCount(ctx context.Context, c *model.InventoryCount) error {
	query := `
        INSERT INTO inventory_counts (
            id, organization_id, template_id, status, count_date, conducted_by,
            notes, total_items_count, completion_percentage, variance_count,
            is_voided, void_reason, voided_by, voided_at, created_at, updated_at
        )
        VALUES (
            :id, :organization_id, :template_id, :status, :count_date, :conducted_by,
            :notes, :total_items_count, :completion_percentage, :variance_count,
            :is_voided, :void_reason, :voided_by, :voided_at, :created_at, :updated_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, c)
	return err
}

func (r *PGRepository) GetCount(ctx context.Context, id string) (*model.InventoryCount, error) {
	var c model.InventoryCount
	err := r.DB.GetContext(ctx, &c, `SELECT * FROM inventory_counts WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *PGRepository) SetAggregates(ctx context.Context, id string, totalItems int, completionPercentage float64, varianceCount int) error {
	query := `
        UPDATE inventory_counts
        SET total_items_count = $2,
            completion_percentage = $3,
            variance_count = $4,
            updated_at = now()
        WHERE id = $1
    `
	_, err := r.DB.ExecContext(ctx, query, id, totalItems, completionPercentage, varianceCount)
	return err
}

func (r *PGRepository) TransitionStatus(ctx context.Context, id string, from, to model.CountStatus) (bool, error) {
	query := `
        UPDATE inventory_counts
        SET status = $3, updated_at = now()
        WHERE id = $1 AND status = $2 AND is_voided = false
    `
	res, err := r.DB.ExecContext(ctx, query, id, from, to)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *PGRepository) MarkVoided(ctx context.Context, id, reason, actorID string, at time.Time) (bool, error) {
	query := `
        UPDATE inventory_counts
        SET is_voided = true, void_reason = $2, voided_by = $3, voided_at = $4, updated_at = $4
        WHERE id = $1 AND is_voided = false
    `
	res, err := r.DB.ExecContext(ctx, query, id, reason, actorID, at)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *PGRepository) InsertCountItems(ctx context.Context, items []model.InventoryCountItem) error {
	if len(items) == 0 {
		return nil
	}
	query := `
        INSERT INTO inventory_count_items (
            id, count_id, item_id, in_stock_quantity, actual_quantity,
            template_minimum_quantity, template_maximum_quantity,
            notes, counted_by, counted_at, created_at
        )
        VALUES (
            :id, :count_id, :item_id, :in_stock_quantity, :actual_quantity,
            :template_minimum_quantity, :template_maximum_quantity,
            :notes, :counted_by, :counted_at, :created_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, items)
	return err
}

func (r *PGRepository) HasCountItems(ctx context.Context, countID string) (bool, error) {
	var exists bool
	err := r.DB.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM inventory_count_items WHERE count_id = $1)`, countID)
	return exists, err
}

func (r *PGRepository) ListCountItems(ctx context.Context, countID string) ([]model.InventoryCountItem, error) {
	var items []model.InventoryCountItem
	query := `
        SELECT * FROM inventory_count_items
        WHERE count_id = $1
        ORDER BY counted_at DESC NULLS LAST, created_at
    `
	err := r.DB.SelectContext(ctx, &items, query, countID)
	return items, err
}

func (r *PGRepository) ApplyItemUpdate(ctx context.Context, countID, itemID string, actualQuantity float64, notes, countedBy *string, at time.Time) error {
	query := `
        UPDATE inventory_count_items
        SET actual_quantity = $3,
            counted_at = $4,
            notes = COALESCE($5, notes),
            counted_by = COALESCE($6, counted_by)
        WHERE count_id = $1 AND item_id = $2
    `
	res, err := r.DB.ExecContext(ctx, query, countID, itemID, actualQuantity, at, notes, countedBy)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("item %s: %w", itemID, count.ErrCountItemNotFound)
	}
	return nil
}

// AddToActual performs the increment store-side in one statement so two
// concurrent bumps on the same line cannot lose an update.
func (r *PGRepository) AddToActual(ctx context.Context, countID, countItemID string, delta float64, countedBy *string, at time.Time) (float64, error) {
	query := `
        UPDATE inventory_count_items
        SET actual_quantity = COALESCE(actual_quantity, 0) + $3,
            counted_at = $4,
            counted_by = COALESCE($5, counted_by)
        WHERE count_id = $1 AND id = $2
        RETURNING actual_quantity
    `
	var newValue float64
	err := r.DB.GetContext(ctx, &newValue, query, countID, countItemID, delta, at, countedBy)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, count.ErrCountItemNotFound
		}
		return 0, err
	}
	return newValue, nil
}

func (r *PGRepository) SetActual(ctx context.Context, countID, countItemID string, actualQuantity float64, notes, countedBy *string, at time.Time) error {
	query := `
        UPDATE inventory_count_items
        SET actual_quantity = $3,
            counted_at = $4,
            notes = COALESCE($5, notes),
            counted_by = COALESCE($6, counted_by)
        WHERE count_id = $1 AND id = $2
    `
	res, err := r.DB.ExecContext(ctx, query, countID, countItemID, actualQuantity, at, notes, countedBy)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return count.ErrCountItemNotFound
	}
	return nil
}

func (r *PGRepository) SetExpected(ctx context.Context, countID, itemID string, expected float64) error {
	query := `
        UPDATE inventory_count_items
        SET in_stock_quantity = $3
        WHERE count_id = $1 AND item_id = $2
    `
	_, err := r.DB.ExecContext(ctx, query, countID, itemID, expected)
	return err
}

func (r *PGRepository) Stats(ctx context.Context, countID string, epsilon float64) (*dto.CountStats, error) {
	var stats dto.CountStats
	query := `
        SELECT count(*) AS total_items,
               count(actual_quantity) AS counted_items,
               count(*) FILTER (
                   WHERE actual_quantity IS NOT NULL
                     AND abs(actual_quantity - in_stock_quantity) > $2
               ) AS variance_items
        FROM inventory_count_items
        WHERE count_id = $1
    `
	err := r.DB.GetContext(ctx, &stats, query, countID, epsilon)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *PGRepository) TemplateRows(ctx context.Context, templateID string) ([]dto.TemplateRow, error) {
	var rows []dto.TemplateRow
	query := `
        SELECT ti.item_id, ti.expected_quantity, ti.minimum_quantity,
               ti.maximum_quantity, i.current_stock
        FROM inventory_template_items ti
        JOIN inventory_items i ON i.id = ti.item_id AND i.is_active = true
        WHERE ti.template_id = $1
        ORDER BY ti.sort_order, ti.item_id
    `
	err := r.DB.SelectContext(ctx, &rows, query, templateID)
	return rows, err
}

func (r *PGRepository) ActiveItemRows(ctx context.Context, organizationID string) ([]dto.ActiveItemRow, error) {
	var rows []dto.ActiveItemRow
	query := `
        SELECT id AS item_id, current_stock
        FROM inventory_items
        WHERE organization_id = $1 AND is_active = true
        ORDER BY name
    `
	err := r.DB.SelectContext(ctx, &rows, query, organizationID)
	return rows, err
}

func (r *PGRepository) ItemStock(ctx context.Context, itemID string) (float64, error) {
	var stock float64
	err := r.DB.GetContext(ctx, &stock,
		`SELECT current_stock FROM inventory_items WHERE id = $1`, itemID)
	return stock, err
}

func (r *PGRepository) SetItemStock(ctx context.Context, itemID string, stock float64, at time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE inventory_items SET current_stock = $2, updated_at = $3 WHERE id = $1`,
		itemID, stock, at)
	return err
}

func (r *PGRepository) InsertTransaction(ctx context.Context, t *model.InventoryTransaction) error {
	query := `
        INSERT INTO inventory_transactions (
            id, organization_id, item_id, transaction_type, quantity,
            reference_type, reference_id, notes, created_by, created_at
        )
        VALUES (
            :id, :organization_id, :item_id, :transaction_type, :quantity,
            :reference_type, :reference_id, :notes, :created_by, :created_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, t)
	return err
}
