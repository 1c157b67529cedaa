package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/opshub/inventory-count-service/internal/item"
	"github.com/opshub/inventory-count-service/internal/item/dto"
	"github.com/opshub/inventory-count-service/internal/model"
)

const uniqueViolation = "23505"

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) item.Repository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, i *model.InventoryItem) error {
	query := `
		INSERT INTO inventory_items (
			id, organization_id, category_id, sku, barcode, name, description,
			unit, current_stock, is_active, created_by, created_at, updated_at
		) VALUES (
			:id, :organization_id, :category_id, :sku, :barcode, :name, :description,
			:unit, :current_stock, :is_active, :created_by, :created_at, :updated_at
		)
	`

	_, err := r.DB.NamedExecContext(ctx, query, i)
	if err != nil {
		return mapUniqueViolation(err)
	}
	return nil
}

func (r *PGRepository) Update(ctx context.Context, i *model.InventoryItem) error {
	query := `
		UPDATE inventory_items SET
			category_id = :category_id,
			sku = :sku,
			barcode = :barcode,
			name = :name,
			description = :description,
			unit = :unit,
			updated_at = :updated_at
		WHERE id = :id
	`

	_, err := r.DB.NamedExecContext(ctx, query, i)
	if err != nil {
		return mapUniqueViolation(err)
	}
	return nil
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.InventoryItem, error) {
	var i model.InventoryItem
	err := r.DB.GetContext(ctx, &i, `SELECT * FROM inventory_items WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &i, nil
}

func (r *PGRepository) FindActiveBySKU(ctx context.Context, organizationID, sku, excludeID string) (*model.InventoryItem, error) {
	return r.findActive(ctx, "sku", organizationID, sku, excludeID)
}

func (r *PGRepository) FindActiveByBarcode(ctx context.Context, organizationID, barcode, excludeID string) (*model.InventoryItem, error) {
	return r.findActive(ctx, "barcode", organizationID, barcode, excludeID)
}

func (r *PGRepository) findActive(ctx context.Context, column, organizationID, value, excludeID string) (*model.InventoryItem, error) {
	query := fmt.Sprintf(`
		SELECT * FROM inventory_items
		WHERE organization_id = $1 AND %s = $2 AND is_active = true
	`, column)
	args := []interface{}{organizationID, value}

	if excludeID != "" {
		query += ` AND id != $3`
		args = append(args, excludeID)
	}
	query += ` LIMIT 1`

	var i model.InventoryItem
	err := r.DB.GetContext(ctx, &i, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &i, nil
}

func (r *PGRepository) Deactivate(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE inventory_items SET is_active = false, updated_at = now()
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return item.ErrItemNotFound
	}
	return nil
}

// NextSKUSequence calls the store-side counter function so two concurrent
// callers can never read the same value. next_sku upserts the
// (organization_id, prefix) row in sku_sequences and returns the incremented
// value in one statement.
func (r *PGRepository) NextSKUSequence(ctx context.Context, organizationID, prefix string) (int64, error) {
	var seq int64
	err := r.DB.GetContext(ctx, &seq, `SELECT next_sku($1, $2)`, organizationID, prefix)
	if err != nil {
		return 0, err
	}
	return seq, nil
}

func (r *PGRepository) ListTransactions(ctx context.Context, f *dto.TransactionFilters) ([]model.InventoryTransaction, int, error) {
	where := []string{"organization_id = :organization_id"}
	if f.ItemID != "" {
		where = append(where, "item_id = :item_id")
	}
	if f.Type != "" {
		where = append(where, "transaction_type = :transaction_type")
	}
	if f.ReferenceID != "" {
		where = append(where, "reference_id = :reference_id")
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	pageSize := f.PageSize
	if pageSize < 1 {
		pageSize = 50
	}

	params := map[string]interface{}{
		"organization_id":  f.OrganizationID,
		"item_id":          f.ItemID,
		"transaction_type": f.Type,
		"reference_id":     f.ReferenceID,
		"limit":            pageSize,
		"offset":           (page - 1) * pageSize,
	}

	countQuery := `SELECT count(*) FROM inventory_transactions WHERE ` + strings.Join(where, " AND ")
	query, args, err := r.DB.BindNamed(countQuery, params)
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.DB.GetContext(ctx, &total, query, args...); err != nil {
		return nil, 0, err
	}

	listQuery := `SELECT * FROM inventory_transactions WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY created_at DESC LIMIT :limit OFFSET :offset`
	query, args, err = r.DB.BindNamed(listQuery, params)
	if err != nil {
		return nil, 0, err
	}
	transactions := []model.InventoryTransaction{}
	if err := r.DB.SelectContext(ctx, &transactions, query, args...); err != nil {
		return nil, 0, err
	}

	return transactions, total, nil
}

// mapUniqueViolation turns the partial unique indexes on active items into the
// package sentinels so the use case can report which field collided.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return err
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "barcode"):
		return fmt.Errorf("%w: %s", item.ErrBarcodeConflict, pgErr.ConstraintName)
	case strings.Contains(pgErr.ConstraintName, "sku"):
		return fmt.Errorf("%w: %s", item.ErrSKUConflict, pgErr.ConstraintName)
	default:
		return err
	}
}
