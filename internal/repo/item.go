package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bizpass/internal/model"
)

func (r *repository) CreateItem(ctx context.Context, item *model.BusinessItem) error {
	query := `
		INSERT INTO business_items (id, business_id, name, description, price, unit, category, sku)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	row := r.db.QueryRowContext(ctx, query,
		item.ID, item.BusinessID, item.Name, item.Description, item.Price,
		item.Unit, item.Category, item.SKU,
	)
	if err := row.Scan(&item.CreatedAt, &item.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}
	return nil
}

func (r *repository) GetItemByID(ctx context.Context, id, userID string) (*model.BusinessItem, error) {
	query := `
		SELECT i.id, i.business_id, i.name, i.description, i.price, i.unit, i.category, i.sku,
		       i.created_at, i.updated_at
		FROM business_items i
		JOIN businesses b ON b.id = i.business_id
		WHERE i.id = $1 AND b.user_id = $2
	`
	var it model.BusinessItem
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&it.ID, &it.BusinessID, &it.Name, &it.Description, &it.Price,
		&it.Unit, &it.Category, &it.SKU, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return &it, nil
}

func (r *repository) GetItemsByBusiness(ctx context.Context, businessID, userID string) ([]model.BusinessItem, error) {
	query := `
		SELECT i.id, i.business_id, i.name, i.description, i.price, i.unit, i.category, i.sku,
		       i.created_at, i.updated_at
		FROM business_items i
		JOIN businesses b ON b.id = i.business_id
		WHERE i.business_id = $1 AND b.user_id = $2
		ORDER BY i.name ASC
	`
	rows, err := r.db.QueryContext(ctx, query, businessID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	defer rows.Close()

	var items []model.BusinessItem
	for rows.Next() {
		var it model.BusinessItem
		if err := rows.Scan(
			&it.ID, &it.BusinessID, &it.Name, &it.Description, &it.Price,
			&it.Unit, &it.Category, &it.SKU, &it.CreatedAt, &it.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *repository) UpdateItem(ctx context.Context, item *model.BusinessItem, userID string) error {
	query := `
		UPDATE business_items i
		SET name = $1, description = $2, price = $3, unit = $4, category = $5, sku = $6,
		    updated_at = NOW()
		FROM businesses b
		WHERE i.id = $7 AND b.id = i.business_id AND b.user_id = $8
	`
	res, err := r.db.ExecContext(ctx, query,
		item.Name, item.Description, item.Price, item.Unit, item.Category, item.SKU,
		item.ID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *repository) DeleteItem(ctx context.Context, id, userID string) error {
	query := `
		DELETE FROM business_items i
		USING businesses b
		WHERE i.id = $1 AND b.id = i.business_id AND b.user_id = $2
	`
	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrItemNotFound
	}
	return nil
}
