package repo

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"bizpass/internal/model"
)

func (r *repository) GetPublishedDocTotals(ctx context.Context, businessIDs []string) ([]model.DocTotal, error) {
	query := `
		SELECT type, total_amount
		FROM documents
		WHERE business_id = ANY($1) AND status = 'published'
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(businessIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to get document totals: %w", err)
	}
	defer rows.Close()

	var totals []model.DocTotal
	for rows.Next() {
		var t model.DocTotal
		if err := rows.Scan(&t.Type, &t.TotalAmount); err != nil {
			return nil, fmt.Errorf("failed to scan document total: %w", err)
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

func (r *repository) CountEvents(ctx context.Context, businessIDs []string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM events WHERE business_id = ANY($1)
	`, pq.Array(businessIDs)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

// GetRecentDocuments feeds the dashboard activity list. Untitled
// documents fall back to their type name.
func (r *repository) GetRecentDocuments(ctx context.Context, businessIDs []string, limit int) ([]model.ActivityItem, error) {
	query := `
		SELECT id, COALESCE(NULLIF(title, ''), type), total_amount, created_at
		FROM documents
		WHERE business_id = ANY($1)
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(businessIDs), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent documents: %w", err)
	}
	defer rows.Close()

	var items []model.ActivityItem
	for rows.Next() {
		var (
			it     model.ActivityItem
			amount float64
		)
		if err := rows.Scan(&it.ID, &it.Title, &amount, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recent document: %w", err)
		}
		it.Kind = "document"
		it.TotalAmount = &amount
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *repository) GetRecentEvents(ctx context.Context, businessIDs []string, limit int) ([]model.ActivityItem, error) {
	query := `
		SELECT id, name, created_at
		FROM events
		WHERE business_id = ANY($1)
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(businessIDs), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent events: %w", err)
	}
	defer rows.Close()

	var items []model.ActivityItem
	for rows.Next() {
		var it model.ActivityItem
		if err := rows.Scan(&it.ID, &it.Title, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recent event: %w", err)
		}
		it.Kind = "event"
		items = append(items, it)
	}
	return items, rows.Err()
}
