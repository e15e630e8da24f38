package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bizpass/internal/model"
)

const eventColumns = `e.id, e.business_id, e.name, e.description, e.venue, e.town_city, e.region,
	       e.gps_address, e.start_date, e.end_date, e.max_capacity, e.entry_fee, e.is_active,
	       e.created_at, e.updated_at`

func (r *repository) CreateEvent(ctx context.Context, e *model.Event) error {
	query := `
		INSERT INTO events (id, business_id, name, description, venue, town_city, region,
		                    gps_address, start_date, end_date, max_capacity, entry_fee, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`
	row := r.db.QueryRowContext(ctx, query,
		e.ID, e.BusinessID, e.Name, e.Description, e.Venue, e.TownCity, e.Region,
		e.GPSAddress, e.StartDate, e.EndDate, e.MaxCapacity, e.EntryFee, e.IsActive,
	)
	if err := row.Scan(&e.CreatedAt, &e.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

func scanEvent(row interface{ Scan(...any) error }) (*model.Event, error) {
	var e model.Event
	err := row.Scan(
		&e.ID, &e.BusinessID, &e.Name, &e.Description, &e.Venue, &e.TownCity, &e.Region,
		&e.GPSAddress, &e.StartDate, &e.EndDate, &e.MaxCapacity, &e.EntryFee, &e.IsActive,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repository) GetEventByID(ctx context.Context, id, userID string) (*model.Event, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM events e
		JOIN businesses b ON b.id = e.business_id
		WHERE e.id = $1 AND b.user_id = $2
	`, eventColumns)

	e, err := scanEvent(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return e, nil
}

func (r *repository) GetEventsByBusiness(ctx context.Context, businessID, userID string) ([]model.Event, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM events e
		JOIN businesses b ON b.id = e.business_id
		WHERE e.business_id = $1 AND b.user_id = $2
		ORDER BY e.created_at DESC
	`, eventColumns)

	rows, err := r.db.QueryContext(ctx, query, businessID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func (r *repository) UpdateEvent(ctx context.Context, e *model.Event, userID string) error {
	query := `
		UPDATE events e
		SET name = $1, description = $2, venue = $3, town_city = $4, region = $5,
		    gps_address = $6, start_date = $7, end_date = $8, max_capacity = $9,
		    entry_fee = $10, is_active = $11, updated_at = NOW()
		FROM businesses b
		WHERE e.id = $12 AND b.id = e.business_id AND b.user_id = $13
	`
	res, err := r.db.ExecContext(ctx, query,
		e.Name, e.Description, e.Venue, e.TownCity, e.Region,
		e.GPSAddress, e.StartDate, e.EndDate, e.MaxCapacity,
		e.EntryFee, e.IsActive, e.ID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (r *repository) DeleteEvent(ctx context.Context, id, userID string) error {
	query := `
		DELETE FROM events e
		USING businesses b
		WHERE e.id = $1 AND b.id = e.business_id AND b.user_id = $2
	`
	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrEventNotFound
	}
	return nil
}
