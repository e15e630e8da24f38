package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bizpass/internal/model"
)

const businessColumns = `id, user_id, name, email, phone, website, address, town_city, region,
	       business_category, tax_id, registration_number, social_media_links, logo_url,
	       created_at, updated_at`

func (r *repository) CreateBusiness(ctx context.Context, b *model.Business) error {
	links, err := marshalJSONB(b.SocialMediaLinks)
	if err != nil {
		return fmt.Errorf("marshal social media links: %w", err)
	}

	query := `
		INSERT INTO businesses (id, user_id, name, email, phone, website, address, town_city,
		                        region, business_category, tax_id, registration_number,
		                        social_media_links, logo_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at
	`
	row := r.db.QueryRowContext(ctx, query,
		b.ID, b.UserID, b.Name, b.Email, b.Phone, b.Website, b.Address, b.TownCity,
		b.Region, b.BusinessCategory, b.TaxID, b.RegistrationNo, links, b.LogoURL,
	)
	if err := row.Scan(&b.CreatedAt, &b.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert business: %w", err)
	}
	return nil
}

func (r *repository) scanBusiness(row interface{ Scan(...any) error }) (*model.Business, error) {
	var (
		b     model.Business
		links []byte
	)
	err := row.Scan(
		&b.ID, &b.UserID, &b.Name, &b.Email, &b.Phone, &b.Website, &b.Address,
		&b.TownCity, &b.Region, &b.BusinessCategory, &b.TaxID, &b.RegistrationNo,
		&links, &b.LogoURL, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(links, &b.SocialMediaLinks); err != nil {
		return nil, fmt.Errorf("unmarshal social media links: %w", err)
	}
	return &b, nil
}

func (r *repository) GetBusinessesByUser(ctx context.Context, userID string) ([]model.Business, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM businesses
		WHERE user_id = $1
		ORDER BY created_at ASC
	`, businessColumns)

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get businesses: %w", err)
	}
	defer rows.Close()

	var businesses []model.Business
	for rows.Next() {
		b, err := r.scanBusiness(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan business: %w", err)
		}
		businesses = append(businesses, *b)
	}
	return businesses, rows.Err()
}

func (r *repository) GetBusinessByID(ctx context.Context, id, userID string) (*model.Business, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM businesses
		WHERE id = $1 AND user_id = $2
	`, businessColumns)

	b, err := r.scanBusiness(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBusinessNotFound
		}
		return nil, fmt.Errorf("failed to get business: %w", err)
	}
	return b, nil
}

func (r *repository) UpdateBusiness(ctx context.Context, b *model.Business) error {
	links, err := marshalJSONB(b.SocialMediaLinks)
	if err != nil {
		return fmt.Errorf("marshal social media links: %w", err)
	}

	query := `
		UPDATE businesses
		SET name = $1, email = $2, phone = $3, website = $4, address = $5, town_city = $6,
		    region = $7, business_category = $8, tax_id = $9, registration_number = $10,
		    social_media_links = $11, logo_url = $12, updated_at = NOW()
		WHERE id = $13 AND user_id = $14
		RETURNING updated_at
	`
	row := r.db.QueryRowContext(ctx, query,
		b.Name, b.Email, b.Phone, b.Website, b.Address, b.TownCity,
		b.Region, b.BusinessCategory, b.TaxID, b.RegistrationNo,
		links, b.LogoURL, b.ID, b.UserID,
	)
	if err := row.Scan(&b.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBusinessNotFound
		}
		return fmt.Errorf("failed to update business: %w", err)
	}
	return nil
}

func (r *repository) DeleteBusiness(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM businesses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete business: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBusinessNotFound
	}
	return nil
}

func (r *repository) GetBusinessIDsForUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM businesses WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get business ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan business id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *repository) GetUserSetting(ctx context.Context, userID, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM user_settings WHERE user_id = $1 AND key = $2`,
		userID, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return value, nil
}

func (r *repository) SetUserSetting(ctx context.Context, userID, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_settings (user_id, key, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, userID, key, value)
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}
