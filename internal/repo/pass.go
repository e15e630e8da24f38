package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bizpass/internal/model"
)

const passColumns = `p.id, p.event_id, p.pass_code, p.holder_name, p.holder_email, p.holder_phone,
	       p.valid_from, p.valid_until, p.status, p.qr_code_url, p.verification_url,
	       p.metadata, p.created_at, p.updated_at`

func (r *repository) CreatePass(ctx context.Context, p *model.EntryPass) error {
	meta, err := marshalJSONB(p.Metadata)
	if err != nil {
		return fmt.Errorf("marshal pass metadata: %w", err)
	}

	query := `
		INSERT INTO entry_passes (id, event_id, pass_code, holder_name, holder_email,
		                          holder_phone, valid_from, valid_until, status,
		                          qr_code_url, verification_url, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`
	row := r.db.QueryRowContext(ctx, query,
		p.ID, p.EventID, p.PassCode, p.HolderName, p.HolderEmail,
		p.HolderPhone, p.ValidFrom, p.ValidUntil, p.Status,
		p.QRCodeURL, p.VerificationURL, meta,
	)
	if err := row.Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return ErrPassCodeTaken
		}
		return fmt.Errorf("failed to insert entry pass: %w", err)
	}
	return nil
}

func scanPassWithEvent(row interface{ Scan(...any) error }) (*model.PassWithEvent, error) {
	var (
		p    model.PassWithEvent
		meta []byte
	)
	err := row.Scan(
		&p.ID, &p.EventID, &p.PassCode, &p.HolderName, &p.HolderEmail, &p.HolderPhone,
		&p.ValidFrom, &p.ValidUntil, &p.Status, &p.QRCodeURL, &p.VerificationURL,
		&meta, &p.CreatedAt, &p.UpdatedAt,
		&p.EventName, &p.EventVenue, &p.EventStartDate,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(meta, &p.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal pass metadata: %w", err)
	}
	return &p, nil
}

// GetPassByID resolves a pass through the full ownership chain
// pass -> event -> business -> user.
func (r *repository) GetPassByID(ctx context.Context, id, userID string) (*model.PassWithEvent, error) {
	query := fmt.Sprintf(`
		SELECT %s, e.name, e.venue, e.start_date
		FROM entry_passes p
		JOIN events e ON e.id = p.event_id
		JOIN businesses b ON b.id = e.business_id
		WHERE p.id = $1 AND b.user_id = $2
	`, passColumns)

	p, err := scanPassWithEvent(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPassNotFound
		}
		return nil, fmt.Errorf("failed to get pass: %w", err)
	}
	return p, nil
}

// GetPassPublicByID serves the /verify surface. It is deliberately
// unscoped: the pass id in the verification URL is the credential.
func (r *repository) GetPassPublicByID(ctx context.Context, id string) (*model.PassWithEvent, error) {
	query := fmt.Sprintf(`
		SELECT %s, e.name, e.venue, e.start_date
		FROM entry_passes p
		JOIN events e ON e.id = p.event_id
		WHERE p.id = $1
	`, passColumns)

	p, err := scanPassWithEvent(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPassNotFound
		}
		return nil, fmt.Errorf("failed to get pass: %w", err)
	}
	return p, nil
}

func (r *repository) GetPassesForUser(ctx context.Context, userID string) ([]model.PassWithEvent, error) {
	query := fmt.Sprintf(`
		SELECT %s, e.name, e.venue, e.start_date
		FROM entry_passes p
		JOIN events e ON e.id = p.event_id
		JOIN businesses b ON b.id = e.business_id
		WHERE b.user_id = $1
		ORDER BY p.created_at DESC
	`, passColumns)

	return r.queryPasses(ctx, query, userID)
}

func (r *repository) GetPassesByEvent(ctx context.Context, eventID, userID string) ([]model.PassWithEvent, error) {
	query := fmt.Sprintf(`
		SELECT %s, e.name, e.venue, e.start_date
		FROM entry_passes p
		JOIN events e ON e.id = p.event_id
		JOIN businesses b ON b.id = e.business_id
		WHERE p.event_id = $1 AND b.user_id = $2
		ORDER BY p.created_at DESC
	`, passColumns)

	return r.queryPasses(ctx, query, eventID, userID)
}

func (r *repository) queryPasses(ctx context.Context, query string, args ...any) ([]model.PassWithEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get passes: %w", err)
	}
	defer rows.Close()

	var passes []model.PassWithEvent
	for rows.Next() {
		p, err := scanPassWithEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pass: %w", err)
		}
		passes = append(passes, *p)
	}
	return passes, rows.Err()
}

// UpdatePassHolder touches holder details and the validity window
// only. The id, pass code, event binding and QR artifact assigned at
// creation are immutable.
func (r *repository) UpdatePassHolder(ctx context.Context, p *model.EntryPass, userID string) error {
	query := `
		UPDATE entry_passes p
		SET holder_name = $1, holder_email = $2, holder_phone = $3,
		    valid_from = $4, valid_until = $5, updated_at = NOW()
		FROM events e, businesses b
		WHERE p.id = $6 AND e.id = p.event_id AND b.id = e.business_id AND b.user_id = $7
	`
	res, err := r.db.ExecContext(ctx, query,
		p.HolderName, p.HolderEmail, p.HolderPhone,
		p.ValidFrom, p.ValidUntil, p.ID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update pass: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPassNotFound
	}
	return nil
}

// CancelPassTx moves an active pass to cancelled. Returns false when
// the pass exists but is already in a terminal state.
func (r *repository) CancelPassTx(ctx context.Context, id, userID string) (bool, error) {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	var status model.PassStatus
	err = tx.QueryRowContext(ctx, `
		SELECT p.status
		FROM entry_passes p
		JOIN events e ON e.id = p.event_id
		JOIN businesses b ON b.id = e.business_id
		WHERE p.id = $1 AND b.user_id = $2
		FOR UPDATE OF p
	`, id, userID).Scan(&status)
	if err != nil {
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrPassNotFound
		}
		return false, fmt.Errorf("failed to lock pass row: %w", err)
	}

	if !status.CanTransition(model.PassCancelled) {
		_ = tx.Rollback()
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE entry_passes SET status = 'cancelled', updated_at = NOW() WHERE id = $1
	`, id); err != nil {
		_ = tx.Rollback()
		return false, fmt.Errorf("failed to cancel pass: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit cancellation: %w", err)
	}
	return true, nil
}

// ExpireIfActiveTx marks a pass expired iff it is still active AND
// its validity window has actually closed by the database clock. A
// pass already used or cancelled, or whose window was extended after
// the expiry message was scheduled, is left alone.
func (r *repository) ExpireIfActiveTx(ctx context.Context, id string) (bool, error) {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	var (
		status     model.PassStatus
		windowOver bool
	)
	err = tx.QueryRowContext(ctx, `
		SELECT status, (valid_until IS NOT NULL AND valid_until <= NOW())
		FROM entry_passes
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&status, &windowOver)
	if err != nil {
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrPassNotFound
		}
		return false, fmt.Errorf("failed to lock pass row: %w", err)
	}

	if !status.CanTransition(model.PassExpired) || !windowOver {
		_ = tx.Rollback()
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE entry_passes SET status = 'expired', updated_at = NOW() WHERE id = $1
	`, id); err != nil {
		_ = tx.Rollback()
		return false, fmt.Errorf("failed to expire pass: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit expiry: %w", err)
	}
	return true, nil
}

// VerifyPassTx records a scan attempt and, when the pass is usable at
// the scan instant, consumes it. The row lock serialises concurrent
// scans so exactly one succeeds.
func (r *repository) VerifyPassTx(ctx context.Context, scan *model.PassScan) (*model.EntryPass, string, error) {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	var pass model.EntryPass
	err = tx.QueryRowContext(ctx, `
		SELECT id, event_id, pass_code, holder_name, status, valid_from, valid_until
		FROM entry_passes
		WHERE id = $1
		FOR UPDATE
	`, scan.PassID).Scan(
		&pass.ID, &pass.EventID, &pass.PassCode, &pass.HolderName,
		&pass.Status, &pass.ValidFrom, &pass.ValidUntil,
	)
	if err != nil {
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrPassNotFound
		}
		return nil, "", fmt.Errorf("failed to lock pass row: %w", err)
	}

	ok, reason := pass.EvaluateScan(scan.ScannedAt)

	if scan.Metadata == nil {
		scan.Metadata = map[string]any{}
	}
	scan.Metadata["result"] = reason
	meta, err := marshalJSONB(scan.Metadata)
	if err != nil {
		_ = tx.Rollback()
		return nil, "", fmt.Errorf("marshal scan metadata: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO pass_scans (id, pass_id, scanned_at, scanner_info, location, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, scan.ID, scan.PassID, scan.ScannedAt, scan.ScannerInfo, scan.Location, meta); err != nil {
		_ = tx.Rollback()
		return nil, "", fmt.Errorf("failed to insert pass scan: %w", err)
	}

	if ok {
		if _, err := tx.ExecContext(ctx, `
			UPDATE entry_passes SET status = 'used', updated_at = NOW() WHERE id = $1
		`, scan.PassID); err != nil {
			_ = tx.Rollback()
			return nil, "", fmt.Errorf("failed to mark pass used: %w", err)
		}
		pass.Status = model.PassUsed
	}

	if err := tx.Commit(); err != nil {
		return nil, "", fmt.Errorf("failed to commit scan: %w", err)
	}
	return &pass, reason, nil
}

func (r *repository) GetScansByPass(ctx context.Context, passID, userID string) ([]model.PassScan, error) {
	query := `
		SELECT s.id, s.pass_id, s.scanned_at, s.scanner_info, s.location, s.metadata
		FROM pass_scans s
		JOIN entry_passes p ON p.id = s.pass_id
		JOIN events e ON e.id = p.event_id
		JOIN businesses b ON b.id = e.business_id
		WHERE s.pass_id = $1 AND b.user_id = $2
		ORDER BY s.scanned_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, passID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pass scans: %w", err)
	}
	defer rows.Close()

	var scans []model.PassScan
	for rows.Next() {
		var (
			s    model.PassScan
			meta []byte
		)
		if err := rows.Scan(&s.ID, &s.PassID, &s.ScannedAt, &s.ScannerInfo, &s.Location, &meta); err != nil {
			return nil, fmt.Errorf("failed to scan pass scan: %w", err)
		}
		if err := unmarshalJSONB(meta, &s.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal scan metadata: %w", err)
		}
		scans = append(scans, s)
	}
	return scans, rows.Err()
}
