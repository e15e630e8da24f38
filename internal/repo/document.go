package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"bizpass/internal/model"
)

// CreateDocumentTx allocates the next per-business sequence number and
// inserts the document in one transaction, so two concurrent creates
// in the same scope can never share a number.
func (r *repository) CreateDocumentTx(ctx context.Context, d *model.Document) error {
	content, err := json.Marshal(d.Content)
	if err != nil {
		return fmt.Errorf("marshal document content: %w", err)
	}

	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	var seq int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO document_numbers (business_id, doc_type, next_seq)
		VALUES ($1, $2, 2)
		ON CONFLICT (business_id, doc_type)
		DO UPDATE SET next_seq = document_numbers.next_seq + 1
		RETURNING next_seq - 1
	`, d.BusinessID, d.Type).Scan(&seq)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to allocate document number: %w", err)
	}
	d.Number = fmt.Sprintf("%s-%06d", d.Type.NumberPrefix(), seq)

	err = tx.QueryRowContext(ctx, `
		INSERT INTO documents (id, business_id, type, number, title, status, total_amount,
		                       content, pdf_url, template_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`, d.ID, d.BusinessID, d.Type, d.Number, d.Title, d.Status, d.TotalAmount,
		content, d.PDFURL, d.TemplateID,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to insert document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

const documentColumns = `d.id, d.business_id, d.type, d.number, d.title, d.status, d.total_amount,
	       d.content, d.pdf_url, d.template_id, d.created_at, d.updated_at`

func scanDocument(row interface{ Scan(...any) error }) (*model.Document, error) {
	var (
		d       model.Document
		content []byte
	)
	err := row.Scan(
		&d.ID, &d.BusinessID, &d.Type, &d.Number, &d.Title, &d.Status, &d.TotalAmount,
		&content, &d.PDFURL, &d.TemplateID, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(content, &d.Content); err != nil {
		return nil, fmt.Errorf("unmarshal document content: %w", err)
	}
	return &d, nil
}

func (r *repository) GetDocumentByID(ctx context.Context, id, userID string) (*model.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM documents d
		JOIN businesses b ON b.id = d.business_id
		WHERE d.id = $1 AND b.user_id = $2
	`, documentColumns)

	d, err := scanDocument(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return d, nil
}

func (r *repository) GetDocumentsByBusiness(ctx context.Context, businessID string, docType model.DocumentType, userID string) ([]model.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM documents d
		JOIN businesses b ON b.id = d.business_id
		WHERE d.business_id = $1 AND ($2 = '' OR d.type = $2) AND b.user_id = $3
		ORDER BY d.created_at DESC
	`, documentColumns)

	rows, err := r.db.QueryContext(ctx, query, businessID, docType, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get documents: %w", err)
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

// UpdateDocument replaces title, status, content, total and pdf_url.
// The number and type assigned at creation never change.
func (r *repository) UpdateDocument(ctx context.Context, d *model.Document, userID string) error {
	content, err := json.Marshal(d.Content)
	if err != nil {
		return fmt.Errorf("marshal document content: %w", err)
	}

	query := `
		UPDATE documents d
		SET title = $1, status = $2, total_amount = $3, content = $4, pdf_url = $5,
		    updated_at = NOW()
		FROM businesses b
		WHERE d.id = $6 AND b.id = d.business_id AND b.user_id = $7
	`
	res, err := r.db.ExecContext(ctx, query,
		d.Title, d.Status, d.TotalAmount, content, d.PDFURL, d.ID, userID)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

func (r *repository) DeleteDocument(ctx context.Context, id, userID string) error {
	query := `
		DELETE FROM documents d
		USING businesses b
		WHERE d.id = $1 AND b.id = d.business_id AND b.user_id = $2
	`
	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDocumentNotFound
	}
	return nil
}
