// Package repo implements all PostgreSQL persistence for the service.
// Every owner-facing read and write is filtered through the ownership
// chain pass -> event -> business -> user; nothing in this package
// returns a row the requesting user does not transitively own.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/dbpg"

	"bizpass/internal/model"
)

var (
	ErrBusinessNotFound = errors.New("business not found")
	ErrItemNotFound     = errors.New("item not found")
	ErrDocumentNotFound = errors.New("document not found")
	ErrEventNotFound    = errors.New("event not found")
	ErrPassNotFound     = errors.New("entry pass not found")
	ErrPassCodeTaken    = errors.New("pass code already in use")
)

type Repository interface {
	CreateBusiness(ctx context.Context, b *model.Business) error
	GetBusinessesByUser(ctx context.Context, userID string) ([]model.Business, error)
	GetBusinessByID(ctx context.Context, id, userID string) (*model.Business, error)
	UpdateBusiness(ctx context.Context, b *model.Business) error
	DeleteBusiness(ctx context.Context, id, userID string) error
	GetBusinessIDsForUser(ctx context.Context, userID string) ([]string, error)

	GetUserSetting(ctx context.Context, userID, key string) (string, error)
	SetUserSetting(ctx context.Context, userID, key, value string) error

	CreateItem(ctx context.Context, item *model.BusinessItem) error
	GetItemByID(ctx context.Context, id, userID string) (*model.BusinessItem, error)
	GetItemsByBusiness(ctx context.Context, businessID, userID string) ([]model.BusinessItem, error)
	UpdateItem(ctx context.Context, item *model.BusinessItem, userID string) error
	DeleteItem(ctx context.Context, id, userID string) error

	CreateDocumentTx(ctx context.Context, d *model.Document) error
	GetDocumentByID(ctx context.Context, id, userID string) (*model.Document, error)
	GetDocumentsByBusiness(ctx context.Context, businessID string, docType model.DocumentType, userID string) ([]model.Document, error)
	UpdateDocument(ctx context.Context, d *model.Document, userID string) error
	DeleteDocument(ctx context.Context, id, userID string) error

	CreateEvent(ctx context.Context, e *model.Event) error
	GetEventByID(ctx context.Context, id, userID string) (*model.Event, error)
	GetEventsByBusiness(ctx context.Context, businessID, userID string) ([]model.Event, error)
	UpdateEvent(ctx context.Context, e *model.Event, userID string) error
	DeleteEvent(ctx context.Context, id, userID string) error

	CreatePass(ctx context.Context, p *model.EntryPass) error
	GetPassByID(ctx context.Context, id, userID string) (*model.PassWithEvent, error)
	GetPassPublicByID(ctx context.Context, id string) (*model.PassWithEvent, error)
	GetPassesForUser(ctx context.Context, userID string) ([]model.PassWithEvent, error)
	GetPassesByEvent(ctx context.Context, eventID, userID string) ([]model.PassWithEvent, error)
	UpdatePassHolder(ctx context.Context, p *model.EntryPass, userID string) error
	CancelPassTx(ctx context.Context, id, userID string) (bool, error)
	ExpireIfActiveTx(ctx context.Context, id string) (bool, error)
	VerifyPassTx(ctx context.Context, scan *model.PassScan) (*model.EntryPass, string, error)
	GetScansByPass(ctx context.Context, passID, userID string) ([]model.PassScan, error)

	GetPublishedDocTotals(ctx context.Context, businessIDs []string) ([]model.DocTotal, error)
	CountEvents(ctx context.Context, businessIDs []string) (int, error)
	GetRecentDocuments(ctx context.Context, businessIDs []string, limit int) ([]model.ActivityItem, error)
	GetRecentEvents(ctx context.Context, businessIDs []string, limit int) ([]model.ActivityItem, error)

	MigrateUp(migrationsDir string) error
	MigrateDown(migrationsDir string) error
}

type repository struct {
	db  *dbpg.DB
	log *zerolog.Logger
}

func NewRepository(db *dbpg.DB, log *zerolog.Logger) (Repository, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if err := db.Master.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	return &repository{db: db, log: log}, nil
}

func (r *repository) MigrateUp(migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.up.sql"))
	if err != nil {
		return fmt.Errorf("failed to read migration files: %w", err)
	}

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", file, err)
		}
		if _, err := r.db.ExecContext(context.Background(), string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file, err)
		}
	}

	r.log.Info().Msgf("migrations applied from %s", migrationsDir)
	return nil
}

func (r *repository) MigrateDown(migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.down.sql"))
	if err != nil {
		return fmt.Errorf("failed to read rollback files: %w", err)
	}

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read rollback file %s: %w", file, err)
		}
		if _, err := r.db.ExecContext(context.Background(), string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to rollback migration %s: %w", file, err)
		}
	}

	r.log.Info().Msgf("migrations rolled back from %s", migrationsDir)
	return nil
}

// PostgreSQL integrity-violation class codes.
const pgErrUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pgErrUniqueViolation
}

// marshalJSONB renders a map column, keeping NULL for empty maps.
func marshalJSONB(m any) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	switch v := m.(type) {
	case map[string]string:
		if len(v) == 0 {
			return nil, nil
		}
	case map[string]any:
		if len(v) == 0 {
			return nil, nil
		}
	}
	return json.Marshal(m)
}

func unmarshalJSONB(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
