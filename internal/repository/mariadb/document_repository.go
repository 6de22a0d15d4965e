package mariadb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fhuszti/skillswap-media-ms/internal/logger"
	"github.com/fhuszti/skillswap-media-ms/internal/model"
	"github.com/fhuszti/skillswap-media-ms/internal/port"
)

type DocumentRepository struct {
	db *sql.DB
}

// compile-time check: *DocumentRepository must satisfy port.DocumentRepository
var _ port.DocumentRepository = (*DocumentRepository)(nil)

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Get(ctx context.Context, collection, id string) (*model.Document, error) {
	logger.Debugf(ctx, "fetching %s #%s from the database...", collection, id)

	const query = `
      SELECT version, body, created_at, updated_at
      FROM documents
      WHERE collection = ? AND id = ?
    `
	doc := &model.Document{Collection: collection, ID: id}
	var body []byte
	err := r.db.QueryRowContext(ctx, query, collection, id).Scan(&doc.Version, &body, &doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, &doc.Body); err != nil {
		return nil, fmt.Errorf("decode %s #%s: %w", collection, id, err)
	}
	if doc.Body == nil {
		doc.Body = map[string]any{}
	}
	return doc, nil
}

func (r *DocumentRepository) Insert(ctx context.Context, doc *model.Document) error {
	logger.Debugf(ctx, "creating database record for %s #%s...", doc.Collection, doc.ID)

	body, err := json.Marshal(doc.Body)
	if err != nil {
		return fmt.Errorf("encode %s #%s: %w", doc.Collection, doc.ID, err)
	}

	const query = `
      INSERT INTO documents (collection, id, version, body)
      VALUES (?, ?, 1, ?)
    `
	if _, err := r.db.ExecContext(ctx, query, doc.Collection, doc.ID, body); err != nil {
		return err
	}
	doc.Version = 1
	return nil
}

// Replace is a compare-and-swap on the version column.
func (r *DocumentRepository) Replace(ctx context.Context, doc *model.Document) error {
	logger.Debugf(ctx, "updating %s #%s at version %d...", doc.Collection, doc.ID, doc.Version)

	body, err := json.Marshal(doc.Body)
	if err != nil {
		return fmt.Errorf("encode %s #%s: %w", doc.Collection, doc.ID, err)
	}

	const query = `
      UPDATE documents
      SET body = ?, version = version + 1
      WHERE collection = ? AND id = ? AND version = ?
    `
	res, err := r.db.ExecContext(ctx, query, body, doc.Collection, doc.ID, doc.Version)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return r.missOrConflict(ctx, doc.Collection, doc.ID)
	}
	doc.Version++
	return nil
}

func (r *DocumentRepository) missOrConflict(ctx context.Context, collection, id string) error {
	const query = `SELECT 1 FROM documents WHERE collection = ? AND id = ?`
	var one int
	err := r.db.QueryRowContext(ctx, query, collection, id).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return port.ErrNotFound
	case err != nil:
		return err
	default:
		return port.ErrVersionConflict
	}
}
