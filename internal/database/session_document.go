package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/khrees2412/mockly/pkg/models"
)

// Session document operations

// SaveSessionDocument replaces the stored session document
func (s *Store) SaveSessionDocument(ctx context.Context, doc models.SessionDocument) error {
	if doc.Version == 0 {
		doc.Version = models.SessionDocumentVersion
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode session document: %w", err)
	}

	query := `INSERT INTO session_documents (id, version, document_json, saved_at) VALUES (1, ?, ?, ?)
			  ON CONFLICT(id) DO UPDATE SET version=excluded.version, document_json=excluded.document_json,
			  saved_at=excluded.saved_at`
	if _, err := s.db.ExecContext(ctx, query, doc.Version, string(data), doc.SavedAt.UTC()); err != nil {
		return fmt.Errorf("failed to save session document: %w", err)
	}
	return nil
}

// LoadSessionDocument returns the stored session document, or nil if none was saved
func (s *Store) LoadSessionDocument(ctx context.Context) (*models.SessionDocument, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT document_json FROM session_documents WHERE id = 1`).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session document: %w", err)
	}

	doc := &models.SessionDocument{}
	if err := json.Unmarshal([]byte(data), doc); err != nil {
		return nil, fmt.Errorf("failed to decode session document: %w", err)
	}
	// documents written before versioning
	if doc.Version == 0 {
		doc.Version = 1
	}
	return doc, nil
}
