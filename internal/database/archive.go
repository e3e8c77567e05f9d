package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/khrees2412/mockly/internal/session"
	"github.com/khrees2412/mockly/pkg/models"
)

// Archive operations

// UpsertArchive inserts or replaces the record for the candidate
func (s *Store) UpsertArchive(ctx context.Context, rec models.CandidateArchiveRecord) error {
	if rec.CandidateID == "" {
		return &session.ValidationError{Field: "candidate_id", Reason: "must not be empty"}
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode archive record: %w", err)
	}

	query := `INSERT INTO archives (candidate_id, session_id, name, email, phone, final_score,
			  summary_text, record_json, completed_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
			  ON CONFLICT(candidate_id) DO UPDATE SET
			  session_id=excluded.session_id, name=excluded.name, email=excluded.email,
			  phone=excluded.phone, final_score=excluded.final_score, summary_text=excluded.summary_text,
			  record_json=excluded.record_json, completed_at=excluded.completed_at, updated_at=CURRENT_TIMESTAMP`
	_, err = s.db.ExecContext(ctx, query, rec.CandidateID, rec.SessionID, rec.Name, rec.Email, rec.Phone,
		rec.FinalScore, rec.Summary.Summary, string(data), rec.CompletedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert archive: %w", err)
	}
	return nil
}

// GetArchive returns the record for a candidate
func (s *Store) GetArchive(ctx context.Context, candidateID string) (*models.CandidateArchiveRecord, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT record_json FROM archives WHERE candidate_id = ?`, candidateID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("candidate %s: %w", candidateID, session.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get archive: %w", err)
	}
	return decodeArchive(data)
}

// ListArchives returns records sorted and filtered by q. The filter matches name, email or summary
// case-insensitively.
func (s *Store) ListArchives(ctx context.Context, q models.ArchiveQuery) ([]models.CandidateArchiveRecord, error) {
	orderBy, err := orderClause(q)
	if err != nil {
		return nil, err
	}

	// SQLite's lower() only folds ASCII, so the search runs on the decoded records
	term := strings.ToLower(strings.TrimSpace(q.Search))

	rows, err := s.db.QueryContext(ctx, `SELECT record_json FROM archives ORDER BY `+orderBy)
	if err != nil {
		return nil, fmt.Errorf("failed to list archives: %w", err)
	}
	defer rows.Close()

	records := []models.CandidateArchiveRecord{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		rec, err := decodeArchive(data)
		if err != nil {
			return nil, err
		}
		if term != "" && !matchesSearch(rec, term) {
			continue
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// matchesSearch reports whether the lowercased term occurs in the name, email or summary text
func matchesSearch(rec *models.CandidateArchiveRecord, term string) bool {
	for _, field := range []string{rec.Name, rec.Email, rec.Summary.Summary} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// orderClause maps a sort key to SQL. Ties break on candidate id for a stable order.
func orderClause(q models.ArchiveQuery) (string, error) {
	dir := "ASC"
	if q.Descending {
		dir = "DESC"
	}
	switch q.SortBy {
	case models.SortByScore, "":
		return "final_score " + dir + ", candidate_id ASC", nil
	case models.SortByName:
		return "lower(name) " + dir + ", candidate_id ASC", nil
	case models.SortByDate:
		return "completed_at " + dir + ", candidate_id ASC", nil
	default:
		return "", &session.ValidationError{Field: "sort", Reason: fmt.Sprintf("unknown sort key %q", q.SortBy)}
	}
}

func decodeArchive(data string) (*models.CandidateArchiveRecord, error) {
	rec := &models.CandidateArchiveRecord{}
	if err := json.Unmarshal([]byte(data), rec); err != nil {
		return nil, fmt.Errorf("failed to decode archive record: %w", err)
	}
	return rec, nil
}
