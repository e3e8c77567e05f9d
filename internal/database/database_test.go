package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khrees2412/mockly/internal/session"
	"github.com/khrees2412/mockly/pkg/models"
)

// createTestStore creates a temporary test database
func createTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func archiveRecord(id, name, email string, score float64, completed time.Time) models.CandidateArchiveRecord {
	return models.CandidateArchiveRecord{
		CandidateID: id,
		SessionID:   "session-" + id,
		Name:        name,
		Email:       email,
		FinalScore:  score,
		Summary:     models.InterviewSummary{FinalScore: score, Summary: name + " interviewed well"},
		CompletedAt: completed,
	}
}

func TestUpsertArchiveReplacesByCandidate(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.UpsertArchive(ctx, archiveRecord("c1", "Ada", "ada@example.com", 6, now)))
	require.NoError(t, store.UpsertArchive(ctx, archiveRecord("c1", "Ada", "ada@example.com", 8, now.Add(time.Hour))))

	records, err := store.ListArchives(ctx, models.ArchiveQuery{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 8.0, records[0].FinalScore)

	got, err := store.GetArchive(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "session-c1", got.SessionID)
	assert.True(t, got.CompletedAt.Equal(now.Add(time.Hour)))
}

func TestUpsertArchiveRequiresCandidate(t *testing.T) {
	store := createTestStore(t)
	err := store.UpsertArchive(context.Background(), models.CandidateArchiveRecord{})
	assert.ErrorIs(t, err, session.ErrValidation)
}

func TestGetArchiveNotFound(t *testing.T) {
	store := createTestStore(t)
	_, err := store.GetArchive(context.Background(), "missing")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestListArchivesSortAndFilter(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.UpsertArchive(ctx, archiveRecord("c1", "carol", "carol@example.com", 7, base)))
	require.NoError(t, store.UpsertArchive(ctx, archiveRecord("c2", "Alice", "alice@corp.io", 9, base.Add(2*time.Hour))))
	require.NoError(t, store.UpsertArchive(ctx, archiveRecord("c3", "Bob", "bob@example.com", 4, base.Add(time.Hour))))
	require.NoError(t, store.UpsertArchive(ctx, archiveRecord("c4", "Émile", "emile@mail.fr", 5, base.Add(30*time.Minute))))

	ids := func(records []models.CandidateArchiveRecord) []string {
		out := make([]string, 0, len(records))
		for _, r := range records {
			out = append(out, r.CandidateID)
		}
		return out
	}

	tests := []struct {
		name  string
		query models.ArchiveQuery
		want  []string
	}{
		{name: "score descending", query: models.ArchiveQuery{SortBy: models.SortByScore, Descending: true}, want: []string{"c2", "c1", "c4", "c3"}},
		{name: "score ascending by default", query: models.ArchiveQuery{}, want: []string{"c3", "c4", "c1", "c2"}},
		{name: "name ignores case", query: models.ArchiveQuery{SortBy: models.SortByName}, want: []string{"c2", "c3", "c1", "c4"}},
		{name: "date descending", query: models.ArchiveQuery{SortBy: models.SortByDate, Descending: true}, want: []string{"c2", "c3", "c4", "c1"}},
		{name: "filter on email", query: models.ArchiveQuery{Search: "EXAMPLE.COM"}, want: []string{"c3", "c1"}},
		{name: "filter on summary", query: models.ArchiveQuery{Search: "bob interviewed"}, want: []string{"c3"}},
		{name: "filter folds non-ASCII case", query: models.ArchiveQuery{Search: "émile"}, want: []string{"c4"}},
		{name: "filter folds non-ASCII upper case", query: models.ArchiveQuery{Search: "ÉMILE INTERVIEWED"}, want: []string{"c4"}},
		{name: "wildcards are literal", query: models.ArchiveQuery{Search: "%"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := store.ListArchives(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(records))
		})
	}

	_, err := store.ListArchives(ctx, models.ArchiveQuery{SortBy: "height"})
	assert.ErrorIs(t, err, session.ErrValidation)
}

func TestSessionDocumentRoundTrip(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	doc, err := store.LoadSessionDocument(ctx)
	require.NoError(t, err)
	assert.Nil(t, doc)

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := session.New("s1", now)
	require.NoError(t, store.SaveSessionDocument(ctx, models.SessionDocument{
		Profile: &models.CandidateProfile{ID: "c1", Name: "Ada"},
		Session: &s,
		SavedAt: now,
	}))

	s.Stage = models.StageProfileCompletion
	require.NoError(t, store.SaveSessionDocument(ctx, models.SessionDocument{Session: &s, SavedAt: now}))

	doc, err = store.LoadSessionDocument(ctx)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, models.SessionDocumentVersion, doc.Version)
	assert.Equal(t, models.StageProfileCompletion, doc.Session.Stage)
	assert.Nil(t, doc.Profile)
}
