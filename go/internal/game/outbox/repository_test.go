package outbox

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB connects to the database named by TWINFLASH_TEST_DSN, skipping without one
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TWINFLASH_TEST_DSN")
	if dsn == "" {
		t.Skip("TWINFLASH_TEST_DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.ExecContext(context.Background(), Schema)
	require.NoError(t, err)
	return db
}

func TestRepository_ResultRoundTrip(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	rec := testRecord()
	event, err := repo.InsertResult(ctx, rec)
	require.NoError(t, err)

	results, err := repo.ListRecentResults(ctx, 50)
	require.NoError(t, err)

	var found *StoredResult
	for i := range results {
		if results[i].SessionID == rec.SessionID {
			found = &results[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, rec.Points, found.Points)
	assert.Equal(t, rec.LatenciesMS, found.LatenciesMS)
	assert.Equal(t, "cross", found.Mode)

	var seen bool
	_, err = repo.ProcessUnsent(ctx, 100, func(batch []OutboxEvent) []uuid.UUID {
		ids := make([]uuid.UUID, 0, len(batch))
		for _, e := range batch {
			if e.ID == event.ID {
				seen = true
			}
			ids = append(ids, e.ID)
		}
		return ids
	})
	require.NoError(t, err)
	assert.True(t, seen)

	// marked rows are not handed out again
	_, err = repo.ProcessUnsent(ctx, 100, func(batch []OutboxEvent) []uuid.UUID {
		for _, e := range batch {
			assert.NotEqual(t, event.ID, e.ID)
		}
		return nil
	})
	require.NoError(t, err)
}

func TestRepository_NoLatencies(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	rec := testRecord()
	rec.LatenciesMS = nil
	rec.HasLatency = false
	_, err := repo.InsertResult(ctx, rec)
	require.NoError(t, err)

	results, err := repo.ListRecentResults(ctx, 50)
	require.NoError(t, err)
	for _, r := range results {
		if r.SessionID == rec.SessionID {
			assert.Empty(t, r.LatenciesMS)
			return
		}
	}
	t.Fatal("result not listed")
}
