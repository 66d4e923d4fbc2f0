package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/twinflash/go/internal/game/session"
	"github.com/mcdev12/twinflash/go/internal/sqlutil"
)

// StoredResult is a finished session as kept in game_results
type StoredResult struct {
	SessionID   uuid.UUID `json:"session_id"`
	Mode        string    `json:"mode"`
	StartedAt   time.Time `json:"started_at"`
	StoppedAt   time.Time `json:"stopped_at"`
	Failures    int       `json:"failures"`
	Successes   int       `json:"successes"`
	Iterations  int64     `json:"iterations"`
	Points      float64   `json:"points"`
	Winner      bool      `json:"winner"`
	LatenciesMS []float64 `json:"latencies_ms"`
}

type Repository struct {
	db      *sql.DB
	queries *Queries
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		db:      db,
		queries: New(db),
	}
}

// InsertResult stores the record and its SessionFinished outbox event in one transaction
func (r *Repository) InsertResult(ctx context.Context, rec session.Record) (OutboxEvent, error) {
	event, err := NewFinishedEvent(rec, time.Now().UTC())
	if err != nil {
		return OutboxEvent{}, err
	}

	latencies, err := sqlutil.ToNullJSON(rec.LatenciesMS, rec.HasLatency)
	if err != nil {
		return OutboxEvent{}, fmt.Errorf("latencies: %w", err)
	}

	err = sqlutil.Run(ctx, r.db, r.queries.WithTx, func(q *Queries) error {
		if err := q.InsertGameResult(ctx, InsertGameResultParams{
			SessionID:  rec.SessionID,
			Mode:       string(rec.Mode),
			StartedAt:  rec.StartedAt,
			StoppedAt:  rec.StoppedAt,
			Failures:   sqlutil.ToSqlInt32(rec.Failures),
			Successes:  sqlutil.ToSqlInt32(rec.Successes),
			Iterations: rec.Iterations,
			Points:     rec.Points,
			Winner:     rec.Winner,
			Latencies:  latencies,
		}); err != nil {
			return fmt.Errorf("insert game result: %w", err)
		}
		if err := q.InsertOutboxEvent(ctx, InsertOutboxEventParams{
			ID:        event.ID,
			SessionID: event.SessionID,
			EventType: event.EventType,
			Payload:   event.Payload,
			CreatedAt: event.CreatedAt,
		}); err != nil {
			return fmt.Errorf("insert %s outbox event: %w", event.EventType, err)
		}
		return nil
	})
	if err != nil {
		return OutboxEvent{}, err
	}
	return event, nil
}

// ProcessUnsent locks up to limit unsent events, hands them to fn and marks the ids fn
// returns as sent, all in one transaction. It returns how many events were locked.
func (r *Repository) ProcessUnsent(ctx context.Context, limit int32, fn func([]OutboxEvent) []uuid.UUID) (int, error) {
	var fetched int
	err := sqlutil.Run(ctx, r.db, r.queries.WithTx, func(q *Queries) error {
		rows, err := q.FetchUnsentOutbox(ctx, limit)
		if err != nil {
			return fmt.Errorf("fetch unsent outbox events: %w", err)
		}
		fetched = len(rows)
		if fetched == 0 {
			return nil
		}

		batch := make([]OutboxEvent, len(rows))
		for i, row := range rows {
			batch[i] = OutboxEvent{
				ID:        row.ID,
				SessionID: row.SessionID,
				EventType: row.EventType,
				Payload:   row.Payload,
				CreatedAt: row.CreatedAt,
			}
		}

		sent := fn(batch)
		if len(sent) == 0 {
			return nil
		}
		if err := q.MarkOutboxSent(ctx, sent); err != nil {
			return fmt.Errorf("mark outbox events sent: %w", err)
		}
		return nil
	})
	return fetched, err
}

// ListRecentResults returns the latest finished sessions, newest first
func (r *Repository) ListRecentResults(ctx context.Context, limit int32) ([]StoredResult, error) {
	rows, err := r.queries.ListRecentResults(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent results: %w", err)
	}

	results := make([]StoredResult, len(rows))
	for i, row := range rows {
		results[i] = StoredResult{
			SessionID:   row.SessionID,
			Mode:        row.Mode,
			StartedAt:   row.StartedAt,
			StoppedAt:   row.StoppedAt,
			Failures:    int(row.Failures),
			Successes:   int(row.Successes),
			Iterations:  row.Iterations,
			Points:      row.Points,
			Winner:      row.Winner,
			LatenciesMS: []float64{},
		}
		if err := sqlutil.FromNullJSON(row.Latencies, &results[i].LatenciesMS); err != nil {
			return nil, fmt.Errorf("decode latencies of %s: %w", row.SessionID, err)
		}
	}
	return results, nil
}
