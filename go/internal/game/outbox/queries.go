package outbox

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sqlc-dev/pqtype"
)

// Schema creates the tables used by the repository
const Schema = `
CREATE TABLE IF NOT EXISTS game_results (
    session_id  UUID PRIMARY KEY,
    mode        TEXT NOT NULL,
    started_at  TIMESTAMPTZ NOT NULL,
    stopped_at  TIMESTAMPTZ NOT NULL,
    failures    INTEGER NOT NULL,
    successes   INTEGER NOT NULL,
    iterations  BIGINT NOT NULL,
    points      DOUBLE PRECISION NOT NULL,
    winner      BOOLEAN NOT NULL,
    latencies   JSONB
);

CREATE TABLE IF NOT EXISTS outbox (
    id          UUID PRIMARY KEY,
    session_id  UUID NOT NULL,
    event_type  TEXT NOT NULL,
    payload     JSONB NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    sent_at     TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS outbox_unsent_idx ON outbox (created_at) WHERE sent_at IS NULL;

CREATE OR REPLACE FUNCTION twinflash_notify_outbox() RETURNS trigger AS $$
BEGIN
    PERFORM pg_notify('twinflash_outbox', NEW.id::text);
    RETURN NEW;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS outbox_notify ON outbox;
CREATE TRIGGER outbox_notify AFTER INSERT ON outbox
    FOR EACH ROW EXECUTE FUNCTION twinflash_notify_outbox();
`

// DBTX is satisfied by *sql.DB and *sql.Tx
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// Queries holds the statements of the outbox and results tables
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const insertGameResult = `
INSERT INTO game_results (session_id, mode, started_at, stopped_at, failures, successes, iterations, points, winner, latencies)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`

type InsertGameResultParams struct {
	SessionID  uuid.UUID
	Mode       string
	StartedAt  time.Time
	StoppedAt  time.Time
	Failures   int32
	Successes  int32
	Iterations int64
	Points     float64
	Winner     bool
	Latencies  pqtype.NullRawMessage
}

func (q *Queries) InsertGameResult(ctx context.Context, arg InsertGameResultParams) error {
	_, err := q.db.ExecContext(ctx, insertGameResult,
		arg.SessionID,
		arg.Mode,
		arg.StartedAt,
		arg.StoppedAt,
		arg.Failures,
		arg.Successes,
		arg.Iterations,
		arg.Points,
		arg.Winner,
		arg.Latencies,
	)
	return err
}

const insertOutboxEvent = `
INSERT INTO outbox (id, session_id, event_type, payload, created_at)
VALUES ($1, $2, $3, $4, $5)
`

type InsertOutboxEventParams struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	EventType string
	Payload   []byte
	CreatedAt time.Time
}

func (q *Queries) InsertOutboxEvent(ctx context.Context, arg InsertOutboxEventParams) error {
	_, err := q.db.ExecContext(ctx, insertOutboxEvent,
		arg.ID,
		arg.SessionID,
		arg.EventType,
		arg.Payload,
		arg.CreatedAt,
	)
	return err
}

const fetchUnsentOutbox = `
SELECT id, session_id, event_type, payload, created_at
FROM outbox
WHERE sent_at IS NULL
ORDER BY created_at
LIMIT $1
FOR UPDATE SKIP LOCKED
`

type FetchUnsentOutboxRow struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	EventType string
	Payload   []byte
	CreatedAt time.Time
}

func (q *Queries) FetchUnsentOutbox(ctx context.Context, limit int32) ([]FetchUnsentOutboxRow, error) {
	rows, err := q.db.QueryContext(ctx, fetchUnsentOutbox, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []FetchUnsentOutboxRow
	for rows.Next() {
		var i FetchUnsentOutboxRow
		if err := rows.Scan(
			&i.ID,
			&i.SessionID,
			&i.EventType,
			&i.Payload,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const markOutboxSent = `
UPDATE outbox SET sent_at = now() WHERE id = ANY($1::uuid[])
`

func (q *Queries) MarkOutboxSent(ctx context.Context, ids []uuid.UUID) error {
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	_, err := q.db.ExecContext(ctx, markOutboxSent, pq.Array(strs))
	return err
}

const listRecentResults = `
SELECT session_id, mode, started_at, stopped_at, failures, successes, iterations, points, winner, latencies
FROM game_results
ORDER BY stopped_at DESC
LIMIT $1
`

type GameResultRow struct {
	SessionID  uuid.UUID
	Mode       string
	StartedAt  time.Time
	StoppedAt  time.Time
	Failures   int32
	Successes  int32
	Iterations int64
	Points     float64
	Winner     bool
	Latencies  pqtype.NullRawMessage
}

func (q *Queries) ListRecentResults(ctx context.Context, limit int32) ([]GameResultRow, error) {
	rows, err := q.db.QueryContext(ctx, listRecentResults, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []GameResultRow
	for rows.Next() {
		var i GameResultRow
		if err := rows.Scan(
			&i.SessionID,
			&i.Mode,
			&i.StartedAt,
			&i.StoppedAt,
			&i.Failures,
			&i.Successes,
			&i.Iterations,
			&i.Points,
			&i.Winner,
			&i.Latencies,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
