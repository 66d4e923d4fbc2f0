package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/twinflash/go/internal/game/events"
	"github.com/mcdev12/twinflash/go/internal/game/session"
)

// OutboxEvent is one row of the outbox table
type OutboxEvent struct {
	ID        uuid.UUID       `json:"id"`
	SessionID uuid.UUID       `json:"session_id"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	SentAt    *time.Time      `json:"sent_at,omitempty"`
}

// Publisher delivers outbox events to the message bus
type Publisher interface {
	Publish(ctx context.Context, event OutboxEvent) error
}

// FinishedPayload flattens a session record into the SessionFinished payload
func FinishedPayload(rec session.Record) events.SessionFinishedPayload {
	latencies := rec.LatenciesMS
	if latencies == nil {
		latencies = []float64{}
	}
	return events.SessionFinishedPayload{
		SessionID:   rec.SessionID,
		Mode:        string(rec.Mode),
		StartedAt:   rec.StartedAt,
		StoppedAt:   rec.StoppedAt,
		Duration:    rec.StoppedAt.Sub(rec.StartedAt).String(),
		Failures:    rec.Failures,
		Successes:   rec.Successes,
		Iterations:  rec.Iterations,
		LatenciesMS: latencies,
		Points:      rec.Points,
		Winner:      rec.Winner,
		HasLatency:  rec.HasLatency,
	}
}

// NewFinishedEvent builds the SessionFinished outbox event of a record
func NewFinishedEvent(rec session.Record, now time.Time) (OutboxEvent, error) {
	payload, err := json.Marshal(FinishedPayload(rec))
	if err != nil {
		return OutboxEvent{}, fmt.Errorf("marshal %s payload: %w", events.TypeSessionFinished, err)
	}
	return OutboxEvent{
		ID:        uuid.New(),
		SessionID: rec.SessionID,
		EventType: events.TypeSessionFinished,
		Payload:   payload,
		CreatedAt: now,
	}, nil
}

// envelope wraps an event the way every consumer of the stream expects it
func envelope(event OutboxEvent, now time.Time) ([]byte, error) {
	data, err := json.Marshal(events.Envelope{
		EventID:   event.ID.String(),
		EventType: event.EventType,
		SessionID: event.SessionID.String(),
		Timestamp: now.UTC(),
		Payload:   event.Payload,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}
