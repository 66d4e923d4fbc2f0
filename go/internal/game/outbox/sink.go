package outbox

import (
	"context"
	"time"

	"github.com/mcdev12/twinflash/go/internal/game/session"
	"github.com/rs/zerolog/log"
)

// ResultStore persists a record together with its outbox event
type ResultStore interface {
	InsertResult(ctx context.Context, rec session.Record) (OutboxEvent, error)
}

// Sink is the session.ResultSink of the server. With a store, records go through the
// outbox and the Relay publishes them; without one they are published right away.
type Sink struct {
	store     ResultStore
	publisher Publisher
}

var _ session.ResultSink = (*Sink)(nil)

func NewSink(store ResultStore, publisher Publisher) *Sink {
	return &Sink{store: store, publisher: publisher}
}

func (s *Sink) Publish(ctx context.Context, rec session.Record) error {
	if s.store != nil {
		event, err := s.store.InsertResult(ctx, rec)
		if err != nil {
			return err
		}
		log.Debug().
			Str("event_id", event.ID.String()).
			Str("session_id", rec.SessionID.String()).
			Msg("result stored in outbox")
		return nil
	}

	event, err := NewFinishedEvent(rec, time.Now().UTC())
	if err != nil {
		return err
	}
	return s.publisher.Publish(ctx, event)
}
