package outbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

var (
	ErrRelayRunning    = errors.New("outbox relay already running")
	ErrRelayNotRunning = errors.New("outbox relay not running")
)

type RelayConfig struct {
	PollInterval time.Duration
	BatchSize    int32
	MaxRetries   int
	RetryDelay   time.Duration
}

func DefaultRelayConfig() RelayConfig {
	return RelayConfig{
		PollInterval: 5 * time.Second,
		BatchSize:    100,
		MaxRetries:   3,
		RetryDelay:   time.Second,
	}
}

// Store hands out unsent events and records which ones were delivered
type Store interface {
	ProcessUnsent(ctx context.Context, limit int32, fn func([]OutboxEvent) []uuid.UUID) (int, error)
}

// Relay polls the outbox and publishes unsent events
type Relay struct {
	store     Store
	publisher Publisher
	config    RelayConfig
	clock     clockwork.Clock

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup

	wake chan struct{}
}

func NewRelay(store Store, publisher Publisher, cfg RelayConfig, clock clockwork.Clock) *Relay {
	return &Relay{
		store:     store,
		publisher: publisher,
		config:    cfg,
		clock:     clock,
		wake:      make(chan struct{}, 1),
	}
}

func (r *Relay) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return ErrRelayRunning
	}
	r.running = true
	r.stopChan = make(chan struct{})

	r.wg.Add(1)
	go r.run(ctx, r.stopChan)

	log.Info().
		Dur("poll_interval", r.config.PollInterval).
		Int32("batch_size", r.config.BatchSize).
		Msg("outbox relay started")
	return nil
}

func (r *Relay) Stop() error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return ErrRelayNotRunning
	}
	r.running = false
	close(r.stopChan)
	r.mu.Unlock()

	r.wg.Wait()
	log.Info().Msg("outbox relay stopped")
	return nil
}

// Wake asks for an outbox pass ahead of the next poll. Wakes while a pass is pending are merged.
func (r *Relay) Wake() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *Relay) run(ctx context.Context, stop <-chan struct{}) {
	defer r.wg.Done()

	ticker := r.clock.NewTicker(r.config.PollInterval)
	defer ticker.Stop()

	r.processOutbox(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.Chan():
			r.processOutbox(ctx)
		case <-r.wake:
			r.processOutbox(ctx)
		}
	}
}

func (r *Relay) processOutbox(ctx context.Context) {
	var sent int
	fetched, err := r.store.ProcessUnsent(ctx, r.config.BatchSize, func(batch []OutboxEvent) []uuid.UUID {
		ids := make([]uuid.UUID, 0, len(batch))
		for _, event := range batch {
			if err := r.publishWithRetry(ctx, event); err != nil {
				log.Error().
					Err(err).
					Str("event_id", event.ID.String()).
					Str("event_type", event.EventType).
					Msg("failed to publish event")
				continue
			}
			ids = append(ids, event.ID)
		}
		sent = len(ids)
		return ids
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to process outbox")
		return
	}
	if fetched == 0 {
		return
	}

	log.Info().
		Int("total", fetched).
		Int("successful", sent).
		Msg("processed outbox events")
}

func (r *Relay) publishWithRetry(ctx context.Context, event OutboxEvent) error {
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-r.clock.After(r.config.RetryDelay * time.Duration(attempt)):
			}
		}

		if err := r.publisher.Publish(ctx, event); err != nil {
			lastErr = err
			log.Warn().
				Err(err).
				Str("event_id", event.ID.String()).
				Int("attempt", attempt+1).
				Msg("failed to publish event, retrying")
			continue
		}
		return nil
	}

	return fmt.Errorf("failed after %d attempts: %w", r.config.MaxRetries+1, lastErr)
}
