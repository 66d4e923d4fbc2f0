package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// NotifyChannel is raised by the outbox insert trigger in Schema
const NotifyChannel = "twinflash_outbox"

type ListenerConfig struct {
	DatabaseURL  string // Postgres DSN for LISTEN/NOTIFY
	Channel      string
	PingInterval time.Duration
	MinReconnect time.Duration
	MaxReconnect time.Duration
}

func DefaultListenerConfig() ListenerConfig {
	return ListenerConfig{
		Channel:      NotifyChannel,
		PingInterval: 90 * time.Second,
		MinReconnect: 10 * time.Second,
		MaxReconnect: time.Minute,
	}
}

// Listener wakes the relay as soon as a row lands in the outbox so results do not wait for the next poll
type Listener struct {
	listener *pq.Listener
	cfg      ListenerConfig
	clock    clockwork.Clock
}

func NewListener(cfg ListenerConfig, clock clockwork.Clock) (*Listener, error) {
	l := pq.NewListener(
		cfg.DatabaseURL,
		cfg.MinReconnect,
		cfg.MaxReconnect,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Error().Err(err).Msg("listener event")
			}
		},
	)
	if err := l.Listen(cfg.Channel); err != nil {
		l.Close()
		return nil, fmt.Errorf("failed to listen to channel: %w", err)
	}

	log.Info().
		Str("channel", cfg.Channel).
		Msg("listening for notifications")

	return &Listener{listener: l, cfg: cfg, clock: clock}, nil
}

// Run calls wake for every notification until ctx is done
func (l *Listener) Run(ctx context.Context, wake func()) error {
	defer l.listener.Close()
	return l.loop(ctx, l.listener.Notify, l.listener.Ping, wake)
}

func (l *Listener) loop(ctx context.Context, notify <-chan *pq.Notification, ping func() error, wake func()) error {
	pingTicker := l.clock.NewTicker(l.cfg.PingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("listener shutting down")
			return nil
		case note, ok := <-notify:
			if !ok {
				return nil
			}
			// nil means the connection was re-established and notifications may have been missed
			if note != nil {
				log.Debug().Str("event_id", note.Extra).Msg("outbox notification")
			}
			wake()
		case <-pingTicker.Chan():
			if err := ping(); err != nil {
				log.Error().Err(err).Msg("failed to ping listener")
			}
		}
	}
}
