package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mcdev12/twinflash/go/internal/game/events"
	"github.com/mcdev12/twinflash/go/internal/game/outbox"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// FeedConfig holds configuration for the JetStream result consumer
type FeedConfig struct {
	URL           string
	StreamName    string
	ConsumerName  string
	SubjectFilter string
	MaxDeliver    int
	AckWait       time.Duration
	MaxAckPending int
	MaxReconnects int
	ReconnectWait time.Duration
}

func DefaultFeedConfig() FeedConfig {
	js := outbox.DefaultJetStreamConfig()
	return FeedConfig{
		URL:           nats.DefaultURL,
		StreamName:    js.StreamName,
		ConsumerName:  "twinflash-gateway",
		SubjectFilter: js.Subject(events.TypeSessionFinished),
		MaxDeliver:    5,
		AckWait:       30 * time.Second,
		MaxAckPending: 100,
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// ResultFeed consumes finished sessions from JetStream and broadcasts them to every player
type ResultFeed struct {
	connectionManager *ConnectionManager
	nc                *nats.Conn
	js                jetstream.JetStream
	consumer          jetstream.Consumer
	config            FeedConfig
}

func NewResultFeed(ctx context.Context, cm *ConnectionManager, config FeedConfig) (*ResultFeed, error) {
	nc, err := outbox.Connect(config.URL, config.MaxReconnects, config.ReconnectWait)
	if err != nil {
		return nil, err
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	f := &ResultFeed{
		connectionManager: cm,
		nc:                nc,
		js:                js,
		config:            config,
	}
	if err := f.ensureConsumer(ctx); err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure consumer: %w", err)
	}
	return f, nil
}

func (f *ResultFeed) ensureConsumer(ctx context.Context) error {
	stream, err := f.js.Stream(ctx, f.config.StreamName)
	if err != nil {
		return fmt.Errorf("get stream: %w", err)
	}

	consumer, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Name:          f.config.ConsumerName,
		Durable:       f.config.ConsumerName,
		Description:   "Gateway result broadcaster",
		FilterSubject: f.config.SubjectFilter,
		DeliverPolicy: jetstream.DeliverNewPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    f.config.MaxDeliver,
		AckWait:       f.config.AckWait,
		MaxAckPending: f.config.MaxAckPending,
		ReplayPolicy:  jetstream.ReplayInstantPolicy,
	})
	if err != nil {
		return fmt.Errorf("create consumer: %w", err)
	}

	log.Info().
		Str("consumer", f.config.ConsumerName).
		Str("stream", f.config.StreamName).
		Msg("JetStream consumer ready")
	f.consumer = consumer
	return nil
}

// Start consumes until ctx is done
func (f *ResultFeed) Start(ctx context.Context) error {
	log.Info().Str("consumer", f.config.ConsumerName).Msg("starting result feed")

	messageCh := make(chan jetstream.Msg, 100)
	consumeCtx, err := f.consumer.Consume(func(msg jetstream.Msg) {
		select {
		case messageCh <- msg:
		case <-ctx.Done():
			_ = msg.Nak()
		}
	})
	if err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}
	defer consumeCtx.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("result feed shutting down")
			return nil
		case msg := <-messageCh:
			if err := f.processMessage(msg.Data()); err != nil {
				log.Error().Err(err).Str("subject", msg.Subject()).Msg("failed to process message")
				// malformed results would fail on every redelivery
				if termErr := msg.Term(); termErr != nil {
					log.Error().Err(termErr).Msg("failed to terminate message")
				}
				continue
			}
			if ackErr := msg.Ack(); ackErr != nil {
				log.Error().Err(ackErr).Msg("failed to ACK message")
			}
		}
	}
}

func (f *ResultFeed) processMessage(data []byte) error {
	event, err := resultEvent(data)
	if err != nil {
		return err
	}
	f.connectionManager.Broadcast(event)

	log.Info().
		Str("event_id", event.ID).
		Str("session_id", event.SessionID).
		Msg("result broadcasted to WebSocket clients")
	return nil
}

// resultEvent turns a SessionFinished envelope into the ResultPublished event players receive
func resultEvent(data []byte) (*Event, error) {
	var env events.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal event envelope: %w", err)
	}
	if env.EventType != events.TypeSessionFinished {
		return nil, fmt.Errorf("unexpected event type: %s", env.EventType)
	}

	var payload events.SessionFinishedPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal %s payload: %w", env.EventType, err)
	}

	return &Event{
		ID:        env.EventID,
		SessionID: env.SessionID,
		Type:      EventTypeResultPublished,
		Timestamp: env.Timestamp,
		Data:      env.Payload,
	}, nil
}

func (f *ResultFeed) Stop() error {
	if f.nc != nil {
		f.nc.Close()
	}
	return nil
}
