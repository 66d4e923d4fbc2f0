package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Service runs the player websocket gateway and, when configured, the result feed
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	resultFeed        *ResultFeed
}

type Config struct {
	Connection ConnectionConfig
	Game       GameConfig
	// Feed enables broadcasting results from JetStream; nil runs without NATS
	Feed *FeedConfig
}

func NewService(ctx context.Context, config Config) (*Service, error) {
	cm := NewConnectionManager(config.Connection, config.Game)

	s := &Service{
		connectionManager: cm,
		wsHandler:         NewWebSocketHandler(cm),
	}

	if config.Feed != nil {
		feed, err := NewResultFeed(ctx, cm, *config.Feed)
		if err != nil {
			return nil, fmt.Errorf("failed to create result feed: %w", err)
		}
		s.resultFeed = feed
	}
	return s, nil
}

// Start runs until ctx is done
func (s *Service) Start(ctx context.Context) error {
	log.Info().Bool("result_feed", s.resultFeed != nil).Msg("starting game gateway service")

	go s.connectionManager.Start(ctx)

	if s.resultFeed != nil {
		go func() {
			if err := s.resultFeed.Start(ctx); err != nil {
				log.Error().Err(err).Msg("result feed failed")
			}
		}()
	}

	<-ctx.Done()
	log.Info().Msg("game gateway service shutting down")
	return s.Stop()
}

func (s *Service) Stop() error {
	if s.resultFeed != nil {
		if err := s.resultFeed.Stop(); err != nil {
			log.Error().Err(err).Msg("failed to stop result feed")
		}
	}
	log.Info().Msg("game gateway service stopped")
	return nil
}

func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	log.Info().Msg("game gateway routes registered")
}

func (s *Service) Stats() ConnectionStats {
	return s.connectionManager.Stats()
}

// Broadcast sends an event to every connected player
func (s *Service) Broadcast(event *Event) {
	s.connectionManager.Broadcast(event)
}
