package cli

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/jonboulle/clockwork"
	_ "github.com/lib/pq"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mcdev12/twinflash/go/internal/config"
	"github.com/mcdev12/twinflash/go/internal/dbconfig"
	"github.com/mcdev12/twinflash/go/internal/game/events"
	"github.com/mcdev12/twinflash/go/internal/game/gateway"
	"github.com/mcdev12/twinflash/go/internal/game/outbox"
	"github.com/mcdev12/twinflash/go/internal/game/results"
)

// server is everything serve runs, built from config
type server struct {
	http     *http.Server
	gateway  *gateway.Service
	relay    *outbox.Relay
	listener *outbox.Listener
	closers  []func() error
}

func buildServer(ctx context.Context, cfg *config.Config) (*server, error) {
	s := &server{}
	health := &healthChecker{}

	var publisher outbox.Publisher = outbox.NewLogPublisher(log.Logger)
	if cfg.NATS.Enabled {
		jsp, err := outbox.NewJetStreamPublisher(ctx, cfg.JetStream())
		if err != nil {
			return nil, fmt.Errorf("create JetStream publisher: %w", err)
		}
		s.closers = append(s.closers, jsp.Close)
		publisher = jsp
		health.nats = jsp
	}

	var (
		store  outbox.ResultStore
		lister results.ResultLister
	)
	if cfg.Database.Enabled {
		dbCfg := dbconfig.NewConfigFromEnv()
		db, err := setupDatabase(ctx, dbCfg)
		if err != nil {
			s.close()
			return nil, err
		}
		s.closers = append(s.closers, db.Close)
		health.db = db

		repo := outbox.NewRepository(db)
		store, lister = repo, repo
		s.relay = outbox.NewRelay(repo, publisher, cfg.Relay(), clockwork.NewRealClock())

		lcfg := outbox.DefaultListenerConfig()
		lcfg.DatabaseURL = dbCfg.DSN()
		if l, err := outbox.NewListener(lcfg, clockwork.NewRealClock()); err != nil {
			log.Warn().Err(err).Msg("outbox notifications unavailable, polling only")
		} else {
			s.listener = l
		}
	}

	gwCfg := gateway.Config{
		Connection: gateway.DefaultConnectionConfig(),
		Game: gateway.GameConfig{
			Session: cfg.Session(),
			Sink:    outbox.NewSink(store, publisher),
		},
	}
	if cfg.NATS.Enabled && cfg.NATS.Feed {
		js := cfg.JetStream()
		feed := gateway.DefaultFeedConfig()
		feed.URL = js.URL
		feed.StreamName = js.StreamName
		feed.SubjectFilter = js.Subject(events.TypeSessionFinished)
		gwCfg.Feed = &feed
	}

	gw, err := gateway.NewService(ctx, gwCfg)
	if err != nil {
		s.close()
		return nil, err
	}
	s.gateway = gw
	health.stats = gw.Stats

	mux := http.NewServeMux()
	gw.RegisterRoutes(mux)
	mux.Handle(results.NewHandler(results.NewService(lister)))
	setupHealthCheck(mux)
	mux.Handle("/ready", health)

	s.http = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: newHandler(mux),
	}
	return s, nil
}

// newHandler wraps mux with CORS and HTTP/2 cleartext support
func newHandler(mux *http.ServeMux) http.Handler {
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})
	return h2c.NewHandler(c.Handler(mux), &http2.Server{})
}

func setupHealthCheck(mux *http.ServeMux) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})
}

func setupDatabase(ctx context.Context, cfg dbconfig.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Msg("connected to database")
	return db, nil
}

func (s *server) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			log.Error().Err(err).Msg("close failed")
		}
	}
	s.closers = nil
}
