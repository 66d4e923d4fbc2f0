package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/twinflash/go/internal/game/gateway"
)

type healthStatus struct {
	Healthy           bool     `json:"healthy"`
	DatabaseConnected *bool    `json:"database_connected,omitempty"`
	NATSConnected     *bool    `json:"nats_connected,omitempty"`
	Connections       int      `json:"connections"`
	RunningSessions   int      `json:"running_sessions"`
	Errors            []string `json:"errors"`
}

type pinger interface {
	PingContext(ctx context.Context) error
}

type connectedChecker interface {
	Connected() bool
}

// healthChecker reports readiness of the optional backends; unset ones are left out
type healthChecker struct {
	db    pinger
	nats  connectedChecker
	stats func() gateway.ConnectionStats
}

func (h *healthChecker) Check(ctx context.Context) healthStatus {
	status := healthStatus{
		Healthy: true,
		Errors:  []string{},
	}

	if h.stats != nil {
		stats := h.stats()
		status.Connections = stats.TotalConnections
		status.RunningSessions = stats.RunningSessions
	}

	if h.db != nil {
		ok := true
		if err := h.db.PingContext(ctx); err != nil {
			ok = false
			status.Healthy = false
			status.Errors = append(status.Errors, fmt.Sprintf("database ping failed: %v", err))
		}
		status.DatabaseConnected = &ok
	}

	if h.nats != nil {
		ok := h.nats.Connected()
		if !ok {
			status.Healthy = false
			status.Errors = append(status.Errors, "NATS disconnected")
		}
		status.NATSConnected = &ok
	}

	return status
}

func (h *healthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := h.Check(ctx)
	w.Header().Set("Content-Type", "application/json")
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(status); err != nil {
		log.Error().Err(err).Msg("failed to write readiness response")
	}
}
