package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event payload types shared between the session sinks, the outbox and the gateway

const (
	TypeElementChanged  = "ElementChanged"
	TypeSessionStarted  = "SessionStarted"
	TypeSessionStopped  = "SessionStopped"
	TypeReactionJudged  = "ReactionJudged"
	TypeSessionFinished = "SessionFinished"
	TypeModeChanged     = "ModeChanged"
	TypeResultPublished = "ResultPublished"
)

// ElementChangedPayload is sent whenever an element is shown, hidden or lit up
type ElementChangedPayload struct {
	Element string `json:"element"`
	Visible bool   `json:"visible"`
	Active  bool   `json:"active"`
}

// SessionStartedPayload is the payload for a SessionStarted event
type SessionStartedPayload struct {
	SessionID uuid.UUID `json:"session_id"`
	Mode      string    `json:"mode"`
	StartedAt time.Time `json:"started_at"`
}

// SessionStoppedPayload is sent to the player when the running indicator goes off
type SessionStoppedPayload struct {
	SessionID uuid.UUID `json:"session_id"`
}

// ReactionJudgedPayload is the payload for a ReactionJudged event
type ReactionJudgedPayload struct {
	Iteration int64   `json:"iteration"`
	Outcome   string  `json:"outcome"`
	Reason    string  `json:"reason"`
	LatencyMS float64 `json:"latency_ms"`
}

// SessionFinishedPayload carries the final record of a session
type SessionFinishedPayload struct {
	SessionID   uuid.UUID `json:"session_id"`
	Mode        string    `json:"mode"`
	StartedAt   time.Time `json:"started_at"`
	StoppedAt   time.Time `json:"stopped_at"`
	Duration    string    `json:"duration"`
	Failures    int       `json:"failures"`
	Successes   int       `json:"successes"`
	Iterations  int64     `json:"iterations"`
	LatenciesMS []float64 `json:"latencies_ms"`
	Points      float64   `json:"points"`
	Winner      bool      `json:"winner"`
	HasLatency  bool      `json:"has_latency"`
}

// ModeChangedPayload is the payload for a ModeChanged event
type ModeChangedPayload struct {
	Mode  string `json:"mode"`
	Label string `json:"label"`
}

// Envelope wraps every payload published to JetStream
type Envelope struct {
	EventID   string          `json:"eventId"`
	EventType string          `json:"eventType"`
	SessionID string          `json:"sessionId"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}
