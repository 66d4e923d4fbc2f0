package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/twinflash/go/internal/game/events"
)

// Event is the envelope of every server-to-client message
type Event struct {
	ID        string          `json:"id"`
	SessionID string          `json:"session_id,omitempty"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

type EventType string

const (
	EventTypeElementChanged  EventType = events.TypeElementChanged
	EventTypeSessionStarted  EventType = events.TypeSessionStarted
	EventTypeSessionStopped  EventType = events.TypeSessionStopped
	EventTypeReactionJudged  EventType = events.TypeReactionJudged
	EventTypeSessionFinished EventType = events.TypeSessionFinished
	EventTypeModeChanged     EventType = events.TypeModeChanged
	EventTypeResultPublished EventType = events.TypeResultPublished
	EventTypeError           EventType = "Error"
)

// ErrorPayload answers a command that could not be applied
type ErrorPayload struct {
	Command string `json:"command,omitempty"`
	Error   string `json:"error"`
}

// CommandType is what a client can ask of its game
type CommandType string

const (
	CommandStart CommandType = "start"
	CommandEnter CommandType = "enter"
	CommandStop  CommandType = "stop"
	CommandMode  CommandType = "mode"
)

// Command is a client-to-server message
type Command struct {
	Type CommandType `json:"type"`
	Mode string      `json:"mode,omitempty"`
}

// NewEvent marshals payload into a new event
func NewEvent(eventType EventType, sessionID string, payload interface{}) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return &Event{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}, nil
}

// ParseEventPayload parses event data into the matching payload struct
func ParseEventPayload(event *Event) (interface{}, error) {
	var payload interface{}
	switch event.Type {
	case EventTypeElementChanged:
		payload = &events.ElementChangedPayload{}
	case EventTypeSessionStarted:
		payload = &events.SessionStartedPayload{}
	case EventTypeSessionStopped:
		payload = &events.SessionStoppedPayload{}
	case EventTypeReactionJudged:
		payload = &events.ReactionJudgedPayload{}
	case EventTypeSessionFinished, EventTypeResultPublished:
		payload = &events.SessionFinishedPayload{}
	case EventTypeModeChanged:
		payload = &events.ModeChangedPayload{}
	case EventTypeError:
		payload = &ErrorPayload{}
	default:
		return nil, fmt.Errorf("unknown event type: %s", event.Type)
	}

	if err := json.Unmarshal(event.Data, payload); err != nil {
		return nil, err
	}
	return payload, nil
}
