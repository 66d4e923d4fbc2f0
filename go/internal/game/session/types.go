package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/twinflash/go/internal/game/score"
)

// Mode is the session-scoped pairing setting read by the UI layer
type Mode string

const (
	ModeUniform Mode = "uniform"
	ModeCross   Mode = "cross"
)

// ParseMode accepts the mode names plus the short labels shown in the UI
func ParseMode(s string) (Mode, error) {
	switch s {
	case "uniform", "UNI", "uni":
		return ModeUniform, nil
	case "cross", "CROSS":
		return ModeCross, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// Label is the short form displayed next to the mode toggle
func (m Mode) Label() string {
	if m == ModeCross {
		return "CROSS"
	}
	return "UNI"
}

// Outcome of a judged reaction
type Outcome string

const (
	OutcomePass Outcome = "pass"
	OutcomeFail Outcome = "fail"
)

// Reason explains a verdict
type Reason string

const (
	ReasonCorrect       Reason = "correct"
	ReasonTooEarly      Reason = "too_early"
	ReasonWrongSequence Reason = "wrong_sequence"
	ReasonMissed        Reason = "missed"
)

// Verdict is the judgement of one iteration
type Verdict struct {
	Iteration int64         `json:"iteration"`
	Outcome   Outcome       `json:"outcome"`
	Reason    Reason        `json:"reason"`
	Latency   time.Duration `json:"latency"`
}

// Record is published once per session when it stops
type Record struct {
	SessionID uuid.UUID `json:"session_id"`
	Mode      Mode      `json:"mode"`
	StartedAt time.Time `json:"started_at"`
	StoppedAt time.Time `json:"stopped_at"`
	score.Result
}

// ResultSink receives the final record of every session
type ResultSink interface {
	Publish(ctx context.Context, rec Record) error
}

// SinkFunc adapts a function to ResultSink
type SinkFunc func(ctx context.Context, rec Record) error

func (f SinkFunc) Publish(ctx context.Context, rec Record) error { return f(ctx, rec) }

type multiSink []ResultSink

// Sinks fans a record out to every non-nil sink and joins their errors
func Sinks(sinks ...ResultSink) ResultSink {
	var ms multiSink
	for _, s := range sinks {
		if s != nil {
			ms = append(ms, s)
		}
	}
	return ms
}

func (ms multiSink) Publish(ctx context.Context, rec Record) error {
	var errs []error
	for _, s := range ms {
		if err := s.Publish(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// StatusRenderer is an optional renderer extension notified when a session starts or stops
type StatusRenderer interface {
	SetRunning(running bool)
}

// VerdictRenderer is an optional renderer extension receiving every pass/fail
type VerdictRenderer interface {
	ShowVerdict(v Verdict)
}

// Input registers the user-triggered events of a front end
type Input interface {
	OnStart(fn func())
	OnEnter(fn func())
	OnStop(fn func())
	OnModeChange(fn func(Mode))
}
