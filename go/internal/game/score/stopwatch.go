package score

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Stopwatch measures the time between element activation and the player's action
type Stopwatch struct {
	clock       clockwork.Clock
	activatedAt *time.Time
	actedAt     *time.Time
}

func NewStopwatch(clock clockwork.Clock) *Stopwatch {
	return &Stopwatch{clock: clock}
}

func (s *Stopwatch) RecordActivation() {
	now := s.clock.Now()
	s.activatedAt = &now
}

func (s *Stopwatch) RecordAction() {
	now := s.clock.Now()
	s.actedAt = &now
}

// Elapsed returns the reaction latency; ok is false unless both stamps are present
func (s *Stopwatch) Elapsed() (time.Duration, bool) {
	if s.activatedAt == nil || s.actedAt == nil {
		return 0, false
	}
	return s.actedAt.Sub(*s.activatedAt), true
}

func (s *Stopwatch) Reset() {
	s.activatedAt = nil
	s.actedAt = nil
}
