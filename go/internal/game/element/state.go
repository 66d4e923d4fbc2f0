package element

import (
	"math/rand/v2"
	"sync"
)

// State is the per-cycle state of a single element
type State int

const (
	StateNone State = iota
	StateActive
	StateStatic
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateStatic:
		return "static"
	default:
		return "none"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Source produces the next cycle state for one slot
type Source interface {
	Next() State
}

// RandomSource draws Active or Static with equal probability
type RandomSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomSource creates a source seeded from the runtime's random generator
func NewRandomSource() *RandomSource {
	return NewSeededSource(rand.Uint64(), rand.Uint64())
}

// NewSeededSource creates a reproducible source
func NewSeededSource(seed1, seed2 uint64) *RandomSource {
	return &RandomSource{rng: rand.New(rand.NewPCG(seed1, seed2))}
}

func (s *RandomSource) Next() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rng.Float64() < 0.5 {
		return StateActive
	}
	return StateStatic
}

// ScriptedSource replays a fixed list of states, repeating the last one once exhausted.
// An empty script always yields Static.
type ScriptedSource struct {
	mu     sync.Mutex
	states []State
	pos    int
}

// NewScriptedSource creates a source that returns states in order
func NewScriptedSource(states ...State) *ScriptedSource {
	return &ScriptedSource{states: states}
}

func (s *ScriptedSource) Next() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.states) == 0 {
		return StateStatic
	}
	if s.pos >= len(s.states) {
		return s.states[len(s.states)-1]
	}
	st := s.states[s.pos]
	s.pos++
	return st
}
