package iteration

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// ErrStaleIteration is reported when a sleep outlives the iteration that created it
var ErrStaleIteration = errors.New("iteration superseded before sleep resolved")

// Phase is the position inside a single iteration
type Phase int

const (
	PhaseNone Phase = iota
	PhaseWaiting
	PhaseShowing
	PhaseActive
)

func (p Phase) String() string {
	switch p {
	case PhaseWaiting:
		return "waiting"
	case PhaseShowing:
		return "showing"
	case PhaseActive:
		return "active"
	default:
		return "none"
	}
}

// Token identifies one iteration. The epoch changes on every BreakCycle so that a
// token from an earlier run never matches a later iteration that reuses its id.
type Token struct {
	epoch uint64
	id    int64
}

// ID returns the iteration number carried by the token
func (t Token) ID() int64 { return t.id }

// Status tags the result of a sleep
type Status int

const (
	StatusOK Status = iota
	StatusStale
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusStale:
		return "stale"
	default:
		return "cancelled"
	}
}

// Outcome is what a Sleeper yields once its duration elapsed or its context ended
type Outcome struct {
	Token  Token
	Status Status
	cause  error
}

func (o Outcome) OK() bool    { return o.Status == StatusOK }
func (o Outcome) Stale() bool { return o.Status == StatusStale }

// Err converts a non-OK outcome into an error for logging
func (o Outcome) Err() error {
	switch o.Status {
	case StatusOK:
		return nil
	case StatusStale:
		return ErrStaleIteration
	default:
		return o.cause
	}
}

// Sleeper waits for d within the iteration it was created for
type Sleeper func(ctx context.Context, d time.Duration) Outcome

// Clock is the iteration state machine: a monotonically increasing id plus the current phase.
type Clock struct {
	clock clockwork.Clock

	mu    sync.RWMutex
	epoch uint64
	id    int64
	phase Phase
}

// NewClock creates an iteration clock that is not running (id -1)
func NewClock(clock clockwork.Clock) *Clock {
	return &Clock{
		clock: clock,
		id:    -1,
	}
}

// Next starts a new iteration in the Waiting phase.
// Every sleep created for an earlier iteration becomes stale.
func (c *Clock) Next() Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.id++
	c.phase = PhaseWaiting
	return Token{epoch: c.epoch, id: c.id}
}

// BreakCycle marks the clock as not running
func (c *Clock) BreakCycle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.id = -1
	c.phase = PhaseNone
}

func (c *Clock) SetWaiting() { c.setPhase(PhaseWaiting) }
func (c *Clock) SetShowing() { c.setPhase(PhaseShowing) }
func (c *Clock) SetActive()  { c.setPhase(PhaseActive) }

func (c *Clock) setPhase(p Phase) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.phase = p
}

func (c *Clock) Phase() Phase {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.phase
}

func (c *Clock) IsWaiting() bool { return c.Phase() == PhaseWaiting }
func (c *Clock) IsShowing() bool { return c.Phase() == PhaseShowing }
func (c *Clock) IsActive() bool  { return c.Phase() == PhaseActive }

// ID returns the current iteration id, -1 when not running
func (c *Clock) ID() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.id
}

// Current returns the token of the current iteration
func (c *Clock) Current() Token {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Token{epoch: c.epoch, id: c.id}
}

// IsCurrent reports whether tok still names the live iteration
func (c *Clock) IsCurrent(tok Token) bool {
	return c.Current() == tok
}

// CreateSleep binds a sleeper to the current iteration
func (c *Clock) CreateSleep() Sleeper {
	tok := c.Current()
	return func(ctx context.Context, d time.Duration) Outcome {
		return c.sleep(ctx, tok, d)
	}
}

func (c *Clock) sleep(ctx context.Context, tok Token, d time.Duration) Outcome {
	if d > 0 {
		timer := c.clock.NewTimer(d)
		select {
		case <-timer.Chan():
		case <-ctx.Done():
			stopAndDrainTimer(timer)
			return Outcome{Token: tok, Status: StatusCancelled, cause: ctx.Err()}
		}
	}

	if !c.IsCurrent(tok) {
		return Outcome{Token: tok, Status: StatusStale}
	}
	return Outcome{Token: tok, Status: StatusOK}
}

// stopAndDrainTimer stops a timer and drains its channel if it already fired
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
