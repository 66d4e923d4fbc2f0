package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/twinflash/go/internal/game/element"
	"github.com/mcdev12/twinflash/go/internal/game/iteration"
	"github.com/mcdev12/twinflash/go/internal/game/score"
	"github.com/rs/zerolog/log"
)

// Option customizes a Session
type Option func(*Session)

// WithClock replaces the real clock, mostly with a clockwork.FakeClock in tests
func WithClock(clock clockwork.Clock) Option {
	return func(s *Session) { s.clock = clock }
}

// WithSources sets the randomness source of each element
func WithSources(first, second element.Source) Option {
	return func(s *Session) {
		s.firstSource = first
		s.secondSource = second
	}
}

func WithMode(mode Mode) Option {
	return func(s *Session) { s.mode = mode }
}

func WithID(id uuid.UUID) Option {
	return func(s *Session) { s.id = id }
}

// Session is one game: it drives the iteration loop, judges reactions and
// publishes the final record when it stops.
//
// Every handler (Enter, Stop, auto-stop and each loop continuation) runs under mu.
// A loop continuation only acts if its iteration token is still current once it
// holds the lock.
type Session struct {
	id           uuid.UUID
	cfg          Config
	mode         Mode
	clock        clockwork.Clock
	renderer     element.Renderer
	sink         ResultSink
	firstSource  element.Source
	secondSource element.Source

	mu        sync.Mutex
	running   bool
	runs      uint64
	runCtx    context.Context
	iter      *iteration.Clock
	pair      *element.Pair
	watch     *score.Stopwatch
	tracker   *score.Tracker
	autoStop  clockwork.Timer
	startedAt time.Time

	wg sync.WaitGroup
}

// New creates an idle session
func New(cfg Config, renderer element.Renderer, sink ResultSink, opts ...Option) *Session {
	s := &Session{
		id:       uuid.New(),
		cfg:      cfg,
		mode:     ModeUniform,
		clock:    clockwork.NewRealClock(),
		renderer: renderer,
		sink:     sink,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.firstSource == nil {
		s.firstSource = element.NewRandomSource()
	}
	if s.secondSource == nil {
		s.secondSource = element.NewRandomSource()
	}

	s.iter = iteration.NewClock(s.clock)
	s.pair = element.NewPair(renderer, s.firstSource, s.secondSource)
	s.watch = score.NewStopwatch(s.clock)
	s.tracker = score.NewTracker()
	return s
}

// Start arms the auto-stop ceiling and begins the first iteration.
// ctx bounds the iteration loop; cancelling it abandons pending sleeps.
func (s *Session) Start(ctx context.Context) error {
	if err := s.cfg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}
	s.running = true
	s.runs++
	s.runCtx = ctx
	s.tracker.Reset()
	s.watch.Reset()
	s.startedAt = s.clock.Now()
	s.autoStop = s.clock.AfterFunc(s.cfg.AutoStop, s.autoStopFor(s.runs))

	if sr, ok := s.renderer.(StatusRenderer); ok {
		sr.SetRunning(true)
	}
	s.pair.Hide()

	log.Info().
		Str("session_id", s.id.String()).
		Str("mode", string(s.mode)).
		Dur("auto_stop", s.cfg.AutoStop).
		Msg("session started")

	s.beginIteration()
	return nil
}

// Enter judges a player action against the current iteration.
// Acting before the elements are active is always a failure.
func (s *Session) Enter() (Verdict, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return Verdict{}, ErrNotRunning
	}

	s.watch.RecordAction()

	if s.iter.IsWaiting() || s.iter.IsShowing() {
		return s.fail(ReasonTooEarly), nil
	}
	if s.pair.CheckCorrectSequence() {
		return s.pass(), nil
	}
	return s.fail(ReasonWrongSequence), nil
}

// Stop ends the session and publishes its record
func (s *Session) Stop(ctx context.Context) error {
	s.mu.Lock()
	rec, err := s.stopLocked()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.publish(ctx, rec)
}

func (s *Session) autoStopFor(run uint64) func() {
	return func() {
		s.mu.Lock()
		if !s.running || s.runs != run {
			s.mu.Unlock()
			log.Debug().Str("session_id", s.id.String()).Msg("auto-stop fired for a finished run")
			return
		}
		// the timer already fired
		s.autoStop = nil
		rec, _ := s.stopLocked()
		s.mu.Unlock()

		log.Info().
			Str("session_id", s.id.String()).
			Dur("after", s.cfg.AutoStop).
			Msg("auto-stop ceiling reached")

		if err := s.publish(context.Background(), rec); err != nil {
			log.Error().Err(err).Str("session_id", s.id.String()).Msg("failed to publish auto-stopped session")
		}
	}
}

func (s *Session) stopLocked() (Record, error) {
	if !s.running {
		return Record{}, ErrNotRunning
	}
	s.running = false

	if s.autoStop != nil {
		s.autoStop.Stop()
		s.autoStop = nil
	}

	rec := Record{
		SessionID: s.id,
		Mode:      s.mode,
		StartedAt: s.startedAt,
		StoppedAt: s.clock.Now(),
		Result:    s.tracker.Result(s.iter.ID()),
	}

	s.iter.BreakCycle()
	s.pair.Deactivate(false)
	s.pair.Show()
	s.watch.Reset()

	if sr, ok := s.renderer.(StatusRenderer); ok {
		sr.SetRunning(false)
	}

	log.Info().
		Str("session_id", s.id.String()).
		Int("failures", rec.Failures).
		Int("successes", rec.Successes).
		Int64("iterations", rec.Iterations).
		Float64("points", rec.Points).
		Bool("winner", rec.Winner).
		Msg("session stopped")

	return rec, nil
}

func (s *Session) publish(ctx context.Context, rec Record) error {
	if s.sink == nil {
		return nil
	}
	if err := s.sink.Publish(ctx, rec); err != nil {
		log.Error().Err(err).Str("session_id", s.id.String()).Msg("failed to publish session result")
		return fmt.Errorf("publish session result: %w", err)
	}
	return nil
}

// beginIteration advances the clock and runs the new iteration's timeline in the background
func (s *Session) beginIteration() {
	tok := s.iter.Next()
	sleep := s.iter.CreateSleep()
	ctx := s.runCtx

	log.Debug().
		Str("session_id", s.id.String()).
		Int64("iteration", tok.ID()).
		Msg("iteration started")

	s.wg.Add(1)
	go s.iterate(ctx, sleep)
}

func (s *Session) iterate(ctx context.Context, sleep iteration.Sleeper) {
	defer s.wg.Done()

	if !s.advance(ctx, sleep, s.cfg.ShowDelay, s.showElements) {
		return
	}
	if !s.advance(ctx, sleep, s.cfg.ActivateDelay, s.activateElements) {
		return
	}
	s.advance(ctx, sleep, s.cfg.HideDelay, s.judgeSequence)
}

// advance sleeps within the iteration and runs step under the lock if the iteration is still live
func (s *Session) advance(ctx context.Context, sleep iteration.Sleeper, d time.Duration, step func()) bool {
	out := sleep(ctx, d)
	if !out.OK() {
		log.Debug().
			Err(out.Err()).
			Str("session_id", s.id.String()).
			Int64("iteration", out.Token.ID()).
			Str("status", out.Status.String()).
			Msg("iteration abandoned")
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Enter or Stop may have won the race for the lock
	if !s.running || !s.iter.IsCurrent(out.Token) {
		log.Debug().
			Str("session_id", s.id.String()).
			Int64("iteration", out.Token.ID()).
			Msg("iteration superseded after waking")
		return false
	}

	step()
	return true
}

func (s *Session) showElements() {
	s.pair.Show()
	s.iter.SetShowing()
}

func (s *Session) activateElements() {
	s.pair.Activate()
	s.iter.SetActive()
	s.watch.RecordActivation()
}

// judgeSequence runs once the hide delay passed without a player action
func (s *Session) judgeSequence() {
	if s.pair.CheckCorrectSequence() {
		s.fail(ReasonMissed)
		return
	}
	s.nextIteration(true)
}

func (s *Session) nextIteration(preserve bool) {
	s.pair.Hide()
	s.pair.Deactivate(preserve)
	s.watch.Reset()
	s.beginIteration()
}

func (s *Session) fail(reason Reason) Verdict {
	s.tracker.AddFailure()
	v := Verdict{
		Iteration: s.iter.ID(),
		Outcome:   OutcomeFail,
		Reason:    reason,
	}
	if latency, ok := s.watch.Elapsed(); ok {
		v.Latency = latency
	}
	s.judged(v)
	s.nextIteration(false)
	return v
}

func (s *Session) pass() Verdict {
	latency, _ := s.watch.Elapsed()
	s.tracker.AddSuccess(latency)
	v := Verdict{
		Iteration: s.iter.ID(),
		Outcome:   OutcomePass,
		Reason:    ReasonCorrect,
		Latency:   latency,
	}
	s.judged(v)
	s.nextIteration(false)
	return v
}

func (s *Session) judged(v Verdict) {
	log.Debug().
		Str("session_id", s.id.String()).
		Int64("iteration", v.Iteration).
		Str("outcome", string(v.Outcome)).
		Str("reason", string(v.Reason)).
		Dur("latency", v.Latency).
		Msg("reaction judged")

	if vr, ok := s.renderer.(VerdictRenderer); ok {
		vr.ShowVerdict(v)
	}
}

// Wait blocks until every iteration goroutine has returned
func (s *Session) Wait() {
	s.wg.Wait()
}

func (s *Session) ID() uuid.UUID { return s.id }
func (s *Session) Mode() Mode    { return s.mode }

func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Stats is a point-in-time view of a session
type Stats struct {
	Running   bool                `json:"running"`
	Iteration int64               `json:"iteration"`
	Phase     string              `json:"phase"`
	Failures  int                 `json:"failures"`
	Successes int                 `json:"successes"`
	Elements  [2]element.SlotView `json:"elements"`
}

func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Running:   s.running,
		Iteration: s.iter.ID(),
		Phase:     s.iter.Phase().String(),
		Failures:  s.tracker.Failures(),
		Successes: s.tracker.Successes(),
		Elements:  s.pair.Snapshot(),
	}
}
