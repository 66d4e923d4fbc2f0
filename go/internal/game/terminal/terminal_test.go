package terminal

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/mcdev12/twinflash/go/internal/game/element"
	"github.com/mcdev12/twinflash/go/internal/game/score"
	"github.com/mcdev12/twinflash/go/internal/game/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	screen.SetSize(80, 24)
	t.Cleanup(screen.Fini)
	return screen
}

func cellAt(screen tcell.Screen, x, y int) (rune, tcell.Style) {
	r, _, style, _ := screen.GetContent(x, y)
	return r, style
}

func rowText(screen tcell.Screen, y int) string {
	w, _ := screen.Size()
	var b strings.Builder
	for x := 0; x < w; x++ {
		r, _ := cellAt(screen, x, y)
		if r == 0 {
			r = ' '
		}
		b.WriteRune(r)
	}
	return strings.TrimRight(b.String(), " ")
}

type countingSound struct {
	mu     sync.Mutex
	passes int
	fails  int
}

func (s *countingSound) Pass() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.passes++
}

func (s *countingSound) Fail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fails++
}

func TestRenderer_ShapesVisibility(t *testing.T) {
	screen := newScreen(t)
	r := NewRenderer(screen, nil)

	sx, sy := shapeOrigin(element.First, 80, 24)
	cx, cy := shapeOrigin(element.Second, 80, 24)

	ch, style := cellAt(screen, sx, sy)
	assert.Equal(t, '█', ch)
	fg, _, _ := style.Decompose()
	assert.Equal(t, tcell.ColorGray, fg)

	// the circle has rounded corners
	ch, _ = cellAt(screen, cx, cy)
	assert.NotEqual(t, '█', ch)
	ch, _ = cellAt(screen, cx, cy+1)
	assert.Equal(t, '█', ch)

	r.Hide(element.First)
	ch, _ = cellAt(screen, sx, sy)
	assert.NotEqual(t, '█', ch)
	ch, _ = cellAt(screen, cx, cy+1)
	assert.Equal(t, '█', ch)

	r.Show(element.First)
	r.SetActive(element.First, true)
	ch, style = cellAt(screen, sx, sy)
	assert.Equal(t, '█', ch)
	fg, _, _ = style.Decompose()
	assert.Equal(t, tcell.ColorLime, fg)

	r.SetActive(element.First, false)
	_, style = cellAt(screen, sx, sy)
	fg, _, _ = style.Decompose()
	assert.Equal(t, tcell.ColorGray, fg)
}

func TestRenderer_StatusAndMode(t *testing.T) {
	screen := newScreen(t)
	r := NewRenderer(screen, nil)

	assert.Contains(t, rowText(screen, 0), "[UNI]  STOPPED")
	assert.Contains(t, rowText(screen, 23), "s start")

	r.ShowMode(session.ModeCross)
	r.SetRunning(true)
	assert.Contains(t, rowText(screen, 0), "[CROSS]  RUNNING")
}

func TestRenderer_VerdictsPlaySounds(t *testing.T) {
	screen := newScreen(t)
	sound := &countingSound{}
	r := NewRenderer(screen, sound)

	r.ShowVerdict(session.Verdict{Outcome: session.OutcomePass, Reason: session.ReasonCorrect, Latency: 312 * time.Millisecond})
	assert.Contains(t, rowText(screen, 20), "PASS  312ms")

	r.ShowVerdict(session.Verdict{Outcome: session.OutcomeFail, Reason: session.ReasonTooEarly})
	assert.Contains(t, rowText(screen, 20), "FAIL  too early")

	assert.Equal(t, 1, sound.passes)
	assert.Equal(t, 1, sound.fails)
}

func TestRenderer_ResultPanel(t *testing.T) {
	screen := newScreen(t)
	r := NewRenderer(screen, nil)

	require.NoError(t, r.Publish(context.Background(), session.Record{
		Result: score.Result{Successes: 3, Iterations: 6, Points: 300, Winner: true},
	}))
	assert.Contains(t, rowText(screen, 21), "WIN  points 300.0  successes 3  failures 0  iterations 6")

	// a new game clears the panel
	r.SetRunning(true)
	assert.Empty(t, rowText(screen, 21))
}

func TestVerdictLine(t *testing.T) {
	tests := []struct {
		v    session.Verdict
		want string
	}{
		{session.Verdict{Outcome: session.OutcomePass, Latency: 250 * time.Millisecond}, "PASS  250ms"},
		{session.Verdict{Outcome: session.OutcomeFail, Reason: session.ReasonTooEarly}, "FAIL  too early"},
		{session.Verdict{Outcome: session.OutcomeFail, Reason: session.ReasonMissed}, "FAIL  missed the repeat"},
		{session.Verdict{Outcome: session.OutcomeFail, Reason: session.ReasonWrongSequence}, "FAIL  no repeat"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, verdictLine(tt.v))
	}
}

type keyLog struct {
	mu     sync.Mutex
	events []string
}

func (k *keyLog) add(e string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.events = append(k.events, e)
}

func (k *keyLog) list() []string {
	k.mu.Lock()
	defer k.mu.Unlock()
	return append([]string(nil), k.events...)
}

func TestInput_KeysDispatch(t *testing.T) {
	screen := newScreen(t)
	mode := session.ModeUniform
	in := NewInput(screen, func() session.Mode { return mode })

	log := &keyLog{}
	in.OnStart(func() { log.add("start") })
	in.OnEnter(func() { log.add("enter") })
	in.OnStop(func() { log.add("stop") })
	in.OnModeChange(func(m session.Mode) { log.add("mode:" + string(m)) })

	done := make(chan error, 1)
	go func() { done <- in.Run(context.Background(), nil) }()

	screen.InjectKey(tcell.KeyRune, 's', tcell.ModNone)
	screen.InjectKey(tcell.KeyEnter, 0, tcell.ModNone)
	screen.InjectKey(tcell.KeyRune, ' ', tcell.ModNone)
	screen.InjectKey(tcell.KeyRune, 'm', tcell.ModNone)
	screen.InjectKey(tcell.KeyRune, 'x', tcell.ModNone)
	screen.InjectKey(tcell.KeyRune, 'z', tcell.ModNone)
	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("input loop did not quit")
	}

	assert.Equal(t, []string{"start", "enter", "enter", "mode:cross", "stop"}, log.list())
}

func TestInput_EscapeQuits(t *testing.T) {
	screen := newScreen(t)
	in := NewInput(screen, func() session.Mode { return session.ModeCross })

	done := make(chan error, 1)
	go func() { done <- in.Run(context.Background(), nil) }()
	screen.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("input loop did not quit")
	}
}

func TestInput_ContextCancel(t *testing.T) {
	screen := newScreen(t)
	in := NewInput(screen, func() session.Mode { return session.ModeUniform })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- in.Run(ctx, nil) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("input loop did not stop")
	}
}

func TestTone(t *testing.T) {
	s, err := tone(passFreq, passDuration)
	require.NoError(t, err)

	total := 0
	buf := make([][2]float64, 512)
	for {
		n, ok := s.Stream(buf)
		total += n
		if !ok {
			break
		}
	}
	assert.Equal(t, sampleRate.N(passDuration), total)
	assert.Equal(t, session.ModeCross, toggle(session.ModeUniform))
	assert.Equal(t, session.ModeUniform, toggle(session.ModeCross))
}
