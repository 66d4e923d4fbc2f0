package terminal

import (
	"context"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/mcdev12/twinflash/go/internal/game/session"
)

// Input turns key presses into game events
type Input struct {
	screen tcell.Screen
	mode   func() session.Mode

	mu           sync.Mutex
	onStart      func()
	onEnter      func()
	onStop       func()
	onModeChange func(session.Mode)
}

var _ session.Input = (*Input)(nil)

// NewInput reads keys from screen; mode reports the mode currently selected so 'm' can toggle it
func NewInput(screen tcell.Screen, mode func() session.Mode) *Input {
	return &Input{screen: screen, mode: mode}
}

func (in *Input) OnStart(fn func()) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.onStart = fn
}

func (in *Input) OnEnter(fn func()) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.onEnter = fn
}

func (in *Input) OnStop(fn func()) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.onStop = fn
}

func (in *Input) OnModeChange(fn func(session.Mode)) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.onModeChange = fn
}

// Run dispatches key events until quit is pressed, ctx is done or the screen is finalized.
// onResize is called after the terminal changes size.
func (in *Input) Run(ctx context.Context, onResize func()) error {
	events := make(chan tcell.Event)
	go func() {
		for {
			ev := in.screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case *tcell.EventResize:
				in.screen.Sync()
				if onResize != nil {
					onResize()
				}
			case *tcell.EventKey:
				if in.handleKey(ev) {
					return nil
				}
			}
		}
	}
}

// handleKey reports whether the key quits
func (in *Input) handleKey(ev *tcell.EventKey) bool {
	in.mu.Lock()
	onStart, onEnter, onStop, onModeChange := in.onStart, in.onEnter, in.onStop, in.onModeChange
	in.mu.Unlock()

	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyEnter:
		call(onEnter)
		return false
	case tcell.KeyRune:
	default:
		return false
	}

	switch ev.Rune() {
	case 'q', 'Q':
		return true
	case ' ':
		call(onEnter)
	case 's', 'S':
		call(onStart)
	case 'x', 'X':
		call(onStop)
	case 'm', 'M':
		if onModeChange != nil {
			onModeChange(toggle(in.mode()))
		}
	}
	return false
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}

func toggle(m session.Mode) session.Mode {
	if m == session.ModeCross {
		return session.ModeUniform
	}
	return session.ModeCross
}
