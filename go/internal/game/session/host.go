package session

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/mcdev12/twinflash/go/internal/game/element"
	"github.com/rs/zerolog/log"
)

// ModeRenderer is an optional renderer extension told about mode changes
type ModeRenderer interface {
	ShowMode(mode Mode)
}

// Host owns the collaborators of a front end and builds a fresh Session for every game
type Host struct {
	cfg      Config
	renderer element.Renderer
	sink     ResultSink
	opts     []Option

	mu      sync.Mutex
	mode    Mode
	current *Session
}

// NewHost creates a host; opts are applied to every session it starts
func NewHost(cfg Config, renderer element.Renderer, sink ResultSink, opts ...Option) *Host {
	return &Host{
		cfg:      cfg,
		renderer: renderer,
		sink:     sink,
		opts:     opts,
		mode:     ModeUniform,
	}
}

// Start begins a new game unless one is still running
func (h *Host) Start(ctx context.Context) (*Session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current != nil && h.current.Running() {
		return nil, ErrAlreadyRunning
	}

	opts := append(slices.Clone(h.opts), WithMode(h.mode))
	s := New(h.cfg, h.renderer, h.sink, opts...)
	if err := s.Start(ctx); err != nil {
		return nil, err
	}
	h.current = s
	return s, nil
}

func (h *Host) Enter() (Verdict, error) {
	s := h.Current()
	if s == nil {
		return Verdict{}, ErrNotRunning
	}
	return s.Enter()
}

func (h *Host) Stop(ctx context.Context) error {
	s := h.Current()
	if s == nil {
		return ErrNotRunning
	}
	return s.Stop(ctx)
}

// SetMode changes the mode used by the next game
func (h *Host) SetMode(mode Mode) error {
	if mode != ModeUniform && mode != ModeCross {
		return ErrInvalidMode
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current != nil && h.current.Running() {
		return ErrModeLocked
	}
	h.mode = mode
	if mr, ok := h.renderer.(ModeRenderer); ok {
		mr.ShowMode(mode)
	}
	return nil
}

func (h *Host) Mode() Mode {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mode
}

// Current returns the most recently started session, nil before the first start
func (h *Host) Current() *Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Bind registers the host's lifecycle on a front end's input events
func (h *Host) Bind(ctx context.Context, in Input) {
	in.OnStart(func() {
		if _, err := h.Start(ctx); err != nil {
			log.Warn().Err(err).Msg("start ignored")
		}
	})
	in.OnEnter(func() {
		if _, err := h.Enter(); err != nil {
			log.Debug().Err(err).Msg("enter ignored")
		}
	})
	in.OnStop(func() {
		if err := h.Stop(ctx); err != nil && !errors.Is(err, ErrNotRunning) {
			log.Error().Err(err).Msg("stop failed")
		}
	})
	in.OnModeChange(func(mode Mode) {
		if err := h.SetMode(mode); err != nil {
			log.Warn().Err(err).Str("mode", string(mode)).Msg("mode change ignored")
		}
	})
}
