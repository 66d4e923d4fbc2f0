package gateway

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/twinflash/go/internal/game/element"
	"github.com/mcdev12/twinflash/go/internal/game/events"
	"github.com/mcdev12/twinflash/go/internal/game/outbox"
	"github.com/mcdev12/twinflash/go/internal/game/session"
	"github.com/rs/zerolog/log"
)

// player is the game of one connection; it renders by sending events down the socket
type player struct {
	conn *Connection
	host *session.Host

	mu        sync.Mutex
	sessionID string
	elements  map[element.ID]events.ElementChangedPayload
}

var (
	_ element.Renderer        = (*player)(nil)
	_ session.StatusRenderer  = (*player)(nil)
	_ session.VerdictRenderer = (*player)(nil)
	_ session.ModeRenderer    = (*player)(nil)
)

func newPlayer(c *Connection, game GameConfig) *player {
	p := &player{
		conn:     c,
		elements: make(map[element.ID]events.ElementChangedPayload),
	}
	for _, id := range []element.ID{element.First, element.Second} {
		p.elements[id] = events.ElementChangedPayload{Element: string(id), Visible: true}
	}
	sink := session.Sinks(game.Sink, session.SinkFunc(p.finished))
	p.host = session.NewHost(game.Session, p, sink, game.Options...)
	return p
}

func (p *player) handle(ctx context.Context, cmd Command) {
	var err error
	switch cmd.Type {
	case CommandStart:
		var s *session.Session
		if s, err = p.host.Start(ctx); err == nil {
			p.started(s)
		}
	case CommandEnter:
		_, err = p.host.Enter()
	case CommandStop:
		err = p.host.Stop(ctx)
	case CommandMode:
		var mode session.Mode
		if mode, err = session.ParseMode(cmd.Mode); err == nil {
			err = p.host.SetMode(mode)
		}
	default:
		err = errors.New("unknown command")
	}

	if err != nil {
		log.Debug().
			Err(err).
			Str("connection_id", p.conn.ID).
			Str("command", string(cmd.Type)).
			Msg("command rejected")
		p.conn.sendEvent(EventTypeError, p.currentSessionID(), ErrorPayload{
			Command: string(cmd.Type),
			Error:   err.Error(),
		})
	}
}

func (p *player) started(s *session.Session) {
	id := s.ID().String()
	p.mu.Lock()
	p.sessionID = id
	p.mu.Unlock()

	p.conn.sendEvent(EventTypeSessionStarted, id, events.SessionStartedPayload{
		SessionID: s.ID(),
		Mode:      string(s.Mode()),
		StartedAt: time.Now().UTC(),
	})
}

// disconnect stops a running game so it is still recorded
func (p *player) disconnect() {
	err := p.host.Stop(context.Background())
	if err != nil && !errors.Is(err, session.ErrNotRunning) {
		log.Error().Err(err).Str("connection_id", p.conn.ID).Msg("failed to stop session of closed connection")
	}
}

func (p *player) finished(_ context.Context, rec session.Record) error {
	p.conn.sendEvent(EventTypeSessionFinished, rec.SessionID.String(), outbox.FinishedPayload(rec))
	return nil
}

func (p *player) currentSessionID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sessionID
}

func (p *player) changeElement(id element.ID, fn func(*events.ElementChangedPayload)) {
	p.mu.Lock()
	state := p.elements[id]
	fn(&state)
	p.elements[id] = state
	sessionID := p.sessionID
	p.mu.Unlock()

	p.conn.sendEvent(EventTypeElementChanged, sessionID, state)
}

func (p *player) Show(id element.ID) {
	p.changeElement(id, func(s *events.ElementChangedPayload) { s.Visible = true })
}

func (p *player) Hide(id element.ID) {
	p.changeElement(id, func(s *events.ElementChangedPayload) { s.Visible = false })
}

func (p *player) SetActive(id element.ID, active bool) {
	p.changeElement(id, func(s *events.ElementChangedPayload) { s.Active = active })
}

// SetRunning only reports stops; starts are announced once the session id is known
func (p *player) SetRunning(running bool) {
	if running {
		return
	}
	id := p.currentSessionID()
	sid, _ := uuid.Parse(id)
	p.conn.sendEvent(EventTypeSessionStopped, id, events.SessionStoppedPayload{SessionID: sid})
}

func (p *player) ShowVerdict(v session.Verdict) {
	p.conn.sendEvent(EventTypeReactionJudged, p.currentSessionID(), events.ReactionJudgedPayload{
		Iteration: v.Iteration,
		Outcome:   string(v.Outcome),
		Reason:    string(v.Reason),
		LatencyMS: float64(v.Latency) / 1e6,
	})
}

func (p *player) ShowMode(mode session.Mode) {
	p.conn.sendEvent(EventTypeModeChanged, "", events.ModeChangedPayload{
		Mode:  string(mode),
		Label: mode.Label(),
	})
}
