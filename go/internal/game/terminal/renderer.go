package terminal

import (
	"context"
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/mcdev12/twinflash/go/internal/game/element"
	"github.com/mcdev12/twinflash/go/internal/game/session"
)

var (
	squareShape = []string{
		"████████",
		"████████",
		"████████",
		"████████",
	}
	circleShape = []string{
		"  ████  ",
		"████████",
		"████████",
		"  ████  ",
	}
)

const (
	shapeWidth  = 8
	shapeHeight = 4
)

var (
	styleStatic = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleActive = tcell.StyleDefault.Foreground(tcell.ColorLime)
	styleText   = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	stylePass   = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleFail   = tcell.StyleDefault.Foreground(tcell.ColorRed)
	styleHelp   = tcell.StyleDefault.Foreground(tcell.ColorDarkGray)
)

const helpLine = "s start   enter/space react   m mode   x stop   q quit"

// Sound plays feedback for judged reactions
type Sound interface {
	Pass()
	Fail()
}

type shapeState struct {
	visible bool
	active  bool
}

// Renderer draws the game on a tcell screen. It is also the session's result sink so
// the final score shows up once a game ends.
type Renderer struct {
	screen tcell.Screen
	sound  Sound

	mu       sync.Mutex
	shapes   map[element.ID]*shapeState
	running  bool
	mode     session.Mode
	verdict  *session.Verdict
	finished *session.Record
}

var (
	_ element.Renderer        = (*Renderer)(nil)
	_ session.StatusRenderer  = (*Renderer)(nil)
	_ session.VerdictRenderer = (*Renderer)(nil)
	_ session.ModeRenderer    = (*Renderer)(nil)
	_ session.ResultSink      = (*Renderer)(nil)
)

// NewRenderer draws onto an initialized screen; sound may be nil
func NewRenderer(screen tcell.Screen, sound Sound) *Renderer {
	r := &Renderer{
		screen: screen,
		sound:  sound,
		mode:   session.ModeUniform,
		shapes: map[element.ID]*shapeState{
			element.First:  {visible: true},
			element.Second: {visible: true},
		},
	}
	r.Redraw()
	return r
}

func (r *Renderer) Show(id element.ID) {
	r.update(func() { r.shapes[id].visible = true })
}

func (r *Renderer) Hide(id element.ID) {
	r.update(func() { r.shapes[id].visible = false })
}

func (r *Renderer) SetActive(id element.ID, active bool) {
	r.update(func() { r.shapes[id].active = active })
}

func (r *Renderer) SetRunning(running bool) {
	r.update(func() {
		r.running = running
		if running {
			r.verdict = nil
			r.finished = nil
		}
	})
}

func (r *Renderer) ShowVerdict(v session.Verdict) {
	r.update(func() { r.verdict = &v })
	if r.sound == nil {
		return
	}
	if v.Outcome == session.OutcomePass {
		r.sound.Pass()
	} else {
		r.sound.Fail()
	}
}

func (r *Renderer) ShowMode(mode session.Mode) {
	r.update(func() { r.mode = mode })
}

// Publish displays the final score of a game
func (r *Renderer) Publish(_ context.Context, rec session.Record) error {
	r.update(func() { r.finished = &rec })
	return nil
}

func (r *Renderer) update(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn()
	r.draw()
}

// Redraw repaints everything, e.g. after a resize
func (r *Renderer) Redraw() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.draw()
}

func (r *Renderer) draw() {
	r.screen.Clear()
	w, h := r.screen.Size()

	for _, id := range []element.ID{element.First, element.Second} {
		x, y := shapeOrigin(id, w, h)
		st := r.shapes[id]
		if !st.visible {
			continue
		}
		style := styleStatic
		if st.active {
			style = styleActive
		}
		shape := squareShape
		if id == element.Second {
			shape = circleShape
		}
		r.drawShape(x, y, shape, style)
	}

	status := "STOPPED"
	if r.running {
		status = "RUNNING"
	}
	r.drawText(1, 0, fmt.Sprintf("twinflash  [%s]  %s", r.mode.Label(), status), styleText)

	if v := r.verdict; v != nil {
		r.drawText(1, h-4, verdictLine(*v), verdictStyle(*v))
	}
	if rec := r.finished; rec != nil {
		r.drawText(1, h-3, resultLine(*rec), styleText)
	}
	r.drawText(1, h-1, helpLine, styleHelp)

	r.screen.Show()
}

// shapeOrigin places the square in the left half and the circle in the right half
func shapeOrigin(id element.ID, w, h int) (int, int) {
	y := h/2 - shapeHeight/2
	if id == element.First {
		return w/4 - shapeWidth/2, y
	}
	return 3*w/4 - shapeWidth/2, y
}

func (r *Renderer) drawShape(x, y int, rows []string, style tcell.Style) {
	for dy, row := range rows {
		for dx, ch := range []rune(row) {
			if ch != ' ' {
				r.screen.SetContent(x+dx, y+dy, ch, nil, style)
			}
		}
	}
}

func (r *Renderer) drawText(x, y int, s string, style tcell.Style) {
	for i, ch := range []rune(s) {
		r.screen.SetContent(x+i, y, ch, nil, style)
	}
}

func verdictLine(v session.Verdict) string {
	if v.Outcome == session.OutcomePass {
		return fmt.Sprintf("PASS  %dms", v.Latency.Milliseconds())
	}
	switch v.Reason {
	case session.ReasonTooEarly:
		return "FAIL  too early"
	case session.ReasonMissed:
		return "FAIL  missed the repeat"
	default:
		return "FAIL  no repeat"
	}
}

func verdictStyle(v session.Verdict) tcell.Style {
	if v.Outcome == session.OutcomePass {
		return stylePass
	}
	return styleFail
}

func resultLine(rec session.Record) string {
	verdict := "LOSE"
	if rec.Winner {
		verdict = "WIN"
	}
	return fmt.Sprintf("%s  points %.1f  successes %d  failures %d  iterations %d",
		verdict, rec.Points, rec.Successes, rec.Failures, rec.Iterations)
}
