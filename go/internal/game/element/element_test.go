package element

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type renderCall struct {
	op string
	id ID
}

type recordingRenderer struct {
	mu    sync.Mutex
	calls []renderCall
}

func (r *recordingRenderer) Show(id ID) { r.record("show", id) }
func (r *recordingRenderer) Hide(id ID) { r.record("hide", id) }

func (r *recordingRenderer) SetActive(id ID, active bool) {
	r.record(fmt.Sprintf("active=%t", active), id)
}

func (r *recordingRenderer) record(op string, id ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, renderCall{op: op, id: id})
}

func (r *recordingRenderer) count(op string, id ID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.op == op && c.id == id {
			n++
		}
	}
	return n
}

func TestScriptedSource_ReplaysThenRepeatsLast(t *testing.T) {
	src := NewScriptedSource(StateActive, StateStatic)
	assert.Equal(t, StateActive, src.Next())
	assert.Equal(t, StateStatic, src.Next())
	assert.Equal(t, StateStatic, src.Next())

	assert.Equal(t, StateStatic, NewScriptedSource().Next())
}

func TestRandomSource_OnlyActiveOrStatic(t *testing.T) {
	src := NewSeededSource(1, 2)
	for i := 0; i < 1000; i++ {
		st := src.Next()
		require.Contains(t, []State{StateActive, StateStatic}, st)
	}
}

func TestSlot_ActivateOnlyLightsActiveState(t *testing.T) {
	r := &recordingRenderer{}

	active := NewSlot(First, r, NewScriptedSource(StateActive))
	active.ResetCycle()
	active.Activate()
	assert.True(t, active.Activated())
	assert.Equal(t, 1, r.count("active=true", First))

	static := NewSlot(Second, r, NewScriptedSource(StateStatic))
	static.ResetCycle()
	static.Activate()
	assert.False(t, static.Activated())
	assert.Equal(t, 0, r.count("active=true", Second))
}

func TestSlot_ShowHide(t *testing.T) {
	r := &recordingRenderer{}
	s := NewSlot(First, r, NewScriptedSource())

	s.Show()
	assert.True(t, s.Visible())
	s.Hide()
	assert.False(t, s.Visible())
	assert.Equal(t, 1, r.count("show", First))
	assert.Equal(t, 1, r.count("hide", First))
}

func TestSlot_DeactivatePreserveCarriesState(t *testing.T) {
	s := NewSlot(First, &recordingRenderer{}, NewScriptedSource(StateActive, StateActive))

	s.ResetCycle()
	s.Activate()
	assert.False(t, s.RepeatedActive(), "first cycle has no comparison base")

	s.Deactivate(true)
	assert.Equal(t, StateActive, s.Last())
	assert.Equal(t, StateNone, s.Current())
	assert.False(t, s.Activated())

	s.ResetCycle()
	assert.True(t, s.RepeatedActive())
}

func TestSlot_DeactivateWithoutPreserveClearsBase(t *testing.T) {
	for _, prior := range []State{StateNone, StateActive, StateStatic} {
		t.Run(prior.String(), func(t *testing.T) {
			s := NewSlot(First, &recordingRenderer{}, NewScriptedSource(prior, StateActive))
			s.ResetCycle()
			s.Deactivate(true)
			s.ResetCycle()

			s.Deactivate(false)
			assert.Equal(t, StateNone, s.Last())
			assert.False(t, s.RepeatedActive())
		})
	}
}

func TestSlot_StaticRepeatIsNotCorrect(t *testing.T) {
	s := NewSlot(First, &recordingRenderer{}, NewScriptedSource(StateStatic, StateStatic))
	s.ResetCycle()
	s.Deactivate(true)
	s.ResetCycle()
	assert.False(t, s.RepeatedActive())
}

func TestPair_CheckCorrectSequence(t *testing.T) {
	tests := []struct {
		name   string
		first  []State
		second []State
		want   bool
	}{
		{"both repeat active", []State{StateActive, StateActive}, []State{StateActive, StateActive}, true},
		{"first repeats active", []State{StateActive, StateActive}, []State{StateStatic, StateActive}, true},
		{"second repeats active", []State{StateStatic, StateStatic}, []State{StateActive, StateActive}, true},
		{"no repeat", []State{StateActive, StateStatic}, []State{StateStatic, StateActive}, false},
		{"static repeats", []State{StateStatic, StateStatic}, []State{StateStatic, StateStatic}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPair(&recordingRenderer{}, NewScriptedSource(tt.first...), NewScriptedSource(tt.second...))
			p.Activate()
			assert.False(t, p.CheckCorrectSequence())
			p.Deactivate(true)
			p.Activate()
			assert.Equal(t, tt.want, p.CheckCorrectSequence())
		})
	}
}

func TestPair_DeactivateWithoutPreserveResetsSequence(t *testing.T) {
	p := NewPair(&recordingRenderer{}, NewScriptedSource(StateActive), NewScriptedSource(StateActive))
	p.Activate()
	p.Deactivate(true)
	p.Activate()
	require.True(t, p.CheckCorrectSequence())

	p.Deactivate(false)
	assert.False(t, p.CheckCorrectSequence())

	// the next draw has nothing to compare against
	p.Activate()
	assert.False(t, p.CheckCorrectSequence())
}

func TestPair_ShowHideActivateRenderBothElements(t *testing.T) {
	r := &recordingRenderer{}
	p := NewPair(r, NewScriptedSource(StateActive), NewScriptedSource(StateStatic))

	p.Hide()
	p.Show()
	p.Activate()

	for _, id := range []ID{First, Second} {
		assert.Equal(t, 1, r.count("hide", id))
		assert.Equal(t, 1, r.count("show", id))
	}
	assert.Equal(t, 1, r.count("active=true", First))
	assert.Equal(t, 0, r.count("active=true", Second))

	snap := p.Snapshot()
	assert.Equal(t, StateActive, snap[0].Current)
	assert.True(t, snap[0].Activated)
	assert.Equal(t, StateStatic, snap[1].Current)
}

func TestPair_RepeatProbabilityPerSlot(t *testing.T) {
	const cycles = 40000
	p := NewPair(&recordingRenderer{}, NewSeededSource(7, 11), NewSeededSource(13, 17))

	var comparable, firstRepeats, secondRepeats int
	for i := 0; i < cycles; i++ {
		p.Activate()
		if i > 0 {
			comparable++
			if p.First().RepeatedActive() {
				firstRepeats++
			}
			if p.Second().RepeatedActive() {
				secondRepeats++
			}
		}
		p.Deactivate(true)
	}

	assert.InDelta(t, 0.25, float64(firstRepeats)/float64(comparable), 0.02)
	assert.InDelta(t, 0.25, float64(secondRepeats)/float64(comparable), 0.02)
}
