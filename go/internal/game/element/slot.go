package element

// ID identifies one of the two visual elements
type ID string

const (
	First  ID = "square"
	Second ID = "circle"
)

// Renderer is the visibility/activation capability the game drives.
// Implementations are called with the session lock held and must not call back into the session.
type Renderer interface {
	Show(id ID)
	Hide(id ID)
	SetActive(id ID, active bool)
}

// Slot tracks one element's state across two consecutive cycles
type Slot struct {
	id        ID
	renderer  Renderer
	source    Source
	last      State
	current   State
	visible   bool
	activated bool
}

// NewSlot creates a slot bound to an element and its own randomness source
func NewSlot(id ID, renderer Renderer, source Source) *Slot {
	return &Slot{
		id:       id,
		renderer: renderer,
		source:   source,
	}
}

// ResetCycle draws a fresh current state
func (s *Slot) ResetCycle() {
	s.current = s.source.Next()
}

func (s *Slot) Show() {
	s.visible = true
	s.renderer.Show(s.id)
}

func (s *Slot) Hide() {
	s.visible = false
	s.renderer.Hide(s.id)
}

// Activate lights the element up only when its current state is Active
func (s *Slot) Activate() {
	if s.current != StateActive {
		return
	}
	s.activated = true
	s.renderer.SetActive(s.id, true)
}

// Deactivate turns the element off and closes the cycle.
// With preserve the current state becomes the comparison base for the next cycle;
// without it the sequence is consumed and the base is cleared.
func (s *Slot) Deactivate(preserve bool) {
	s.activated = false
	s.renderer.SetActive(s.id, false)
	if preserve {
		s.last = s.current
	} else {
		s.last = StateNone
	}
	s.current = StateNone
}

// RepeatedActive reports whether the slot was Active in two comparable cycles in a row
func (s *Slot) RepeatedActive() bool {
	return s.current == StateActive && s.last == s.current
}

func (s *Slot) ID() ID          { return s.id }
func (s *Slot) Last() State     { return s.last }
func (s *Slot) Current() State  { return s.current }
func (s *Slot) Visible() bool   { return s.visible }
func (s *Slot) Activated() bool { return s.activated }

func (s *Slot) Snapshot() SlotView {
	return SlotView{
		ID:        s.id,
		Last:      s.last,
		Current:   s.current,
		Visible:   s.visible,
		Activated: s.activated,
	}
}

// SlotView is a read-only copy of a slot
type SlotView struct {
	ID        ID    `json:"id"`
	Last      State `json:"last"`
	Current   State `json:"current"`
	Visible   bool  `json:"visible"`
	Activated bool  `json:"activated"`
}
