package element

// Pair drives both elements together
type Pair struct {
	first  *Slot
	second *Slot
}

// NewPair creates a pair with an independent source per slot
func NewPair(renderer Renderer, firstSource, secondSource Source) *Pair {
	return &Pair{
		first:  NewSlot(First, renderer, firstSource),
		second: NewSlot(Second, renderer, secondSource),
	}
}

func (p *Pair) ResetCycle() {
	p.first.ResetCycle()
	p.second.ResetCycle()
}

func (p *Pair) Show() {
	p.first.Show()
	p.second.Show()
}

func (p *Pair) Hide() {
	p.first.Hide()
	p.second.Hide()
}

// Activate draws new states and lights up the active elements
func (p *Pair) Activate() {
	p.ResetCycle()
	p.first.Activate()
	p.second.Activate()
}

func (p *Pair) Deactivate(preserve bool) {
	p.first.Deactivate(preserve)
	p.second.Deactivate(preserve)
}

// CheckCorrectSequence is true when at least one slot repeated Active
func (p *Pair) CheckCorrectSequence() bool {
	return p.first.RepeatedActive() || p.second.RepeatedActive()
}

func (p *Pair) First() *Slot  { return p.first }
func (p *Pair) Second() *Slot { return p.second }

func (p *Pair) Snapshot() [2]SlotView {
	return [2]SlotView{p.first.Snapshot(), p.second.Snapshot()}
}
