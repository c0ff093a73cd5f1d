package logic

// Line is a digital input that can be sampled.
type Line interface {
	IsHigh() bool
}

// PinState turns polled levels of a Line into edges.
// The recorded level is always the one observed at the last query, so an
// edge is only ever seen between two consecutive polls; pulses shorter
// than the poll interval can be missed.
type PinState struct {
	line     Line
	previous bool
}

// NewPinState wraps line. The recorded level starts low.
func NewPinState(line Line) *PinState {
	return &PinState{line: line}
}

// RisingEdge samples the line and reports a low to high transition.
func (p *PinState) RisingEdge() bool {
	current := p.line.IsHigh()
	edge := !p.previous && current
	p.previous = current
	return edge
}

// FallingEdge samples the line and reports a high to low transition.
func (p *PinState) FallingEdge() bool {
	current := p.line.IsHigh()
	edge := p.previous && !current
	p.previous = current
	return edge
}

// IsHigh samples the line and records the level.
func (p *PinState) IsHigh() bool {
	p.previous = p.line.IsHigh()
	return p.previous
}

// IsLow samples the line and records the level.
func (p *PinState) IsLow() bool {
	return !p.IsHigh()
}
