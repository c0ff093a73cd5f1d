package gpio

import "sync"

// FakeInput is a test double that returns scripted levels.
type FakeInput struct {
	// Levels contains scripted levels to return.
	// Each call to IsHigh() consumes the next level.
	Levels []bool

	// index tracks current position in Levels
	index int

	// Reads counts calls to IsHigh.
	Reads int
}

// NewFakeInput creates a FakeInput with the given levels.
func NewFakeInput(levels ...bool) *FakeInput {
	return &FakeInput{Levels: levels}
}

// IsHigh returns the next scripted level.
// If levels are exhausted, returns the last level repeatedly.
// With no levels configured it reports low.
func (f *FakeInput) IsHigh() bool {
	f.Reads++
	if len(f.Levels) == 0 {
		return false
	}

	level := f.Levels[f.index]
	if f.index < len(f.Levels)-1 {
		f.index++
	}
	return level
}

// Reset rewinds the input to the first level.
func (f *FakeInput) Reset() {
	f.index = 0
	f.Reads = 0
}

// FakeOutput records every level written to it.
type FakeOutput struct {
	mu sync.Mutex

	// Writes contains every level passed to Set, in order.
	Writes []bool

	// SetError, if set, will be returned by Set (the write is still recorded).
	SetError error
}

// NewFakeOutput creates an empty FakeOutput.
func NewFakeOutput() *FakeOutput {
	return &FakeOutput{}
}

// Set records the level.
func (f *FakeOutput) Set(high bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Writes = append(f.Writes, high)
	return f.SetError
}

// Level returns the last written level (low if never written).
func (f *FakeOutput) Level() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Writes) == 0 {
		return false
	}
	return f.Writes[len(f.Writes)-1]
}

// Reset clears recorded writes.
func (f *FakeOutput) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Writes = nil
	f.SetError = nil
}
