package chime

import "sync"

// FakeRinger counts Ring calls for test assertions.
type FakeRinger struct {
	mu    sync.Mutex
	Rings int

	// OnRing, if set, is called on every Ring.
	OnRing func()
}

// NewFakeRinger creates a FakeRinger.
func NewFakeRinger() *FakeRinger {
	return &FakeRinger{}
}

// Ring records the call.
func (f *FakeRinger) Ring() {
	f.mu.Lock()
	f.Rings++
	hook := f.OnRing
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
}

// Count returns the number of rings.
func (f *FakeRinger) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Rings
}
