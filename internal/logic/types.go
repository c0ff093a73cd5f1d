// Package logic contains pure business logic for doorbell press handling.
// This package has NO external dependencies (no GPIO, HTTP, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// State represents the controller state for the trigger inputs.
type State string

const (
	StateIdle        State = "IDLE"
	StateCoolingDown State = "COOLING_DOWN"
)

// Source identifies which input produced a trigger.
type Source string

const (
	SourceButton Source = "BUTTON"
	SourceTest   Source = "TEST"
)

// Event is a qualifying press that should be acted on.
type Event struct {
	Time   time.Time
	Source Source
	// Muted is true when the chime must not be rung for this press.
	Muted bool
}

// Input represents one poll of the trigger inputs.
type Input struct {
	Press bool // falling edge on the door button since the last poll
	Test  bool // falling edge on the test trigger since the last poll
	Muted bool // mute switch asserted
	Time  time.Time
}

// EventCounts tracks the number of presses since startup.
type EventCounts struct {
	Button     int
	Test       int
	Muted      int
	Suppressed int // edges ignored while cooling down
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}
