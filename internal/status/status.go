// Package status provides a thread-safe status tracker for the doorbell bridge.
// It is written by the control loop and read by HTTP handlers and MQTT telemetry.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/doorbell-bridge/internal/logic"
	"github.com/sweeney/doorbell-bridge/internal/notify"
)

// NetworkInfo contains network state as reported by the host.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains bridge configuration for display. Secrets (the webhook
// URL carries a token) are never part of it.
type Config struct {
	PollMs      int64
	CooldownMs  int64
	HeartbeatMs int64
	Address     uint32
	Unit        uint8
	PeriodUs    uint32
	WebhookHost string
	Broker      string
	HTTPAddr    string
	Version     string
}

// DispatchCounts tracks webhook dispatch outcomes since startup.
type DispatchCounts struct {
	Delivered          int
	RequestBuildFailed int
	SendFailed         int
	RemoteRejected     int
}

// LastEvent describes the most recent press that was acted on.
type LastEvent struct {
	ID       string
	Time     time.Time
	Source   logic.Source
	Muted    bool
	Rang     bool
	Outcome  notify.Outcome
	Status   int
	Duration time.Duration
}

// Snapshot is a point-in-time view of bridge state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	State         logic.State
	Muted         bool
	Counts        logic.EventCounts
	Rings         int
	Dispatches    DispatchCounts
	Last          *LastEvent
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the bridge started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable bridge state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			State:     logic.StateIdle,
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// Update sets controller state, mute switch state and press counts.
// Called from the control loop on every tick.
func (t *Tracker) Update(state logic.State, muted bool, counts logic.EventCounts) {
	t.mu.Lock()
	t.snap.State = state
	t.snap.Muted = muted
	t.snap.Counts = counts
	t.mu.Unlock()
}

// RecordEvent stores the most recent handled press.
func (t *Tracker) RecordEvent(ev LastEvent) {
	t.mu.Lock()
	t.snap.Last = &ev
	if ev.Rang {
		t.snap.Rings++
	}
	switch ev.Outcome {
	case notify.Delivered:
		t.snap.Dispatches.Delivered++
	case notify.RequestBuildFailed:
		t.snap.Dispatches.RequestBuildFailed++
	case notify.SendFailed:
		t.snap.Dispatches.SendFailed++
	case notify.RemoteRejected:
		t.snap.Dispatches.RemoteRejected++
	}
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the bridge state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	if s.Last != nil {
		last := *s.Last
		s.Last = &last
	}
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}
