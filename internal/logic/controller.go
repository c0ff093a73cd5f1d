package logic

import "time"

// DefaultCooldown is how long further presses are ignored after a trigger.
const DefaultCooldown = time.Second

// Controller coalesces edges from the trigger inputs into press events.
//
// After a qualifying edge it stays in StateCoolingDown until an explicit
// deadline, independent of how long acting on the event took.
type Controller struct {
	cooldown      time.Duration
	state         State
	until         time.Time
	startTime     time.Time
	eventCounts   EventCounts
	lastHeartbeat time.Time
}

// NewController creates a controller with the given cool-down.
// The startTime is used for calculating uptime in heartbeat events.
func NewController(cooldown time.Duration, startTime time.Time) *Controller {
	return &Controller{
		cooldown:      cooldown,
		state:         StateIdle,
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Process takes one poll of the inputs and returns the event to act on, if any.
// The door button wins when both inputs fire on the same poll.
func (c *Controller) Process(in Input) *Event {
	if c.state == StateCoolingDown && !in.Time.Before(c.until) {
		c.state = StateIdle
	}

	if !in.Press && !in.Test {
		return nil
	}

	if c.state == StateCoolingDown {
		c.eventCounts.Suppressed++
		return nil
	}

	source := SourceTest
	if in.Press {
		source = SourceButton
	}

	switch source {
	case SourceButton:
		c.eventCounts.Button++
	case SourceTest:
		c.eventCounts.Test++
	}
	if in.Muted {
		c.eventCounts.Muted++
	}

	c.state = StateCoolingDown
	c.until = in.Time.Add(c.cooldown)

	return &Event{
		Time:   in.Time,
		Source: source,
		Muted:  in.Muted,
	}
}

// State returns the controller state as of the last Process call.
func (c *Controller) State() State {
	return c.state
}

// CooldownUntil returns the end of the current cool-down (zero when never triggered).
func (c *Controller) CooldownUntil() time.Time {
	return c.until
}

// EventCountsSnapshot returns a copy of the press counters.
func (c *Controller) EventCountsSnapshot() EventCounts {
	return c.eventCounts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (c *Controller) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if now.Sub(c.lastHeartbeat) < interval {
		return nil
	}

	c.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(c.startTime),
		Counts:    c.eventCounts,
	}
}
