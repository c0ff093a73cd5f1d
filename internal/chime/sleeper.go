package chime

import (
	"sync"
	"time"
)

// Sleeper blocks for a number of microseconds.
type Sleeper interface {
	SleepMicros(us uint32)
}

// BusyWait spins on the monotonic clock. time.Sleep cannot hold
// microsecond pulse widths, so the chime timing is spun out instead.
type BusyWait struct{}

// SleepMicros spins until us microseconds have elapsed.
func (BusyWait) SleepMicros(us uint32) {
	d := time.Duration(us) * time.Microsecond
	start := time.Now()
	for time.Since(start) < d {
	}
}

// RecordingSleeper records requested delays without waiting.
type RecordingSleeper struct {
	mu     sync.Mutex
	Delays []uint32
}

// SleepMicros records us.
func (r *RecordingSleeper) SleepMicros(us uint32) {
	r.mu.Lock()
	r.Delays = append(r.Delays, us)
	r.mu.Unlock()
}
