package mqtt

import "github.com/sirupsen/logrus"

// bufferedMsg is a serialized system event waiting for the broker.
type bufferedMsg struct {
	event    string
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// backlog holds system events published while the broker is unreachable.
// When full, the oldest HEARTBEAT is evicted first since a later one
// supersedes it; otherwise the oldest event goes. STARTUP and SHUTDOWN
// therefore survive a long outage of heartbeats.
// Not safe for concurrent use; the caller must synchronize.
type backlog struct {
	msgs     []bufferedMsg
	capacity int
	dropped  map[string]int // per event, since last drain
	log      logrus.FieldLogger
}

func newBacklog(capacity int, log logrus.FieldLogger) *backlog {
	return &backlog{
		msgs:     make([]bufferedMsg, 0, capacity),
		capacity: capacity,
		dropped:  make(map[string]int),
		log:      log,
	}
}

func (b *backlog) push(msg bufferedMsg) {
	if len(b.msgs) == b.capacity {
		i := b.victim()
		evicted := b.msgs[i]
		if len(b.dropped) == 0 {
			b.log.WithFields(logrus.Fields{
				"capacity": b.capacity,
				"dropped":  evicted.event,
			}).Warn("mqtt: backlog full, dropping events")
		}
		b.dropped[evicted.event]++
		b.msgs = append(b.msgs[:i], b.msgs[i+1:]...)
	}
	b.msgs = append(b.msgs, msg)
}

// victim returns the index of the message to evict.
func (b *backlog) victim() int {
	for i, m := range b.msgs {
		if m.event == EventHeartbeat {
			return i
		}
	}
	return 0
}

// drain returns the held events in publish order and empties the backlog.
// Drops since the previous drain are reported once here.
func (b *backlog) drain() []bufferedMsg {
	if len(b.dropped) > 0 {
		fields := logrus.Fields{}
		for ev, n := range b.dropped {
			fields["dropped_"+ev] = n
		}
		b.log.WithFields(fields).Warn("mqtt: events lost while offline")
		b.dropped = make(map[string]int)
	}
	if len(b.msgs) == 0 {
		return nil
	}
	out := b.msgs
	b.msgs = make([]bufferedMsg, 0, b.capacity)
	return out
}

func (b *backlog) len() int {
	return len(b.msgs)
}
