package chime

import (
	"runtime"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sweeney/doorbell-bridge/internal/gpio"
)

// Ringer rings the chime.
type Ringer interface {
	Ring()
}

// Transmitter emits the burst for one fixed message on a data line.
// It owns the line exclusively; Ring must not be called concurrently.
type Transmitter struct {
	out     gpio.Output
	sleeper Sleeper
	log     logrus.FieldLogger
	msg     Message
	period  uint32
	burst   []Pulse
}

// NewTransmitter precomputes the burst for msg at the given period.
func NewTransmitter(out gpio.Output, sleeper Sleeper, msg Message, period uint32, log logrus.FieldLogger) *Transmitter {
	log.WithFields(logrus.Fields{
		"address": msg.Address & addressMask,
		"unit":    msg.Unit & unitMask,
		"period":  period,
	}).Info("chime: transmitter initialized")

	return &Transmitter{
		out:     out,
		sleeper: sleeper,
		log:     log,
		msg:     msg,
		period:  period,
		burst:   Burst(msg, period),
	}
}

// Ring sends one complete burst and returns when it has finished.
// It cannot be interrupted. A write error does not stop the burst; the
// first one is logged afterwards.
func (t *Transmitter) Ring() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	start := time.Now()
	var firstErr error
	failed := 0
	for _, p := range t.burst {
		if err := t.out.Set(p.High); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			failed++
		}
		t.sleeper.SleepMicros(p.Micros)
	}

	if firstErr != nil {
		t.log.WithError(firstErr).WithField("failed_writes", failed).Error("chime: output write failed during burst")
		return
	}
	t.log.WithField("elapsed", time.Since(start)).Debug("chime: burst sent")
}

// Message returns the transmitted message.
func (t *Transmitter) Message() Message {
	return t.msg
}

// BurstDuration returns the nominal length of one burst.
func (t *Transmitter) BurstDuration() time.Duration {
	return time.Duration(Duration(t.burst)) * time.Microsecond
}
