package gpio

import "github.com/sirupsen/logrus"

// readState filters raw line reads. A failed read returns the last good
// level. Only transitions are logged: the first failure of a run as a
// warning, and the recovery as info.
type readState struct {
	pin     int
	log     logrus.FieldLogger
	last    bool
	failing bool
	errors  int // failed reads in the current run
}

func (s *readState) observe(v int, err error) bool {
	if err != nil {
		s.errors++
		if !s.failing {
			s.failing = true
			s.log.WithError(err).WithField("pin", s.pin).Warn("gpio read error, holding last level")
		}
		return s.last
	}
	if s.failing {
		s.log.WithFields(logrus.Fields{
			"pin":          s.pin,
			"failed_reads": s.errors,
		}).Info("gpio reads recovered")
		s.failing = false
		s.errors = 0
	}
	s.last = v != 0
	return s.last
}
