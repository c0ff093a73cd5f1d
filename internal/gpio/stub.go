//go:build !linux

package gpio

import (
	"errors"

	"github.com/sirupsen/logrus"
)

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// Chip is not available on non-Linux platforms.
type Chip struct{}

// Line is not available on non-Linux platforms.
type Line struct{}

// OpenChip returns an error on non-Linux platforms.
func OpenChip(name string, log logrus.FieldLogger) (*Chip, error) {
	return nil, errUnsupported
}

// Input is not implemented on non-Linux platforms.
func (c *Chip) Input(offset int) (*Line, error) {
	return nil, errUnsupported
}

// Output is not implemented on non-Linux platforms.
func (c *Chip) Output(offset int) (*Line, error) {
	return nil, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (c *Chip) Close() error {
	return nil
}

// IsHigh is not implemented on non-Linux platforms.
func (l *Line) IsHigh() bool {
	return false
}

// Set is not implemented on non-Linux platforms.
func (l *Line) Set(high bool) error {
	return errUnsupported
}
