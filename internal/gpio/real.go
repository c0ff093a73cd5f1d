//go:build linux

package gpio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/warthog618/go-gpiocdev"
)

// Chip owns the lines requested from one Linux GPIO character device.
type Chip struct {
	chip *gpiocdev.Chip
	log  logrus.FieldLogger

	mu    sync.Mutex
	lines []*Line
}

// Line is a single requested GPIO line.
type Line struct {
	line   *gpiocdev.Line
	offset int
	output bool
	reads  readState
}

// OpenChip opens the named GPIO chip (e.g. "gpiochip0").
func OpenChip(name string, log logrus.FieldLogger) (*Chip, error) {
	chip, err := gpiocdev.NewChip(name)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	return &Chip{chip: chip, log: log}, nil
}

// Input requests an input line with pull-up bias.
// Switches on these lines close to ground, so pressed reads low.
func (c *Chip) Input(offset int) (*Line, error) {
	l, err := c.chip.RequestLine(offset, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		return nil, fmt.Errorf("request input pin %d: %w", offset, err)
	}
	line := &Line{line: l, offset: offset, reads: readState{pin: offset, log: c.log, last: true}}
	c.track(line)
	return line, nil
}

// Output requests an output line, initially driven low.
func (c *Chip) Output(offset int) (*Line, error) {
	l, err := c.chip.RequestLine(offset, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("request output pin %d: %w", offset, err)
	}
	line := &Line{line: l, offset: offset, output: true, reads: readState{pin: offset, log: c.log}}
	c.track(line)
	return line, nil
}

func (c *Chip) track(l *Line) {
	c.mu.Lock()
	c.lines = append(c.lines, l)
	c.mu.Unlock()
}

// IsHigh returns the line level. A failed read returns the last
// successfully read level, so a fault never looks like an edge.
func (l *Line) IsHigh() bool {
	return l.reads.observe(l.line.Value())
}

// Set drives the line level.
func (l *Line) Set(high bool) error {
	if err := l.line.SetValue(levelValue(high)); err != nil {
		return fmt.Errorf("set pin %d: %w", l.offset, err)
	}
	return nil
}

// Close releases every requested line and the chip.
// Outputs are driven low first so the transmitter is never left keyed, then
// every line is reconfigured to input with pull-down (Pi boot default).
func (c *Chip) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for _, l := range c.lines {
		if l.output {
			if err := l.line.SetValue(0); err != nil {
				errs = append(errs, fmt.Errorf("drive pin %d low: %w", l.offset, err))
			}
		}
		if err := l.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pin %d: %w", l.offset, err))
		}
		if err := l.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", l.offset, err))
		}
	}
	c.lines = nil

	if c.chip != nil {
		if err := c.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		c.chip = nil
	}

	return errors.Join(errs...)
}
