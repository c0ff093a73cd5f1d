// Package gpio provides digital input and output lines with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementations allow testing without hardware.
package gpio

// Input is a sampled digital input line.
type Input interface {
	// IsHigh returns the current electrical level of the line.
	// Reads are infallible at this boundary: implementations absorb
	// hardware errors and report the last known level.
	IsHigh() bool
}

// Output is a driven digital output line.
type Output interface {
	// Set drives the line high (true) or low (false).
	Set(high bool) error
}

// Default line offsets (BCM numbering).
const (
	DefaultPinButton = 17 // Door push-button, closes to ground
	DefaultPinTest   = 27 // Test trigger, closes to ground
	DefaultPinMute   = 22 // Mute switch, closed (low) = muted
	DefaultPinData   = 23 // Transmitter data input
	DefaultPinEnable = 24 // Transmitter driver enable
)

// Disabled marks an optional line as not connected.
const Disabled = -1

func levelValue(high bool) int {
	if high {
		return 1
	}
	return 0
}
