// Package chime drives a fixed-code 433 MHz wireless chime receiver by
// bit-banging its radio-control protocol on a GPIO line.
//
// A burst is 16 identical frames. Each frame is a start pulse, 26 address
// bits, two function bits (always 1), 4 unit-code bits and a stop pulse,
// every bit most significant first. The link has no acknowledgement, so the
// receiver only has to decode one frame out of the burst.
package chime

const (
	// FramesPerBurst is the number of frames sent by one Ring.
	FramesPerBurst = 16

	// AddressBits and UnitBits are the widths of the transmitted fields.
	AddressBits = 26
	UnitBits    = 4

	functionBits = 2

	// PulsesPerFrame is start (2) + 32 bits of 4 pulses + stop (2).
	PulsesPerFrame = 2 + (AddressBits+functionBits+UnitBits)*4 + 2

	// AddressMax and UnitMax are the largest values that fit the fields.
	AddressMax = 1<<AddressBits - 1
	UnitMax    = 1<<UnitBits - 1

	addressMask = AddressMax
	unitMask    = UnitMax
)

// Defaults for the reference receiver.
const (
	DefaultAddress = 37877946
	DefaultUnit    = 0
	DefaultPeriod  = 251 // microseconds
)

// Message is the fixed code sent to the receiver.
// Only the low 26 address bits and low 4 unit bits are transmitted.
type Message struct {
	Address uint32
	Unit    uint8
}

// Pulse is one output level held for Micros microseconds.
type Pulse struct {
	High   bool
	Micros uint32
}

// Encode returns the pulses of a single frame for msg at the given timing period.
func Encode(msg Message, period uint32) []Pulse {
	pulses := make([]Pulse, 0, PulsesPerFrame)

	// Start: high P, low 10.5P
	pulses = append(pulses, Pulse{true, period}, Pulse{false, period*10 + period>>1})

	address := msg.Address & addressMask
	for i := AddressBits - 1; i >= 0; i-- {
		pulses = appendBit(pulses, (address>>i)&1 == 1, period)
	}

	for i := 0; i < functionBits; i++ {
		pulses = appendBit(pulses, true, period)
	}

	unit := msg.Unit & unitMask
	for i := UnitBits - 1; i >= 0; i-- {
		pulses = appendBit(pulses, (unit>>i)&1 == 1, period)
	}

	// Stop: high P, low 40P
	pulses = append(pulses, Pulse{true, period}, Pulse{false, period * 40})

	return pulses
}

// appendBit encodes one bit as two high/low pairs. A 1 has the long gap
// after the first high phase, a 0 after the second.
func appendBit(pulses []Pulse, bit bool, period uint32) []Pulse {
	if bit {
		return append(pulses,
			Pulse{true, period}, Pulse{false, period * 5},
			Pulse{true, period}, Pulse{false, period},
		)
	}
	return append(pulses,
		Pulse{true, period}, Pulse{false, period},
		Pulse{true, period}, Pulse{false, period * 5},
	)
}

// Burst returns FramesPerBurst repetitions of the frame for msg.
func Burst(msg Message, period uint32) []Pulse {
	frame := Encode(msg, period)
	burst := make([]Pulse, 0, len(frame)*FramesPerBurst)
	for i := 0; i < FramesPerBurst; i++ {
		burst = append(burst, frame...)
	}
	return burst
}

// Duration returns the total time, in microseconds, the pulses occupy.
func Duration(pulses []Pulse) uint64 {
	var total uint64
	for _, p := range pulses {
		total += uint64(p.Micros)
	}
	return total
}
