// Package pin is the raw I/O surface the board core talks to.
// Digital outputs on this board are active-low: Low lights a segment or LED.
package pin

import (
	"fmt"
	"time"
)

type ID uint8

type Mode uint8

const (
	Input Mode = iota
	Output
)

func (m Mode) String() string {
	switch m {
	case Input:
		return "input"
	case Output:
		return "output"
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

type Level byte

const (
	Low  Level = 0
	High Level = 1
)

// Active-low convention.
const (
	On  = Low
	Off = High
)

func (l Level) String() string {
	if l == Low {
		return "low"
	}
	return "high"
}

// AnalogMax is the full scale of ReadAnalog.
const AnalogMax = 1023

type Pins interface {
	Configure(id ID, mode Mode) error
	WriteDigital(id ID, level Level)
	// duty 0..255, 0=always low
	WriteAnalog(id ID, duty uint8)
	// 0..AnalogMax
	ReadAnalog(id ID) uint16
}

// Clock is monotonic time since an arbitrary origin.
type Clock interface {
	Now() time.Duration
	Sleep(d time.Duration)
}

type systemClock struct{ origin time.Time }

func NewSystemClock() Clock { return systemClock{origin: time.Now()} }

func (c systemClock) Now() time.Duration { return time.Since(c.origin) }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }
