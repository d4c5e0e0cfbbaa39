package onboard

import (
	"fmt"

	"github.com/temoto/onboard/hardware/pin"
)

// SwitchState codes are the values the board library always returned.
type SwitchState uint8

const (
	SwitchNone SwitchState = 0
	SwitchBoth SwitchState = 1
	Switch2    SwitchState = 2
	Switch3    SwitchState = 3
)

func (s SwitchState) String() string {
	switch s {
	case SwitchNone:
		return "none"
	case SwitchBoth:
		return "both"
	case Switch2:
		return "switch2"
	case Switch3:
		return "switch3"
	}
	return fmt.Sprintf("switch(%d)", uint8(s))
}

// SwitchCalibration splits 0..1023 into four bands:
// v < Thresholds[0] is Bands[0], v < Thresholds[1] is Bands[1],
// v < Thresholds[2] is Bands[2], otherwise Bands[3].
type SwitchCalibration struct {
	Thresholds [3]uint16
	Bands      [4]SwitchState
}

func DefaultSwitchCalibration() SwitchCalibration {
	return SwitchCalibration{
		Thresholds: [3]uint16{400, 520, 690},
		Bands:      [4]SwitchState{SwitchBoth, Switch3, Switch2, SwitchNone},
	}
}

func (c SwitchCalibration) Valid() bool {
	t := c.Thresholds
	if !(t[0] <= t[1] && t[1] <= t[2] && t[2] <= pin.AnalogMax+1) {
		return false
	}
	for _, b := range c.Bands {
		if b > Switch3 {
			return false
		}
	}
	return true
}

func (c SwitchCalibration) Classify(v uint16) SwitchState {
	for i, t := range c.Thresholds {
		if v < t {
			return c.Bands[i]
		}
	}
	return c.Bands[3]
}

// Sampler reads switch ladder and potentiometer without filtering.
type Sampler struct {
	pins pin.Pins
	m    *PinMap
	cal  SwitchCalibration
}

func NewSampler(pins pin.Pins, m *PinMap, cal SwitchCalibration) *Sampler {
	if !cal.Valid() {
		cal = DefaultSwitchCalibration()
	}
	return &Sampler{pins: pins, m: m, cal: cal}
}

func (s *Sampler) Calibration() SwitchCalibration { return s.cal }

// SetCalibration keeps previous calibration when c is not valid.
func (s *Sampler) SetCalibration(c SwitchCalibration) bool {
	if !c.Valid() {
		return false
	}
	s.cal = c
	return true
}

func (s *Sampler) ReadSwitch() (SwitchState, uint16) {
	v := s.pins.ReadAnalog(s.m.Switch)
	return s.cal.Classify(v), v
}

func (s *Sampler) ReadPot() uint16 { return s.pins.ReadAnalog(s.m.Pot) }
