package onboard

import (
	"time"

	"github.com/temoto/onboard/hardware/pin"
)

const (
	DefaultInterval    = 5 * time.Millisecond
	DefaultScrollDelay = 500 * time.Millisecond
	DefaultRGBHold     = 1 * time.Millisecond
	MaxRGBHold         = 20 * time.Millisecond
)

type Timing struct {
	// minimum time between device switches
	Interval time.Duration
	// time each scroll text character stays on the panel
	ScrollDelay time.Duration
	// lamp pulse length within its slot, 0 keeps lamp lit until next switch
	RGBHold time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		Interval:    DefaultInterval,
		ScrollDelay: DefaultScrollDelay,
		RGBHold:     DefaultRGBHold,
	}
}

// ScheduleState is owned by Scheduler, nothing else writes it.
type ScheduleState struct {
	LastSwitch  time.Duration
	Active      Device
	Cursor      int
	LastAdvance time.Duration

	// first render after cursor reset stamps LastAdvance without moving
	scrollArmed bool
}

// Modes is mode state of all devices, read by Scheduler on every switch.
type Modes struct {
	Panel  Panel
	Stripe Stripe
	Lamp   Color
}

func NewModes() Modes {
	return Modes{Panel: newPanel(), Stripe: newStripe()}
}

// Scheduler time-slices shared data lines between devices.
// Not safe for concurrent use, Board serializes access.
type Scheduler struct {
	pins   pin.Pins
	clock  pin.Clock
	draw   renderer
	timing Timing
	state  ScheduleState
	slots  [DeviceCount]uint64
}

func NewScheduler(pins pin.Pins, clock pin.Clock, m *PinMap, t Timing) *Scheduler {
	return &Scheduler{
		pins:   pins,
		clock:  clock,
		draw:   renderer{pins: pins, m: m},
		timing: t,
		state:  ScheduleState{Active: DeviceHex},
	}
}

func (s *Scheduler) State() ScheduleState       { return s.state }
func (s *Scheduler) Timing() Timing             { return s.timing }
func (s *Scheduler) SetTiming(t Timing)         { s.timing = t }
func (s *Scheduler) Slots() [DeviceCount]uint64 { return s.slots }

// ResetScroll moves scroll cursor to first character.
func (s *Scheduler) ResetScroll() {
	s.state.Cursor = 0
	s.state.scrollArmed = false
}

// Tick switches to next enabled device when Interval has passed since last switch.
// Cheap no-op otherwise. Returns device made active.
func (s *Scheduler) Tick(modes *Modes, enabled DeviceSet) (Device, bool) {
	now := s.clock.Now()
	if now-s.state.LastSwitch < s.timing.Interval {
		return 0, false
	}
	next, ok := enabled.Next(s.state.Active)
	if !ok {
		return 0, false
	}

	// order matters: all off, then select, then data
	s.AllOff()
	s.pins.WriteDigital(s.draw.m.Select[next], pin.On)

	switch next {
	case DeviceHex:
		cursor := 0
		if sc, ok := modes.Panel.content.(Scroll); ok {
			cursor = s.scroll(now, sc.Len())
		}
		s.draw.drawPanel(modes.Panel.content, cursor)

	case DeviceStripe:
		s.draw.drawStripe(modes.Stripe.content)

	case DeviceRGB:
		s.draw.drawLamp(modes.Lamp)
		if hold := s.timing.RGBHold; hold > 0 {
			s.clock.Sleep(hold)
			s.pins.WriteDigital(s.draw.m.Select[DeviceRGB], pin.Off)
			s.draw.idleLamp()
		}
	}

	s.state.Active = next
	s.state.LastSwitch = now
	s.slots[next]++
	return next, true
}

// AllOff releases every select line.
func (s *Scheduler) AllOff() {
	for _, id := range s.draw.m.Select {
		s.pins.WriteDigital(id, pin.Off)
	}
}

func (s *Scheduler) scroll(now time.Duration, length int) int {
	st := &s.state
	if length <= 0 {
		st.Cursor = 0
		return 0
	}
	if st.Cursor >= length {
		st.Cursor = 0
	}
	switch {
	case !st.scrollArmed:
		st.scrollArmed = true
		st.LastAdvance = now
	case now-st.LastAdvance >= s.timing.ScrollDelay:
		st.Cursor = (st.Cursor + 1) % length
		st.LastAdvance = now
	}
	return st.Cursor
}
