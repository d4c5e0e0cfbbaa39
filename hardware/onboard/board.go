// Package onboard drives HEX panel, LED stripe and RGB lamp which share
// data lines and are time-multiplexed by three select lines.
package onboard

import (
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/onboard/hardware/pin"
	"github.com/temoto/onboard/helpers"
	"github.com/temoto/onboard/helpers/atomic_clock"
)

type Options struct {
	Timing      Timing
	Enabled     DeviceSet
	Calibration SwitchCalibration
}

func DefaultOptions() Options {
	return Options{
		Timing:      DefaultTiming(),
		Calibration: DefaultSwitchCalibration(),
	}
}

// Board is safe for concurrent use. Setters only change mode state,
// nothing reaches pins outside of Tick, Begin and SetEnabled.
type Board struct {
	mu       sync.Mutex
	pins     pin.Pins
	m        PinMap
	modes    Modes
	enabled  DeviceSet
	sched    *Scheduler
	sample   *Sampler
	lastTick atomic_clock.Clock
}

func New(pins pin.Pins, clock pin.Clock, m PinMap, opt Options) (*Board, error) {
	if pins == nil {
		return nil, errors.NotValidf("pins=nil")
	}
	if clock == nil {
		clock = pin.NewSystemClock()
	}
	if err := m.Validate(); err != nil {
		return nil, errors.Annotate(err, "onboard.New")
	}
	t := opt.Timing
	applyTimingDefaults(&t)
	b := &Board{
		pins:    pins,
		m:       m,
		modes:   NewModes(),
		enabled: opt.Enabled & AllDevices,
	}
	b.sched = NewScheduler(pins, clock, &b.m, t)
	b.sample = NewSampler(pins, &b.m, opt.Calibration)
	return b, nil
}

// Begin configures pin directions and releases all select lines.
func (b *Board) Begin() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	errs := make([]error, 0)
	for _, id := range b.m.Outputs() {
		if err := b.pins.Configure(id, pin.Output); err != nil {
			errs = append(errs, errors.Annotatef(err, "output pin=%d", id))
		}
	}
	for _, id := range b.m.Inputs() {
		if err := b.pins.Configure(id, pin.Input); err != nil {
			errs = append(errs, errors.Annotatef(err, "input pin=%d", id))
		}
	}
	b.sched.AllOff()
	b.sched.draw.idleLamp()
	return helpers.FoldErrors(errs)
}

// Tick must be called frequently, much more often than Interval.
func (b *Board) Tick() (Device, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastTick.SetNow()
	return b.sched.Tick(&b.modes, b.enabled)
}

// LastTick is wall time of last Tick call, zero before first.
func (b *Board) LastTick() *atomic_clock.Clock { return &b.lastTick }

func (b *Board) Schedule() ScheduleState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sched.State()
}

func (b *Board) Slots() [DeviceCount]uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sched.Slots()
}

func (b *Board) PinMap() PinMap { return b.m }

// Panel

func (b *Board) WriteHex(n int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.modes.Panel.WriteHex(n)
}

func (b *Board) WriteInt(n int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.modes.Panel.WriteInt(n)
}

func (b *Board) WriteChar(c byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.modes.Panel.WriteChar(c)
}

// WriteString starts scrolling s from first character.
func (b *Board) WriteString(s string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.modes.Panel.WriteString(s)
	b.sched.ResetScroll()
}

func (b *Board) SetHexMode(m HexMode) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.modes.Panel.SetMode(m) {
		return false
	}
	if m == ModeScroll {
		b.sched.ResetScroll()
	}
	return true
}

func (b *Board) Panel() PanelContent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.modes.Panel.Content()
}

// Stripe

func (b *Board) WriteBinary(v int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.modes.Stripe.WriteBinary(v)
}

func (b *Board) WriteProgress(n int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.modes.Stripe.WriteProgress(n)
}

func (b *Board) SetLED(i int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.modes.Stripe.SetLED(i)
}

func (b *Board) ClearLED(i int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.modes.Stripe.ClearLED(i)
}

func (b *Board) ClearStripe() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.modes.Stripe.Clear()
}

func (b *Board) SetStripeMode(m StripeMode) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.modes.Stripe.SetMode(m)
}

func (b *Board) Stripe() StripeContent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.modes.Stripe.Content()
}

// Lamp

func (b *Board) SetColor(c Color) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.modes.Lamp = c
}

func (b *Board) SetRGB(r, g, bl uint8) { b.SetColor(Color{R: r, G: g, B: bl}) }

func (b *Board) Color() Color {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.modes.Lamp
}

// Enabled set

// SetEnabled releases select line of disabled device right away.
func (b *Board) SetEnabled(d Device, on bool) bool {
	if int(d) >= DeviceCount {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if on {
		b.enabled = b.enabled.With(d)
	} else {
		b.enabled = b.enabled.Without(d)
		b.pins.WriteDigital(b.m.Select[d], pin.Off)
	}
	return true
}

func (b *Board) SetEnabledSet(s DeviceSet) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s &= AllDevices
	for d := Device(0); int(d) < DeviceCount; d++ {
		if b.enabled.Has(d) && !s.Has(d) {
			b.pins.WriteDigital(b.m.Select[d], pin.Off)
		}
	}
	b.enabled = s
}

// Off disables multiplexing and releases every select line.
func (b *Board) Off() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enabled = 0
	b.sched.AllOff()
	b.sched.draw.idleLamp()
}

func (b *Board) Enabled() DeviceSet {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.enabled
}

// Timing

func (b *Board) SetInterval(d time.Duration) bool {
	return b.updateTiming(func(t *Timing) bool {
		if d < 0 {
			return false
		}
		t.Interval = d
		return true
	})
}

func (b *Board) SetScrollDelay(d time.Duration) bool {
	return b.updateTiming(func(t *Timing) bool {
		if d < 0 {
			return false
		}
		t.ScrollDelay = d
		return true
	})
}

// SetRGBHold accepts 0..MaxRGBHold, Tick blocks for this long on lamp slot.
func (b *Board) SetRGBHold(d time.Duration) bool {
	return b.updateTiming(func(t *Timing) bool {
		if d < 0 || d > MaxRGBHold {
			return false
		}
		t.RGBHold = d
		return true
	})
}

func (b *Board) Timing() Timing {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sched.Timing()
}

func (b *Board) updateTiming(f func(*Timing) bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := b.sched.Timing()
	if !f(&t) {
		return false
	}
	b.sched.SetTiming(t)
	return true
}

// Inputs

func (b *Board) ReadSwitch() SwitchState {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, _ := b.sample.ReadSwitch()
	return s
}

// ReadSwitchRaw also returns analog value, useful for calibration.
func (b *Board) ReadSwitchRaw() (SwitchState, uint16) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sample.ReadSwitch()
}

func (b *Board) ReadPot() uint16 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sample.ReadPot()
}

func (b *Board) SetSwitchCalibration(c SwitchCalibration) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sample.SetCalibration(c)
}

func (b *Board) SwitchCalibration() SwitchCalibration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sample.Calibration()
}

// applyTimingDefaults replaces negative Interval and ScrollDelay, zero is accepted same as SetInterval(0).
// RGBHold is kept when in 0..MaxRGBHold, zero disables lamp pulse.
func applyTimingDefaults(t *Timing) {
	if t.Interval < 0 {
		t.Interval = DefaultInterval
	}
	if t.ScrollDelay < 0 {
		t.ScrollDelay = DefaultScrollDelay
	}
	if t.RGBHold < 0 || t.RGBHold > MaxRGBHold {
		t.RGBHold = DefaultRGBHold
	}
}
