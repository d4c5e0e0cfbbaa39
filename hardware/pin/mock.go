package pin

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

type Op uint8

const (
	OpConfigure Op = iota + 1
	OpDigital
	OpAnalog
)

type Event struct {
	Op    Op
	ID    ID
	Value int
}

func (e Event) String() string {
	switch e.Op {
	case OpConfigure:
		return fmt.Sprintf("cfg(%d,%s)", e.ID, Mode(e.Value))
	case OpDigital:
		return fmt.Sprintf("dw(%d,%s)", e.ID, Level(e.Value))
	case OpAnalog:
		return fmt.Sprintf("aw(%d,%d)", e.ID, e.Value)
	}
	return fmt.Sprintf("op%d(%d,%d)", e.Op, e.ID, e.Value)
}

const (
	MockContextKey  = "test/pin-mock"
	ClockContextKey = "test/pin-clock"
)

// Mock keeps pin levels in memory and records every operation in order.
// Used by tests and by the "mock" hardware driver for running without a board.
type Mock struct {
	mu     sync.Mutex
	modes  map[ID]Mode
	levels map[ID]Level
	duty   map[ID]uint8
	inputs map[ID]uint16
	events []Event
	record bool
	hook   func(Event)
}

func NewMock() *Mock {
	return &Mock{
		modes:  make(map[ID]Mode),
		levels: make(map[ID]Level),
		duty:   make(map[ID]uint8),
		inputs: make(map[ID]uint16),
		record: true,
	}
}

func (self *Mock) Configure(id ID, mode Mode) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.modes[id] = mode
	self.emit(Event{Op: OpConfigure, ID: id, Value: int(mode)})
	return nil
}

func (self *Mock) WriteDigital(id ID, level Level) {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.levels[id] = level
	self.emit(Event{Op: OpDigital, ID: id, Value: int(level)})
}

func (self *Mock) WriteAnalog(id ID, duty uint8) {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.duty[id] = duty
	self.emit(Event{Op: OpAnalog, ID: id, Value: int(duty)})
}

func (self *Mock) ReadAnalog(id ID) uint16 {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.inputs[id]
}

// SetInput stores value returned by ReadAnalog, clamped to AnalogMax.
func (self *Mock) SetInput(id ID, v uint16) {
	if v > AnalogMax {
		v = AnalogMax
	}
	self.mu.Lock()
	self.inputs[id] = v
	self.mu.Unlock()
}

// Level returns last written digital level, ok=false if never written.
func (self *Mock) Level(id ID) (Level, bool) {
	self.mu.Lock()
	defer self.mu.Unlock()
	l, ok := self.levels[id]
	return l, ok
}

func (self *Mock) Duty(id ID) (uint8, bool) {
	self.mu.Lock()
	defer self.mu.Unlock()
	d, ok := self.duty[id]
	return d, ok
}

func (self *Mock) Mode(id ID) (Mode, bool) {
	self.mu.Lock()
	defer self.mu.Unlock()
	m, ok := self.modes[id]
	return m, ok
}

// Events returns copy of recorded operations.
func (self *Mock) Events() []Event {
	self.mu.Lock()
	defer self.mu.Unlock()
	return append([]Event(nil), self.events...)
}

func (self *Mock) ResetEvents() {
	self.mu.Lock()
	self.events = self.events[:0]
	self.mu.Unlock()
}

// SetRecord false stops growing the event list, for long running simulation.
func (self *Mock) SetRecord(on bool) {
	self.mu.Lock()
	self.record = on
	if !on {
		self.events = nil
	}
	self.mu.Unlock()
}

// SetHook f is called with every operation while mock lock is held; f must not call back into Mock.
func (self *Mock) SetHook(f func(Event)) {
	self.mu.Lock()
	self.hook = f
	self.mu.Unlock()
}

func (self *Mock) String() string {
	ev := self.Events()
	ss := make([]string, len(ev))
	for i, e := range ev {
		ss[i] = e.String()
	}
	return strings.Join(ss, " ")
}

func (self *Mock) emit(e Event) {
	if self.record {
		self.events = append(self.events, e)
	}
	if self.hook != nil {
		self.hook(e)
	}
}

// FakeClock only moves on Advance, Set or Sleep.
type FakeClock struct {
	mu  sync.Mutex
	now time.Duration
}

func NewFakeClock(start time.Duration) *FakeClock { return &FakeClock{now: start} }

func (c *FakeClock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Sleep(d time.Duration) { c.Advance(d) }

func (c *FakeClock) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	c.now += d
	c.mu.Unlock()
}

func (c *FakeClock) Set(t time.Duration) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}
