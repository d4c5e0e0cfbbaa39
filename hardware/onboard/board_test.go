package onboard

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/onboard/hardware/pin"
	"github.com/temoto/onboard/hardware/segment"
)

func newTestBoard(t testing.TB, enabled DeviceSet) (*Board, *pin.Mock, *pin.FakeClock) {
	mock := pin.NewMock()
	clock := pin.NewFakeClock(time.Second)
	opt := DefaultOptions()
	opt.Enabled = enabled
	b, err := New(mock, clock, DefaultPinMap(), opt)
	require.NoError(t, err)
	require.NoError(t, b.Begin())
	mock.ResetEvents()
	return b, mock, clock
}

// panelPattern reads segment pattern currently driven on pins.
func panelPattern(t testing.TB, mock *pin.Mock, m PinMap) segment.Pattern {
	var p segment.Pattern
	for i, id := range m.Segments {
		l, ok := mock.Level(id)
		require.True(t, ok, "segment %d never written", i)
		if l == pin.On {
			p |= segment.SegA >> uint(i)
		}
	}
	return p
}

func isOn(mock *pin.Mock, id pin.ID) bool {
	l, ok := mock.Level(id)
	return ok && l == pin.On
}

func TestBoardBegin(t *testing.T) {
	t.Parallel()

	mock := pin.NewMock()
	b, err := New(mock, pin.NewFakeClock(0), DefaultPinMap(), DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, b.Begin())
	m := b.PinMap()
	for _, id := range m.Outputs() {
		mode, ok := mock.Mode(id)
		assert.True(t, ok)
		assert.Equal(t, pin.Output, mode, "pin=%d", id)
	}
	for _, id := range m.Inputs() {
		mode, _ := mock.Mode(id)
		assert.Equal(t, pin.Input, mode, "pin=%d", id)
	}
	for _, id := range m.Select {
		l, _ := mock.Level(id)
		assert.Equal(t, pin.Off, l)
	}
	for _, id := range m.Lamp {
		d, _ := mock.Duty(id)
		assert.Equal(t, uint8(255), d)
	}
	assert.True(t, b.Enabled().Empty())
}

func TestBoardNewInvalid(t *testing.T) {
	t.Parallel()

	m := DefaultPinMap()
	m.Select[2] = m.Select[0]
	_, err := New(pin.NewMock(), nil, m, DefaultOptions())
	assert.Error(t, err)

	m = DefaultPinMap()
	m.Pot = m.Segments[3]
	_, err = New(pin.NewMock(), nil, m, DefaultOptions())
	assert.Error(t, err)

	_, err = New(nil, nil, DefaultPinMap(), DefaultOptions())
	assert.Error(t, err)
}

func TestBoardDecimalNegative(t *testing.T) {
	t.Parallel()

	b, mock, _ := newTestBoard(t, NewDeviceSet(DeviceHex))
	m := b.PinMap()
	assert.True(t, b.SetHexMode(ModeDecimal))
	assert.True(t, b.WriteInt(-14))
	d, ok := b.Tick()
	require.True(t, ok)
	assert.Equal(t, DeviceHex, d)

	assert.True(t, isOn(mock, m.Select[DeviceHex]))
	assert.True(t, isOn(mock, m.Sign), "sign must show negative")
	for _, id := range m.Tens {
		assert.True(t, isOn(mock, id), "tens pin=%d", id)
	}
	digit, ok := segment.DecodeDigit(panelPattern(t, mock, m))
	assert.True(t, ok)
	assert.Equal(t, 4, digit)
}

func TestBoardHexRoundTrip(t *testing.T) {
	t.Parallel()

	b, mock, clock := newTestBoard(t, NewDeviceSet(DeviceHex))
	m := b.PinMap()
	for n := HexMin; n <= HexMax; n++ {
		require.True(t, b.WriteHex(n))
		clock.Advance(DefaultInterval)
		_, ok := b.Tick()
		require.True(t, ok)
		digit, ok := segment.DecodeDigit(panelPattern(t, mock, m))
		require.True(t, ok, "n=%d", n)
		if isOn(mock, m.Sign) {
			digit = -digit
		}
		assert.Equal(t, n, digit)
		assert.False(t, isOn(mock, m.Tens[0]))
	}
}

func TestBoardHexIgnoreOutOfRange(t *testing.T) {
	t.Parallel()

	b, mock, clock := newTestBoard(t, NewDeviceSet(DeviceHex))
	b.WriteHex(9)
	b.Tick()
	before := panelPattern(t, mock, b.PinMap())
	assert.False(t, b.WriteHex(16))
	assert.False(t, b.WriteHex(-16))
	clock.Advance(DefaultInterval)
	b.Tick()
	assert.Equal(t, before, panelPattern(t, mock, b.PinMap()))
	assert.Equal(t, HexDigit{n: 9}, b.Panel())
}

func TestBoardStripeBinary(t *testing.T) {
	t.Parallel()

	b, mock, _ := newTestBoard(t, NewDeviceSet(DeviceStripe))
	m := b.PinMap()
	assert.True(t, b.WriteBinary(0x2aa)) // 682
	d, ok := b.Tick()
	require.True(t, ok)
	assert.Equal(t, DeviceStripe, d)
	for i, id := range m.Stripe {
		assert.Equal(t, i%2 == 1, isOn(mock, id), "led=%d", i)
	}
}

func TestBoardStripeProgress(t *testing.T) {
	t.Parallel()

	b, mock, clock := newTestBoard(t, NewDeviceSet(DeviceStripe))
	m := b.PinMap()
	for n := 0; n <= ProgressMax; n++ {
		require.True(t, b.WriteProgress(n))
		clock.Advance(DefaultInterval)
		_, ok := b.Tick()
		require.True(t, ok)
		lit := 0
		for _, id := range m.Stripe {
			if isOn(mock, id) {
				lit++
			}
		}
		assert.Equal(t, n, lit)
	}

	b.WriteProgress(4)
	assert.False(t, b.WriteProgress(11))
	clock.Advance(DefaultInterval)
	b.Tick()
	assert.Equal(t, Progress{n: 4}, b.Stripe())
	for i, id := range m.Stripe {
		assert.Equal(t, i < 4, isOn(mock, id), "led=%d", i)
	}
}

func TestBoardScroll(t *testing.T) {
	t.Parallel()

	b, mock, clock := newTestBoard(t, NewDeviceSet(DeviceHex))
	require.True(t, b.SetScrollDelay(500*time.Millisecond))
	b.WriteString("AB")
	expect := []byte{'A', 'B', 'A'}
	for i, ch := range expect {
		if i > 0 {
			clock.Advance(500 * time.Millisecond)
		}
		_, ok := b.Tick()
		require.True(t, ok)
		assert.Equal(t, segment.Char(ch), panelPattern(t, mock, b.PinMap()), "step=%d", i)
	}

	// ticks between advances keep the character
	clock.Advance(100 * time.Millisecond)
	b.Tick()
	assert.Equal(t, segment.Char('A'), panelPattern(t, mock, b.PinMap()))

	// new text starts from first character
	b.WriteString("xy")
	clock.Advance(DefaultInterval)
	b.Tick()
	assert.Equal(t, 0, b.Schedule().Cursor)
	assert.Equal(t, segment.Char('x'), panelPattern(t, mock, b.PinMap()))
}

func TestBoardScrollModeReentry(t *testing.T) {
	t.Parallel()

	b, mock, clock := newTestBoard(t, NewDeviceSet(DeviceHex))
	b.WriteString("ABC")
	b.Tick()
	clock.Advance(DefaultScrollDelay)
	b.Tick()
	require.Equal(t, 1, b.Schedule().Cursor)
	require.Equal(t, segment.Char('B'), panelPattern(t, mock, b.PinMap()))

	require.True(t, b.SetHexMode(ModeHex))
	clock.Advance(DefaultInterval)
	b.Tick()
	zero, _ := segment.Digit(0)
	assert.Equal(t, zero, panelPattern(t, mock, b.PinMap()))

	// back into scroll restarts text from first character
	require.True(t, b.SetHexMode(ModeScroll))
	assert.Equal(t, 0, b.Schedule().Cursor)
	clock.Advance(DefaultInterval)
	b.Tick()
	assert.Equal(t, 0, b.Schedule().Cursor)
	assert.Equal(t, segment.Char('A'), panelPattern(t, mock, b.PinMap()))
	sc, ok := b.Panel().(Scroll)
	require.True(t, ok)
	assert.Equal(t, "ABC", sc.Text())
}

func TestBoardScrollEmpty(t *testing.T) {
	t.Parallel()

	b, mock, clock := newTestBoard(t, NewDeviceSet(DeviceHex))
	b.WriteString("")
	for i := 0; i < 3; i++ {
		clock.Advance(time.Second)
		_, ok := b.Tick()
		require.True(t, ok)
		assert.Equal(t, 0, b.Schedule().Cursor)
		assert.Equal(t, segment.Char(' '), panelPattern(t, mock, b.PinMap()))
	}
}

func TestBoardLamp(t *testing.T) {
	t.Parallel()

	b, mock, clock := newTestBoard(t, NewDeviceSet(DeviceRGB))
	m := b.PinMap()
	b.SetRGB(255, 0, 10)
	start := clock.Now()
	d, ok := b.Tick()
	require.True(t, ok)
	assert.Equal(t, DeviceRGB, d)
	assert.Equal(t, start+DefaultRGBHold, clock.Now())

	expect := []pin.Event{
		{Op: pin.OpDigital, ID: m.Select[0], Value: int(pin.Off)},
		{Op: pin.OpDigital, ID: m.Select[1], Value: int(pin.Off)},
		{Op: pin.OpDigital, ID: m.Select[2], Value: int(pin.Off)},
		{Op: pin.OpDigital, ID: m.Select[DeviceRGB], Value: int(pin.On)},
		{Op: pin.OpAnalog, ID: m.Lamp[0], Value: 0},
		{Op: pin.OpAnalog, ID: m.Lamp[1], Value: 255},
		{Op: pin.OpAnalog, ID: m.Lamp[2], Value: 245},
		{Op: pin.OpDigital, ID: m.Select[DeviceRGB], Value: int(pin.Off)},
		{Op: pin.OpAnalog, ID: m.Lamp[0], Value: 255},
		{Op: pin.OpAnalog, ID: m.Lamp[1], Value: 255},
		{Op: pin.OpAnalog, ID: m.Lamp[2], Value: 255},
	}
	assert.Equal(t, expect, mock.Events())
}

func TestBoardLampNoHold(t *testing.T) {
	t.Parallel()

	b, mock, clock := newTestBoard(t, NewDeviceSet(DeviceRGB))
	m := b.PinMap()
	require.True(t, b.SetRGBHold(0))
	assert.False(t, b.SetRGBHold(MaxRGBHold+1))
	assert.False(t, b.SetRGBHold(-time.Millisecond))
	assert.Equal(t, time.Duration(0), b.Timing().RGBHold)
	b.SetColor(Color{R: 1, G: 2, B: 3})
	start := clock.Now()
	b.Tick()
	assert.Equal(t, start, clock.Now())
	assert.True(t, isOn(mock, m.Select[DeviceRGB]))
	duty, _ := mock.Duty(m.Lamp[2])
	assert.Equal(t, uint8(252), duty)
}

func TestBoardInterval(t *testing.T) {
	t.Parallel()

	b, mock, clock := newTestBoard(t, AllDevices)
	require.True(t, b.SetInterval(10*time.Millisecond))
	assert.False(t, b.SetInterval(-1))
	assert.Equal(t, 10*time.Millisecond, b.Timing().Interval)

	_, ok := b.Tick()
	require.True(t, ok)
	mock.ResetEvents()
	clock.Set(b.Schedule().LastSwitch + 9*time.Millisecond)
	_, ok = b.Tick()
	assert.False(t, ok)
	assert.Empty(t, mock.Events(), "gated tick must not touch pins")
	clock.Advance(time.Millisecond)
	_, ok = b.Tick()
	assert.True(t, ok)
}

func TestBoardNothingEnabled(t *testing.T) {
	t.Parallel()

	b, mock, clock := newTestBoard(t, 0)
	for i := 0; i < 5; i++ {
		clock.Advance(time.Second)
		_, ok := b.Tick()
		assert.False(t, ok)
	}
	assert.Empty(t, mock.Events())
	assert.Equal(t, DeviceHex, b.Schedule().Active)
}

func TestBoardFairness(t *testing.T) {
	t.Parallel()

	for _, k := range []int{0, 1, 2, 3, 7, 100, 301} {
		b, _, clock := newTestBoard(t, AllDevices)
		seq := make([]Device, 0, k)
		for i := 0; i < k; i++ {
			d, ok := b.Tick()
			require.True(t, ok)
			seq = append(seq, d)
			clock.Advance(DefaultInterval)
		}
		slots := b.Slots()
		for d, n := range slots {
			assert.True(t, int(n) == k/3 || int(n) == (k+2)/3, "k=%d device=%s n=%d", k, Device(d), n)
			if k >= DeviceCount {
				assert.NotZero(t, n)
			}
		}
		for i, d := range seq {
			assert.Equal(t, Device((i+1)%DeviceCount), d, "k=%d i=%d", k, i)
		}
	}
}

func TestBoardFairnessSubset(t *testing.T) {
	t.Parallel()

	b, _, clock := newTestBoard(t, NewDeviceSet(DeviceHex, DeviceRGB))
	for i := 0; i < 10; i++ {
		b.Tick()
		clock.Advance(DefaultInterval)
	}
	assert.Equal(t, [DeviceCount]uint64{5, 0, 5}, b.Slots())
}

func TestBoardSelectExclusive(t *testing.T) {
	t.Parallel()

	b, mock, clock := newTestBoard(t, AllDevices)
	m := b.PinMap()
	selects := make(map[pin.ID]bool, DeviceCount)
	for _, id := range m.Select {
		selects[id] = false
	}
	violations := 0
	mock.SetHook(func(e pin.Event) {
		if _, ok := selects[e.ID]; !ok || e.Op != pin.OpDigital {
			return
		}
		selects[e.ID] = pin.Level(e.Value) == pin.On
		on := 0
		for _, v := range selects {
			if v {
				on++
			}
		}
		if on > 1 {
			violations++
		}
	})

	b.WriteString("hello")
	b.WriteBinary(1023)
	b.SetRGB(1, 2, 3)
	for i := 0; i < 60; i++ {
		switch i {
		case 20:
			b.SetEnabled(DeviceStripe, false)
		case 30:
			b.SetRGBHold(0)
		case 40:
			b.SetEnabledSet(AllDevices)
		}
		b.Tick()
		clock.Advance(DefaultInterval + time.Duration(i%4)*time.Millisecond)
	}
	assert.Equal(t, 0, violations)
}

func TestBoardTickOrder(t *testing.T) {
	t.Parallel()

	b, mock, clock := newTestBoard(t, AllDevices)
	m := b.PinMap()
	b.WriteInt(-3)
	for i := 0; i < 6; i++ {
		mock.ResetEvents()
		d, ok := b.Tick()
		require.True(t, ok)
		events := mock.Events()
		require.True(t, len(events) > 4)
		for j := 0; j < DeviceCount; j++ {
			assert.Equal(t, pin.Event{Op: pin.OpDigital, ID: m.Select[j], Value: int(pin.Off)}, events[j])
		}
		assert.Equal(t, pin.Event{Op: pin.OpDigital, ID: m.Select[d], Value: int(pin.On)}, events[3])
		clock.Advance(DefaultInterval)
	}
}

func TestBoardDisableReleasesSelect(t *testing.T) {
	t.Parallel()

	b, mock, clock := newTestBoard(t, NewDeviceSet(DeviceStripe))
	m := b.PinMap()
	b.Tick()
	require.True(t, isOn(mock, m.Select[DeviceStripe]))
	assert.True(t, b.SetEnabled(DeviceStripe, false))
	assert.False(t, isOn(mock, m.Select[DeviceStripe]))
	assert.False(t, b.SetEnabled(Device(3), true))

	b.SetEnabledSet(NewDeviceSet(DeviceHex))
	clock.Advance(DefaultInterval)
	b.Tick()
	require.True(t, isOn(mock, m.Select[DeviceHex]))
	b.SetEnabledSet(NewDeviceSet(DeviceRGB))
	assert.False(t, isOn(mock, m.Select[DeviceHex]))
	assert.Equal(t, NewDeviceSet(DeviceRGB), b.Enabled())
}

func TestBoardConcurrent(t *testing.T) {
	t.Parallel()

	b, _, clock := newTestBoard(t, AllDevices)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			b.Tick()
			clock.Advance(time.Millisecond)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			b.WriteInt(i%39 - 19)
			b.SetHexMode(HexMode(i % 4))
			b.WriteProgress(i % 11)
			b.SetRGB(uint8(i), 0, 0)
		}
	}()
	wg.Wait()
	assert.NotZero(t, b.Slots()[DeviceHex])
}

func TestBoardOff(t *testing.T) {
	t.Parallel()

	b, mock, clock := newTestBoard(t, AllDevices)
	m := b.PinMap()
	b.Tick()
	b.Off()
	for _, id := range m.Select {
		assert.False(t, isOn(mock, id))
	}
	clock.Advance(time.Second)
	_, ok := b.Tick()
	assert.False(t, ok)
	assert.True(t, b.Enabled().Empty())
}
