// Package console maps text commands to Board setters and getters.
// Used by interactive cli and scripted stdin.
package console

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/onboard/hardware/onboard"
	"github.com/temoto/onboard/hardware/pin"
	"github.com/temoto/onboard/hardware/segment"
)

const Usage = `syntax: command [args...]
(panel)
- hex N          -15..15
- int N          -19..19 decimal
- char C         single character
- text STRING    scroll text
- mode M         hex|decimal|char|scroll
(stripe)
- bin N          0..1023
- progress N     0..10
- led I / unled I
- clear
- stripe-mode M  binary|progress
(lamp)
- rgb R G B
(multiplex)
- enable DEV...  hex|stripe|rgb|all
- disable DEV...
- interval MS / scroll-delay MS / hold MS
- tick [N]       advance clock by interval and tick N times
(input)
- switch / pot
- calibrate T0 T1 T2 [B0 B1 B2 B3]
(meta)
- show / help
`

type command struct {
	args string
	f    func(c *Console, args []string) (string, error)
}

// Console is not safe for concurrent Exec, Board itself is.
type Console struct {
	board *onboard.Board
	// optional, lets show print driven pin levels
	mock *pin.Mock
	// optional, tick command advances it when set
	clock *pin.FakeClock
}

func New(b *onboard.Board) *Console { return &Console{board: b} }

func (c *Console) WithMock(m *pin.Mock, clock *pin.FakeClock) *Console {
	c.mock, c.clock = m, clock
	return c
}

func (c *Console) Board() *onboard.Board { return c.board }

// Commands returns sorted command names for completion.
func Commands() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Exec runs one command line. Empty line and comments are no-op.
func (c *Console) Exec(line string) (string, error) {
	line = strings.TrimSpace(line)
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	if line == "" {
		return "", nil
	}
	name, rest := line, ""
	if i := strings.IndexAny(line, " \t"); i > 0 {
		name, rest = line[:i], strings.TrimSpace(line[i+1:])
	}
	name = strings.ToLower(name)

	cmd, ok := commands[name]
	if !ok {
		return "", errors.NotFoundf("command=%s (try help)", name)
	}
	var args []string
	if name == "text" {
		// text keeps spaces
		args = []string{rest}
	} else if rest != "" {
		args = strings.Fields(rest)
	}
	out, err := cmd.f(c, args)
	return out, errors.Annotatef(err, "%s %s", name, cmd.args)
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"help": {"", func(*Console, []string) (string, error) { return Usage, nil }},
		"show": {"", (*Console).show},

		"hex": {"N", intSetter(func(b *onboard.Board, n int) bool { return b.WriteHex(n) })},
		"int": {"N", intSetter(func(b *onboard.Board, n int) bool { return b.WriteInt(n) })},
		"char": {"C", func(c *Console, args []string) (string, error) {
			if len(args) != 1 || len(args[0]) != 1 {
				return "", errors.NotValidf("expected one character")
			}
			c.board.WriteChar(args[0][0])
			return "", nil
		}},
		"text": {"STRING", func(c *Console, args []string) (string, error) {
			c.board.WriteString(args[0])
			return "", nil
		}},
		"mode": {"hex|decimal|char|scroll", func(c *Console, args []string) (string, error) {
			if len(args) != 1 {
				return "", errors.NotValidf("expected mode")
			}
			m, ok := onboard.ParseHexMode(args[0])
			if !ok {
				return "", errors.NotValidf("mode=%s", args[0])
			}
			c.board.SetHexMode(m)
			return "", nil
		}},

		"bin":      {"N", intSetter(func(b *onboard.Board, n int) bool { return b.WriteBinary(n) })},
		"progress": {"N", intSetter(func(b *onboard.Board, n int) bool { return b.WriteProgress(n) })},
		"led":      {"I", intSetter(func(b *onboard.Board, n int) bool { return b.SetLED(n) })},
		"unled":    {"I", intSetter(func(b *onboard.Board, n int) bool { return b.ClearLED(n) })},
		"clear": {"", func(c *Console, _ []string) (string, error) {
			c.board.ClearStripe()
			return "", nil
		}},
		"stripe-mode": {"binary|progress", func(c *Console, args []string) (string, error) {
			if len(args) != 1 {
				return "", errors.NotValidf("expected mode")
			}
			m, ok := onboard.ParseStripeMode(args[0])
			if !ok {
				return "", errors.NotValidf("mode=%s", args[0])
			}
			c.board.SetStripeMode(m)
			return "", nil
		}},

		"rgb": {"R G B", func(c *Console, args []string) (string, error) {
			xs, err := parseInts(args, 3, 0, 255)
			if err != nil {
				return "", err
			}
			c.board.SetRGB(uint8(xs[0]), uint8(xs[1]), uint8(xs[2]))
			return "", nil
		}},

		"enable":  {"DEV...", enableSetter(true)},
		"disable": {"DEV...", enableSetter(false)},

		"interval":     {"MS", durationSetter((*onboard.Board).SetInterval)},
		"scroll-delay": {"MS", durationSetter((*onboard.Board).SetScrollDelay)},
		"hold":         {"MS", durationSetter((*onboard.Board).SetRGBHold)},
		"tick":         {"[N]", (*Console).tick},

		"switch": {"", func(c *Console, _ []string) (string, error) {
			s, raw := c.board.ReadSwitchRaw()
			return fmt.Sprintf("switch=%s code=%d raw=%d", s, uint8(s), raw), nil
		}},
		"pot": {"", func(c *Console, _ []string) (string, error) {
			return fmt.Sprintf("pot=%d", c.board.ReadPot()), nil
		}},
		"calibrate": {"T0 T1 T2 [B0 B1 B2 B3]", (*Console).calibrate},
	}
}

func intSetter(f func(*onboard.Board, int) bool) func(*Console, []string) (string, error) {
	return func(c *Console, args []string) (string, error) {
		if len(args) != 1 {
			return "", errors.NotValidf("expected one number")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return "", errors.NotValidf("number=%s", args[0])
		}
		if !f(c.board, n) {
			return "", errors.NotValidf("value=%d out of range, ignored", n)
		}
		return "", nil
	}
}

func durationSetter(f func(*onboard.Board, time.Duration) bool) func(*Console, []string) (string, error) {
	return func(c *Console, args []string) (string, error) {
		xs, err := parseInts(args, 1, 0, 60000)
		if err != nil {
			return "", err
		}
		d := time.Duration(xs[0]) * time.Millisecond
		if !f(c.board, d) {
			return "", errors.NotValidf("duration=%v", d)
		}
		return "", nil
	}
}

func enableSetter(on bool) func(*Console, []string) (string, error) {
	return func(c *Console, args []string) (string, error) {
		if len(args) == 0 {
			return "", errors.NotValidf("expected device")
		}
		for _, a := range args {
			if strings.ToLower(a) == "all" {
				for i := 0; i < onboard.DeviceCount; i++ {
					c.board.SetEnabled(onboard.Device(i), on)
				}
				continue
			}
			d, ok := onboard.ParseDevice(a)
			if !ok {
				return "", errors.NotValidf("device=%s valid: hex, stripe, rgb, all", a)
			}
			c.board.SetEnabled(d, on)
		}
		return fmt.Sprintf("enabled=%s", c.board.Enabled()), nil
	}
}

func (c *Console) tick(args []string) (string, error) {
	n := 1
	if len(args) != 0 {
		xs, err := parseInts(args, 1, 1, 100000)
		if err != nil {
			return "", err
		}
		n = xs[0]
	}
	var sb strings.Builder
	for i := 0; i < n; i++ {
		if c.clock != nil {
			c.clock.Advance(c.board.Timing().Interval)
		}
		d, ok := c.board.Tick()
		if !ok {
			sb.WriteString("- ")
			continue
		}
		sb.WriteString(d.String())
		sb.WriteByte(' ')
	}
	return strings.TrimSpace(sb.String()), nil
}

func (c *Console) calibrate(args []string) (string, error) {
	if len(args) != 3 && len(args) != 7 {
		return "", errors.NotValidf("expected 3 thresholds and optional 4 bands")
	}
	cal := c.board.SwitchCalibration()
	xs, err := parseInts(args[:3], 3, 0, pin.AnalogMax+1)
	if err != nil {
		return "", err
	}
	for i, x := range xs {
		cal.Thresholds[i] = uint16(x)
	}
	if len(args) == 7 {
		bs, err := parseInts(args[3:], 4, 0, int(onboard.Switch3))
		if err != nil {
			return "", err
		}
		for i, b := range bs {
			cal.Bands[i] = onboard.SwitchState(b)
		}
	}
	if !c.board.SetSwitchCalibration(cal) {
		return "", errors.NotValidf("thresholds=%v must be ascending", cal.Thresholds)
	}
	return fmt.Sprintf("calibration=%v", cal), nil
}

func (c *Console) show(_ []string) (string, error) {
	b := c.board
	sched := b.Schedule()
	lines := []string{
		fmt.Sprintf("panel=%s", b.Panel()),
		fmt.Sprintf("stripe=%s", b.Stripe()),
		fmt.Sprintf("lamp=%s", b.Color()),
		fmt.Sprintf("enabled=%s active=%s timing=%+v", b.Enabled(), sched.Active, b.Timing()),
		fmt.Sprintf("cursor=%d slots=%v", sched.Cursor, b.Slots()),
	}
	if c.mock != nil {
		lines = append(lines, c.showPins())
	}
	return strings.Join(lines, "\n"), nil
}

// showPins decodes levels currently driven on data lines.
func (c *Console) showPins() string {
	m := c.board.PinMap()
	var p segment.Pattern
	for i, id := range m.Segments {
		if l, _ := c.mock.Level(id); l == pin.On {
			p |= segment.SegA >> uint(i)
		}
	}
	leds := make([]byte, len(m.Stripe))
	for i, id := range m.Stripe {
		leds[i] = '.'
		if l, ok := c.mock.Level(id); ok && l == pin.On {
			leds[i] = '*'
		}
	}
	s := fmt.Sprintf("pins segments=%#02x", uint8(p))
	if d, ok := segment.DecodeDigit(p); ok {
		s += fmt.Sprintf(" digit=%X", d)
	}
	return s + " leds=" + string(leds)
}

func parseInts(args []string, n, min, max int) ([]int, error) {
	if len(args) != n {
		return nil, errors.NotValidf("expected %d numbers", n)
	}
	xs := make([]int, n)
	for i, a := range args {
		x, err := strconv.Atoi(a)
		if err != nil {
			return nil, errors.NotValidf("number=%s", a)
		}
		if x < min || x > max {
			return nil, errors.NotValidf("number=%d range %d..%d", x, min, max)
		}
		xs[i] = x
	}
	return xs, nil
}
