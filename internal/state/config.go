package state

import (
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/hcl"
	"github.com/juju/errors"
	"github.com/temoto/onboard/hardware/onboard"
	"github.com/temoto/onboard/hardware/pin"
	"github.com/temoto/onboard/helpers"
	"github.com/temoto/onboard/log2"
	"periph.io/x/periph/conn/physic"
)

type Config struct {
	// includeSeen contains absolute paths to prevent include loops
	includeSeen map[string]struct{}
	// only used for Unmarshal, do not access
	XXX_Include []ConfigSource `hcl:"include"`

	Hardware struct {
		Driver         string       `hcl:"driver"` // cdev|mock
		PinChip        string       `hcl:"pin_chip"`
		PWMFrequencyHz int          `hcl:"pwm_frequency_hz"`
		Pinmap         PinMapConfig `hcl:"pinmap"`
		Lines          []LineConfig `hcl:"line"`
		PWM            []PWMConfig  `hcl:"pwm"`
		ADC            []ADCConfig  `hcl:"adc"`
	}

	Multiplex struct {
		// nil = default, 0 switches device on every Tick
		IntervalMs *int `hcl:"interval_ms"`
		// nil = default, 0 advances scroll text on every HEX slot
		ScrollDelayMs *int `hcl:"scroll_delay_ms"`
		// nil = default, 0 disables lamp pulse
		RGBHoldMs *int `hcl:"rgb_hold_ms"`
		// nil = all devices, empty list = none
		Enable []string `hcl:"enable"`
	}

	Switches struct {
		Thresholds []int    `hcl:"thresholds"`
		Bands      []string `hcl:"bands"`
	}

	// initial content, applied once after hardware init
	Display struct {
		HexMode    string `hcl:"hex_mode"`
		Hex        int    `hcl:"hex"`
		Char       string `hcl:"char"`
		Text       string `hcl:"text"`
		StripeMode string `hcl:"stripe_mode"`
		Stripe     int    `hcl:"stripe"`
		RGB        []int  `hcl:"rgb"`
	}

	Log struct {
		Debug bool `hcl:"debug"`
	}

	Run struct {
		// tick loop sleep between Board.Tick calls
		TickUs int `hcl:"tick_us"`
		// stall watchdog reports error when no tick for this long, 0 disables
		StallMs int `hcl:"stall_ms"`
	}

	_copy_guard sync.Mutex //nolint:unused
}

type ConfigSource struct {
	Name     string `hcl:"name,key"`
	Optional bool   `hcl:"optional"`
}

// PinMapConfig overrides DefaultPinMap; empty lists and nil scalars keep default.
type PinMapConfig struct {
	Segments []int `hcl:"segments"`
	Sign     *int  `hcl:"sign"`
	Tens     []int `hcl:"tens"`
	Stripe   []int `hcl:"stripe"`
	Select   []int `hcl:"select"`
	Lamp     []int `hcl:"lamp"`
	Pot      *int  `hcl:"pot"`
	Switch   *int  `hcl:"switch"`
}

// line "10" { offset = 17 } maps board pin 10 to gpio chip line 17.
type LineConfig struct {
	Name   string `hcl:"name,key"`
	Offset int    `hcl:"offset"`
}

// pwm "5" { pin = "PWM0" } drives board pin 5 with periph pin by name.
type PWMConfig struct {
	Name string `hcl:"name,key"`
	Pin  string `hcl:"pin"`
}

// adc "14" { path = "/sys/bus/iio/devices/iio:device0/in_voltage0_raw" bits = 12 }
type ADCConfig struct {
	Name string `hcl:"name,key"`
	Path string `hcl:"path"`
	Bits int    `hcl:"bits"`
}

var switchStateNames = map[string]onboard.SwitchState{
	"none":    onboard.SwitchNone,
	"both":    onboard.SwitchBoth,
	"switch2": onboard.Switch2,
	"switch3": onboard.Switch3,
}

func (c *Config) read(log *log2.Log, fs FullReader, source ConfigSource, errs *[]error) {
	norm := fs.Normalize(source.Name)
	if _, ok := c.includeSeen[norm]; ok {
		log.Fatalf("config duplicate source=%s", source.Name)
	} else {
		log.Debugf("config reading source='%s' path=%s", source.Name, norm)
	}
	c.includeSeen[source.Name] = struct{}{}
	c.includeSeen[norm] = struct{}{}

	bs, err := fs.ReadAll(norm)
	if bs == nil && err == nil {
		if !source.Optional {
			err = errors.NotFoundf("config required name=%s path=%s", source.Name, norm)
			*errs = append(*errs, err)
		}
		return
	}
	if err != nil {
		*errs = append(*errs, errors.Annotatef(err, "config source=%s", source.Name))
		return
	}

	err = hcl.Unmarshal(bs, c)
	if err != nil {
		err = errors.Annotatef(err, "config unmarshal source=%s content='%s'", source.Name, string(bs))
		*errs = append(*errs, err)
		return
	}

	var includes []ConfigSource
	includes, c.XXX_Include = c.XXX_Include, nil
	for _, include := range includes {
		includeNorm := fs.Normalize(include.Name)
		if _, ok := c.includeSeen[includeNorm]; ok {
			err = errors.Errorf("config include loop: from=%s include=%s", source.Name, include.Name)
			*errs = append(*errs, err)
			continue
		}
		c.read(log, fs, include, errs)
	}
}

func ReadConfig(log *log2.Log, fs FullReader, names ...string) (*Config, error) {
	if len(names) == 0 {
		log.Fatal("code error [Must]ReadConfig() without names")
	}

	if osfs, ok := fs.(*OsFullReader); ok {
		dir, name := filepath.Split(names[0])
		osfs.SetBase(dir)
		names[0] = name
	}
	c := &Config{
		includeSeen: make(map[string]struct{}),
	}
	errs := make([]error, 0, 8)
	for _, name := range names {
		c.read(log, fs, ConfigSource{Name: name}, &errs)
	}
	return c, helpers.FoldErrors(errs)
}

func MustReadConfig(log *log2.Log, fs FullReader, names ...string) *Config {
	c, err := ReadConfig(log, fs, names...)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	return c
}

func (c *Config) PinMap() (onboard.PinMap, error) {
	m := onboard.DefaultPinMap()
	x := &c.Hardware.Pinmap
	errs := make([]error, 0)
	copyIDs := func(name string, dst []pin.ID, src []int) {
		if len(src) == 0 {
			return
		}
		if len(src) != len(dst) {
			errs = append(errs, errors.NotValidf("config: hardware.pinmap.%s length=%d expected=%d", name, len(src), len(dst)))
			return
		}
		for i, v := range src {
			id, err := parsePinID(v)
			if err != nil {
				errs = append(errs, errors.Annotatef(err, "config: hardware.pinmap.%s[%d]", name, i))
				return
			}
			dst[i] = id
		}
	}
	copyID := func(name string, dst *pin.ID, src *int) {
		if src == nil {
			return
		}
		id, err := parsePinID(*src)
		if err != nil {
			errs = append(errs, errors.Annotatef(err, "config: hardware.pinmap.%s", name))
			return
		}
		*dst = id
	}
	copyIDs("segments", m.Segments[:], x.Segments)
	copyID("sign", &m.Sign, x.Sign)
	copyIDs("tens", m.Tens[:], x.Tens)
	copyIDs("stripe", m.Stripe[:], x.Stripe)
	copyIDs("select", m.Select[:], x.Select)
	copyIDs("lamp", m.Lamp[:], x.Lamp)
	copyID("pot", &m.Pot, x.Pot)
	copyID("switch", &m.Switch, x.Switch)
	if len(errs) != 0 {
		return m, helpers.FoldErrors(errs)
	}
	if err := m.Validate(); err != nil {
		return m, errors.Annotate(err, "config: hardware.pinmap")
	}
	return m, nil
}

func (c *Config) Options() (onboard.Options, error) {
	opt := onboard.DefaultOptions()
	mx := &c.Multiplex
	errs := make([]error, 0)

	millis := func(name string, x *int, max time.Duration, dst *time.Duration) {
		if x == nil {
			return
		}
		d := time.Duration(*x) * time.Millisecond
		if d < 0 || (max != 0 && d > max) {
			errs = append(errs, errors.NotValidf("config: multiplex.%s=%d", name, *x))
			return
		}
		*dst = d
	}
	millis("interval_ms", mx.IntervalMs, 0, &opt.Timing.Interval)
	millis("scroll_delay_ms", mx.ScrollDelayMs, 0, &opt.Timing.ScrollDelay)
	millis("rgb_hold_ms", mx.RGBHoldMs, onboard.MaxRGBHold, &opt.Timing.RGBHold)

	if mx.Enable == nil {
		opt.Enabled = onboard.AllDevices
	}
	for _, name := range mx.Enable {
		d, ok := onboard.ParseDevice(name)
		if !ok {
			errs = append(errs, errors.NotValidf("config: multiplex.enable device=%s valid: hex, stripe, rgb", name))
			continue
		}
		opt.Enabled = opt.Enabled.With(d)
	}

	if cal, err := c.switchCalibration(); err != nil {
		errs = append(errs, err)
	} else {
		opt.Calibration = cal
	}
	return opt, helpers.FoldErrors(errs)
}

func (c *Config) switchCalibration() (onboard.SwitchCalibration, error) {
	cal := onboard.DefaultSwitchCalibration()
	sw := &c.Switches
	if len(sw.Thresholds) != 0 {
		if len(sw.Thresholds) != len(cal.Thresholds) {
			return cal, errors.NotValidf("config: switches.thresholds length=%d expected=3", len(sw.Thresholds))
		}
		for i, v := range sw.Thresholds {
			if v < 0 || v > pin.AnalogMax+1 {
				return cal, errors.NotValidf("config: switches.thresholds[%d]=%d", i, v)
			}
			cal.Thresholds[i] = uint16(v)
		}
	}
	if len(sw.Bands) != 0 {
		if len(sw.Bands) != len(cal.Bands) {
			return cal, errors.NotValidf("config: switches.bands length=%d expected=4", len(sw.Bands))
		}
		for i, name := range sw.Bands {
			s, ok := switchStateNames[name]
			if !ok {
				return cal, errors.NotValidf("config: switches.bands[%d]=%s valid: none, both, switch2, switch3", i, name)
			}
			cal.Bands[i] = s
		}
	}
	if !cal.Valid() {
		return cal, errors.NotValidf("config: switches.thresholds=%v must be ascending", cal.Thresholds)
	}
	return cal, nil
}

func (c *Config) CdevConfig() (*pin.CdevConfig, error) {
	hw := &c.Hardware
	cc := &pin.CdevConfig{
		Chip:         hw.PinChip,
		Lines:        make(map[pin.ID]uint32, len(hw.Lines)),
		PWM:          make(map[pin.ID]string, len(hw.PWM)),
		PWMFrequency: physic.Frequency(hw.PWMFrequencyHz) * physic.Hertz,
		ADC:          make(map[pin.ID]pin.ADC, len(hw.ADC)),
	}
	if cc.Chip == "" {
		return nil, errors.NotValidf("config: hardware.pin_chip empty")
	}
	errs := make([]error, 0)
	for _, x := range hw.Lines {
		id, err := parsePinName(x.Name)
		if err != nil || x.Offset < 0 {
			errs = append(errs, errors.NotValidf("config: hardware.line \"%s\" offset=%d", x.Name, x.Offset))
			continue
		}
		cc.Lines[id] = uint32(x.Offset)
	}
	for _, x := range hw.PWM {
		id, err := parsePinName(x.Name)
		if err != nil || x.Pin == "" {
			errs = append(errs, errors.NotValidf("config: hardware.pwm \"%s\" pin=%s", x.Name, x.Pin))
			continue
		}
		cc.PWM[id] = x.Pin
	}
	for _, x := range hw.ADC {
		id, err := parsePinName(x.Name)
		if err != nil || x.Bits < 0 || x.Bits > 16 {
			errs = append(errs, errors.NotValidf("config: hardware.adc \"%s\" bits=%d", x.Name, x.Bits))
			continue
		}
		cc.ADC[id] = pin.ADC{Path: x.Path, Bits: uint(x.Bits)}
	}
	return cc, helpers.FoldErrors(errs)
}

func parsePinID(v int) (pin.ID, error) {
	if v < 0 || v > 255 {
		return 0, errors.NotValidf("pin=%d", v)
	}
	return pin.ID(v), nil
}

func parsePinName(s string) (pin.ID, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.NotValidf("pin=%s", s)
	}
	return parsePinID(v)
}
