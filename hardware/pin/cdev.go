package pin

import (
	"io"
	"io/ioutil"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/juju/errors"
	gpio "github.com/temoto/gpio-cdev-go"
	"github.com/temoto/onboard/helpers"
	"github.com/temoto/onboard/log2"
	periph_gpio "periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/host"
)

const consumerLabel = "onboard"

const DefaultPWMFrequency = 490 * physic.Hertz

type ADC struct {
	// sysfs IIO raw value file, like /sys/bus/iio/devices/iio:device0/in_voltage0_raw
	Path string
	// converter resolution, 10 if zero
	Bits uint
}

type CdevConfig struct {
	Chip         string
	Lines        map[ID]uint32 // digital outputs, pin -> gpio line offset
	PWM          map[ID]string // pin -> periph pin name
	PWMFrequency physic.Frequency
	ADC          map[ID]ADC
}

type pwmOut interface {
	PWM(duty periph_gpio.Duty, f physic.Frequency) error
}

// Cdev drives digital lines through Linux GPIO character device,
// lamp channels through periph PWM pins and reads analog inputs from IIO sysfs.
// Write errors are logged and counted, the board loop never sees them.
type Cdev struct {
	log     *log2.Log
	chip    gpio.Chiper
	lines   gpio.Lineser
	set     map[ID]gpio.LineSetFunc
	pwm     map[ID]pwmOut
	pwmFreq physic.Frequency
	adc     map[ID]ADC
	errs    uint32
	first   helpers.AtomicError

	readFile func(path string) ([]byte, error)
}

func OpenCdev(log *log2.Log, c *CdevConfig) (*Cdev, error) {
	chip, err := gpio.Open(c.Chip, consumerLabel)
	if err != nil {
		return nil, errors.Annotatef(err, "gpio open chip=%s", c.Chip)
	}
	lookup := func(name string) (pwmOut, error) {
		if _, err := host.Init(); err != nil {
			return nil, errors.Annotate(err, "periph/init")
		}
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, errors.NotFoundf("periph pin=%s", name)
		}
		return p, nil
	}
	self, err := newCdev(log, chip, c, lookup)
	if err != nil {
		_ = chip.Close()
		return nil, err
	}
	return self, nil
}

func newCdev(log *log2.Log, chip gpio.Chiper, c *CdevConfig, lookup func(string) (pwmOut, error)) (*Cdev, error) {
	self := &Cdev{
		log:      log,
		chip:     chip,
		set:      make(map[ID]gpio.LineSetFunc, len(c.Lines)),
		pwm:      make(map[ID]pwmOut, len(c.PWM)),
		pwmFreq:  c.PWMFrequency,
		adc:      make(map[ID]ADC, len(c.ADC)),
		readFile: ioutil.ReadFile,
	}
	if self.pwmFreq == 0 {
		self.pwmFreq = DefaultPWMFrequency
	}

	ids := make([]ID, 0, len(c.Lines))
	for id := range c.Lines {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	offsets := make([]uint32, len(ids))
	for i, id := range ids {
		offsets[i] = c.Lines[id]
	}
	if len(offsets) != 0 {
		var err error
		self.lines, err = chip.OpenLines(gpio.GPIOHANDLE_REQUEST_OUTPUT, consumerLabel, offsets...)
		if err != nil {
			return nil, errors.Annotatef(err, "gpio open lines=%v", offsets)
		}
		for i, id := range ids {
			self.set[id] = self.lines.SetFunc(offsets[i])
		}
	}

	for id, name := range c.PWM {
		p, err := lookup(name)
		if err != nil {
			return nil, errors.Annotatef(err, "pwm pin=%d", id)
		}
		self.pwm[id] = p
	}
	for id, a := range c.ADC {
		if a.Path == "" {
			return nil, errors.NotValidf("adc pin=%d path empty", id)
		}
		if a.Bits == 0 {
			a.Bits = 10
		}
		self.adc[id] = a
	}
	return self, nil
}

func (self *Cdev) Configure(id ID, mode Mode) error {
	switch mode {
	case Output:
		if _, ok := self.set[id]; ok {
			return nil
		}
		if _, ok := self.pwm[id]; ok {
			return nil
		}
		return errors.NotFoundf("output pin=%d has no gpio line or pwm mapping", id)
	case Input:
		if _, ok := self.adc[id]; ok {
			return nil
		}
		return errors.NotFoundf("input pin=%d has no adc mapping", id)
	}
	return errors.NotValidf("pin=%d mode=%s", id, mode)
}

func (self *Cdev) WriteDigital(id ID, level Level) {
	f, ok := self.set[id]
	if !ok {
		self.log.Debugf("cdev write unmapped pin=%d", id)
		return
	}
	f(byte(level))
	if err := self.lines.Flush(); err != nil {
		self.fail(errors.Annotatef(err, "gpio flush pin=%d", id))
	}
}

// WriteAnalog on a pin without PWM falls back to digital: duty>=128 is High.
func (self *Cdev) WriteAnalog(id ID, duty uint8) {
	p, ok := self.pwm[id]
	if !ok {
		level := Low
		if duty >= 128 {
			level = High
		}
		self.WriteDigital(id, level)
		return
	}
	d := periph_gpio.Duty(int64(periph_gpio.DutyMax) * int64(duty) / 255)
	if err := p.PWM(d, self.pwmFreq); err != nil {
		self.fail(errors.Annotatef(err, "pwm pin=%d duty=%d", id, duty))
	}
}

func (self *Cdev) ReadAnalog(id ID) uint16 {
	a, ok := self.adc[id]
	if !ok {
		self.log.Debugf("cdev read unmapped pin=%d", id)
		return 0
	}
	b, err := self.readFile(a.Path)
	if err != nil {
		self.fail(errors.Annotatef(err, "adc pin=%d", id))
		return 0
	}
	raw, err := strconv.ParseUint(strings.TrimSpace(string(b)), 10, 32)
	if err != nil {
		self.fail(errors.Annotatef(err, "adc pin=%d parse", id))
		return 0
	}
	return scaleADC(raw, a.Bits)
}

// Errors returns number of failed hardware operations since open and the first failure.
func (self *Cdev) Errors() (uint32, error) {
	err, _ := self.first.Load()
	return atomic.LoadUint32(&self.errs), err
}

func (self *Cdev) Close() error {
	closers := []io.Closer{self.lines, self.chip}
	errs := make([]error, 0, len(closers))
	for _, c := range closers {
		if c != nil {
			errs = append(errs, c.Close())
		}
	}
	return helpers.FoldErrors(errs)
}

// fail logs first error, repeats go to debug so a broken line does not flood the log every tick.
func (self *Cdev) fail(err error) {
	atomic.AddUint32(&self.errs, 1)
	if _, seen := self.first.StoreOnce(err); seen {
		self.log.Debug(err)
		return
	}
	self.log.Error(err)
}

func scaleADC(raw uint64, bits uint) uint16 {
	switch {
	case bits > 10:
		raw >>= bits - 10
	case bits < 10:
		raw <<= 10 - bits
	}
	if raw > AnalogMax {
		raw = AnalogMax
	}
	return uint16(raw)
}
