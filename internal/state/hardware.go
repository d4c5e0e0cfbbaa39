package state

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/juju/errors"
	"github.com/temoto/onboard/hardware/onboard"
	"github.com/temoto/onboard/hardware/pin"
	"github.com/temoto/onboard/log2"
)

type hardware struct {
	Board struct {
		once
		b *onboard.Board
	}
	Pins struct {
		once
		p pin.Pins
	}
	// nil = system clock; set by NewTestContext
	Clock pin.Clock
}

func (g *Global) Pins() (pin.Pins, error) {
	x := &g.Hardware.Pins // short alias
	_ = x.do(func() error {
		if x.p != nil { // NewTestContext mode
			return nil
		}

		switch g.Config.Hardware.Driver {
		case "mock":
			x.p = pin.NewMock()

		case "cdev":
			cc, err := g.Config.CdevConfig()
			if err != nil {
				return err
			}
			log := g.Log.Clone(log2.LInfo)
			if g.Config.Log.Debug {
				log.SetLevel(log2.LDebug)
			}
			c, err := pin.OpenCdev(log, cc)
			if err != nil {
				return errors.Annotatef(err, "config: hardware.pin_chip=%s", cc.Chip)
			}
			x.p = c

		default:
			return fmt.Errorf("config: unknown hardware.driver=\"%s\" valid: cdev, mock", g.Config.Hardware.Driver)
		}
		return nil
	})
	return x.p, x.err
}

// Board is created and initialized once, pins direction set, all devices off.
func (g *Global) Board() (*onboard.Board, error) {
	x := &g.Hardware.Board // short alias
	_ = x.do(func() error {
		pins, err := g.Pins()
		if err != nil {
			return err
		}
		m, err := g.Config.PinMap()
		if err != nil {
			return err
		}
		opt, err := g.Config.Options()
		if err != nil {
			return err
		}
		clock := g.Hardware.Clock
		if clock == nil {
			clock = pin.NewSystemClock()
		}
		b, err := onboard.New(pins, clock, m, opt)
		if err != nil {
			return err
		}
		if err = b.Begin(); err != nil {
			return errors.Annotate(err, "board begin")
		}
		x.b = b
		return nil
	})
	return x.b, x.err
}

// CloseHardware turns all devices off and releases pins.
func (g *Global) CloseHardware() error {
	if g.Hardware.Board.done() && g.Hardware.Board.b != nil {
		g.Hardware.Board.b.Off()
	}
	if !g.Hardware.Pins.done() {
		return nil
	}
	if c, ok := g.Hardware.Pins.p.(*pin.Cdev); ok {
		if n, first := c.Errors(); n != 0 {
			g.Log.Errorf("pins failed operations=%d first=%v", n, first)
		}
	}
	if c, ok := g.Hardware.Pins.p.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

type once struct {
	sync.Mutex
	called uint32 // atomic bool
	err    error
}

func (o *once) done() bool {
	return atomic.LoadUint32(&o.called) == 1
}

func (o *once) do(f func() error) error {
	if o.done() { // fast path
		return o.err
	}
	o.Lock()
	defer o.Unlock()
	if o.done() {
		return o.err
	}
	o.err = f()
	atomic.StoreUint32(&o.called, 1)
	return o.err
}
