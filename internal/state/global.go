package state

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/onboard/hardware/onboard"
	"github.com/temoto/onboard/log2"
)

type Global struct {
	Alive        *alive.Alive
	BuildVersion string
	Config       *Config
	Hardware     hardware // hardware.go
	Log          *log2.Log

	_copy_guard sync.Mutex //nolint:unused
}

const ContextKey = "run/state-global"

func NewContext(log *log2.Log) (context.Context, *Global) {
	if log == nil {
		panic("code error NewContext() log=nil")
	}

	g := &Global{
		Alive:        alive.NewAlive(),
		BuildVersion: "unknown",
		Log:          log,
	}
	ctx := context.Background()
	ctx = context.WithValue(ctx, log2.ContextKey, log)
	ctx = context.WithValue(ctx, ContextKey, g)

	return ctx, g
}

func GetGlobal(ctx context.Context) *Global {
	v := ctx.Value(ContextKey)
	if v == nil {
		panic(fmt.Sprintf("context['%s'] is nil", ContextKey))
	}
	if g, ok := v.(*Global); ok {
		return g
	}
	panic(fmt.Sprintf("context['%s'] expected type *Global actual=%#v", ContextKey, v))
}

// If `Init` fails, consider `Global` is in broken state.
func (g *Global) Init(ctx context.Context, cfg *Config) error {
	g.Config = cfg

	g.Log.Infof("build version=%s", g.BuildVersion)
	if g.Config.Log.Debug {
		g.Log.SetLevel(log2.LDebug)
	}

	if g.Config.Hardware.Driver == "" {
		g.Config.Hardware.Driver = "mock"
		g.Log.Errorf("config: hardware.driver=empty changed=%s", g.Config.Hardware.Driver)
	}

	b, err := g.Board()
	if err != nil {
		return errors.Annotate(err, "board init")
	}
	if err := g.applyDisplay(b); err != nil {
		return err
	}
	g.Log.Debugf("board enabled=%s timing=%+v", b.Enabled(), b.Timing())
	return nil
}

func (g *Global) MustInit(ctx context.Context, cfg *Config) {
	err := g.Init(ctx, cfg)
	if err != nil {
		g.Fatal(err)
	}
}

func (g *Global) Error(err error, args ...interface{}) {
	if err != nil {
		if len(args) != 0 {
			msg := args[0].(string)
			args = args[1:]
			err = errors.Annotatef(err, msg, args...)
		}
		g.Log.Error(errors.ErrorStack(err))
	}
}

func (g *Global) Fatal(err error, args ...interface{}) {
	if err != nil {
		g.Error(err, args...)
		g.StopWait(5 * time.Second)
		g.Log.Fatal(err)
		os.Exit(1)
	}
}

// Stop signals tick loops to finish, see Alive.
func (g *Global) Stop() {
	g.Alive.Stop()
}

func (g *Global) StopWait(timeout time.Duration) bool {
	g.Alive.Stop()
	select {
	case <-g.Alive.WaitChan():
		return true
	case <-time.After(timeout):
		return false
	}
}

func (g *Global) applyDisplay(b *onboard.Board) error {
	d := &g.Config.Display

	if d.HexMode != "" {
		m, ok := onboard.ParseHexMode(d.HexMode)
		if !ok {
			return errors.NotValidf("config: display.hex_mode=%s valid: hex, decimal, char, scroll", d.HexMode)
		}
		b.SetHexMode(m)
		switch m {
		case onboard.ModeHex:
			if !b.WriteHex(d.Hex) {
				return errors.NotValidf("config: display.hex=%d range %d..%d", d.Hex, onboard.HexMin, onboard.HexMax)
			}
		case onboard.ModeDecimal:
			if !b.WriteInt(d.Hex) {
				return errors.NotValidf("config: display.hex=%d range %d..%d", d.Hex, onboard.DecimalMin, onboard.DecimalMax)
			}
		case onboard.ModeChar:
			if len(d.Char) != 1 {
				return errors.NotValidf("config: display.char='%s' expected one character", d.Char)
			}
			b.WriteChar(d.Char[0])
		case onboard.ModeScroll:
			b.WriteString(d.Text)
		}
	}

	if d.StripeMode != "" {
		m, ok := onboard.ParseStripeMode(d.StripeMode)
		if !ok {
			return errors.NotValidf("config: display.stripe_mode=%s valid: binary, progress", d.StripeMode)
		}
		ok = false
		switch m {
		case onboard.ModeBinary:
			ok = b.WriteBinary(d.Stripe)
		case onboard.ModeProgress:
			ok = b.WriteProgress(d.Stripe)
		}
		if !ok {
			return errors.NotValidf("config: display.stripe=%d for mode=%s", d.Stripe, m)
		}
	}

	if len(d.RGB) != 0 {
		if len(d.RGB) != 3 {
			return errors.NotValidf("config: display.rgb=%v expected [r, g, b]", d.RGB)
		}
		var c [3]uint8
		for i, v := range d.RGB {
			if v < 0 || v > 255 {
				return errors.NotValidf("config: display.rgb[%d]=%d", i, v)
			}
			c[i] = uint8(v)
		}
		b.SetRGB(c[0], c[1], c[2])
	}
	return nil
}
