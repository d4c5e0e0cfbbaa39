package state

import (
	"time"

	"github.com/juju/errors"
	"github.com/temoto/onboard/hardware/onboard"
	"github.com/temoto/onboard/helpers"
	"github.com/temoto/onboard/helpers/atomic_clock"
)

const DefaultTickPeriod = 500 * time.Microsecond

// TickLoop calls Board.Tick every period until Alive stops.
// Blocks, run in goroutine when needed.
func (g *Global) TickLoop(b *onboard.Board, period time.Duration) {
	if !g.Alive.Add(1) {
		return
	}
	defer g.Alive.Done()
	if period <= 0 {
		period = DefaultTickPeriod
	}

	stopch := g.Alive.StopChan()
	tmr := time.NewTicker(period)
	defer tmr.Stop()
	for {
		b.Tick()
		select {
		case <-stopch:
			return
		case <-tmr.C:
		}
	}
}

// WatchStall reports error once per stall when Board.Tick was not called for limit.
// Tick loop blocked on hardware or starved by scheduler shows as visible flicker.
func (g *Global) WatchStall(last *atomic_clock.Clock, limit time.Duration) {
	if limit <= 0 || !g.Alive.Add(1) {
		return
	}
	defer g.Alive.Done()

	stopch := g.Alive.StopChan()
	tmr := time.NewTicker(limit / 2)
	defer tmr.Stop()
	stalled := false
	for {
		select {
		case <-stopch:
			return
		case <-tmr.C:
		}
		stale := last.Stale(limit)
		switch {
		case stale && !stalled:
			stalled = true
			g.Error(errors.Errorf("board tick stalled for %v limit=%v", atomic_clock.Since(last), limit))
		case !stale && stalled:
			stalled = false
			g.Log.Infof("board tick resumed")
		}
	}
}

func (c *Config) TickPeriod() time.Duration {
	return helpers.IntMicrosecondDefault(c.Run.TickUs, DefaultTickPeriod)
}

// StallLimit 0 disables stall watchdog.
func (c *Config) StallLimit() time.Duration { return helpers.IntMillisecondDefault(c.Run.StallMs, 0) }
