package run

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"
	"github.com/temoto/onboard/cmd/onboard/subcmd"
	"github.com/temoto/onboard/internal/state"
)

var Mod = subcmd.Mod{Name: "run", Help: "multiplex tick loop until SIGINT/SIGTERM", Main: Main}

func Main(ctx context.Context, config *state.Config) error {
	g := state.GetGlobal(ctx)
	g.MustInit(ctx, config)
	g.Log.Debugf("config=%+v", g.Config)

	b, err := g.Board()
	if err != nil {
		return errors.Annotate(err, "board")
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigs
		g.Log.Infof("signal=%v stopping", s)
		g.Stop()
	}()

	go g.WatchStall(b.LastTick(), g.Config.StallLimit())
	go g.TickLoop(b, g.Config.TickPeriod())

	subcmd.SdNotify(g.Log, daemon.SdNotifyReady)
	g.Log.Infof("board init complete enabled=%s, running", b.Enabled())

	g.Alive.Wait()
	subcmd.SdNotify(g.Log, daemon.SdNotifyStopping)
	return g.CloseHardware()
}
