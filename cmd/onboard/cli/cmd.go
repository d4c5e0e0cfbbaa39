package cli

import (
	"context"
	"strings"
	"time"

	"github.com/c-bata/go-prompt"
	"github.com/juju/errors"
	"github.com/temoto/onboard/cmd/onboard/subcmd"
	"github.com/temoto/onboard/hardware/pin"
	"github.com/temoto/onboard/helpers/cli"
	"github.com/temoto/onboard/internal/console"
	"github.com/temoto/onboard/internal/state"
	"github.com/temoto/onboard/log2"
)

const modName = "cli"

var Mod = subcmd.Mod{Name: modName, Help: "interactive console, type help", Main: Main}

// Main runs command prompt. Hardware driver ticks in background,
// mock driver ticks only on `tick` command with simulated clock so state is easy to inspect.
func Main(ctx context.Context, config *state.Config) error {
	g := state.GetGlobal(ctx)
	var clock *pin.FakeClock
	if d := config.Hardware.Driver; d == "" || d == "mock" {
		clock = pin.NewFakeClock(time.Second)
		g.Hardware.Clock = clock
	}
	g.MustInit(ctx, config)

	b, err := g.Board()
	if err != nil {
		return errors.Annotate(err, "board")
	}
	con := console.New(b)
	pins, _ := g.Pins()
	if mock, ok := pins.(*pin.Mock); ok {
		mock.SetRecord(false)
		con.WithMock(mock, clock)
	} else {
		go g.WatchStall(b.LastTick(), g.Config.StallLimit())
		go g.TickLoop(b, g.Config.TickPeriod())
	}

	cli.MainLoop("onboard-"+modName, newExecutor(ctx, con), newCompleter(), g.Stop)
	g.Stop()
	g.Alive.Wait()
	return g.CloseHardware()
}

func newCompleter() func(d prompt.Document) []prompt.Suggest {
	names := console.Commands()
	suggests := make([]prompt.Suggest, 0, len(names))
	for _, name := range names {
		suggests = append(suggests, prompt.Suggest{Text: name})
	}

	return func(d prompt.Document) []prompt.Suggest {
		if strings.Contains(d.TextBeforeCursor(), " ") {
			return nil
		}
		return prompt.FilterHasPrefix(suggests, d.GetWordBeforeCursor(), true)
	}
}

func newExecutor(ctx context.Context, con *console.Console) func(string) {
	log := log2.ContextValueLogger(ctx)

	return func(line string) {
		out, err := con.Exec(line)
		if err != nil {
			log.Error(errors.ErrorStack(err))
			return
		}
		if out != "" {
			log.Infof("%s", out)
		}
	}
}
