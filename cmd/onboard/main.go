package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/juju/errors"
	"github.com/temoto/onboard/cmd/onboard/cli"
	"github.com/temoto/onboard/cmd/onboard/run"
	"github.com/temoto/onboard/cmd/onboard/subcmd"
	"github.com/temoto/onboard/internal/state"
	"github.com/temoto/onboard/log2"
)

var BuildVersion string = "unknown" // set by ldflags -X

var modules = []subcmd.Mod{
	run.Mod,
	cli.Mod,
}

func main() {
	log := log2.NewStderr(log2.LDebug)
	log.SetFlags(log2.LInteractiveFlags)

	flagset := flag.NewFlagSet("onboard", flag.ContinueOnError)
	configPath := flagset.String("config", "onboard.hcl", "")
	flagset.Usage = func() {
		fmt.Fprintf(flagset.Output(), "Usage: onboard [-config=onboard.hcl] command\nCommands (default run):\n")
		subcmd.Usage(flagset.Output(), modules)
		flagset.PrintDefaults()
	}
	if err := flagset.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		log.Fatal(err)
	}

	command := flagset.Arg(0)
	if command == "" {
		command = run.Mod.Name
	}
	mod, err := subcmd.Parse(command, modules)
	if err != nil {
		log.Fatal(err)
	}

	if subcmd.SdNotify(log, "start") {
		// we're under systemd, assume systemd journal logging, remove timestamp
		log.SetFlags(log2.LServiceFlags)
	}
	log.Infof("onboard %s", mod.Name)

	ctx, g := state.NewContext(log)
	g.BuildVersion = BuildVersion
	config := state.MustReadConfig(log, state.NewOsFullReader(), *configPath)
	if err := mod.Main(ctx, config); err != nil {
		g.Fatal(errors.Annotatef(err, "command=%s", mod.Name))
	}
}
