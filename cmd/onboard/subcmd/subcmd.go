// Package subcmd dispatches `onboard <command>` to run and cli modes.
package subcmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"
	"github.com/temoto/onboard/internal/state"
	"github.com/temoto/onboard/log2"
)

// Mod is one mode of the board process, Main owns the process until it returns.
type Mod struct {
	Name string
	Help string
	Main func(context.Context, *state.Config) error
}

func Parse(command string, modules []Mod) (*Mod, error) {
	if command == "" {
		return nil, errors.NotValidf("empty command")
	}
	for i := range modules {
		m := &modules[i]
		if m.Name == "" || m.Main == nil {
			panic(fmt.Sprintf("code error incomplete module=%#v", m))
		}
		if command == m.Name {
			return m, nil
		}
	}
	return nil, errors.NotFoundf("command=%s valid: %s", command, Names(modules))
}

func Names(modules []Mod) string {
	names := make([]string, len(modules))
	for i, m := range modules {
		names[i] = m.Name
	}
	return strings.Join(names, ", ")
}

// Usage writes one line per module.
func Usage(w io.Writer, modules []Mod) {
	for _, m := range modules {
		fmt.Fprintf(w, "  %-6s %s\n", m.Name, m.Help)
	}
}

// SdNotify reports whether process runs under systemd.
// Notify failure is logged, board keeps running without supervisor.
func SdNotify(log *log2.Log, s string) bool {
	ok, err := daemon.SdNotify(false, s)
	if err != nil {
		log.Errorf("sdnotify state=%s err=%v", s, err)
		return false
	}
	return ok
}
