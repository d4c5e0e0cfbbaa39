// Package cli runs line based command loop: go-prompt on terminal, plain lines from pipe.
package cli

import (
	"bufio"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/c-bata/go-prompt"
	"github.com/mattn/go-isatty"
)

// MainLoop returns on EOF after calling interrupt. Signal calls interrupt and exits process.
func MainLoop(tag string, exec func(line string), complete func(d prompt.Document) []prompt.Suggest, interrupt func()) {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)
	defer signal.Stop(signalCh)
	go func() {
		for range signalCh {
			if interrupt != nil {
				interrupt()
			}
			os.Exit(1)
		}
	}()

	if isatty.IsTerminal(os.Stdin.Fd()) {
		prompt.New(exec, complete,
			prompt.OptionTitle(tag),
			prompt.OptionPrefix(tag+"> "),
		).Run()
	} else {
		ReadLines(os.Stdin, exec)
	}
	if interrupt != nil {
		interrupt()
	}
}

// ReadLines feeds every line to exec until EOF.
func ReadLines(r io.Reader, exec func(line string)) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		exec(scanner.Text())
	}
}
