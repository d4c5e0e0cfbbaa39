package state

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/temoto/onboard/hardware/pin"
	"github.com/temoto/onboard/log2"
)

func NewTestContext(t testing.TB, confString string) (context.Context, *Global) {
	fs := NewMockFullReader(map[string]string{
		"test-inline": confString,
	})

	var log *log2.Log
	if os.Getenv("onboard_test_log_stderr") == "1" {
		log = log2.NewStderr(log2.LDebug) // useful with panics
	} else {
		log = log2.NewTest(t, log2.LDebug)
	}
	log.SetFlags(log2.LTestFlags)
	ctx, g := NewContext(log)
	g.BuildVersion = "test"

	mock := pin.NewMock()
	clock := pin.NewFakeClock(time.Second)
	g.Hardware.Pins.p = mock
	g.Hardware.Clock = clock
	g.MustInit(ctx, MustReadConfig(log, fs, "test-inline"))

	ctx = context.WithValue(ctx, pin.MockContextKey, mock)
	ctx = context.WithValue(ctx, pin.ClockContextKey, clock)
	return ctx, g
}
