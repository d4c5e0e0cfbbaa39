package log2

import (
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"log"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLog2(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		fun  func(t testing.TB, l *Log) string
	}{
		{"caller/debug", func(t testing.TB, l *Log) string {
			l.SetFlags(log.Lshortfile)
			l.Debugf("tick slot=%d", 2)
			return formatCallerShort(1) + "debug: tick slot=2\n"
		}},
		{"caller/info", func(t testing.TB, l *Log) string {
			l.SetFlags(log.Lshortfile)
			l.Infof("enabled=%s", "hex")
			return formatCallerShort(1) + "enabled=hex\n"
		}},
		{"caller/error", func(t testing.TB, l *Log) string {
			l.SetFlags(log.Lshortfile)
			l.Errorf("flush")
			return formatCallerShort(1) + "error: flush\n"
		}},
		{"error/value", func(t testing.TB, l *Log) string {
			l.SetFlags(0)
			l.Error(fmt.Errorf("line 12 is busy"))
			return "error: line 12 is busy\n"
		}},
		{"fatal/test", func(t testing.TB, l *Log) string {
			if l == nil { // nil logger exits process
				return ""
			}
			var got string
			l.fatalf = func(format string, args ...interface{}) { got = fmt.Sprintf(format, args...) }
			l.Fatal("pin chip gone")
			assert.Equal(t, "pin chip gone", got)
			return ""
		}},
		{"context", func(t testing.TB, l *Log) string {
			ctx := context.WithValue(context.Background(), ContextKey, l)
			if l != nil {
				assert.Equal(t, l, ContextValueLogger(ctx))
			}
			assert.Panics(t, func() { ContextValueLogger(context.Background()) })
			return ""
		}},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name+"/logger=nil", func(t *testing.T) {
			c.fun(t, nil)
		})
		t.Run(c.name, func(t *testing.T) {
			buf := bytes.NewBuffer(nil)
			l := NewWriter(buf, LAll)
			expect := c.fun(t, l)
			assert.Equal(t, expect, buf.String())
		})
	}
}

func TestLevel(t *testing.T) {
	t.Parallel()

	buf := bytes.NewBuffer(nil)
	l := NewWriter(buf, LInfo)
	l.SetFlags(0)
	l.Debugf("hidden")
	l.Infof("shown")
	assert.Equal(t, "shown\n", buf.String())

	l.SetLevel(LDebug)
	assert.True(t, l.Enabled(LDebug))
	c := l.Clone(LError)
	assert.False(t, c.Enabled(LInfo))
	assert.Nil(t, NewWriter(ioutil.Discard, LAll))
}

func callerShort(depth int) (file string, line int) {
	var ok bool
	_, file, line, ok = runtime.Caller(depth)
	if !ok {
		file = "???"
		line = 0
	}

	short := file
	for i := len(file) - 1; i > 0; i-- {
		if file[i] == '/' {
			short = file[i+1:]
			break
		}
	}
	file = short

	return
}

func formatCallerShort(depth int) string {
	file, line := callerShort(depth + 1)
	return fmt.Sprintf("%s:%d: ", file, line-1)
}
