// Package atomic_clock is wall time stamp written by one goroutine and watched by others.
package atomic_clock

import (
	"sync/atomic"
	"time"
)

// Clock zero value means "never".
type Clock struct{ v int64 }

func source() int64 { return time.Now().UnixNano() }

func (c *Clock) load() int64 { return atomic.LoadInt64(&c.v) }

func (c *Clock) IsZero() bool       { return c.load() == 0 }
func (c *Clock) Set(unixNano int64) { atomic.StoreInt64(&c.v, unixNano) }
func (c *Clock) SetNow()            { c.Set(source()) }
func (c *Clock) UnixNano() int64    { return c.load() }

// Stale reports whether stamp is older than limit. Zero clock is never stale.
func (c *Clock) Stale(limit time.Duration) bool {
	return !c.IsZero() && Since(c) > limit
}

func Now() *Clock {
	c := &Clock{}
	c.SetNow()
	return c
}

// Since returns 0 for zero clock.
func Since(begin *Clock) time.Duration {
	b := begin.load()
	if b == 0 {
		return 0
	}
	return time.Duration(source() - b)
}
