// Package coarsetime trades time.Now() precision for speed: a single
// goroutine refreshes the current time every 50ms and Now reads it
// without a syscall. Good enough for connection lastUsed bookkeeping.
package coarsetime

import (
	"sync/atomic"
	"time"
)

const tick = 50 * time.Millisecond

var now atomic.Value

func init() {
	now.Store(time.Now())

	ticker := time.NewTicker(tick)
	go func() {
		for range ticker.C {
			now.Store(time.Now())
		}
	}()
}

func Now() time.Time {
	return now.Load().(time.Time)
}
