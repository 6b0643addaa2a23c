// Package schedule turns rapidly changing inputs into controlled updates:
// debounced values, debounced callbacks and throttled values.
//
// Every primitive owns its timers. Timers that fire after Close, or after a
// newer timer replaced them, are ignored.
package schedule

import (
	"time"

	"github.com/fenggwsx/StartupMatch/internal/clock"
	"github.com/fenggwsx/StartupMatch/internal/equal"
)

// Options tunes a scheduler.
type Options struct {
	// Leading applies the first change immediately when no timer is pending.
	// Ignored by Throttle.
	Leading bool
	// MaxWait bounds how long the output may lag behind the input. Zero
	// disables the bound. Ignored by Throttle.
	MaxWait time.Duration
	// Equal decides whether a new input counts as a change. Defaults to
	// equal.Ref. Ignored by Func.
	Equal equal.Func
	// Clock defaults to the wall clock.
	Clock clock.Clock
}

func (o Options) equal() equal.Func {
	if o.Equal == nil {
		return equal.Ref
	}
	return o.Equal
}

// timerSet holds the trailing and max-wait timers of a debouncer together
// with the tokens that identify the live ones.
type timerSet struct {
	seq           uint64
	trailing      clock.Timer
	trailingToken uint64
	maxWait       clock.Timer
	maxToken      uint64
}

func (ts *timerSet) pending() bool {
	return ts.trailing != nil
}

func (ts *timerSet) armTrailing(c clock.Clock, d time.Duration, fire func(token uint64)) {
	if ts.trailing != nil {
		ts.trailing.Stop()
	}
	ts.seq++
	token := ts.seq
	ts.trailingToken = token
	ts.trailing = c.AfterFunc(d, func() { fire(token) })
}

func (ts *timerSet) armMaxWait(c clock.Clock, d time.Duration, fire func(token uint64)) {
	if d <= 0 || ts.maxWait != nil {
		return
	}
	ts.seq++
	token := ts.seq
	ts.maxToken = token
	ts.maxWait = c.AfterFunc(d, func() { fire(token) })
}

func (ts *timerSet) clear() {
	if ts.trailing != nil {
		ts.trailing.Stop()
		ts.trailing = nil
	}
	if ts.maxWait != nil {
		ts.maxWait.Stop()
		ts.maxWait = nil
	}
	ts.trailingToken = 0
	ts.maxToken = 0
}
