package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fenggwsx/StartupMatch/internal/clock"
)

func TestFuncInvokesOnceWithLatestArgs(t *testing.T) {
	c := clock.NewFake(epoch)
	var calls []string
	f := NewFunc(func(q string) { calls = append(calls, q) }, 200*time.Millisecond, Options{Clock: c})

	f.Call("s")
	c.Advance(100 * time.Millisecond)
	f.Call("st")
	c.Advance(100 * time.Millisecond)
	f.Call("sta")
	assert.Empty(t, calls)
	assert.True(t, f.Pending())

	c.Advance(200 * time.Millisecond)
	assert.Equal(t, []string{"sta"}, calls)
	assert.False(t, f.Pending())
}

func TestFuncUsesLatestCallback(t *testing.T) {
	c := clock.NewFake(epoch)
	var first, second int
	f := NewFunc(func(n int) { first += n }, 50*time.Millisecond, Options{Clock: c})

	f.Call(1)
	f.SetCallback(func(n int) { second += n })
	c.Advance(50 * time.Millisecond)

	assert.Zero(t, first)
	assert.Equal(t, 1, second)
}

func TestFuncLeadingAndTrailing(t *testing.T) {
	c := clock.NewFake(epoch)
	var calls []int
	f := NewFunc(func(n int) { calls = append(calls, n) }, 100*time.Millisecond, Options{Clock: c, Leading: true})

	f.Call(1)
	assert.Equal(t, []int{1}, calls)

	c.Advance(100 * time.Millisecond)
	assert.Equal(t, []int{1}, calls, "no trailing call without further input")

	f.Call(2)
	f.Call(3)
	f.Call(4)
	c.Advance(100 * time.Millisecond)
	assert.Equal(t, []int{1, 2, 4}, calls)
}

func TestFuncMaxWait(t *testing.T) {
	c := clock.NewFake(epoch)
	var calls []int
	f := NewFunc(func(n int) { calls = append(calls, n) }, 100*time.Millisecond,
		Options{Clock: c, MaxWait: 300 * time.Millisecond})

	for i := 1; i <= 8; i++ {
		f.Call(i)
		c.Advance(50 * time.Millisecond)
	}
	// The 300ms deadline hits while the call made at 250ms is pending.
	assert.Equal(t, []int{6}, calls)

	c.Advance(time.Second)
	assert.Equal(t, []int{6, 8}, calls)
}

func TestFuncFlushCancelClose(t *testing.T) {
	c := clock.NewFake(epoch)
	var calls []int
	f := NewFunc(func(n int) { calls = append(calls, n) }, time.Second, Options{Clock: c})

	f.Call(1)
	f.Flush()
	assert.Equal(t, []int{1}, calls)

	f.Flush()
	assert.Equal(t, []int{1}, calls, "flush without pending call is a no-op")

	f.Call(2)
	f.Cancel()
	c.Advance(2 * time.Second)
	assert.Equal(t, []int{1}, calls)

	f.Call(3)
	f.Close()
	c.Advance(2 * time.Second)
	f.Call(4)
	c.Advance(2 * time.Second)
	assert.Equal(t, []int{1}, calls)
}
