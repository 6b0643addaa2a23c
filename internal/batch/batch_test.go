package batch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenggwsx/StartupMatch/internal/clock"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestBatcherAppliesUpdatesInOrderWithOneNotification(t *testing.T) {
	c := clock.NewFake(epoch)
	b := New([]string{}, Options{Clock: c})

	var notified [][]string
	b.OnFlush(func(s []string) { notified = append(notified, s) })

	push := func(v string) func([]string) []string {
		return func(s []string) []string { return append(append([]string(nil), s...), v) }
	}
	b.Update(push("f1"))
	b.Update(push("f2"))
	b.Update(push("f3"))
	assert.Empty(t, b.State(), "nothing applied before the window closes")
	assert.Equal(t, 3, b.Queued())

	c.Advance(DefaultWindow)

	require.Len(t, notified, 1)
	assert.Equal(t, []string{"f1", "f2", "f3"}, notified[0])
	assert.Equal(t, []string{"f1", "f2", "f3"}, b.State())
	assert.Equal(t, 1, b.Flushes())
}

func TestBatcherComposesFunctionsAndValues(t *testing.T) {
	c := clock.NewFake(epoch)
	b := New(1, Options{Clock: c, Window: 10 * time.Millisecond})

	b.Update(func(n int) int { return n + 1 })
	b.Update(func(n int) int { return n * 10 })
	b.Set(7)
	b.Update(func(n int) int { return n - 2 })

	c.Advance(10 * time.Millisecond)
	assert.Equal(t, 5, b.State())
}

func TestBatcherSeparateWindowsSeparateFlushes(t *testing.T) {
	c := clock.NewFake(epoch)
	b := New(0, Options{Clock: c})
	count := 0
	b.OnFlush(func(int) { count++ })

	b.Update(func(n int) int { return n + 1 })
	c.Advance(DefaultWindow)
	b.Update(func(n int) int { return n + 1 })
	b.Update(func(n int) int { return n + 1 })
	c.Advance(DefaultWindow)

	assert.Equal(t, 3, b.State())
	assert.Equal(t, 2, count)

	c.Advance(time.Second)
	assert.Equal(t, 2, count, "empty windows do not notify")
}

func TestBatcherCloseFlushesPending(t *testing.T) {
	c := clock.NewFake(epoch)
	b := New(0, Options{Clock: c})
	count := 0
	b.OnFlush(func(int) { count++ })

	b.Update(func(n int) int { return n + 5 })
	b.Close()
	assert.Equal(t, 5, b.State())
	assert.Equal(t, 1, count)

	b.Update(func(n int) int { return n + 5 })
	c.Advance(time.Second)
	assert.Equal(t, 5, b.State())
	assert.Equal(t, 1, count)
}

func TestBatcherUpdateDuringFlushLandsInNextBatch(t *testing.T) {
	c := clock.NewFake(epoch)
	b := New(0, Options{Clock: c})
	b.OnFlush(func(n int) {
		if n == 1 {
			b.Update(func(n int) int { return n + 100 })
		}
	})

	b.Update(func(n int) int { return n + 1 })
	c.Advance(DefaultWindow)
	assert.Equal(t, 1, b.State())

	c.Advance(DefaultWindow)
	assert.Equal(t, 101, b.State())
}
