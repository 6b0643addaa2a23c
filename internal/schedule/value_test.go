package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenggwsx/StartupMatch/internal/clock"
	"github.com/fenggwsx/StartupMatch/internal/equal"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func recordValues[T any](v interface{ OnChange(func(T)) }) *[]T {
	var seen []T
	v.OnChange(func(x T) { seen = append(seen, x) })
	return &seen
}

func TestValueLastWriteWinsInQuietWindow(t *testing.T) {
	c := clock.NewFake(epoch)
	v := NewValue("", 300*time.Millisecond, Options{Clock: c})
	seen := recordValues[string](v)

	for _, q := range []string{"g", "go", "gol", "gola", "golang"} {
		v.Set(q)
		c.Advance(50 * time.Millisecond)
	}
	assert.Empty(t, *seen)
	assert.Equal(t, "", v.Get())
	assert.True(t, v.Pending())

	// 50ms already elapsed since the last Set.
	c.Advance(249 * time.Millisecond)
	assert.Empty(t, *seen)

	c.Advance(time.Millisecond)
	assert.Equal(t, []string{"golang"}, *seen)
	assert.Equal(t, "golang", v.Get())
	assert.False(t, v.Pending())
}

func TestValueIgnoresEqualInput(t *testing.T) {
	c := clock.NewFake(epoch)
	v := NewValue([]string{"go"}, 100*time.Millisecond, Options{Clock: c, Equal: equal.Deep})

	v.Set([]string{"go"})
	assert.False(t, v.Pending())
	assert.Zero(t, c.Pending())
}

func TestValueLeadingEdge(t *testing.T) {
	c := clock.NewFake(epoch)
	v := NewValue(0, 100*time.Millisecond, Options{Clock: c, Leading: true})
	seen := recordValues[int](v)

	v.Set(1)
	assert.Equal(t, []int{1}, *seen, "first change applies immediately")

	v.Set(2)
	v.Set(3)
	assert.Equal(t, []int{1}, *seen, "changes while a timer is pending wait")

	c.Advance(100 * time.Millisecond)
	assert.Equal(t, []int{1, 3}, *seen)

	v.Set(4)
	assert.Equal(t, []int{1, 3, 4}, *seen, "leading edge re-arms once idle")
}

func TestValueLeadingSingleChangeNotifiesOnce(t *testing.T) {
	c := clock.NewFake(epoch)
	v := NewValue(0, 100*time.Millisecond, Options{Clock: c, Leading: true})
	seen := recordValues[int](v)

	v.Set(7)
	c.Advance(time.Second)
	assert.Equal(t, []int{7}, *seen)
}

func TestValueMaxWaitBound(t *testing.T) {
	c := clock.NewFake(epoch)
	delay := 100 * time.Millisecond
	v := NewValue(0, delay, Options{Clock: c, MaxWait: 250 * time.Millisecond})

	var at []time.Duration
	v.OnChange(func(int) { at = append(at, c.Now().Sub(epoch)) })

	// Continuous input every delay/2 never lets the trailing timer fire.
	for i := 1; i <= 20; i++ {
		v.Set(i)
		c.Advance(delay / 2)
	}

	require.NotEmpty(t, at)
	assert.Equal(t, 250*time.Millisecond, at[0])
	prev := time.Duration(0)
	for _, ts := range at {
		assert.LessOrEqual(t, ts-prev, 250*time.Millisecond+delay/2)
		prev = ts
	}
	assert.GreaterOrEqual(t, len(at), 3)
}

func TestValueFlushAndCancel(t *testing.T) {
	c := clock.NewFake(epoch)
	v := NewValue("a", time.Second, Options{Clock: c})

	v.Set("b")
	v.Flush()
	assert.Equal(t, "b", v.Get())
	assert.False(t, v.Pending())

	v.Set("c")
	v.Cancel()
	c.Advance(2 * time.Second)
	assert.Equal(t, "b", v.Get())

	// The cancelled input counts as new again.
	v.Set("c")
	assert.True(t, v.Pending())
}

func TestValueCloseMakesTimersInert(t *testing.T) {
	c := clock.NewFake(epoch)
	v := NewValue(0, 100*time.Millisecond, Options{Clock: c, MaxWait: 150 * time.Millisecond})
	seen := recordValues[int](v)

	v.Set(1)
	v.Close()
	c.Advance(time.Second)
	v.Set(2)
	c.Advance(time.Second)

	assert.Empty(t, *seen)
	assert.Equal(t, 0, v.Get())
}

func TestValueStaleTimerIsNoop(t *testing.T) {
	// A real timer can fire after Stop lost the race; its token is stale.
	c := clock.NewFake(epoch)
	v := NewValue(0, 100*time.Millisecond, Options{Clock: c})
	seen := recordValues[int](v)

	v.Set(1)
	stale := v.timers.trailingToken
	v.Set(2)
	v.fireTrailing(stale)
	assert.Empty(t, *seen)

	c.Advance(100 * time.Millisecond)
	assert.Equal(t, []int{2}, *seen)
}
