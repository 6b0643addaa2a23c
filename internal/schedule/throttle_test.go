package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fenggwsx/StartupMatch/internal/clock"
)

func TestThrottleAppliesImmediatelyAfterQuietPeriod(t *testing.T) {
	c := clock.NewFake(epoch)
	th := NewThrottle(0, 100*time.Millisecond, Options{Clock: c})

	c.Advance(150 * time.Millisecond)
	th.Set(1)
	assert.Equal(t, 1, th.Get())
}

func TestThrottleCatchUpKeepsFinalValue(t *testing.T) {
	c := clock.NewFake(epoch)
	th := NewThrottle(0, 100*time.Millisecond, Options{Clock: c})
	seen := recordValues[int](th)

	th.Set(1)
	c.Advance(10 * time.Millisecond)
	th.Set(2)
	c.Advance(10 * time.Millisecond)
	th.Set(3)
	assert.Empty(t, *seen)

	c.Advance(80 * time.Millisecond)
	assert.Equal(t, []int{3}, *seen)
	assert.Zero(t, c.Pending())
}

func TestThrottleCadence(t *testing.T) {
	c := clock.NewFake(epoch)
	limit := 100 * time.Millisecond
	th := NewThrottle(0, limit, Options{Clock: c})

	var at []time.Duration
	th.OnChange(func(int) { at = append(at, c.Now().Sub(epoch)) })

	total := 2 * time.Second
	step := 7 * time.Millisecond
	n := 0
	for elapsed := time.Duration(0); elapsed < total; elapsed += step {
		n++
		th.Set(n)
		c.Advance(step)
	}
	c.Advance(limit)

	maxOutputs := int((total+limit-1)/limit) + 1
	assert.LessOrEqual(t, len(at), maxOutputs)
	for i := 1; i < len(at); i++ {
		assert.GreaterOrEqual(t, at[i]-at[i-1], limit)
	}
	assert.Equal(t, n, th.Get(), "final input is never dropped")
}

func TestThrottleClose(t *testing.T) {
	c := clock.NewFake(epoch)
	th := NewThrottle("a", time.Second, Options{Clock: c})

	th.Set("b")
	th.Close()
	c.Advance(2 * time.Second)
	th.Set("c")
	assert.Equal(t, "a", th.Get())
}
