package memo

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenggwsx/StartupMatch/internal/clock"
	"github.com/fenggwsx/StartupMatch/internal/equal"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type filter struct {
	Query  string
	Skills []string
}

func TestMemoRecomputesOnlyOnDependencyChange(t *testing.T) {
	source := []string{"go api", "react app", "go cli"}
	var f filter
	m := New(func() []string {
		var out []string
		for _, s := range source {
			if strings.Contains(s, f.Query) {
				out = append(out, s)
			}
		}
		return out
	})

	f = filter{Query: "go", Skills: []string{"backend"}}
	first := m.Get(f)
	assert.Equal(t, []string{"go api", "go cli"}, first)

	// Structurally equal dependencies hit the cache and keep identity.
	second := m.Get(filter{Query: "go", Skills: []string{"backend"}})
	assert.True(t, equal.Ref(first, second))
	assert.Equal(t, 1, m.Computes())

	f = filter{Query: "react"}
	third := m.Get(f)
	assert.Equal(t, []string{"react app"}, third)
	assert.Equal(t, 2, m.Computes())
}

func TestMemoDependencyLengthChangeRecomputes(t *testing.T) {
	n := 0
	m := New(func() int { n++; return n })

	assert.Equal(t, 1, m.Get("a"))
	assert.Equal(t, 1, m.Get("a"))
	assert.Equal(t, 2, m.Get("a", "b"))
	assert.Equal(t, 3, m.Get("a"))
	assert.Equal(t, 4, m.Get())
	assert.Equal(t, 4, m.Get())
}

func TestMemoCustomEquality(t *testing.T) {
	n := 0
	caseInsensitive := func(a, b any) bool {
		prev, next := a.([]any), b.([]any)
		return strings.EqualFold(prev[0].(string), next[0].(string))
	}
	m := New(func() int { n++; return n }, WithEqual(caseInsensitive))

	m.Get("Go")
	m.Get("GO")
	m.Get("go")
	assert.Equal(t, 1, m.Computes())
	m.Get("rust")
	assert.Equal(t, 2, m.Computes())
}

func TestMemoTTL(t *testing.T) {
	c := clock.NewFake(epoch)
	n := 0
	m := New(func() int { n++; return n }, WithTTL(time.Minute), WithClock(c))

	assert.Equal(t, 1, m.Get("k"))
	c.Advance(59 * time.Second)
	assert.Equal(t, 1, m.Get("k"))
	c.Advance(time.Second)
	assert.Equal(t, 2, m.Get("k"), "expired entry is recomputed")
	assert.Equal(t, 2, m.Get("k"))
}

func TestMemoTTLWindowHoldsAcrossDependencyChange(t *testing.T) {
	c := clock.NewFake(epoch)
	n := 0
	m := New(func() int { n++; return n }, WithTTL(time.Minute), WithClock(c))

	assert.Equal(t, 1, m.Get("a"))
	c.Advance(10 * time.Second)
	assert.Equal(t, 1, m.Get("b"), "deps changed inside the window")
	assert.Equal(t, 1, m.Computes())

	c.Advance(50 * time.Second)
	assert.Equal(t, 2, m.Get("b"))
	assert.Equal(t, 2, m.Computes())
}

func TestMemoShallowEqualityKeepsSliceDeps(t *testing.T) {
	n := 0
	m := New(func() int { n++; return n }, WithEqual(equal.Shallow))
	deps := []string{"go", "rust"}

	for range 3 {
		assert.Equal(t, 1, m.Get(deps))
	}
	assert.Equal(t, 1, m.Computes())

	assert.Equal(t, 2, m.Get([]string{"go", "rust"}), "a copy is a different slice")
}

func TestMemoInvalidate(t *testing.T) {
	n := 0
	m := New(func() int { n++; return n })
	m.Get(1)
	m.Invalidate()
	assert.Equal(t, 2, m.Get(1))
}

func TestHandleKeepsIdentityAndSwapsOnDependencyChange(t *testing.T) {
	h := NewHandle(func(s string) string { return "v1:" + s }, []any{1})
	fn := h.Func()

	assert.Equal(t, "v1:x", fn("x"))

	assert.False(t, h.Update(func(s string) string { return "ignored:" + s }, 1))
	assert.Equal(t, "v1:x", fn("x"))

	assert.True(t, h.Update(func(s string) string { return "v2:" + s }, 2))
	assert.Equal(t, "v2:x", fn("x"), "the old wrapper reaches the new implementation")
	assert.Equal(t, "v2:y", h.Call("y"))
}

func TestLazyComputesOnceWhenReady(t *testing.T) {
	calls := 0
	l := NewLazy(func() string { calls++; return "expensive" })

	v, ok := l.Get(false)
	assert.False(t, ok)
	assert.Empty(t, v)
	assert.Zero(t, calls)

	v, ok = l.Get(true)
	require.True(t, ok)
	assert.Equal(t, "expensive", v)

	v, ok = l.Get(false)
	assert.True(t, ok)
	assert.Equal(t, "expensive", v)
	l.Get(true)
	assert.Equal(t, 1, calls)
}

func TestKeyedCachesPerKey(t *testing.T) {
	k := NewKeyed[string, int](0, 10)
	defer k.Close()

	calls := 0
	compute := func(n int) func() int {
		return func() int { calls++; return n }
	}

	assert.Equal(t, 1, k.GetOrCompute("a", compute(1)))
	assert.Equal(t, 1, k.GetOrCompute("a", compute(99)))
	assert.Equal(t, 2, k.GetOrCompute("b", compute(2)))
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, k.Len())

	k.Invalidate()
	assert.Zero(t, k.Len())
	assert.Equal(t, 3, k.GetOrCompute("a", compute(3)))
}

func TestKeyedCapacityEvicts(t *testing.T) {
	k := NewKeyed[int, int](0, 2)
	defer k.Close()

	for i := 0; i < 5; i++ {
		k.GetOrCompute(i, func() int { return i })
	}
	assert.Equal(t, 2, k.Len())

	recomputed := false
	assert.Equal(t, 4, k.GetOrCompute(4, func() int { recomputed = true; return -1 }))
	assert.False(t, recomputed, "most recent entry survives eviction")
	assert.Equal(t, 2, k.Stats().Items)
}
