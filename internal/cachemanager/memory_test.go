package cachemanager

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type contentKey string

type markers struct {
	Lines []int
}

func TestMemory_HitAndMiss(t *testing.T) {
	c := NewMemory[contentKey, markers]("markers", time.Minute, time.Minute)
	want := markers{Lines: []int{1, 3}}
	c.Set("person.yaml:abc", want)

	got, ok := c.Get("person.yaml:abc")
	require.True(t, ok)
	require.Equal(t, want, got)

	_, ok = c.Get("person.yaml:def")
	require.False(t, ok)

	require.Equal(t, Stats{Hits: 1, Misses: 1, Entries: 1}, c.Stats())
	require.InDelta(t, 0.5, c.Stats().HitRate(), 1e-9)
}

func TestMemory_WrongTypeIsEvicted(t *testing.T) {
	c := NewMemory[string, string]("markers", time.Minute, time.Minute)
	c.store.SetDefault("k", 123)

	got, ok := c.Get("k")
	require.False(t, ok)
	require.Empty(t, got)
	require.Equal(t, 0, c.Stats().Entries)
}

func TestMemory_Expiry(t *testing.T) {
	c := NewMemory[string, string]("markers", 10*time.Millisecond, time.Minute)
	c.Set("k", "v")

	require.Eventually(t, func() bool {
		_, ok := c.Get("k")
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestMemory_ZeroTTLNeverExpires(t *testing.T) {
	c := NewMemory[string, string]("markers", 0, time.Minute)
	c.Set("k", "v")

	time.Sleep(20 * time.Millisecond)
	got, ok := c.Get("k")
	require.True(t, ok)
	require.Equal(t, "v", got)
}

func TestMemory_DeleteAndFlush(t *testing.T) {
	c := NewMemory[string, string]("markers", time.Minute, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")

	c.Delete("a")
	_, ok := c.Get("a")
	require.False(t, ok)

	c.Flush()
	require.Equal(t, Stats{}, c.Stats())
}

func TestStats_HitRateEmpty(t *testing.T) {
	require.Zero(t, Stats{}.HitRate())
}
