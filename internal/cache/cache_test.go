package cache_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airaware/airaware/internal/cache"
)

func TestMemory_PutGet(t *testing.T) {
	c := cache.NewMemory[string]()
	c.Put("k", "hello", time.Minute)

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "hello", v)
}

func TestMemory_GetMissing(t *testing.T) {
	c := cache.NewMemory[int]()

	_, ok := c.Get("absent")
	assert.False(t, ok)

	_, ok = c.GetStale("absent")
	assert.False(t, ok)

	_, ok = c.Age("absent")
	assert.False(t, ok)
}

func TestMemory_ExpiryAndStaleFallback(t *testing.T) {
	c := cache.NewMemory[string]()
	c.Put("k", "v", 100*time.Millisecond)

	time.Sleep(150 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok, "expired entry must not be returned by Get")

	stale, ok := c.GetStale("k")
	require.True(t, ok, "expired entry must remain reachable via GetStale")
	assert.Equal(t, "v", stale)
}

func TestMemory_Age(t *testing.T) {
	c := cache.NewMemory[string]()
	c.Put("k", "v", time.Minute)

	time.Sleep(30 * time.Millisecond)

	age, ok := c.Age("k")
	require.True(t, ok)
	assert.GreaterOrEqual(t, age, 30*time.Millisecond)
	assert.Less(t, age, time.Second)
}

func TestMemory_OverwriteResetsEntry(t *testing.T) {
	c := cache.NewMemory[int]()
	c.Put("k", 1, time.Minute)
	c.Put("k", 2, time.Minute)

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestMemory_LazyEviction(t *testing.T) {
	m := cache.NewMemory[string]()
	m.StaleRetention = 50 * time.Millisecond

	m.Put("old", "v", 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	// Next write triggers eviction of entries past the retention window.
	m.Put("new", "v", time.Minute)

	_, ok := m.GetStale("old")
	assert.False(t, ok, "entry past stale retention should be evicted")
	assert.Equal(t, 1, m.Len())
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	c := cache.NewMemory[int]()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", n%4)
			c.Put(key, n, time.Minute)
			c.Get(key)
			c.GetStale(key)
			c.Age(key)
		}(i)
	}
	wg.Wait()

	// Same key written by multiple goroutines: last writer wins, entry intact.
	_, ok := c.Get("k0")
	assert.True(t, ok)
}
