package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time { return c.now }

func (c *stepClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestTTLCache(t *testing.T) {
	clock := &stepClock{now: time.Now()}
	c := NewTTLCache(30*time.Second, clock)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("key", []int{1, 2, 3})

	got, ok := c.Get("key")
	require.True(t, ok)
	assert.Equal(t, []int{1, 2, 3}, got)

	// Still inside the window
	clock.Advance(29 * time.Second)
	_, ok = c.Get("key")
	assert.True(t, ok)

	// Past it
	clock.Advance(2 * time.Second)
	_, ok = c.Get("key")
	assert.False(t, ok)
}

func TestTTLCache_SetRefreshesExpiry(t *testing.T) {
	clock := &stepClock{now: time.Now()}
	c := NewTTLCache(30*time.Second, clock)

	c.Set("key", "a")
	clock.Advance(20 * time.Second)
	c.Set("key", "b")
	clock.Advance(20 * time.Second)

	got, ok := c.Get("key")
	require.True(t, ok)
	assert.Equal(t, "b", got)
}

func TestTTLCache_Flush(t *testing.T) {
	c := NewTTLCache(time.Minute, &stepClock{now: time.Now()})

	c.Set("a", 1)
	c.Set("b", 2)
	c.Flush()

	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.False(t, ok)
}
