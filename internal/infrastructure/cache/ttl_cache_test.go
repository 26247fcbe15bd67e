package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTLCache_SetGet(t *testing.T) {
	c := New(time.Hour)

	c.Set("SPY:252", 42.5)

	got, ok := c.Get("SPY:252")
	assert.True(t, ok)
	assert.Equal(t, 42.5, got)

	_, ok = c.Get("QQQ:252")
	assert.False(t, ok)
}

func TestTTLCache_ExpiryAtReadTime(t *testing.T) {
	c := New(time.Hour)

	now := time.Now()
	c.SetClock(func() time.Time { return now })
	c.Set("SPY:252", 42.5)

	// Still fresh just inside the TTL.
	c.SetClock(func() time.Time { return now.Add(59 * time.Minute) })
	_, ok := c.Get("SPY:252")
	assert.True(t, ok)

	// Expired entries are invisible but not removed.
	c.SetClock(func() time.Time { return now.Add(61 * time.Minute) })
	_, ok = c.Get("SPY:252")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())
}

func TestTTLCache_ClearIsFullWipe(t *testing.T) {
	c := New(time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Clear()

	assert.Equal(t, 0, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok)
}
