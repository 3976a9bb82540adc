package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheSetGetDelete(t *testing.T) {
	c := NewCache(Options{DefaultTTL: time.Minute, MaxItems: 10})

	c.Set("user:name:1", "Alice", 0)
	got, ok := c.Get("user:name:1")
	assert.True(t, ok)
	assert.Equal(t, "Alice", got)

	c.Delete("user:name:1")
	_, ok = c.Get("user:name:1")
	assert.False(t, ok)
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache(Options{DefaultTTL: time.Minute, MaxItems: 10})

	c.Set("short", "lived", time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	_, ok := c.Get("short")
	assert.False(t, ok)
}

func TestCacheEvictsAtCapacity(t *testing.T) {
	c := NewCache(Options{DefaultTTL: time.Minute, MaxItems: 2})

	c.Set("a", "1", 0)
	c.Set("b", "2", 0)
	c.Set("c", "3", 0)

	assert.LessOrEqual(t, c.Count(), 2)
	got, ok := c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, "3", got)
}
