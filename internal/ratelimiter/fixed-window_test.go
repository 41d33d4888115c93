package ratelimiter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedWindowLimiter(t *testing.T) {
	clock := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	rl := NewFixedWindowLimiter(2, 5*time.Second)
	rl.now = func() time.Time { return clock }

	ok, _ := rl.Allow("1.2.3.4")
	assert.True(t, ok)
	ok, _ = rl.Allow("1.2.3.4")
	assert.True(t, ok)

	ok, retry := rl.Allow("1.2.3.4")
	assert.False(t, ok)
	assert.Equal(t, 5*time.Second, retry)

	ok, _ = rl.Allow("5.6.7.8")
	assert.True(t, ok, "keys are counted independently")

	clock = clock.Add(3 * time.Second)
	_, retry = rl.Allow("1.2.3.4")
	assert.Equal(t, 2*time.Second, retry)

	clock = clock.Add(2 * time.Second)
	ok, _ = rl.Allow("1.2.3.4")
	assert.True(t, ok, "window resets")
}

func TestSweepDropsExpiredKeys(t *testing.T) {
	clock := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	rl := NewFixedWindowLimiter(1, time.Second)
	rl.now = func() time.Time { return clock }

	rl.Allow("a")
	rl.Allow("b")

	clock = clock.Add(2 * time.Second)
	rl.Allow("c")

	assert.Len(t, rl.clients, 1)
	assert.Contains(t, rl.clients, "c")
}
