package infra

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stepClock struct{ now time.Time }

func (c *stepClock) Now() time.Time          { return c.now }
func (c *stepClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestRateLimiter_SecondSendWithinIntervalRejected(t *testing.T) {
	clock := &stepClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	l := NewRateLimiterWithClock(5*time.Second, clock.Now)

	require.NoError(t, l.Allow("https://hooks.example/a"))

	clock.Advance(2 * time.Second)
	err := l.Allow("https://hooks.example/a")
	require.Error(t, err)

	var rl *RateLimitError
	require.True(t, errors.As(err, &rl))
	assert.Equal(t, "https://hooks.example/a", rl.URL)
	assert.InDelta(t, float64(3*time.Second), float64(rl.Wait), float64(10*time.Millisecond))
	assert.Contains(t, err.Error(), "3s")
}

func TestRateLimiter_AllowsAfterInterval(t *testing.T) {
	clock := &stepClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	l := NewRateLimiterWithClock(5*time.Second, clock.Now)

	require.NoError(t, l.Allow("u"))
	clock.Advance(5 * time.Second)
	assert.NoError(t, l.Allow("u"))
}

func TestRateLimiter_RejectionDoesNotConsume(t *testing.T) {
	clock := &stepClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	l := NewRateLimiterWithClock(5*time.Second, clock.Now)

	require.NoError(t, l.Allow("u"))
	for i := 0; i < 4; i++ {
		clock.Advance(time.Second)
		require.Error(t, l.Allow("u"))
	}
	clock.Advance(time.Second)
	assert.NoError(t, l.Allow("u"))
}

func TestRateLimiter_PerURL(t *testing.T) {
	clock := &stepClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	l := NewRateLimiterWithClock(5*time.Second, clock.Now)

	require.NoError(t, l.Allow("a"))
	assert.NoError(t, l.Allow("b"))
	assert.Error(t, l.Allow("a"))
}

func TestRateLimiter_DefaultInterval(t *testing.T) {
	l := NewRateLimiter(0)
	assert.Equal(t, DefaultNotifyInterval, l.interval)
}
