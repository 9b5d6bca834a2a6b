package infra

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultNotifyInterval is the minimum gap between two posts to the same webhook.
const DefaultNotifyInterval = 5 * time.Second

// RateLimitError is returned when a send is attempted before the interval elapsed.
type RateLimitError struct {
	URL  string
	Wait time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited: wait %s before sending to this webhook again", e.Wait.Round(time.Millisecond))
}

// RateLimiter enforces a minimum interval between sends per distinct URL.
type RateLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	limiters map[string]*rate.Limiter
	now      func() time.Time
}

// NewRateLimiter creates a limiter allowing one send per interval per URL.
func NewRateLimiter(interval time.Duration) *RateLimiter {
	return NewRateLimiterWithClock(interval, time.Now)
}

// NewRateLimiterWithClock creates a limiter with an injectable clock (for testing).
func NewRateLimiterWithClock(interval time.Duration, now func() time.Time) *RateLimiter {
	if interval <= 0 {
		interval = DefaultNotifyInterval
	}
	return &RateLimiter{
		interval: interval,
		limiters: make(map[string]*rate.Limiter),
		now:      now,
	}
}

// Allow consumes the send slot for url, or returns a *RateLimitError
// naming the remaining wait. A rejected call does not consume anything.
func (l *RateLimiter) Allow(url string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[url]
	if !ok {
		lim = rate.NewLimiter(rate.Every(l.interval), 1)
		l.limiters[url] = lim
	}

	now := l.now()
	if tokens := lim.TokensAt(now); tokens < 1 {
		wait := time.Duration((1 - tokens) / float64(lim.Limit()) * float64(time.Second))
		return &RateLimitError{URL: url, Wait: wait}
	}

	lim.AllowN(now, 1)
	return nil
}
