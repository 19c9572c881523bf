// Package ratelimit implements a per-key rolling-window call limiter.
package ratelimit

import (
	"sync"
	"time"
)

// Operation keys used by the pipeline. Each key has its own budget.
const (
	KeyAICall            = "ai-call"
	KeyCreateReply       = "create-reply"
	KeyAnalyzeFile       = "analyze-file"
	KeyAttachmentSummary = "attachment-summary"
)

// Default budget: 20 calls per rolling 60 seconds.
const (
	DefaultLimit  = 20
	DefaultWindow = 60 * time.Second
)

// Limiter admits at most limit calls per key within any rolling window.
// It is safe for concurrent use.
type Limiter struct {
	mu      sync.RWMutex
	entries map[string]*callLog
	limit   int
	window  time.Duration
	now     func() time.Time
}

// callLog holds the admitted call times of one key, oldest first.
type callLog struct {
	mu    sync.Mutex
	times []time.Time
}

// New creates a limiter. Non-positive arguments fall back to the defaults.
func New(limit int, window time.Duration) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Limiter{
		entries: make(map[string]*callLog),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// WithClock replaces the time source. Intended for tests.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// Limit returns the per-window call budget.
func (l *Limiter) Limit() int { return l.limit }

// Window returns the rolling window length.
func (l *Limiter) Window() time.Duration { return l.window }

// Allow records a call for key and reports whether it fits the budget.
// Rejected calls are not recorded.
func (l *Limiter) Allow(key string) bool {
	cl := l.logFor(key)

	cl.mu.Lock()
	defer cl.mu.Unlock()

	now := l.now()
	cl.prune(now.Add(-l.window))

	if len(cl.times) >= l.limit {
		return false
	}
	cl.times = append(cl.times, now)
	return true
}

// Remaining reports how many calls key may still make in the current
// window.
func (l *Limiter) Remaining(key string) int {
	cl := l.logFor(key)

	cl.mu.Lock()
	defer cl.mu.Unlock()

	cl.prune(l.now().Add(-l.window))
	return l.limit - len(cl.times)
}

func (l *Limiter) logFor(key string) *callLog {
	l.mu.RLock()
	cl, ok := l.entries[key]
	l.mu.RUnlock()
	if ok {
		return cl
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if cl, ok = l.entries[key]; !ok {
		cl = &callLog{}
		l.entries[key] = cl
	}
	return cl
}

// prune drops entries at or before cutoff.
func (c *callLog) prune(cutoff time.Time) {
	i := 0
	for i < len(c.times) && !c.times[i].After(cutoff) {
		i++
	}
	if i > 0 {
		c.times = append(c.times[:0], c.times[i:]...)
	}
}
