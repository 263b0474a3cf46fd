package engine

import (
	"sync/atomic"
	"time"
)

// completion counts readers that will never push again.
type completion struct {
	finished atomic.Int64
	total    int64
}

func newCompletion(readers int) *completion {
	return &completion{total: int64(readers)}
}

// finish must be called exactly once per reader, after its last push.
func (c *completion) finish() {
	c.finished.Add(1)
}

func (c *completion) done() bool {
	return c.finished.Load() == c.total
}

// backoff sleeps for exponentially longer intervals between empty polls.
type backoff struct {
	min, max, cur time.Duration
}

func (b *backoff) wait() {
	b.cur = max(b.cur, b.min)
	time.Sleep(b.cur)
	b.cur = min(2*b.cur, b.max)
}

func (b *backoff) reset() {
	b.cur = 0
}
