// Package chunk cuts an input file into fixed-size byte ranges, maps them
// one at a time and recovers the lines that cross range boundaries.
package chunk

import "sync"

// Span is a claimed byte range [Off, End) of the input; Index is its position
// in file order.
type Span struct {
	Index    int
	Off, End int64
}

// Cursor hands out consecutive Spans to concurrent readers.
type Cursor struct {
	mu        sync.Mutex
	off, size int64
	chunkSize int64
	next      int
}

// NewCursor returns a Cursor over size bytes in chunkSize steps.
func NewCursor(size, chunkSize int64) *Cursor {
	if chunkSize <= 0 {
		panic("chunk: non-positive chunk size")
	}
	return &Cursor{size: size, chunkSize: chunkSize}
}

// Claim returns the next unclaimed Span, or false once the whole input has
// been handed out.
func (c *Cursor) Claim() (Span, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.off >= c.size {
		return Span{}, false
	}
	s := Span{Index: c.next, Off: c.off, End: min(c.off+c.chunkSize, c.size)}
	c.off += c.chunkSize
	c.next++
	return s, true
}

// Chunks returns the total number of Spans the input divides into.
func (c *Cursor) Chunks() int {
	return int((c.size + c.chunkSize - 1) / c.chunkSize)
}

// Claimed returns how many Spans have been handed out so far.
func (c *Cursor) Claimed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.next
}
