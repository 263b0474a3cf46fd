// Package queue provides the FIFO that carries raw records from readers to
// the aggregators of one partition.
package queue

import (
	"sync"
	"sync/atomic"
)

// Queue is a mutex-guarded FIFO. TryPop never blocks; the consumer decides
// what an empty queue means. The zero value is ready to use.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
	head  int

	pushed, popped atomic.Uint64
}

// Push appends v.
func (q *Queue[T]) Push(v T) {
	q.mu.Lock()
	q.items = append(q.items, v)
	q.pushed.Add(1)
	q.mu.Unlock()
}

// TryPop removes and returns the oldest item, or reports false if the queue
// is empty.
func (q *Queue[T]) TryPop() (T, bool) {
	var zero T
	q.mu.Lock()
	if q.head == len(q.items) {
		q.mu.Unlock()
		return zero, false
	}
	v := q.items[q.head]
	q.items[q.head] = zero
	q.head++
	switch {
	case q.head == len(q.items):
		q.items, q.head = q.items[:0], 0
	case q.head >= 1024 && q.head*2 >= len(q.items):
		// Slide the live tail down so the backing array doesn't grow forever
		// under a steady producer.
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items, q.head = q.items[:n], 0
	}
	q.popped.Add(1)
	q.mu.Unlock()
	return v, true
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

// Pushed returns how many items were ever pushed.
func (q *Queue[T]) Pushed() uint64 {
	return q.pushed.Load()
}

// Popped returns how many items were ever popped.
func (q *Queue[T]) Popped() uint64 {
	return q.popped.Load()
}
