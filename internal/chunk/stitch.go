package chunk

import (
	"bytes"
	"sync"
)

type edges struct {
	head, tail         []byte
	whole              bool
	headDone, tailDone bool
}

type stitched struct {
	start int // chunk whose tail the line begins in, -1 for the file start
	line  []byte
}

// Stitcher reassembles lines cut by chunk boundaries. Chunks may be added in
// any order and from any goroutine; every boundary line is returned exactly
// once, by the Add call that supplies its last missing piece.
type Stitcher struct {
	mu        sync.Mutex
	n         int
	edges     map[int]*edges
	firstDone bool
}

// NewStitcher returns a Stitcher for an input of n chunks.
func NewStitcher(n int) *Stitcher {
	return &Stitcher{n: n, edges: make(map[int]*edges)}
}

// Add records the edges of chunk i as returned by Split and returns the
// non-empty boundary lines they complete. The edges are copied.
func (s *Stitcher) Add(i int, head, tail []byte, whole bool) [][]byte {
	var lines [][]byte
	for _, st := range s.add(i, head, tail, whole) {
		lines = append(lines, st.line)
	}
	return lines
}

// Pending returns the number of chunks holding unconsumed edges.
func (s *Stitcher) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.edges)
}

func (s *Stitcher) add(i int, head, tail []byte, whole bool) []stitched {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edges[i] = &edges{head: bytes.Clone(head), tail: bytes.Clone(tail), whole: whole}

	var out []stitched
	try := func(j int) {
		if line, ok := s.join(j); ok && len(line) > 0 {
			out = append(out, stitched{j, line})
		}
	}
	if j, ok := s.startBefore(i); ok {
		try(j)
	}
	if !whole {
		try(i)
	}
	return out
}

// startBefore finds the chunk whose tail starts the line running into chunk
// i, skipping chunks without a newline. It fails if one of them is missing.
func (s *Stitcher) startBefore(i int) (int, bool) {
	for j := i - 1; j >= 0; j-- {
		e, ok := s.edges[j]
		if !ok {
			return 0, false
		}
		if !e.whole {
			return j, true
		}
	}
	return -1, true
}

// join assembles the line starting in the tail of chunk j if every piece of
// it is present, and drops the pieces it used.
func (s *Stitcher) join(j int) ([]byte, bool) {
	if j < 0 {
		if s.firstDone {
			return nil, false
		}
	} else if e, ok := s.edges[j]; !ok || e.whole || e.tailDone {
		return nil, false
	}
	k := j + 1
	for ; k < s.n; k++ {
		e, ok := s.edges[k]
		if !ok {
			return nil, false
		}
		if !e.whole {
			break
		}
	}

	var line []byte
	if j < 0 {
		s.firstDone = true
	} else {
		e := s.edges[j]
		line = append(line, e.tail...)
		e.tail, e.tailDone = nil, true
		s.drop(j)
	}
	for m := j + 1; m < k; m++ {
		line = append(line, s.edges[m].head...)
		delete(s.edges, m)
	}
	if k < s.n {
		e := s.edges[k]
		line = append(line, e.head...)
		e.head, e.headDone = nil, true
		s.drop(k)
	}
	return line, true
}

func (s *Stitcher) drop(i int) {
	if e := s.edges[i]; e.headDone && e.tailDone {
		delete(s.edges, i)
	}
}
