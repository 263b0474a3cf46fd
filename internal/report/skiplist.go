package report

import (
	"cmp"
	"math/rand/v2"
)

const maxHeight = 42

type skipListNode[K cmp.Ordered, V any] struct {
	k    K
	v    V
	next []*skipListNode[K, V]
}

// SkipList is an ordered map. The zero value is ready to use.
type SkipList[K cmp.Ordered, V any] struct {
	head skipListNode[K, V]
	n    int
	rng  *rand.Rand
}

func (s *SkipList[K, V]) randHeight() int {
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(0x9747b28c, uint64(maxHeight)))
	}
	h := 1
	for h < maxHeight && s.rng.IntN(2) == 0 {
		h++
	}
	return h
}

func (s *SkipList[K, V]) find(k K) *skipListNode[K, V] {
	n := &s.head
	for i := len(n.next) - 1; i >= 0; {
		if n.next[i] == nil || n.next[i].k > k {
			i--
		} else if n.next[i].k == k {
			return n.next[i]
		} else {
			n = n.next[i]
		}
	}
	return nil
}

// Put sets the value of k, replacing any previous one.
func (s *SkipList[K, V]) Put(k K, v V) {
	if p := s.find(k); p != nil {
		p.v = v
		return
	}
	var (
		h = s.randHeight()
		p = &skipListNode[K, V]{k, v, make([]*skipListNode[K, V], h)}
		n = &s.head
	)
	if h > len(n.next) {
		n.next = append(n.next,
			make([]*skipListNode[K, V], h-len(n.next))...)
	}
	for i := len(n.next) - 1; i >= 0; {
		if n.next[i] == nil || n.next[i].k >= k {
			if i < h {
				p.next[i] = n.next[i]
				n.next[i] = p
			}
			i--
		} else {
			n = n.next[i]
		}
	}
	s.n++
}

func (s *SkipList[K, V]) Get(k K) (V, bool) {
	if p := s.find(k); p != nil {
		return p.v, true
	}
	return *new(V), false
}

func (s *SkipList[K, V]) Len() int {
	return s.n
}

// Items iterates in ascending key order.
func (s *SkipList[K, V]) Items() func(yield func(K, V) bool) {
	return func(yield func(K, V) bool) {
		if len(s.head.next) == 0 {
			return
		}
		for n := &s.head; n.next[0] != nil; {
			n = n.next[0]
			if !yield(n.k, n.v) {
				return
			}
		}
	}
}
