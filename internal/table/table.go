// Package table is a fixed-size chained hash table of running per-key
// statistics. It never grows; callers size it well above the expected number
// of distinct keys so that chains stay at length zero or one.
//
// A Table is not safe for concurrent use.
package table

// MaxKeyLen is how much of a key is meaningful when displayed.
const MaxKeyLen = 49

// Stat holds running statistics for one key.
type Stat struct {
	Count          uint64
	Mean, Min, Max float64
}

func newStat(v float64) Stat {
	return Stat{Count: 1, Mean: v, Min: v, Max: v}
}

func (s *Stat) add(v float64) {
	s.Count++
	s.Mean += (v - s.Mean) / float64(s.Count)
	if v < s.Min {
		s.Min = v
	}
	if v > s.Max {
		s.Max = v
	}
}

// Merge folds o into s as if every value applied to o had been applied to s.
func (s *Stat) Merge(o Stat) {
	if o.Count == 0 {
		return
	}
	if s.Count == 0 {
		*s = o
		return
	}
	n := s.Count + o.Count
	s.Mean += (o.Mean - s.Mean) * float64(o.Count) / float64(n)
	s.Count = n
	s.Min = min(s.Min, o.Min)
	s.Max = max(s.Max, o.Max)
}

type entry struct {
	key  string
	stat Stat
}

// Table maps keys to their Stat.
type Table struct {
	buckets [][]entry
	hash    Hash
	n       int
}

// New returns a Table with size buckets using hash; a nil hash means Murmur3.
func New(size int, hash Hash) *Table {
	if size <= 0 {
		panic("table: non-positive size")
	}
	if hash == nil {
		hash = Murmur3
	}
	return &Table{buckets: make([][]entry, size), hash: hash}
}

func (t *Table) bucket(key []byte) *[]entry {
	return &t.buckets[t.hash(key)%uint32(len(t.buckets))]
}

// Upsert applies v to key's Stat, creating it on first sight. key is copied
// on insert, so it may alias memory that is reused afterwards.
func (t *Table) Upsert(key []byte, v float64) {
	b := t.bucket(key)
	for i := range *b {
		// string(key) in a comparison doesn't allocate.
		if e := &(*b)[i]; e.key == string(key) {
			e.stat.add(v)
			return
		}
	}
	*b = append(*b, entry{string(key), newStat(v)})
	t.n++
}

// Get returns key's Stat.
func (t *Table) Get(key string) (Stat, bool) {
	for _, e := range *t.bucket([]byte(key)) {
		if e.key == key {
			return e.stat, true
		}
	}
	return Stat{}, false
}

// Len returns the number of distinct keys.
func (t *Table) Len() int {
	return t.n
}

// All returns an iterator over every key and its Stat, in bucket order.
func (t *Table) All() func(yield func(string, Stat) bool) {
	return func(yield func(string, Stat) bool) {
		for _, b := range t.buckets {
			for _, e := range b {
				if !yield(e.key, e.stat) {
					return
				}
			}
		}
	}
}

// MaxChain returns the length of the longest bucket chain.
func (t *Table) MaxChain() int {
	m := 0
	for _, b := range t.buckets {
		m = max(m, len(b))
	}
	return m
}
