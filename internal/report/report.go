// Package report turns per-partition aggregates into a single keyed index
// and prints it in key order.
package report

import (
	"bufio"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/dolthub/swiss"

	"github.com/avamsi/partagg/internal/table"
)

// Seq yields keys with their Stat, e.g. engine.Result.All.
type Seq = func(yield func(string, table.Stat) bool)

// Index holds every key of a run.
type Index struct {
	m *swiss.Map[string, table.Stat]
}

// Build indexes all of seq. A key yielded twice means it was aggregated in
// two places, which is reported as an error rather than silently merged.
func Build(seq Seq, sizeHint int) (*Index, error) {
	var (
		m   = swiss.NewMap[string, table.Stat](uint32(max(sizeHint, 1)))
		err error
	)
	seq(func(k string, s table.Stat) bool {
		if _, ok := m.Get(k); ok {
			err = fmt.Errorf("report: key %q aggregated more than once", k)
			return false
		}
		m.Put(k, s)
		return true
	})
	if err != nil {
		return nil, err
	}
	return &Index{m}, nil
}

func (x *Index) Get(key string) (table.Stat, bool) {
	return x.m.Get(key)
}

func (x *Index) Len() int {
	return x.m.Count()
}

// Sorted returns the index ordered by key.
func (x *Index) Sorted() *SkipList[string, table.Stat] {
	var l SkipList[string, table.Stat]
	x.m.Iter(func(k string, s table.Stat) bool {
		l.Put(k, s)
		return false
	})
	return &l
}

// Format selects the line layout of Write.
type Format int

const (
	// Short prints `name=min/mean/max` with one decimal.
	Short Format = iota
	// Verbose also prints the count, with two decimals.
	Verbose
)

// DisplayName cuts key to table.MaxKeyLen bytes without splitting a rune.
func DisplayName(key string) string {
	if len(key) <= table.MaxKeyLen {
		return key
	}
	cut := table.MaxKeyLen
	for cut > 0 && !utf8.RuneStart(key[cut]) {
		cut--
	}
	return key[:cut]
}

// Write prints x to w in key order.
func Write(w io.Writer, x *Index, f Format) error {
	bw := bufio.NewWriter(w)
	x.Sorted().Items()(func(k string, s table.Stat) bool {
		name := DisplayName(k)
		switch f {
		case Verbose:
			fmt.Fprintf(bw, "Station: %s, Avg Temp: %.2f, Min Temp: %.2f, Max Temp: %.2f, Count: %d\n",
				name, s.Mean, s.Min, s.Max, s.Count)
		default:
			fmt.Fprintf(bw, "%s=%.1f/%.1f/%.1f\n", name, s.Min, s.Mean, s.Max)
		}
		return true
	})
	return bw.Flush()
}
