// Package engine aggregates `key;value` records from a chunked input.
//
// Readers claim chunks from a shared cursor, split them into lines and route
// each line by key to one of the partitions' queues. Each partition has its
// own workers draining its queue into its own table, so no two partitions
// ever share a lock and every update of a key is applied by one partition.
package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/avamsi/partagg/internal/chunk"
	"github.com/avamsi/partagg/internal/partition"
	"github.com/avamsi/partagg/internal/queue"
	"github.com/avamsi/partagg/internal/table"
)

type shard struct {
	// Entries are batches of '\n'-terminated lines that all route here.
	queue queue.Queue[[]byte]

	mu    sync.Mutex // guards table
	table *table.Table

	records, malformed atomic.Uint64
}

type pipeline struct {
	cfg      Config
	src      chunk.Source
	cursor   *chunk.Cursor
	stitcher *chunk.Stitcher
	done     *completion
	shards   [partition.Count]*shard
}

func newPipeline(src chunk.Source, cfg Config) *pipeline {
	cursor := chunk.NewCursor(src.Size(), cfg.ChunkSize)
	p := &pipeline{
		cfg:      cfg,
		src:      src,
		cursor:   cursor,
		stitcher: chunk.NewStitcher(cursor.Chunks()),
		done:     newCompletion(cfg.Readers),
	}
	for i := range p.shards {
		p.shards[i] = &shard{table: table.New(cfg.TableSize, cfg.Hash)}
	}
	return p
}

func (p *pipeline) run() error {
	g, ctx := errgroup.WithContext(context.Background())
	for id := range p.cfg.Readers {
		r := newReader(id, p)
		g.Go(func() error { return r.run(ctx) })
	}
	for i, s := range p.shards {
		for id := range p.cfg.WorkersPerPartition {
			w := &worker{id: id, partition: i, shard: s, done: p.done, log: p.cfg.logger()}
			g.Go(func() error {
				w.run(backoff{min: p.cfg.MinBackoff, max: p.cfg.MaxBackoff})
				return nil
			})
		}
	}
	return g.Wait()
}

// Run aggregates every record of src. It returns only after all readers and
// workers have exited; on an I/O failure the partial result is discarded.
func Run(src chunk.Source, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var (
		log   = cfg.logger()
		start = time.Now()
		p     = newPipeline(src, cfg)
	)
	log.Debug("starting",
		"size", src.Size(), "chunks", p.cursor.Chunks(),
		"readers", cfg.Readers, "workers", cfg.WorkersPerPartition*partition.Count)
	if err := p.run(); err != nil {
		return nil, err
	}
	res := p.result()
	res.Elapsed = time.Since(start)
	for i := range partition.Count {
		if n := res.malformed[i]; n > 0 {
			log.Debug("dropped malformed records", "partition", partition.Name(i), "count", n)
		}
	}
	return res, nil
}

func (p *pipeline) result() *Result {
	res := &Result{Size: p.src.Size(), Chunks: p.cursor.Claimed()}
	for i, s := range p.shards {
		res.tables[i] = s.table
		res.malformed[i] = s.malformed.Load()
		res.Records += s.records.Load()
	}
	return res
}

// Result is the aggregate state after a completed run.
type Result struct {
	// Size is the input size in bytes.
	Size int64
	// Chunks is the number of chunks read.
	Chunks int
	// Records is the number of non-empty lines routed, malformed or not.
	Records uint64
	Elapsed time.Duration

	tables    [partition.Count]*table.Table
	malformed [partition.Count]uint64
}

// Partition returns an iterator over the keys of partition i.
func (r *Result) Partition(i int) func(yield func(string, table.Stat) bool) {
	return r.tables[i].All()
}

// All returns an iterator over every key of every partition, partition by
// partition.
func (r *Result) All() func(yield func(string, table.Stat) bool) {
	return func(yield func(string, table.Stat) bool) {
		for _, t := range r.tables {
			stopped := false
			t.All()(func(k string, s table.Stat) bool {
				stopped = !yield(k, s)
				return !stopped
			})
			if stopped {
				return
			}
		}
	}
}

// Get returns the Stat of key.
func (r *Result) Get(key string) (table.Stat, bool) {
	return r.tables[partition.Of([]byte(key))].Get(key)
}

// Keys returns the number of distinct keys.
func (r *Result) Keys() int {
	n := 0
	for _, t := range r.tables {
		n += t.Len()
	}
	return n
}

// Malformed returns the number of dropped records.
func (r *Result) Malformed() uint64 {
	var n uint64
	for _, m := range r.malformed {
		n += m
	}
	return n
}

// MalformedIn returns the number of dropped records routed to partition i.
func (r *Result) MalformedIn(i int) uint64 {
	return r.malformed[i]
}
