package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/avamsi/partagg/internal/chunk"
	"github.com/avamsi/partagg/internal/partition"
	"github.com/avamsi/partagg/internal/record"
)

type reader struct {
	id  int
	p   *pipeline
	log *slog.Logger

	// Pending batch per partition, flushed when it reaches BatchSize lines
	// and at the end of every chunk.
	batches [partition.Count][]byte
	lines   [partition.Count]int
}

func newReader(id int, p *pipeline) *reader {
	return &reader{id: id, p: p, log: p.cfg.logger().With("reader", id)}
}

func (r *reader) run(ctx context.Context) error {
	// Workers rely on this to stop polling, so it runs on every exit path.
	defer r.p.done.finish()
	for ctx.Err() == nil {
		s, ok := r.p.cursor.Claim()
		if !ok {
			r.log.Debug("input exhausted")
			return nil
		}
		if err := r.read(s); err != nil {
			r.log.Debug("giving up", "err", err)
			return fmt.Errorf("reader %d: %w", r.id, err)
		}
	}
	return nil
}

func (r *reader) read(s chunk.Span) error {
	r.log.Debug("claimed chunk", "index", s.Index, "off", s.Off, "end", s.End)
	region, err := r.p.src.Map(s.Off, s.End)
	if err != nil {
		return err
	}
	head, tail, whole := chunk.Split(region.Bytes(), r.route)
	for _, line := range r.p.stitcher.Add(s.Index, head, tail, whole) {
		r.route(line)
	}
	for i := range r.batches {
		r.flush(i)
	}
	if err := region.Release(); err != nil {
		return fmt.Errorf("chunk unmap [%d, %d): %w", s.Off, s.End, err)
	}
	return nil
}

// route copies line into the pending batch of its partition. Lines without
// a separator are routed by their first byte and rejected by the worker.
func (r *reader) route(line []byte) {
	if len(line) == 0 {
		return
	}
	key, ok := record.Key(line)
	if !ok {
		key = line
	}
	i := partition.Of(key)
	r.batches[i] = append(append(r.batches[i], line...), '\n')
	r.lines[i]++
	if r.lines[i] >= r.p.cfg.BatchSize {
		r.flush(i)
	}
}

func (r *reader) flush(i int) {
	if r.lines[i] == 0 {
		return
	}
	r.p.shards[i].queue.Push(r.batches[i])
	r.p.shards[i].records.Add(uint64(r.lines[i]))
	r.batches[i], r.lines[i] = nil, 0
}
