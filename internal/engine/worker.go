package engine

import (
	"bytes"
	"log/slog"

	"github.com/avamsi/partagg/internal/partition"
	"github.com/avamsi/partagg/internal/record"
)

type worker struct {
	id, partition int
	shard         *shard
	done          *completion
	log           *slog.Logger
}

func (w *worker) run(b backoff) {
	for {
		batch, ok := w.shard.queue.TryPop()
		if !ok {
			if !w.done.done() {
				b.wait()
				continue
			}
			// A reader may have pushed its last batch just before finishing,
			// so poll once more after observing completion.
			if batch, ok = w.shard.queue.TryPop(); !ok {
				w.log.Debug("worker exiting", "partition", partition.Name(w.partition), "worker", w.id)
				return
			}
		}
		b.reset()
		w.apply(batch)
	}
}

func (w *worker) apply(batch []byte) {
	for len(batch) > 0 {
		i := bytes.IndexByte(batch, '\n')
		line := batch[:i]
		batch = batch[i+1:]

		key, v, err := record.Parse(line)
		if err != nil {
			w.shard.malformed.Add(1)
			continue
		}
		w.shard.mu.Lock()
		w.shard.table.Upsert(key, v)
		w.shard.mu.Unlock()
	}
}
