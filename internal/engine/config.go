package engine

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/avamsi/partagg/internal/table"
)

// Config tunes the pipeline. Partition count is fixed by the router.
type Config struct {
	// Readers is the number of goroutines claiming and splitting chunks.
	Readers int
	// WorkersPerPartition is the number of aggregators sharing each
	// partition's queue and table.
	WorkersPerPartition int
	// ChunkSize is the number of bytes a reader maps at a time.
	ChunkSize int64
	// TableSize is the bucket count of each partition's table.
	TableSize int
	// BatchSize is the maximum number of records per queue entry.
	BatchSize int
	Hash      table.Hash
	// MinBackoff and MaxBackoff bound how long an idle worker sleeps between
	// polls of an empty queue. Lower values cut tail latency at the cost of
	// CPU spent polling.
	MinBackoff, MaxBackoff time.Duration
	Logger                 *slog.Logger
}

// DefaultConfig returns the configuration used by the command.
func DefaultConfig() Config {
	return Config{
		Readers:             3,
		WorkersPerPartition: 2,
		ChunkSize:           8 << 20,
		TableSize:           1 << 16,
		BatchSize:           1_000,
		Hash:                table.Murmur3,
		MinBackoff:          50 * time.Microsecond,
		MaxBackoff:          5 * time.Millisecond,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.Readers <= 0:
		return errors.New("config: readers must be positive")
	case c.WorkersPerPartition <= 0:
		return errors.New("config: workers per partition must be positive")
	case c.ChunkSize <= 0:
		return errors.New("config: chunk size must be positive")
	case c.TableSize <= 0:
		return errors.New("config: table size must be positive")
	case c.BatchSize <= 0:
		return errors.New("config: batch size must be positive")
	case c.MinBackoff <= 0 || c.MaxBackoff < c.MinBackoff:
		return errors.New("config: backoff must satisfy 0 < min <= max")
	}
	return nil
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
