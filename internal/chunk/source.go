package chunk

import (
	"fmt"
	"io"
	"sync"

	"golang.org/x/exp/mmap"
)

// Source is a fixed-size input that can expose any byte range.
type Source interface {
	Size() int64
	// Map exposes [off, end). The Region must be released before the Source
	// is closed.
	Map(off, end int64) (Region, error)
	Close() error
}

// Region is a mapped byte range.
type Region interface {
	Bytes() []byte
	Release() error
}

type bytesRegion []byte

func (r bytesRegion) Bytes() []byte  { return r }
func (r bytesRegion) Release() error { return nil }

type memSource []byte

// FromBytes returns a Source over b; regions alias b.
func FromBytes(b []byte) Source {
	return memSource(b)
}

func (s memSource) Size() int64  { return int64(len(s)) }
func (s memSource) Close() error { return nil }

func (s memSource) Map(off, end int64) (Region, error) {
	if off < 0 || end > int64(len(s)) || off > end {
		return nil, fmt.Errorf("chunk map [%d, %d): out of range", off, end)
	}
	return bytesRegion(s[off:end]), nil
}

type readerAtSource struct {
	r    io.ReaderAt
	size int64
	c    io.Closer
	bufs sync.Pool
}

// FromReaderAt returns a Source that copies each range out of r.
func FromReaderAt(r io.ReaderAt, size int64) Source {
	s := &readerAtSource{r: r, size: size}
	if c, ok := r.(io.Closer); ok {
		s.c = c
	}
	return s
}

// OpenReaderAt maps the whole file at path once and serves ranges as copies.
func OpenReaderAt(path string) (Source, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("file open: %w", err)
	}
	return FromReaderAt(r, int64(r.Len())), nil
}

func (s *readerAtSource) Size() int64 { return s.size }

func (s *readerAtSource) Close() error {
	if s.c == nil {
		return nil
	}
	return s.c.Close()
}

type pooledRegion struct {
	b    []byte
	pool *sync.Pool
}

func (r *pooledRegion) Bytes() []byte { return r.b }

func (r *pooledRegion) Release() error {
	r.pool.Put(r.b[:0])
	return nil
}

func (s *readerAtSource) Map(off, end int64) (Region, error) {
	if off < 0 || end > s.size || off > end {
		return nil, fmt.Errorf("chunk map [%d, %d): out of range", off, end)
	}
	n := int(end - off)
	b, _ := s.bufs.Get().([]byte)
	if cap(b) < n {
		b = make([]byte, n)
	}
	b = b[:n]
	if _, err := s.r.ReadAt(b, off); err != nil && err != io.EOF {
		return nil, fmt.Errorf("chunk map [%d, %d): %w", off, end, err)
	}
	return &pooledRegion{b, &s.bufs}, nil
}
