package chunk

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

type fileSource struct {
	f    *os.File
	size int64
}

// Open returns a Source over the file at path that maps each range on demand
// and unmaps it on release.
func Open(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("file open: %w", err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("file open: %w", err)
	}
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
	return &fileSource{f, fi.Size()}, nil
}

func (s *fileSource) Size() int64  { return s.size }
func (s *fileSource) Close() error { return s.f.Close() }

type mapping struct {
	all, data []byte
}

func (m *mapping) Bytes() []byte  { return m.data }
func (m *mapping) Release() error { return unix.Munmap(m.all) }

func (s *fileSource) Map(off, end int64) (Region, error) {
	if off < 0 || end > s.size || off > end {
		return nil, fmt.Errorf("chunk map [%d, %d): out of range", off, end)
	}
	if off == end {
		return bytesRegion(nil), nil
	}
	// mmap offsets must be page aligned.
	page := int64(os.Getpagesize())
	base := off - off%page
	b, err := unix.Mmap(int(s.f.Fd()), base, int(end-base), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("chunk map [%d, %d): %w", off, end, err)
	}
	_ = unix.Madvise(b, unix.MADV_SEQUENTIAL)
	return &mapping{b, b[off-base:]}, nil
}
