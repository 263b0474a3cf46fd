//go:build !linux

package chunk

// Open falls back to a single whole-file mapping where per-range mmap isn't
// available.
func Open(path string) (Source, error) {
	return OpenReaderAt(path)
}
