package chunk

import (
	"bytes"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/andreyvit/diff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor(t *testing.T) {
	c := NewCursor(10, 4)
	assert.Equal(t, 3, c.Chunks())

	var spans []Span
	for {
		s, ok := c.Claim()
		if !ok {
			break
		}
		spans = append(spans, s)
	}
	assert.Equal(t, []Span{{0, 0, 4}, {1, 4, 8}, {2, 8, 10}}, spans)
	assert.Equal(t, 3, c.Claimed())

	_, ok := c.Claim()
	assert.False(t, ok)
	assert.Equal(t, 0, NewCursor(0, 4).Chunks())
}

func TestSplit(t *testing.T) {
	var lines []string
	head, tail, whole := Split([]byte("ab;1\ncd;2\nef;3\ngh"), func(line []byte) {
		lines = append(lines, string(line))
	})
	assert.Equal(t, "ab;1", string(head))
	assert.Equal(t, "gh", string(tail))
	assert.False(t, whole)
	assert.Equal(t, []string{"cd;2", "ef;3"}, lines)

	head, tail, whole = Split([]byte("no newline"), func([]byte) { t.Fatal("unexpected line") })
	assert.Equal(t, "no newline", string(head))
	assert.Empty(t, tail)
	assert.True(t, whole)

	head, tail, whole = Split([]byte("\n"), func([]byte) { t.Fatal("unexpected line") })
	assert.Empty(t, head)
	assert.Empty(t, tail)
	assert.False(t, whole)
}

type positioned struct {
	key  float64
	line string
}

// recoverLines splits src into chunkSize pieces, feeds them to a Stitcher in
// order and returns every recovered line in file order.
func recoverLines(t *testing.T, src Source, chunkSize int64, order []int) []string {
	t.Helper()
	var (
		cursor = NewCursor(src.Size(), chunkSize)
		spans  []Span
	)
	for {
		s, ok := cursor.Claim()
		if !ok {
			break
		}
		spans = append(spans, s)
	}
	if order == nil {
		order = make([]int, len(spans))
		for i := range order {
			order[i] = i
		}
	}

	var (
		st  = NewStitcher(len(spans))
		out []positioned
	)
	for _, i := range order {
		r, err := src.Map(spans[i].Off, spans[i].End)
		require.NoError(t, err)
		n := 0
		head, tail, whole := Split(r.Bytes(), func(line []byte) {
			n++
			out = append(out, positioned{float64(i) + 0.25*float64(n)/float64(len(r.Bytes())+1), string(line)})
		})
		for _, l := range st.add(i, head, tail, whole) {
			out = append(out, positioned{float64(l.start) + 0.5, string(l.line)})
		}
		require.NoError(t, r.Release())
	}
	assert.Zero(t, st.Pending())

	slices.SortStableFunc(out, func(a, b positioned) int {
		switch {
		case a.key < b.key:
			return -1
		case a.key > b.key:
			return 1
		}
		return 0
	})
	lines := make([]string, len(out))
	for i, p := range out {
		lines[i] = p.line
	}
	return lines
}

func nonEmptyLines(s string) []string {
	var lines []string
	for _, l := range strings.Split(s, "\n") {
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func assertSameLines(t *testing.T, want, got []string) {
	t.Helper()
	if !slices.Equal(want, got) {
		t.Fatalf("recovered lines differ:\n%s", diff.LineDiff(strings.Join(want, "\n"), strings.Join(got, "\n")))
	}
}

func TestRecoverLinesEveryChunkSize(t *testing.T) {
	const input = "Hamburg;12.0\nBulawayo;8.9\nPalembang;38.8\nSt. John's;15.2\nCracow;12.6\n" +
		"a;1\nBridgetown;26.9\nIstanbul;6.2\nRoseau;34.4\nConakry;31.2\nIstanbul;23.0"
	want := nonEmptyLines(input)
	for size := int64(1); size <= int64(len(input))+1; size++ {
		t.Run(fmt.Sprint(size), func(t *testing.T) {
			assertSameLines(t, want, recoverLines(t, FromBytes([]byte(input)), size, nil))
		})
	}
}

func TestRecoverLinesShuffled(t *testing.T) {
	var (
		r  = rand.New(rand.NewPCG(7, 11))
		sb strings.Builder
	)
	for i := range 2000 {
		fmt.Fprintf(&sb, "station-%d-%s;%.1f\n", r.IntN(300), strings.Repeat("x", r.IntN(40)), float64(i%999)/10)
	}
	input := sb.String()
	want := nonEmptyLines(input)

	for _, size := range []int64{3, 17, 64, 1000, 4096} {
		n := int((int64(len(input)) + size - 1) / size)
		order := r.Perm(n)
		assertSameLines(t, want, recoverLines(t, FromBytes([]byte(input)), size, order))
	}
}

// A chunk boundary in the middle of a key must yield one record, not two.
func TestBoundaryInsideKey(t *testing.T) {
	input := "alpha;1.0\nbravo;2.0\n"
	lines := recoverLines(t, FromBytes([]byte(input)), 13, nil) // cuts "bra|vo"
	assert.Equal(t, []string{"alpha;1.0", "bravo;2.0"}, lines)
}

func TestStitcherConcurrent(t *testing.T) {
	var sb strings.Builder
	for i := range 5000 {
		fmt.Fprintf(&sb, "k%d;%d\n", i, i)
	}
	var (
		input  = []byte(sb.String())
		cursor = NewCursor(int64(len(input)), 7)
		st     = NewStitcher(cursor.Chunks())
		mu     sync.Mutex
		got    []string
		wg     sync.WaitGroup
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var local []string
			for {
				s, ok := cursor.Claim()
				if !ok {
					break
				}
				head, tail, whole := Split(input[s.Off:s.End], func(line []byte) {
					local = append(local, string(line))
				})
				for _, l := range st.Add(s.Index, head, tail, whole) {
					local = append(local, string(l))
				}
			}
			mu.Lock()
			got = append(got, local...)
			mu.Unlock()
		}()
	}
	wg.Wait()

	want := nonEmptyLines(sb.String())
	slices.Sort(want)
	slices.Sort(got)
	assertSameLines(t, want, got)
	assert.Zero(t, st.Pending())
}

func TestSources(t *testing.T) {
	var sb strings.Builder
	for i := range 3000 {
		fmt.Fprintf(&sb, "city-%04d;%d.%d\n", i, i%100, i%10)
	}
	input := []byte(sb.String())
	path := filepath.Join(t.TempDir(), "measurements.txt")
	require.NoError(t, os.WriteFile(path, input, 0o644))

	opens := map[string]func(string) (Source, error){
		"mmap":     Open,
		"readerat": OpenReaderAt,
		"bytes": func(string) (Source, error) {
			return FromReaderAt(bytes.NewReader(input), int64(len(input))), nil
		},
	}
	for name, open := range opens {
		t.Run(name, func(t *testing.T) {
			src, err := open(path)
			require.NoError(t, err)
			defer src.Close()
			require.Equal(t, int64(len(input)), src.Size())

			// Odd chunk sizes exercise unaligned mapping offsets.
			for _, size := range []int64{4093, 4096, 10_000} {
				assertSameLines(t, nonEmptyLines(sb.String()), recoverLines(t, src, size, nil))
			}

			_, err = src.Map(0, src.Size()+1)
			assert.Error(t, err)
		})
	}
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file open")

	_, err = OpenReaderAt(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file open")
}
