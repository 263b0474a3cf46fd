package chunk

import "bytes"

// Split calls fn for every line that lies entirely inside b, i.e. between
// its first and last '\n'. head is everything before the first '\n' and
// tail everything after the last one; when b has no '\n' at all, whole is
// true and head is all of b. fn's argument aliases b.
func Split(b []byte, fn func(line []byte)) (head, tail []byte, whole bool) {
	first := bytes.IndexByte(b, '\n')
	if first < 0 {
		return b, nil, true
	}
	last := bytes.LastIndexByte(b, '\n')
	for rest := b[first+1 : last+1]; len(rest) > 0; {
		i := bytes.IndexByte(rest, '\n')
		fn(rest[:i])
		rest = rest[i+1:]
	}
	return b[:first], b[last+1:], false
}
