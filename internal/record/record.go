// Package record splits and parses `key;value` lines.
package record

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Separator is the only significant delimiter; everything after the first
// one is the value.
const Separator = ';'

// ErrMalformed is returned for lines without a separator, with an empty
// value or with a value that isn't a finite decimal number.
var ErrMalformed = errors.New("malformed record")

// Key returns the bytes before the first Separator in line.
func Key(line []byte) ([]byte, bool) {
	i := bytes.IndexByte(line, Separator)
	if i < 0 {
		return nil, false
	}
	return line[:i], true
}

// Parse splits line on the first Separator and parses the value.
// The returned key aliases line.
func Parse(line []byte) (key []byte, value float64, err error) {
	i := bytes.IndexByte(line, Separator)
	if i < 0 {
		return nil, 0, fmt.Errorf("%w: no separator in %q", ErrMalformed, line)
	}
	key, m := line[:i], line[i+1:]
	if n := len(m); n > 0 && m[n-1] == '\r' {
		m = m[:n-1]
	}
	if len(m) == 0 {
		return nil, 0, fmt.Errorf("%w: empty value in %q", ErrMalformed, line)
	}
	if value, err = ParseValue(m); err != nil {
		return nil, 0, err
	}
	return key, value, nil
}

// ParseValue parses a decimal number. The common `-?d{1,2}.d` shape is
// decoded without going through strconv.
func ParseValue(m []byte) (float64, error) {
	if p, ok := parseTenths(m); ok {
		return float64(p) / 10, nil
	}
	f, err := strconv.ParseFloat(string(m), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: non-finite value %q", ErrMalformed, m)
	}
	return f, nil
}

// parseTenths decodes m as an integer number of tenths if it has exactly
// one fractional digit and at most two integral digits.
func parseTenths(m []byte) (int64, bool) {
	negative := len(m) > 0 && m[0] == '-'
	if negative {
		m = m[1:]
	}
	digit := func(c byte) bool { return '0' <= c && c <= '9' }
	var p int64
	const (
		z11  = int64('0') * 11
		z111 = int64('0') * 111
	)
	switch {
	case len(m) == 3 && digit(m[0]) && m[1] == '.' && digit(m[2]):
		p = int64(m[0])*10 + int64(m[2]) - z11
	case len(m) == 4 && digit(m[0]) && digit(m[1]) && m[2] == '.' && digit(m[3]):
		p = int64(m[0])*100 + int64(m[1])*10 + int64(m[3]) - z111
	default:
		return 0, false
	}
	if negative {
		return -p, true
	}
	return p, true
}
