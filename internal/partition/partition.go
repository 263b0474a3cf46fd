// Package partition routes keys to one of a fixed set of partitions by the
// case-folded first letter of the key.
package partition

const (
	letters = 26
	// Other holds every key that doesn't start with an ASCII letter.
	Other = letters
	// Count is the number of partitions.
	Count = letters + 1
)

// Of returns the partition of key, in [0, Count).
func Of(key []byte) int {
	if len(key) == 0 {
		return Other
	}
	c := key[0] | 0x20 // fold 'A'-'Z' onto 'a'-'z'
	if 'a' <= c && c <= 'z' {
		return int(c - 'a')
	}
	return Other
}

// Name is a printable label for partition i.
func Name(i int) string {
	if 0 <= i && i < letters {
		return string(rune('a' + i))
	}
	return "other"
}
