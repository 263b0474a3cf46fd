package table

import (
	"fmt"

	"github.com/spaolacci/murmur3"
	"github.com/zeebo/xxh3"
)

// Seed is the fixed seed for both hash functions.
const Seed = 0x9747b28c

// Hash maps a key to a 32-bit bucket hash.
type Hash func(key []byte) uint32

// Murmur3 is 32-bit MurmurHash3 with Seed.
func Murmur3(key []byte) uint32 {
	return murmur3.Sum32WithSeed(key, Seed)
}

// XXH3 is the low half of 64-bit XXH3 with Seed.
func XXH3(key []byte) uint32 {
	return uint32(xxh3.HashSeed(key, Seed))
}

// HashByName returns the hash function called name.
func HashByName(name string) (Hash, error) {
	switch name {
	case "", "murmur3":
		return Murmur3, nil
	case "xxh3":
		return XXH3, nil
	}
	return nil, fmt.Errorf("unknown hash %q (want murmur3 or xxh3)", name)
}
