package trie

import "github.com/zeebo/xxh3"

// String is a string key hashed with xxh3. Less orders by hash first, so
// iteration order over string keys follows the hash-consistent order
// required by the key level, not lexicographic order.
type String string

// Hashed returns the xxh3 hash of the string.
func (s String) Hashed() uint64 { return xxh3.HashString(string(s)) }

// Less orders by hash, breaking ties lexicographically.
func (s String) Less(o String) bool {
	hs, ho := s.Hashed(), o.Hashed()
	if hs != ho {
		return hs < ho
	}
	return s < o
}

// Uint64 is an integer key promised to be distributed well enough to act
// as its own hash.
type Uint64 uint64

// Hashed returns the key itself.
func (u Uint64) Hashed() uint64 { return uint64(u) }

// Less orders numerically, which coincides with hash order.
func (u Uint64) Less(o Uint64) bool { return u < o }

// Int64 is an ordered value type for the value level.
type Int64 int64

// Less orders numerically.
func (i Int64) Less(o Int64) bool { return i < o }
