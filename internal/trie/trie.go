// Package trie implements the nested index that backs one immutable batch
// of update tuples.
//
// The index is a three level trie: a hash-ordered level of keys, beneath
// it an ordered level of values, and beneath that an unordered leaf list
// of (time, delta) pairs. Each level stores its elements in a flat slice
// together with offsets into its child level, so a built index is a small
// fixed number of allocations and navigation is slice indexing.
//
// Instances are immutable once built. They are produced either by a
// TupleBuilder fed tuples in final order, or by Merge combining two
// existing instances.
package trie

import "github.com/nvos/difftrace/internal/lattice"

// HashOrdered is the constraint satisfied by key types. Keys expose a
// stable 64-bit hash, and Less must order first by that hash, breaking
// ties with any order on the keys themselves. This hash-consistent order
// is what allows radix placement of keys by hash while keeping the level
// seekable.
type HashOrdered[K any] interface {
	// Hashed returns a stable 64-bit hash of the key.
	Hashed() uint64

	// Less orders keys by hash first, then by key value.
	Less(K) bool
}

// Ordered is the constraint satisfied by value types.
type Ordered[V any] interface {
	Less(V) bool
}

// Entry is one leaf pair: a logical time and a signed multiplicity delta.
type Entry[T lattice.Time[T]] struct {
	Time  T
	Delta int64
}

// TimeLevel is the unordered leaf level: (time, delta) pairs in source
// order, not deduplicated. Consolidation happens in Merge and in the
// callers that rebuild indexes.
type TimeLevel[T lattice.Time[T]] struct {
	Entries []Entry[T]
}

// ValLevel is the ordered middle level. The values of key i occupy
// Vals[koffs[i]:koffs[i+1]] in the parent's offsets, and the leaf entries
// of Vals[j] occupy Child.Entries[Offs[j]:Offs[j+1]].
type ValLevel[V Ordered[V], T lattice.Time[T]] struct {
	Vals  []V
	Offs  []int
	Child TimeLevel[T]
}

// KeyLevel is the hash-ordered root level of the index.
type KeyLevel[K HashOrdered[K], V Ordered[V], T lattice.Time[T]] struct {
	Keys  []K
	Offs  []int
	Child ValLevel[V, T]
}

// Tuples returns the total number of leaf tuples in the index.
func (l *KeyLevel[K, V, T]) Tuples() int {
	if l == nil {
		return 0
	}
	return len(l.Child.Child.Entries)
}

// KeyCount returns the number of distinct keys in the index.
func (l *KeyLevel[K, V, T]) KeyCount() int {
	if l == nil {
		return 0
	}
	return len(l.Keys)
}

func keyEqual[K HashOrdered[K]](a, b K) bool {
	return !a.Less(b) && !b.Less(a)
}

func valEqual[V Ordered[V]](a, b V) bool {
	return !a.Less(b) && !b.Less(a)
}
