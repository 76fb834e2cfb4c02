// Package trace implements the versioned index of an incremental
// computation engine: immutable batches of (key, value, time, delta)
// update tuples and the spine that merges them.
//
// A batch is built once, from a builder, and never mutated; batches are
// shared by pointer between the spine and any outstanding cursors, and
// the garbage collector reclaims them when the last holder lets go. The
// spine keeps the number of resident batches logarithmic in the total
// number of tuples by merging batches of similar size, and compacts
// historical times against its frontier when a merge leaves a single
// batch.
package trace

import (
	"github.com/nvos/difftrace/internal/lattice"
	"github.com/nvos/difftrace/internal/trie"
)

// Description records the provenance of a batch: the half-open interval
// [Lower, Upper) of original update times it covers and the frontier
// Since already applied to it by compaction. It is informational and does
// not influence merging.
type Description[T lattice.Time[T]] struct {
	Lower []T
	Upper []T
	Since []T
}

// Batch is one immutable collection of update tuples, indexed key by
// value by time.
type Batch[K trie.HashOrdered[K], V trie.Ordered[V], T lattice.Time[T]] struct {
	index *trie.KeyLevel[K, V, T]
	desc  Description[T]
}

// Len returns the total number of tuples in the batch. It is O(1) and is
// consulted by the spine on every insert.
func (b *Batch[K, V, T]) Len() int { return b.index.Tuples() }

// Description returns the batch's provenance metadata.
func (b *Batch[K, V, T]) Description() Description[T] { return b.desc }

// Cursor returns a cursor over the batch's tuples.
func (b *Batch[K, V, T]) Cursor() Cursor[K, V, T] { return b.index.Cursor() }

// Merge combines two batches into a new one, summing the deltas of
// tuples present in both and dropping zero sums. Neither input is
// modified. The result's description is empty on all bounds: a merge
// result's own interval is not individually meaningful, it is reassigned
// when the batch is advanced.
func (b *Batch[K, V, T]) Merge(other *Batch[K, V, T]) *Batch[K, V, T] {
	return &Batch[K, V, T]{
		index: trie.Merge(b.index, other.index),
		desc:  Description[T]{},
	}
}

// AdvanceBy rebuilds a batch with every time advanced to the given
// frontier, consolidating entries whose advanced times collide and
// dropping zero sums. This is the compaction step that discards
// historical detail below the frontier's resolution; it is one-way.
//
// The frontier must be non-empty; advancing against an empty frontier is
// a contract violation and panics, since silently keeping the old time
// would corrupt consolidation.
func AdvanceBy[K trie.HashOrdered[K], V trie.Ordered[V], T lattice.Time[T]](b *Batch[K, V, T], frontier []T) *Batch[K, V, T] {
	builder := trie.NewTupleBuilder[K, V, T](b.Len())

	if b.Len() > 0 {
		var times []trie.Entry[T]
		cur := b.index.Cursor()
		for cur.KeyValid() {
			for cur.ValValid() {
				cur.MapTimes(func(t T, delta int64) {
					advanced, ok := lattice.AdvanceBy(t, frontier)
					if !ok {
						panic("trace: advance with empty frontier")
					}
					times = append(times, trie.Entry[T]{Time: advanced, Delta: delta})
				})
				times = trie.ConsolidateEntries(times)
				for _, e := range times {
					builder.PushTuple(cur.Key(), cur.Val(), e.Time, e.Delta)
				}
				times = times[:0]
				cur.StepVal()
			}
			cur.StepKey()
		}
	}

	return &Batch[K, V, T]{
		index: builder.Done(),
		desc: Description[T]{
			Lower: b.desc.Lower,
			Upper: b.desc.Upper,
			Since: frontier,
		},
	}
}
