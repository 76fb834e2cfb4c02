// Package staging provides an ordered accumulation buffer for update
// tuples.
//
// The buffered batch builder assumes a single logical time, which suits
// injected batches but not an operator accumulating out-of-order updates
// at many times between flushes. A staging Buffer keeps such updates in
// a btree ordered the way the index wants them (key hash order, then
// value, then time), merging exact duplicates as they arrive, so a flush
// is a single ordered scan through the pre-ordered builder.
package staging

import (
	"github.com/google/btree"

	"github.com/nvos/difftrace/internal/lattice"
	"github.com/nvos/difftrace/internal/trace"
	"github.com/nvos/difftrace/internal/trie"
)

// degree is the btree branching factor, matching the usual in-memory
// table setting.
const degree = 32

type update[K trie.HashOrdered[K], V trie.Ordered[V], T lattice.Time[T]] struct {
	hash  uint64
	key   K
	val   V
	time  T
	delta int64
}

// Buffer accumulates update tuples in index order.
type Buffer[K trie.HashOrdered[K], V trie.Ordered[V], T lattice.Time[T]] struct {
	tree *btree.BTreeG[update[K, V, T]]
}

// New returns an empty buffer.
func New[K trie.HashOrdered[K], V trie.Ordered[V], T lattice.Time[T]]() *Buffer[K, V, T] {
	less := func(a, b update[K, V, T]) bool {
		if a.hash != b.hash {
			return a.hash < b.hash
		}
		if a.key.Less(b.key) {
			return true
		}
		if b.key.Less(a.key) {
			return false
		}
		if a.val.Less(b.val) {
			return true
		}
		if b.val.Less(a.val) {
			return false
		}
		return a.time.Compare(b.time) < 0
	}
	return &Buffer[K, V, T]{tree: btree.NewG(degree, less)}
}

// Add records one update. Updates sharing key, value and time are
// consolidated immediately; a delta sum of zero removes the entry.
func (b *Buffer[K, V, T]) Add(key K, val V, t T, delta int64) {
	if delta == 0 {
		return
	}
	u := update[K, V, T]{hash: key.Hashed(), key: key, val: val, time: t, delta: delta}
	if existing, ok := b.tree.Get(u); ok {
		u.delta += existing.delta
		if u.delta == 0 {
			b.tree.Delete(u)
			return
		}
	}
	b.tree.ReplaceOrInsert(u)
}

// Len returns the number of distinct (key, value, time) entries staged.
func (b *Buffer[K, V, T]) Len() int { return b.tree.Len() }

// Flush drains the buffer through a pre-ordered builder and returns the
// resulting batch with the given description bounds. The buffer is empty
// afterwards. A flush of an empty buffer yields an empty batch.
func (b *Buffer[K, V, T]) Flush(lower, upper []T) *trace.Batch[K, V, T] {
	builder := trace.NewOrderedBuilder[K, V, T]()
	b.tree.Ascend(func(u update[K, V, T]) bool {
		builder.Push(u.key, u.val, u.time, u.delta)
		return true
	})
	b.tree.Clear(false)
	return builder.Done(lower, upper)
}
