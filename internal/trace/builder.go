package trace

import (
	"sort"

	"github.com/nvos/difftrace/internal/lattice"
	"github.com/nvos/difftrace/internal/trie"
)

// Builder accumulates update tuples, in no particular order of calls,
// and finalizes them into an immutable batch. Done consumes the builder.
type Builder[K trie.HashOrdered[K], V trie.Ordered[V], T lattice.Time[T]] interface {
	Push(key K, val V, t T, delta int64)
	Done(lower, upper []T) *Batch[K, V, T]
}

// chunkSize is the number of buffered tuples per chunk in the buffered
// builder.
const chunkSize = 1 << 12

// tuple is a buffered update with its key hash stashed so the sort and
// run detection never rehash.
type tuple[K any, V any] struct {
	hash  uint64
	key   K
	val   V
	delta int64
}

// BufferedBuilder accumulates unsorted tuples in fixed-size chunks and
// sorts them by key hash on Done, bounding the peak working set. It is
// meant for batches injected at a single logical time: every Push
// overwrites the builder's time, so the last pushed time stands for all
// tuples.
type BufferedBuilder[K trie.HashOrdered[K], V trie.Ordered[V], T lattice.Time[T]] struct {
	time   T
	buffer []tuple[K, V]
	chunks [][]tuple[K, V]
}

// NewBufferedBuilder returns an empty buffered builder.
func NewBufferedBuilder[K trie.HashOrdered[K], V trie.Ordered[V], T lattice.Time[T]]() *BufferedBuilder[K, V, T] {
	return &BufferedBuilder[K, V, T]{
		buffer: make([]tuple[K, V], 0, chunkSize),
	}
}

// Push buffers one tuple.
func (b *BufferedBuilder[K, V, T]) Push(key K, val V, t T, delta int64) {
	b.time = t
	b.buffer = append(b.buffer, tuple[K, V]{hash: key.Hashed(), key: key, val: val, delta: delta})
	if len(b.buffer) == chunkSize {
		b.chunks = append(b.chunks, b.buffer)
		b.buffer = make([]tuple[K, V], 0, chunkSize)
	}
}

// Done finalizes the batch. Multi-chunk input is radix-sorted by key
// hash and consolidated run by run; a single chunk is consolidated
// directly without the sort.
func (b *BufferedBuilder[K, V, T]) Done(lower, upper []T) *Batch[K, V, T] {
	count := len(b.buffer)
	for _, chunk := range b.chunks {
		count += len(chunk)
	}

	builder := trie.NewTupleBuilder[K, V, T](count)

	if len(b.chunks) > 0 {
		if len(b.buffer) > 0 {
			b.chunks = append(b.chunks, b.buffer)
			b.buffer = nil
		}
		all := make([]tuple[K, V], 0, count)
		for _, chunk := range b.chunks {
			all = append(all, chunk...)
		}
		b.chunks = nil
		radixSortByHash(all)

		// Walk the hash-sorted tuples, consolidating each run of equal
		// hashes before feeding the trie builder.
		runStart := 0
		currentHash := uint64(0)
		for i, t := range all {
			if t.hash != currentHash {
				currentHash = t.hash
				b.emitRun(builder, all[runStart:i])
				runStart = i
			}
		}
		b.emitRun(builder, all[runStart:])
	} else {
		b.emitRun(builder, b.buffer)
		b.buffer = nil
	}

	return &Batch[K, V, T]{
		index: builder.Done(),
		desc:  Description[T]{Lower: lower, Upper: upper, Since: lower},
	}
}

// emitRun consolidates one run by (key, value) and pushes the survivors
// at the builder's uniform time.
func (b *BufferedBuilder[K, V, T]) emitRun(builder *trie.TupleBuilder[K, V, T], run []tuple[K, V]) {
	for _, t := range consolidateTuples(run) {
		builder.PushTuple(t.key, t.val, b.time, t.delta)
	}
}

// consolidateTuples sorts a run by key then value and sums the deltas of
// equal (key, value) pairs, dropping zero sums. The slice is reused.
func consolidateTuples[K trie.HashOrdered[K], V trie.Ordered[V]](run []tuple[K, V]) []tuple[K, V] {
	sort.Slice(run, func(i, j int) bool {
		if run[i].hash != run[j].hash {
			return run[i].hash < run[j].hash
		}
		if run[i].key.Less(run[j].key) {
			return true
		}
		if run[j].key.Less(run[i].key) {
			return false
		}
		return run[i].val.Less(run[j].val)
	})

	write := 0
	for i := 0; i < len(run); {
		j := i + 1
		acc := run[i].delta
		for j < len(run) && sameKeyVal(run[i], run[j]) {
			acc += run[j].delta
			j++
		}
		if acc != 0 {
			run[write] = run[i]
			run[write].delta = acc
			write++
		}
		i = j
	}
	return run[:write]
}

func sameKeyVal[K trie.HashOrdered[K], V trie.Ordered[V]](a, b tuple[K, V]) bool {
	if a.hash != b.hash || a.key.Less(b.key) || b.key.Less(a.key) {
		return false
	}
	return !a.val.Less(b.val) && !b.val.Less(a.val)
}

// OrderedBuilder feeds tuples straight into the trie builder with no
// buffering or sorting. The caller must push in final order: key hash
// order, then value order, then time, with no duplicate (key, value,
// time) entries. It is the builder of choice when the input is already
// ordered, such as the output of a cursor scan.
type OrderedBuilder[K trie.HashOrdered[K], V trie.Ordered[V], T lattice.Time[T]] struct {
	builder *trie.TupleBuilder[K, V, T]
}

// NewOrderedBuilder returns an empty ordered builder.
func NewOrderedBuilder[K trie.HashOrdered[K], V trie.Ordered[V], T lattice.Time[T]]() *OrderedBuilder[K, V, T] {
	return &OrderedBuilder[K, V, T]{builder: trie.NewTupleBuilder[K, V, T](0)}
}

// Push appends one pre-ordered tuple.
func (b *OrderedBuilder[K, V, T]) Push(key K, val V, t T, delta int64) {
	b.builder.PushTuple(key, val, t, delta)
}

// Done finalizes the batch.
func (b *OrderedBuilder[K, V, T]) Done(lower, upper []T) *Batch[K, V, T] {
	return &Batch[K, V, T]{
		index: b.builder.Done(),
		desc:  Description[T]{Lower: lower, Upper: upper, Since: lower},
	}
}
