package trace

import (
	"time"

	"github.com/nvos/difftrace/internal/lattice"
	"github.com/nvos/difftrace/internal/trie"
)

// Spine owns an ordered sequence of immutable batches, oldest and
// largest first, and the frontier against which times are eventually
// compacted. It is the queryable trace handed to downstream operators.
//
// A spine has a single logical writer; it does no locking of its own.
// Batches already resident stay valid for any cursors holding them while
// the spine merges: merges allocate new batches, never mutate.
//
// Merging is eager and synchronous. On every insert the spine first
// absorbs resident batches smaller than the incoming one, then restores
// the size doubling discipline from the top of the list, which keeps the
// batch count logarithmic in the total number of tuples.
type Spine[K trie.HashOrdered[K], V trie.Ordered[V], T lattice.Time[T]] struct {
	frontier *lattice.Frontier[T]
	batches  []*Batch[K, V, T]
	stats    *Stats
}

// New constructs an empty spine with a singleton frontier at the given
// initial time.
func New[K trie.HashOrdered[K], V trie.Ordered[V], T lattice.Time[T]](initial T) *Spine[K, V, T] {
	return &Spine[K, V, T]{
		frontier: lattice.NewFrontier(initial),
		stats:    newStats(),
	}
}

// Insert adds a freshly built batch to the spine, merging resident
// batches as required by the size policy. Empty batches are a no-op.
func (s *Spine[K, V, T]) Insert(batch *Batch[K, V, T]) {
	if batch.Len() == 0 {
		return
	}
	s.stats.inserts.Add(1)
	s.stats.insertedTuples.Add(int64(batch.Len()))

	// Absorption: a large incoming batch first rolls up the smaller
	// resident batches above it, so pushing it cannot strand a stack of
	// undersized batches beneath a big one.
	for len(s.batches) >= 2 && s.batches[len(s.batches)-2].Len() < batch.Len() {
		merged := s.mergeTop()
		if merged.Len() > 0 {
			s.batches = append(s.batches, merged)
		}
	}

	if batch.Len() > 0 {
		s.batches = append(s.batches, batch)
	}

	// Doubling: restore the invariant that each batch is at least twice
	// the size of the one above it. When a merge empties the list, the
	// result is the whole trace and is the one safe point to advance
	// times to the frontier.
	for len(s.batches) >= 2 && s.batches[len(s.batches)-2].Len() < 2*s.batches[len(s.batches)-1].Len() {
		merged := s.mergeTop()
		if len(s.batches) == 0 {
			merged = AdvanceBy(merged, s.frontier.Elements())
			s.stats.advances.Add(1)
		}
		if merged.Len() > 0 {
			s.batches = append(s.batches, merged)
		}
	}
}

// mergeTop pops the top two batches and merges them, recording merge
// statistics.
func (s *Spine[K, V, T]) mergeTop() *Batch[K, V, T] {
	top := s.batches[len(s.batches)-1]
	next := s.batches[len(s.batches)-2]
	s.batches = s.batches[:len(s.batches)-2]

	start := time.Now()
	merged := top.Merge(next)
	s.stats.observeMerge(top.Len()+next.Len(), time.Since(start))
	return merged
}

// Cursor returns a fan-in cursor over the resident batches, presenting
// one sorted stream of keys and values. Deltas for a (key, value, time)
// appearing in several batches are reported per batch; summation is the
// reader's concern.
func (s *Spine[K, V, T]) Cursor() Cursor[K, V, T] {
	cursors := make([]Cursor[K, V, T], 0, len(s.batches))
	for _, b := range s.batches {
		if b.Len() > 0 {
			cursors = append(cursors, b.Cursor())
		}
	}
	return NewFanin(cursors)
}

// AdvanceBy replaces the spine's frontier. Resident batches are not
// touched: the new frontier takes effect at the next compaction point in
// Insert. Eagerly compacting every resident batch on each frontier move
// would forfeit the amortized merge cost.
func (s *Spine[K, V, T]) AdvanceBy(frontier []T) {
	s.frontier = lattice.NewFrontier(frontier...)
}

// Frontier returns the spine's current frontier.
func (s *Spine[K, V, T]) Frontier() *lattice.Frontier[T] { return s.frontier }

// Layers returns the tuple counts of the resident batches, oldest
// first.
func (s *Spine[K, V, T]) Layers() []int {
	sizes := make([]int, len(s.batches))
	for i, b := range s.batches {
		sizes[i] = b.Len()
	}
	return sizes
}

// Len returns the total tuple count across resident batches.
func (s *Spine[K, V, T]) Len() int {
	total := 0
	for _, b := range s.batches {
		total += b.Len()
	}
	return total
}

// Stats returns a snapshot of the spine's merge statistics.
func (s *Spine[K, V, T]) Stats() StatsSnapshot {
	return s.stats.snapshot()
}
