package trace

import (
	"github.com/nvos/difftrace/internal/lattice"
	"github.com/nvos/difftrace/internal/trie"
)

// Cursor is the read-only navigation contract over update tuples,
// grouped by key, then value, then time. Positions advance forward only;
// Rewind resets a level. A batch cursor satisfies it directly, and Fanin
// presents several batch cursors as one.
type Cursor[K trie.HashOrdered[K], V trie.Ordered[V], T lattice.Time[T]] interface {
	// KeyValid reports whether the current key position is a real key.
	KeyValid() bool

	// ValValid reports whether the current value position is a real value
	// under the current key.
	ValValid() bool

	// Key returns the current key. Undefined unless KeyValid.
	Key() K

	// Val returns the current value. Undefined unless ValValid.
	Val() V

	// StepKey advances to the next key and resets the value position.
	StepKey()

	// SeekKey advances to the first key at or after k, never backward.
	SeekKey(k K)

	// StepVal advances to the next value under the current key.
	StepVal()

	// SeekVal advances to the first value at or after v, never backward.
	SeekVal(v V)

	// RewindKeys resets to the first key and value.
	RewindKeys()

	// RewindVals resets to the first value under the current key.
	RewindVals()

	// MapTimes invokes f for every (time, delta) entry under the current
	// key and value without moving the cursor.
	MapTimes(f func(T, int64))
}
