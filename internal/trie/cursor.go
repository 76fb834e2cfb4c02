package trie

import (
	"sort"

	"github.com/nvos/difftrace/internal/lattice"
)

// Cursor navigates one index, positioned over a key and, within it, over
// a value. Seeks only move forward. The cursor reads the index without
// copying; the index must not be used as a builder target concurrently
// (built indexes never are).
type Cursor[K HashOrdered[K], V Ordered[V], T lattice.Time[T]] struct {
	level  *KeyLevel[K, V, T]
	keyPos int
	valPos int // absolute index into level.Child.Vals
}

// Cursor returns a cursor positioned at the first key and value.
func (l *KeyLevel[K, V, T]) Cursor() *Cursor[K, V, T] {
	return &Cursor[K, V, T]{level: l}
}

// KeyValid reports whether the cursor is positioned on a key.
func (c *Cursor[K, V, T]) KeyValid() bool {
	return c.keyPos < len(c.level.Keys)
}

// ValValid reports whether the cursor is positioned on a value under the
// current key.
func (c *Cursor[K, V, T]) ValValid() bool {
	return c.KeyValid() && c.valPos < c.level.Offs[c.keyPos+1]
}

// Key returns the current key. Undefined unless KeyValid.
func (c *Cursor[K, V, T]) Key() K { return c.level.Keys[c.keyPos] }

// Val returns the current value. Undefined unless ValValid.
func (c *Cursor[K, V, T]) Val() V { return c.level.Child.Vals[c.valPos] }

// StepKey advances to the next key and resets the value position.
func (c *Cursor[K, V, T]) StepKey() {
	c.keyPos++
	if c.KeyValid() {
		c.valPos = c.level.Offs[c.keyPos]
	}
}

// SeekKey advances to the first key at or after k. It never moves
// backward.
func (c *Cursor[K, V, T]) SeekKey(k K) {
	if !c.KeyValid() {
		return
	}
	rest := c.level.Keys[c.keyPos:]
	n := sort.Search(len(rest), func(i int) bool {
		return !rest[i].Less(k)
	})
	c.keyPos += n
	if c.KeyValid() {
		c.valPos = c.level.Offs[c.keyPos]
	}
}

// StepVal advances to the next value under the current key.
func (c *Cursor[K, V, T]) StepVal() { c.valPos++ }

// SeekVal advances to the first value at or after v under the current
// key. It never moves backward.
func (c *Cursor[K, V, T]) SeekVal(v V) {
	if !c.ValValid() {
		return
	}
	end := c.level.Offs[c.keyPos+1]
	rest := c.level.Child.Vals[c.valPos:end]
	n := sort.Search(len(rest), func(i int) bool {
		return !rest[i].Less(v)
	})
	c.valPos += n
}

// RewindKeys resets the cursor to the first key and value.
func (c *Cursor[K, V, T]) RewindKeys() {
	c.keyPos = 0
	c.valPos = 0
	if c.KeyValid() {
		c.valPos = c.level.Offs[0]
	}
}

// RewindVals resets the value position to the first value of the current
// key.
func (c *Cursor[K, V, T]) RewindVals() {
	if c.KeyValid() {
		c.valPos = c.level.Offs[c.keyPos]
	}
}

// MapTimes invokes f for every (time, delta) entry under the current key
// and value, in source order, without moving the cursor.
func (c *Cursor[K, V, T]) MapTimes(f func(T, int64)) {
	if !c.ValValid() {
		return
	}
	lo, hi := c.level.Child.Offs[c.valPos], c.level.Child.Offs[c.valPos+1]
	for _, e := range c.level.Child.Child.Entries[lo:hi] {
		f(e.Time, e.Delta)
	}
}
