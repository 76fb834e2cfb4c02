package trace

import (
	"github.com/nvos/difftrace/internal/lattice"
	"github.com/nvos/difftrace/internal/trie"
)

// Fanin merges several cursors into one, ordering by key (in the
// hash-consistent key order) and then by value. Each (key, value)
// position is presented once; MapTimes visits the time entries of every
// constituent cursor sharing the current key and value, so a downstream
// reader accumulating per-time deltas sees the union across batches.
// Fanin itself never sums deltas.
type Fanin[K trie.HashOrdered[K], V trie.Ordered[V], T lattice.Time[T]] struct {
	cursors []Cursor[K, V, T]
	atKey   []int // cursors positioned on the minimal current key
	atVal   []int // subset of atKey positioned on the minimal current value
}

// NewFanin builds a fan-in cursor over the given cursors.
func NewFanin[K trie.HashOrdered[K], V trie.Ordered[V], T lattice.Time[T]](cursors []Cursor[K, V, T]) *Fanin[K, V, T] {
	f := &Fanin[K, V, T]{cursors: cursors}
	f.electKey()
	return f
}

// electKey recomputes which cursors sit on the minimal valid key, then
// elects the value position beneath it.
func (f *Fanin[K, V, T]) electKey() {
	f.atKey = f.atKey[:0]
	for i, c := range f.cursors {
		if !c.KeyValid() {
			continue
		}
		if len(f.atKey) == 0 {
			f.atKey = append(f.atKey, i)
			continue
		}
		leader := f.cursors[f.atKey[0]].Key()
		switch {
		case c.Key().Less(leader):
			f.atKey = append(f.atKey[:0], i)
		case !leader.Less(c.Key()):
			f.atKey = append(f.atKey, i)
		}
	}
	f.electVal()
}

// electVal recomputes which of the current-key cursors sit on the
// minimal valid value.
func (f *Fanin[K, V, T]) electVal() {
	f.atVal = f.atVal[:0]
	for _, i := range f.atKey {
		c := f.cursors[i]
		if !c.ValValid() {
			continue
		}
		if len(f.atVal) == 0 {
			f.atVal = append(f.atVal, i)
			continue
		}
		leader := f.cursors[f.atVal[0]].Val()
		switch {
		case c.Val().Less(leader):
			f.atVal = append(f.atVal[:0], i)
		case !leader.Less(c.Val()):
			f.atVal = append(f.atVal, i)
		}
	}
}

// KeyValid reports whether any constituent cursor still has a key.
func (f *Fanin[K, V, T]) KeyValid() bool { return len(f.atKey) > 0 }

// ValValid reports whether the current key has a value position.
func (f *Fanin[K, V, T]) ValValid() bool { return len(f.atVal) > 0 }

// Key returns the current minimal key. Undefined unless KeyValid.
func (f *Fanin[K, V, T]) Key() K { return f.cursors[f.atKey[0]].Key() }

// Val returns the current minimal value. Undefined unless ValValid.
func (f *Fanin[K, V, T]) Val() V { return f.cursors[f.atVal[0]].Val() }

// StepKey advances every cursor on the current key and re-elects.
func (f *Fanin[K, V, T]) StepKey() {
	for _, i := range f.atKey {
		f.cursors[i].StepKey()
	}
	f.electKey()
}

// SeekKey advances every cursor to the first key at or after k.
func (f *Fanin[K, V, T]) SeekKey(k K) {
	for _, c := range f.cursors {
		c.SeekKey(k)
	}
	f.electKey()
}

// StepVal advances every cursor on the current value and re-elects the
// value among cursors still on the current key.
func (f *Fanin[K, V, T]) StepVal() {
	for _, i := range f.atVal {
		f.cursors[i].StepVal()
	}
	f.electVal()
}

// SeekVal advances every current-key cursor to the first value at or
// after v.
func (f *Fanin[K, V, T]) SeekVal(v V) {
	for _, i := range f.atKey {
		f.cursors[i].SeekVal(v)
	}
	f.electVal()
}

// RewindKeys resets every cursor and re-elects.
func (f *Fanin[K, V, T]) RewindKeys() {
	for _, c := range f.cursors {
		c.RewindKeys()
	}
	f.electKey()
}

// RewindVals resets the value position of every current-key cursor.
func (f *Fanin[K, V, T]) RewindVals() {
	for _, i := range f.atKey {
		f.cursors[i].RewindVals()
	}
	f.electVal()
}

// MapTimes invokes fn for the time entries of every cursor on the
// current key and value.
func (f *Fanin[K, V, T]) MapTimes(fn func(T, int64)) {
	for _, i := range f.atVal {
		f.cursors[i].MapTimes(fn)
	}
}
