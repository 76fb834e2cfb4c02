package trie

import "github.com/nvos/difftrace/internal/lattice"

// TupleBuilder assembles an index from tuples arriving in final order:
// non-decreasing by key, within a key non-decreasing by value. Leaf
// entries are appended as given; the builder does not consolidate times,
// that is the caller's concern. Pushing a key or value that sorts before
// the previous one is a contract violation and panics.
type TupleBuilder[K HashOrdered[K], V Ordered[V], T lattice.Time[T]] struct {
	level KeyLevel[K, V, T]
}

// NewTupleBuilder returns a builder with capacity reserved for roughly
// the given number of tuples.
func NewTupleBuilder[K HashOrdered[K], V Ordered[V], T lattice.Time[T]](capacity int) *TupleBuilder[K, V, T] {
	b := &TupleBuilder[K, V, T]{}
	b.level.Offs = append(make([]int, 0, capacity/4+1), 0)
	b.level.Child.Offs = append(make([]int, 0, capacity/2+1), 0)
	b.level.Child.Child.Entries = make([]Entry[T], 0, capacity)
	return b
}

// PushTuple appends one (key, value, time, delta) tuple, opening a new
// key or value group whenever the key or value changes.
func (b *TupleBuilder[K, V, T]) PushTuple(key K, val V, t T, delta int64) {
	kl := &b.level
	vl := &kl.Child
	tl := &vl.Child

	newKey := len(kl.Keys) == 0
	if !newKey {
		last := kl.Keys[len(kl.Keys)-1]
		if key.Less(last) {
			panic("trie: keys pushed out of order")
		}
		newKey = last.Less(key)
	}
	if newKey {
		kl.Keys = append(kl.Keys, key)
		kl.Offs = append(kl.Offs, 0)
	}

	// A fresh key always opens a fresh value group, even if the value
	// equals the previous key's last value.
	newVal := newKey
	if !newVal {
		last := vl.Vals[len(vl.Vals)-1]
		if val.Less(last) {
			panic("trie: values pushed out of order")
		}
		newVal = last.Less(val)
	}
	if newVal {
		vl.Vals = append(vl.Vals, val)
		vl.Offs = append(vl.Offs, 0)
	}

	tl.Entries = append(tl.Entries, Entry[T]{Time: t, Delta: delta})
	vl.Offs[len(vl.Vals)] = len(tl.Entries)
	kl.Offs[len(kl.Keys)] = len(vl.Vals)
}

// Done finalizes and returns the built index. The builder must not be
// used afterwards.
func (b *TupleBuilder[K, V, T]) Done() *KeyLevel[K, V, T] {
	return &b.level
}
