package trie

import (
	"sort"

	"github.com/nvos/difftrace/internal/lattice"
)

// ConsolidateEntries sorts entries by time and sums the deltas of equal
// times, dropping any time whose sum is zero. It reuses the input slice
// and returns the shortened result.
func ConsolidateEntries[T lattice.Time[T]](entries []Entry[T]) []Entry[T] {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Time.Compare(entries[j].Time) < 0
	})
	write := 0
	for i := 0; i < len(entries); {
		j := i + 1
		acc := entries[i].Delta
		for j < len(entries) && entries[i].Time.Compare(entries[j].Time) == 0 {
			acc += entries[j].Delta
			j++
		}
		if acc != 0 {
			entries[write] = Entry[T]{Time: entries[i].Time, Delta: acc}
			write++
		}
		i = j
	}
	return entries[:write]
}

// Merge combines two indexes into a new one. Keys present in only one
// input are copied; for keys present in both, values are merged in order
// and the time lists of equal (key, value) pairs are consolidated, with
// zero-sum times dropped. Values and keys left without entries disappear
// from the result. Neither input is modified.
func Merge[K HashOrdered[K], V Ordered[V], T lattice.Time[T]](a, b *KeyLevel[K, V, T]) *KeyLevel[K, V, T] {
	out := NewTupleBuilder[K, V, T](a.Tuples() + b.Tuples())

	i, j := 0, 0
	for i < len(a.Keys) && j < len(b.Keys) {
		switch {
		case a.Keys[i].Less(b.Keys[j]):
			copyKey(out, a, i)
			i++
		case b.Keys[j].Less(a.Keys[i]):
			copyKey(out, b, j)
			j++
		default:
			mergeKey(out, a, i, b, j)
			i++
			j++
		}
	}
	for ; i < len(a.Keys); i++ {
		copyKey(out, a, i)
	}
	for ; j < len(b.Keys); j++ {
		copyKey(out, b, j)
	}

	return out.Done()
}

// copyKey pushes every tuple under key index ki of src.
func copyKey[K HashOrdered[K], V Ordered[V], T lattice.Time[T]](out *TupleBuilder[K, V, T], src *KeyLevel[K, V, T], ki int) {
	key := src.Keys[ki]
	for vi := src.Offs[ki]; vi < src.Offs[ki+1]; vi++ {
		val := src.Child.Vals[vi]
		for ti := src.Child.Offs[vi]; ti < src.Child.Offs[vi+1]; ti++ {
			e := src.Child.Child.Entries[ti]
			out.PushTuple(key, val, e.Time, e.Delta)
		}
	}
}

// mergeKey merges the value ranges of one key present in both inputs.
func mergeKey[K HashOrdered[K], V Ordered[V], T lattice.Time[T]](out *TupleBuilder[K, V, T], a *KeyLevel[K, V, T], ai int, b *KeyLevel[K, V, T], bi int) {
	key := a.Keys[ai]
	vi, ve := a.Offs[ai], a.Offs[ai+1]
	wi, we := b.Offs[bi], b.Offs[bi+1]

	var scratch []Entry[T]
	for vi < ve && wi < we {
		av, bv := a.Child.Vals[vi], b.Child.Vals[wi]
		switch {
		case av.Less(bv):
			copyVal(out, key, a, vi)
			vi++
		case bv.Less(av):
			copyVal(out, key, b, wi)
			wi++
		default:
			scratch = scratch[:0]
			scratch = appendEntries(scratch, a, vi)
			scratch = appendEntries(scratch, b, wi)
			scratch = ConsolidateEntries(scratch)
			for _, e := range scratch {
				out.PushTuple(key, av, e.Time, e.Delta)
			}
			vi++
			wi++
		}
	}
	for ; vi < ve; vi++ {
		copyVal(out, key, a, vi)
	}
	for ; wi < we; wi++ {
		copyVal(out, key, b, wi)
	}
}

// copyVal pushes every leaf entry under value index vi of src.
func copyVal[K HashOrdered[K], V Ordered[V], T lattice.Time[T]](out *TupleBuilder[K, V, T], key K, src *KeyLevel[K, V, T], vi int) {
	val := src.Child.Vals[vi]
	for ti := src.Child.Offs[vi]; ti < src.Child.Offs[vi+1]; ti++ {
		e := src.Child.Child.Entries[ti]
		out.PushTuple(key, val, e.Time, e.Delta)
	}
}

func appendEntries[K HashOrdered[K], V Ordered[V], T lattice.Time[T]](dst []Entry[T], src *KeyLevel[K, V, T], vi int) []Entry[T] {
	return append(dst, src.Child.Child.Entries[src.Child.Offs[vi]:src.Child.Offs[vi+1]]...)
}
