// Package lattice provides the logical time types used by the trace layer.
//
// Times form a join semilattice with a partial order. The trace only ever
// needs three operations from a time type: the lattice join and meet, the
// partial order, and a total order extending it that is used for sorting
// and consolidation. Single-dimension times (Step) are totally ordered;
// product times (Pair) are genuinely partial.
package lattice

// Time is the constraint satisfied by logical timestamp types.
//
// Compare must be a total order extending the partial order given by
// LessEqual: whenever a.LessEqual(b) and a != b, Compare(a, b) < 0.
type Time[T any] interface {
	// Join returns the least upper bound of the two times.
	Join(T) T

	// Meet returns the greatest lower bound of the two times.
	Meet(T) T

	// LessEqual reports whether the receiver is at or before the argument
	// in the partial order.
	LessEqual(T) bool

	// Compare returns -1, 0 or +1 ordering the receiver against the
	// argument in a total order extending the partial order.
	Compare(T) int
}

// AdvanceBy returns the least time at or after t that is also at or after
// some element of frontier. It reports ok=false only when the frontier is
// empty, in which case no such time exists.
func AdvanceBy[T Time[T]](t T, frontier []T) (T, bool) {
	if len(frontier) == 0 {
		var zero T
		return zero, false
	}
	result := t.Join(frontier[0])
	for _, f := range frontier[1:] {
		result = result.Meet(t.Join(f))
	}
	return result, true
}

// Step is a totally ordered single-dimension time.
type Step uint64

// Join returns the larger of the two steps.
func (s Step) Join(o Step) Step {
	if o > s {
		return o
	}
	return s
}

// Meet returns the smaller of the two steps.
func (s Step) Meet(o Step) Step {
	if o < s {
		return o
	}
	return s
}

// LessEqual reports whether s <= o.
func (s Step) LessEqual(o Step) bool { return s <= o }

// Compare totally orders steps.
func (s Step) Compare(o Step) int {
	switch {
	case s < o:
		return -1
	case s > o:
		return 1
	default:
		return 0
	}
}

// Pair is the product of two times. Its partial order is coordinate-wise,
// so distinct pairs can be incomparable; Compare is lexicographic.
type Pair[A Time[A], B Time[B]] struct {
	Outer A
	Inner B
}

// PairOf builds a Pair from its coordinates.
func PairOf[A Time[A], B Time[B]](outer A, inner B) Pair[A, B] {
	return Pair[A, B]{Outer: outer, Inner: inner}
}

// Join joins coordinate-wise.
func (p Pair[A, B]) Join(o Pair[A, B]) Pair[A, B] {
	return Pair[A, B]{Outer: p.Outer.Join(o.Outer), Inner: p.Inner.Join(o.Inner)}
}

// Meet meets coordinate-wise.
func (p Pair[A, B]) Meet(o Pair[A, B]) Pair[A, B] {
	return Pair[A, B]{Outer: p.Outer.Meet(o.Outer), Inner: p.Inner.Meet(o.Inner)}
}

// LessEqual reports whether both coordinates are at or before o's.
func (p Pair[A, B]) LessEqual(o Pair[A, B]) bool {
	return p.Outer.LessEqual(o.Outer) && p.Inner.LessEqual(o.Inner)
}

// Compare orders pairs lexicographically by outer then inner coordinate.
func (p Pair[A, B]) Compare(o Pair[A, B]) int {
	if c := p.Outer.Compare(o.Outer); c != 0 {
		return c
	}
	return p.Inner.Compare(o.Inner)
}
