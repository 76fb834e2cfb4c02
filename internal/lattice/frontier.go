package lattice

// Frontier is an antichain of times: a set of pairwise-incomparable
// elements marking the boundary at or beyond which all future times lie.
type Frontier[T Time[T]] struct {
	elements []T
}

// NewFrontier builds a frontier from the given times, keeping only the
// minimal, pairwise-incomparable ones.
func NewFrontier[T Time[T]](times ...T) *Frontier[T] {
	f := &Frontier[T]{}
	for _, t := range times {
		f.Insert(t)
	}
	return f
}

// Insert adds t to the frontier. It reports whether t was retained: an
// element dominated by an existing one is redundant and dropped, and
// inserting t evicts any existing elements it is at or before.
func (f *Frontier[T]) Insert(t T) bool {
	for _, e := range f.elements {
		if e.LessEqual(t) {
			return false
		}
	}
	kept := f.elements[:0]
	for _, e := range f.elements {
		if !t.LessEqual(e) {
			kept = append(kept, e)
		}
	}
	f.elements = append(kept, t)
	return true
}

// AnyLessEqual reports whether some frontier element is at or before t,
// i.e. whether t is at or beyond the frontier.
func (f *Frontier[T]) AnyLessEqual(t T) bool {
	for _, e := range f.elements {
		if e.LessEqual(t) {
			return true
		}
	}
	return false
}

// Elements returns the frontier's times. The slice is shared; callers
// must not modify it.
func (f *Frontier[T]) Elements() []T { return f.elements }

// Len returns the number of elements in the antichain.
func (f *Frontier[T]) Len() int { return len(f.elements) }
