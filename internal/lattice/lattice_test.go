package lattice

import "testing"

func TestStep_LatticeLaws(t *testing.T) {
	cases := []struct{ a, b Step }{
		{0, 0}, {1, 2}, {7, 3}, {5, 5},
	}
	for _, c := range cases {
		if c.a.Join(c.b) != c.b.Join(c.a) {
			t.Errorf("join not commutative for %d, %d", c.a, c.b)
		}
		if c.a.Meet(c.b) != c.b.Meet(c.a) {
			t.Errorf("meet not commutative for %d, %d", c.a, c.b)
		}
		if !c.a.LessEqual(c.a.Join(c.b)) {
			t.Errorf("join must dominate %d", c.a)
		}
		if !c.a.Meet(c.b).LessEqual(c.a) {
			t.Errorf("meet must be dominated by %d", c.a)
		}
	}
	if Step(3).Compare(4) != -1 || Step(4).Compare(3) != 1 || Step(4).Compare(4) != 0 {
		t.Error("Compare must agree with the numeric order")
	}
}

func TestPair_PartialOrder(t *testing.T) {
	a := PairOf[Step, Step](1, 2)
	b := PairOf[Step, Step](2, 1)

	if a.LessEqual(b) || b.LessEqual(a) {
		t.Error("(1,2) and (2,1) must be incomparable")
	}
	if !a.LessEqual(a.Join(b)) || !b.LessEqual(a.Join(b)) {
		t.Error("join must dominate both pairs")
	}
	if got := a.Join(b); got.Outer != 2 || got.Inner != 2 {
		t.Errorf("expected join (2,2), got %v", got)
	}
	if got := a.Meet(b); got.Outer != 1 || got.Inner != 1 {
		t.Errorf("expected meet (1,1), got %v", got)
	}
	if a.Compare(b) != -1 {
		t.Error("Compare must order lexicographically")
	}
}

func TestAdvanceBy_Step(t *testing.T) {
	got, ok := AdvanceBy(Step(3), []Step{5})
	if !ok || got != 5 {
		t.Errorf("advancing 3 by {5} should give 5, got %d ok=%v", got, ok)
	}

	got, ok = AdvanceBy(Step(7), []Step{5})
	if !ok || got != 7 {
		t.Errorf("a time beyond the frontier must be unchanged, got %d", got)
	}

	// The nearest frontier element wins.
	got, ok = AdvanceBy(Step(3), []Step{5, 9})
	if !ok || got != 5 {
		t.Errorf("advancing 3 by {5,9} should give 5, got %d", got)
	}
}

func TestAdvanceBy_EmptyFrontierFails(t *testing.T) {
	if _, ok := AdvanceBy(Step(3), nil); ok {
		t.Error("advancing by an empty frontier must fail")
	}
}

func TestAdvanceBy_Idempotent(t *testing.T) {
	frontier := []Step{4, 8}
	once, _ := AdvanceBy(Step(2), frontier)
	twice, _ := AdvanceBy(once, frontier)
	if once != twice {
		t.Errorf("advance must be idempotent: %d then %d", once, twice)
	}
}

func TestFrontier_KeepsAntichain(t *testing.T) {
	f := NewFrontier[Step](5)

	if f.Insert(7) {
		t.Error("7 is dominated by 5 and must be rejected")
	}
	if !f.Insert(3) {
		t.Error("3 precedes 5 and must replace it")
	}
	if f.Len() != 1 {
		t.Errorf("expected singleton frontier, got %d elements", f.Len())
	}
	if f.Elements()[0] != 3 {
		t.Errorf("expected frontier {3}, got %v", f.Elements())
	}
}

func TestFrontier_PairAntichain(t *testing.T) {
	f := NewFrontier(PairOf[Step, Step](1, 3), PairOf[Step, Step](3, 1))
	if f.Len() != 2 {
		t.Fatalf("incomparable pairs must coexist, got %d elements", f.Len())
	}

	if !f.AnyLessEqual(PairOf[Step, Step](2, 3)) {
		t.Error("(2,3) is beyond (1,3)")
	}
	if f.AnyLessEqual(PairOf[Step, Step](2, 0)) {
		t.Error("(2,0) is beyond neither element")
	}

	// (0,0) precedes both elements and collapses the antichain.
	f.Insert(PairOf[Step, Step](0, 0))
	if f.Len() != 1 {
		t.Errorf("expected collapsed frontier, got %d elements", f.Len())
	}
}
