package trace

import (
	"fmt"
	"math"
	"testing"

	"github.com/nvos/difftrace/internal/lattice"
	"github.com/nvos/difftrace/internal/trie"
)

// batchOfSize builds a batch of n distinct tuples at the given time,
// with keys drawn from a disjoint namespace.
func batchOfSize(t *testing.T, name string, n int, at lattice.Step) *testBatch {
	t.Helper()
	rows := make([]row, n)
	for i := range rows {
		rows[i] = row{key: trie.String(fmt.Sprintf("%s-%04d", name, i)), val: 1, delta: 1}
	}
	return buildAt(t, at, rows)
}

func TestSpine_InsertEmptyIsNoop(t *testing.T) {
	s := New[trie.String, trie.Int64](lattice.Step(0))
	s.Insert(buildAt(t, 0, nil))
	if len(s.Layers()) != 0 {
		t.Errorf("empty batch must not be retained, got layers %v", s.Layers())
	}
}

func TestSpine_DoublingMergesEqualSizes(t *testing.T) {
	s := New[trie.String, trie.Int64](lattice.Step(0))
	s.Insert(batchOfSize(t, "a", 1, 0))
	s.Insert(batchOfSize(t, "b", 1, 1))

	// Two size-1 layers violate the doubling discipline and merge; the
	// merge empties the list, so the result is also advanced.
	if got := s.Layers(); len(got) != 1 || got[0] != 2 {
		t.Fatalf("expected single merged layer of 2 tuples, got %v", got)
	}
}

func TestSpine_AbsorptionRollsUpSmallerLayers(t *testing.T) {
	s := New[trie.String, trie.Int64](lattice.Step(0))

	// Arrange resident layers [4, 1]: the size-1 layer is less than
	// half the size-4 layer, so doubling leaves it alone.
	s.Insert(batchOfSize(t, "a", 4, 0))
	s.Insert(batchOfSize(t, "b", 1, 1))
	if got := s.Layers(); len(got) != 2 || got[0] != 4 || got[1] != 1 {
		t.Fatalf("expected resident layers [4 1], got %v", got)
	}

	// A size-10 batch absorbs both resident layers on its way in
	// rather than stacking on top of them.
	s.Insert(batchOfSize(t, "c", 10, 2))
	if got := s.Layers(); len(got) != 1 || got[0] != 15 {
		t.Fatalf("expected absorbed single layer of 15 tuples, got %v", got)
	}
}

func TestSpine_SmallBatchSequenceEndsMerged(t *testing.T) {
	// The documented 1, 1, 10 sequence ends fully rolled up.
	s := New[trie.String, trie.Int64](lattice.Step(0))
	s.Insert(batchOfSize(t, "a", 1, 0))
	s.Insert(batchOfSize(t, "b", 1, 1))
	s.Insert(batchOfSize(t, "c", 10, 2))

	if got := s.Layers(); len(got) != 1 || got[0] != 12 {
		t.Fatalf("expected single layer of 12 tuples, got %v", got)
	}
}

func TestSpine_AbsorptionTieLeavesResident(t *testing.T) {
	// Absorption triggers on strictly-smaller resident layers only; a
	// tie leaves the resident layer for the doubling phase.
	s := New[trie.String, trie.Int64](lattice.Step(0))
	s.Insert(batchOfSize(t, "a", 8, 0))
	s.Insert(batchOfSize(t, "b", 2, 1))
	if got := s.Layers(); len(got) != 2 {
		t.Fatalf("expected [8 2], got %v", got)
	}

	// Incoming size 2 equals the resident size-2 layer: no absorption.
	// Doubling merges 2+2=4, and [8 4] satisfies the size discipline.
	s.Insert(batchOfSize(t, "c", 2, 2))
	if got := s.Layers(); len(got) != 2 || got[0] != 8 || got[1] != 4 {
		t.Fatalf("expected doubling to stop at [8 4], got %v", got)
	}
}

func TestSpine_LayerCountLogarithmic(t *testing.T) {
	s := New[trie.String, trie.Int64](lattice.Step(0))

	const n = 1024
	for i := 0; i < n; i++ {
		s.Insert(batchOfSize(t, fmt.Sprintf("k%d", i), 1, lattice.Step(i)))
	}

	bound := 2*int(math.Log2(float64(s.Len()+1))) + 2
	if layers := len(s.Layers()); layers > bound {
		t.Errorf("expected O(log n) layers for %d tuples, got %d (bound %d)",
			s.Len(), layers, bound)
	}
}

func TestSpine_CancellationDiscardsEmptyMerge(t *testing.T) {
	s := New[trie.String, trie.Int64](lattice.Step(0))
	s.Insert(buildAt(t, 0, []row{{"a", 1, 0, 1}}))
	s.Insert(buildAt(t, 0, []row{{"a", 1, 0, -1}}))

	if got := s.Layers(); len(got) != 0 {
		t.Errorf("fully cancelled trace must hold no layers, got %v", got)
	}
	if cur := s.Cursor(); cur.KeyValid() {
		t.Error("cursor over cancelled trace must be exhausted")
	}
}

func TestSpine_CursorSpansLayers(t *testing.T) {
	s := New[trie.String, trie.Int64](lattice.Step(0))

	// Sizes 4 then 1 stay as separate layers.
	s.Insert(buildAt(t, 0, []row{
		{"a", 1, 0, 1}, {"b", 1, 0, 1}, {"c", 1, 0, 1}, {"d", 1, 0, 1},
	}))
	s.Insert(buildAt(t, 1, []row{{"a", 1, 1, 2}}))
	if len(s.Layers()) != 2 {
		t.Fatalf("expected two resident layers, got %v", s.Layers())
	}

	totals := summed(s.Cursor())
	want := map[entry]int64{
		{"a", 1, 0}: 1,
		{"a", 1, 1}: 2,
		{"b", 1, 0}: 1,
		{"c", 1, 0}: 1,
		{"d", 1, 0}: 1,
	}
	sameTotals(t, totals, want)
}

func TestSpine_AdvanceByIsDeferred(t *testing.T) {
	s := New[trie.String, trie.Int64](lattice.Step(0))
	s.Insert(buildAt(t, 1, []row{{"a", 1, 1, 1}}))

	// Moving the frontier does not rewrite the resident layer.
	s.AdvanceBy([]lattice.Step{5})
	for k := range summed(s.Cursor()) {
		if k.time != 1 {
			t.Errorf("resident times must be untouched by AdvanceBy, got %d", k.time)
		}
	}

	// The next sole-layer merge applies the frontier.
	s.Insert(buildAt(t, 2, []row{{"b", 1, 2, 1}}))
	if len(s.Layers()) != 1 {
		t.Fatalf("expected layers merged, got %v", s.Layers())
	}
	totals := summed(s.Cursor())
	want := map[entry]int64{
		{"a", 1, 5}: 1,
		{"b", 1, 5}: 1,
	}
	sameTotals(t, totals, want)
}

func TestSpine_SharedBatchSurvivesMerges(t *testing.T) {
	s := New[trie.String, trie.Int64](lattice.Step(0))
	batch := buildAt(t, 0, []row{{"a", 1, 0, 1}})
	before := enumerate(batch.Cursor())

	s.Insert(batch)
	// Trigger merges involving the inserted batch.
	s.Insert(buildAt(t, 1, []row{{"b", 1, 1, 1}}))
	s.Insert(buildAt(t, 2, []row{{"c", 1, 2, 1}}))

	// The caller's handle still reads the original content.
	sameRows(t, enumerate(batch.Cursor()), before)
}

func TestSpine_ConsolidationIdempotent(t *testing.T) {
	// Building directly and building-then-merging-with-empty enumerate
	// identically, with no duplicate groups and no zero deltas.
	rows := []row{
		{"x", 1, 0, 2}, {"y", 2, 0, 1}, {"x", 1, 0, -1}, {"z", 3, 0, 0},
	}
	direct := buildAt(t, 0, rows)
	merged := direct.Merge(buildAt(t, 0, nil))

	got := enumerate(merged.Cursor())
	sameRows(t, got, enumerate(direct.Cursor()))

	seen := make(map[entry]bool)
	for _, r := range got {
		e := entry{key: r.key, val: r.val, time: r.time}
		if seen[e] {
			t.Errorf("duplicate group %v", e)
		}
		seen[e] = true
		if r.delta == 0 {
			t.Errorf("zero delta retained for %v", e)
		}
	}
}

func TestSpine_Stats(t *testing.T) {
	s := New[trie.String, trie.Int64](lattice.Step(0))
	s.Insert(batchOfSize(t, "a", 1, 0))
	s.Insert(batchOfSize(t, "b", 1, 1))

	st := s.Stats()
	if st.Inserts != 2 {
		t.Errorf("expected 2 inserts, got %d", st.Inserts)
	}
	if st.InsertedTuples != 2 {
		t.Errorf("expected 2 inserted tuples, got %d", st.InsertedTuples)
	}
	if st.Merges != 1 {
		t.Errorf("expected 1 merge, got %d", st.Merges)
	}
	if st.Advances != 1 {
		t.Errorf("expected 1 advance, got %d", st.Advances)
	}
	if st.MergeSizeP50 <= 0 {
		t.Errorf("expected positive merge size quantile, got %f", st.MergeSizeP50)
	}
}

func BenchmarkSpine_Insert(b *testing.B) {
	s := New[trie.String, trie.Int64](lattice.Step(0))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		builder := NewBufferedBuilder[trie.String, trie.Int64, lattice.Step]()
		for j := 0; j < 64; j++ {
			builder.Push(trie.String(fmt.Sprintf("key-%d-%d", i, j)), 1, lattice.Step(i), 1)
		}
		s.Insert(builder.Done([]lattice.Step{lattice.Step(i)}, []lattice.Step{lattice.Step(i + 1)}))
	}
}
