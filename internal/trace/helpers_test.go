package trace

import (
	"sort"
	"testing"

	"github.com/nvos/difftrace/internal/lattice"
	"github.com/nvos/difftrace/internal/trie"
)

type testBatch = Batch[trie.String, trie.Int64, lattice.Step]
type testCursor = Cursor[trie.String, trie.Int64, lattice.Step]

// row is one enumerated (key, value, time, delta) tuple.
type row struct {
	key   trie.String
	val   trie.Int64
	time  lattice.Step
	delta int64
}

// entry identifies a tuple position without its delta.
type entry struct {
	key  trie.String
	val  trie.Int64
	time lattice.Step
}

// buildAt builds a batch from rows sharing one logical time, through the
// buffered builder.
func buildAt(t *testing.T, at lattice.Step, rows []row) *testBatch {
	t.Helper()
	b := NewBufferedBuilder[trie.String, trie.Int64, lattice.Step]()
	for _, r := range rows {
		b.Push(r.key, r.val, at, r.delta)
	}
	return b.Done([]lattice.Step{at}, []lattice.Step{at + 1})
}

// buildOrdered builds a batch from rows at arbitrary times through the
// pre-ordered builder, sorting them into index order first.
func buildOrdered(t *testing.T, rows []row) *testBatch {
	t.Helper()
	sortRows(rows)
	lo, hi := lattice.Step(0), lattice.Step(0)
	for i, r := range rows {
		if i == 0 {
			lo, hi = r.time, r.time
		} else {
			lo, hi = lo.Meet(r.time), hi.Join(r.time)
		}
	}
	b := NewOrderedBuilder[trie.String, trie.Int64, lattice.Step]()
	for _, r := range rows {
		b.Push(r.key, r.val, r.time, r.delta)
	}
	return b.Done([]lattice.Step{lo}, []lattice.Step{hi + 1})
}

// enumerate walks a cursor from the start and returns every tuple in
// cursor order. Tuples for the same position reported by several
// constituent cursors appear once per report.
func enumerate(c testCursor) []row {
	var rows []row
	c.RewindKeys()
	for c.KeyValid() {
		for c.ValValid() {
			c.MapTimes(func(ts lattice.Step, delta int64) {
				rows = append(rows, row{key: c.Key(), val: c.Val(), time: ts, delta: delta})
			})
			c.StepVal()
		}
		c.StepKey()
	}
	return rows
}

// summed walks a cursor and sums deltas per (key, value, time),
// dropping zero sums, the way a downstream reader consolidates.
func summed(c testCursor) map[entry]int64 {
	totals := make(map[entry]int64)
	c.RewindKeys()
	for c.KeyValid() {
		for c.ValValid() {
			c.MapTimes(func(ts lattice.Step, delta int64) {
				totals[entry{key: c.Key(), val: c.Val(), time: ts}] += delta
			})
			c.StepVal()
		}
		c.StepKey()
	}
	for k, v := range totals {
		if v == 0 {
			delete(totals, k)
		}
	}
	return totals
}

func sameRows(t *testing.T, got, want []row) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d rows, got %d: %v vs %v", len(want), len(got), want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("row %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func sameTotals(t *testing.T, got, want map[entry]int64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got))
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("entry %v: expected %+d, got %+d", k, v, got[k])
		}
	}
}

// sortRows orders rows the way the index stores them: key hash order,
// then value, then time.
func sortRows(rows []row) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].key != rows[j].key {
			return rows[i].key.Less(rows[j].key)
		}
		if rows[i].val != rows[j].val {
			return rows[i].val.Less(rows[j].val)
		}
		return rows[i].time.Compare(rows[j].time) < 0
	})
}
