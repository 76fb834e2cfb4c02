package trace

import (
	"sync/atomic"
	"time"

	"github.com/DataDog/sketches-go/ddsketch"
)

// Stats holds spine merge statistics: plain counters plus DDSketch
// distributions of merged tuple counts and merge durations.
type Stats struct {
	inserts        atomic.Int64
	insertedTuples atomic.Int64
	merges         atomic.Int64
	mergedTuples   atomic.Int64
	advances       atomic.Int64

	mergeSize *ddsketch.DDSketch
	mergeDur  *ddsketch.DDSketch
}

func newStats() *Stats {
	s := &Stats{}
	// 1% relative accuracy, as elsewhere in this codebase.
	if sk, err := ddsketch.NewDefaultDDSketch(0.01); err == nil {
		s.mergeSize = sk
	}
	if sk, err := ddsketch.NewDefaultDDSketch(0.01); err == nil {
		s.mergeDur = sk
	}
	return s
}

func (s *Stats) observeMerge(tuples int, d time.Duration) {
	s.merges.Add(1)
	s.mergedTuples.Add(int64(tuples))
	if s.mergeSize != nil {
		_ = s.mergeSize.Add(float64(tuples))
	}
	if s.mergeDur != nil {
		_ = s.mergeDur.Add(float64(d.Nanoseconds()))
	}
}

// StatsSnapshot is a point-in-time copy of the spine's statistics.
// Quantile fields are zero until at least one merge has been observed.
type StatsSnapshot struct {
	Inserts        int64
	InsertedTuples int64
	Merges         int64
	MergedTuples   int64
	Advances       int64

	// Distribution of tuples handled per merge.
	MergeSizeP50 float64
	MergeSizeP99 float64

	// Distribution of merge wall time, in nanoseconds.
	MergeDurP50 float64
	MergeDurP99 float64
}

func (s *Stats) snapshot() StatsSnapshot {
	snap := StatsSnapshot{
		Inserts:        s.inserts.Load(),
		InsertedTuples: s.insertedTuples.Load(),
		Merges:         s.merges.Load(),
		MergedTuples:   s.mergedTuples.Load(),
		Advances:       s.advances.Load(),
	}
	snap.MergeSizeP50, snap.MergeSizeP99 = quantiles(s.mergeSize)
	snap.MergeDurP50, snap.MergeDurP99 = quantiles(s.mergeDur)
	return snap
}

func quantiles(sk *ddsketch.DDSketch) (p50, p99 float64) {
	if sk == nil || sk.GetCount() == 0 {
		return 0, 0
	}
	if v, err := sk.GetValueAtQuantile(0.5); err == nil {
		p50 = v
	}
	if v, err := sk.GetValueAtQuantile(0.99); err == nil {
		p99 = v
	}
	return p50, p99
}
