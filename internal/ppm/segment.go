package ppm

// SegmentKind tags the two concrete segment shapes, RawSeg and BucketedSeg
// (this replaces the original implementation's hand-rolled
// Object/Elem/TaskSeg vtable chain). There is no shared segment interface:
// each shape exposes its own methods. RawSeg's Compare takes a Tolerance;
// BucketedSeg's Equal is parameter-free. A Segcont holds one field per
// shape rather than a SegmentKind-tagged value.
type SegmentKind uint8

const (
	// KindRaw marks a segment still holding unbucketed weights.
	KindRaw SegmentKind = iota
	// KindBucketed marks a dictionary-encoded segment.
	KindBucketed
)

// ReqLists is the per-type sorted requirement list extraction the original
// implementation calls TaskSeg_to_reql (supplemented feature, §3 of
// SPEC_FULL.md). It backs clustering's synthetic-segment dictionary build.
type ReqLists [SegTaskTypeCount][]float64

// ToReql returns the (optionally sorted) per-type weight lists of a raw
// segment.
func (s *RawSeg) ToReql(sort bool) ReqLists {
	var out ReqLists
	for tt := SegTaskType(0); tt < SegTaskTypeCount; tt++ {
		v := make([]float64, len(s.weights[tt]))
		copy(v, s.weights[tt])
		if sort {
			sortFloat64s(v)
		}
		out[tt] = v
	}
	return out
}

func sortFloat64s(v []float64) {
	// insertion sort: segments are small (a handful of tasks between
	// forks/joins). Clustering's merged per-cluster lists go through this
	// same sort via ToReql(true), see cluster.go.
	for i := 1; i < len(v); i++ {
		for j := i; j > 0 && v[j-1] > v[j]; j-- {
			v[j-1], v[j] = v[j], v[j-1]
		}
	}
}
