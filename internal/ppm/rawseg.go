package ppm

import "math"

// RawSeg is the growable task-weight list backing a task segment before
// clustering/quantization (4.B). Weights are tracked per SegTaskType with a
// parallel interleaved type stream that preserves original task ordering.
type RawSeg struct {
	weights [SegTaskTypeCount][]float64
	order   []SegTaskType // interleaved per-task-index type list

	sum    [SegTaskTypeCount]float64
	mean   [SegTaskTypeCount]float64
	stddev [SegTaskTypeCount]float64
	evaled bool

	cursor [SegTaskTypeCount]int // Next()/Rewind() iteration state
}

// NewRawSeg creates an empty raw segment.
func NewRawSeg() *RawSeg {
	return &RawSeg{}
}

// Put appends a weight of the given task type, growing the backing list.
func (s *RawSeg) Put(tt SegTaskType, weight float64) {
	s.weights[tt] = append(s.weights[tt], weight)
	s.order = append(s.order, tt)
	s.evaled = false
}

// Size returns the number of tasks of the given type.
func (s *RawSeg) Size(tt SegTaskType) int {
	return len(s.weights[tt])
}

// Len returns the total number of tasks across both types.
func (s *RawSeg) Len() int {
	return len(s.order)
}

// Rewind resets the per-type iteration cursors used by Next.
func (s *RawSeg) Rewind() {
	s.cursor = [SegTaskTypeCount]int{}
}

// Next lazily yields tasks in original insertion order, ok is false once
// exhausted.
func (s *RawSeg) Next() (tt SegTaskType, weight float64, ok bool) {
	// Walk the interleaved order list starting at the combined progress.
	total := s.cursor[SegCalc] + s.cursor[SegCom]
	if total >= len(s.order) {
		return 0, 0, false
	}
	tt = s.order[total]
	idx := s.cursor[tt]
	weight = s.weights[tt][idx]
	s.cursor[tt]++
	return tt, weight, true
}

// Weights returns the raw weight slice for a task type (not a copy; callers
// must not mutate it in place without understanding the sharing).
func (s *RawSeg) Weights(tt SegTaskType) []float64 {
	return s.weights[tt]
}

// Eval recomputes cached sum/mean/stddev for each task type.
func (s *RawSeg) Eval() {
	for tt := SegTaskType(0); tt < SegTaskTypeCount; tt++ {
		v := s.weights[tt]
		if len(v) == 0 {
			s.sum[tt], s.mean[tt], s.stddev[tt] = 0, 0, 0
			continue
		}
		var sum float64
		for _, x := range v {
			sum += x
		}
		mu := sum / float64(len(v))
		var acc float64
		for _, x := range v {
			d := x - mu
			acc += d * d
		}
		s.sum[tt] = sum
		s.mean[tt] = mu
		s.stddev[tt] = math.Sqrt(acc / float64(len(v)))
	}
	s.evaled = true
}

// Sum returns the cached sum for a task type (Eval must have been called).
func (s *RawSeg) Sum(tt SegTaskType) float64 { return s.sum[tt] }

// Mean returns the cached mean for a task type (Eval must have been called).
func (s *RawSeg) Mean(tt SegTaskType) float64 { return s.mean[tt] }

// Stddev returns the cached stddev for a task type (Eval must have been called).
func (s *RawSeg) Stddev(tt SegTaskType) float64 { return s.stddev[tt] }

// Merge appends all of src's tasks into dst in src's iteration order,
// leaving src unmodified (the caller is responsible for dropping the
// duplicate once the merge context documented in §9 has been honored).
func Merge(dst, src *RawSeg) {
	src.Rewind()
	for {
		tt, w, ok := src.Next()
		if !ok {
			break
		}
		dst.Put(tt, w)
	}
	src.Rewind()
	dst.evaled = false
}

// Tolerance bounds two raw segments must fall within to compare equal.
type Tolerance struct {
	MuMax    float64
	SigmaMax float64
}

// Compare implements the raw-segment similarity relation (4.B): per-type
// counts must match, means/stddevs must fall within the context-wide ratio
// tolerance (or be exactly equal when one side is zero), and the
// interleaved per-task type sequences must be identical.
func (s *RawSeg) Compare(o *RawSeg, tol Tolerance) bool {
	if !s.evaled {
		s.Eval()
	}
	if !o.evaled {
		o.Eval()
	}
	for tt := SegTaskType(0); tt < SegTaskTypeCount; tt++ {
		if s.Size(tt) != o.Size(tt) {
			return false
		}
		if !withinRatio(s.mean[tt], o.mean[tt], tol.MuMax) {
			return false
		}
		if !withinRatio(s.stddev[tt], o.stddev[tt], tol.SigmaMax) {
			return false
		}
	}
	if len(s.order) != len(o.order) {
		return false
	}
	for i := range s.order {
		if s.order[i] != o.order[i] {
			return false
		}
	}
	return true
}

func withinRatio(a, b, max float64) bool {
	if a == 0 && b == 0 {
		return true
	}
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	if lo == 0 {
		return lo == hi
	}
	return hi/lo <= max
}
