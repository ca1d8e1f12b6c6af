package ppm

import "math"

// Letter is the 16-bit bucketed task encoding: bit 0 is the task type, bits
// 1..15 are the dictionary key (§6).
type Letter uint16

// NewLetter packs a task type and dictionary key into a letter.
func NewLetter(tt SegTaskType, key DictKey) Letter {
	return Letter(uint16(tt)&0x1) | Letter(uint16(key)<<1)
}

// Type unpacks the task type bit.
func (l Letter) Type() SegTaskType {
	return SegTaskType(l & 0x1)
}

// Key unpacks the 15-bit dictionary key.
func (l Letter) Key() DictKey {
	return DictKey(l >> 1)
}

// BucketedSeg is the fixed, dictionary-encoded shape of a task segment
// (4.C): one letter per task, referencing the calc and com dictionaries it
// was quantized against.
type BucketedSeg struct {
	CalcDict *Dict
	ComDict  *Dict

	Letters []Letter
	counts  [SegTaskTypeCount]int

	// Cached summary, recomputed at construction against the raw segment
	// that produced this bucketed segment (§3).
	Summary BucketSummary
}

// BucketSummary mirrors the original implementation's per-segment
// TaskSeg_summary (supplemented from original_source/TaskSeg.h, §3 of
// SPEC_FULL.md): deviation and dictionary-size statistics per task type.
type BucketSummary struct {
	Sum      [SegTaskTypeCount]float64
	Mean     [SegTaskTypeCount]float64
	DeviSum  [SegTaskTypeCount]float64
	DeviMean [SegTaskTypeCount]float64
	DictSize [SegTaskTypeCount]int
}

// dictFor returns the dictionary for a task type.
func (b *BucketedSeg) dictFor(tt SegTaskType) *Dict {
	if tt == SegCalc {
		return b.CalcDict
	}
	return b.ComDict
}

// Count returns the number of tasks of the given type.
func (b *BucketedSeg) Count(tt SegTaskType) int {
	return b.counts[tt]
}

// NewBucketedSeg re-encodes a raw segment against the given dictionaries
// (4.C). It fails if any raw weight exceeds the dictionary domain it is
// quantized against.
func NewBucketedSeg(raw *RawSeg, calcDict, comDict *Dict) (*BucketedSeg, error) {
	b := &BucketedSeg{
		CalcDict: calcDict,
		ComDict:  comDict,
		Letters:  make([]Letter, 0, raw.Len()),
	}

	raw.Rewind()
	var deviSum [SegTaskTypeCount]float64
	for {
		tt, w, ok := raw.Next()
		if !ok {
			break
		}
		key := b.dictFor(tt).KeyFromValue(w)
		if !key.IsValid() {
			return nil, Structural("raw weight exceeds dictionary domain during bucketization")
		}
		bucketed, _ := b.dictFor(tt).ValueFromKey(key)
		deviSum[tt] += bucketed - w
		b.Letters = append(b.Letters, NewLetter(tt, key))
		b.counts[tt]++
	}
	raw.Rewind()

	if !raw.evaled {
		raw.Eval()
	}
	for tt := SegTaskType(0); tt < SegTaskTypeCount; tt++ {
		b.Summary.Sum[tt] = raw.Sum(tt)
		b.Summary.Mean[tt] = raw.Mean(tt)
		b.Summary.DeviSum[tt] = deviSum[tt]
		if b.counts[tt] > 0 {
			b.Summary.DeviMean[tt] = deviSum[tt] / float64(b.counts[tt])
		}
		b.Summary.DictSize[tt] = b.dictFor(tt).Size()
	}

	return b, nil
}

// Equal implements the bucketed-segment similarity relation (4.C): equal
// dictionary references, equal length, pairwise equal 16-bit letters. No
// tolerance — bucketization already absorbed it.
func (b *BucketedSeg) Equal(o *BucketedSeg) bool {
	if b.CalcDict != o.CalcDict || b.ComDict != o.ComDict {
		return false
	}
	if len(b.Letters) != len(o.Letters) {
		return false
	}
	for i := range b.Letters {
		if b.Letters[i] != o.Letters[i] {
			return false
		}
	}
	return true
}

// Badness returns stddev/mean for a bucket's input list, matching the
// dictionary builder's stopping criterion (used for reporting, §3).
func Badness(v []float64) float64 {
	if len(v) <= 1 {
		return 0
	}
	mu := mean(v)
	if mu == 0 {
		return math.Inf(1)
	}
	return stddev(v, mu) / mu
}
