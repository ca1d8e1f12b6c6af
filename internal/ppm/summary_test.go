package ppm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize_EmptyModelReturnsZeroValue(t *testing.T) {
	ctx := NewContext()
	var want ModelSummary
	assert.Equal(t, want, Summarize(ctx))
}

func TestSummarize_AggregatesOverEveryOccurrence(t *testing.T) {
	ctx := NewContext()

	a := NewRawSeg()
	a.Put(SegCalc, 1.0)
	b := NewRawSeg()
	b.Put(SegCalc, 3.0)

	gh := buildSegGroup(ctx, []*RawSeg{a, b})
	cs := BuildClusters(ctx, gh, Tolerance{MuMax: 10, SigmaMax: 10})
	require.Equal(t, 1, cs.Size(), "both within a generous tolerance, one cluster")
	require.NoError(t, cs.Compress(ctx, 0.04, 1<<15))

	summary := Summarize(ctx)

	assert.Greater(t, summary[SegCalc].DictSizeTotal, 0.0)
	assert.GreaterOrEqual(t, summary[SegCalc].DeviSumTotal, 0.0)
	assert.Equal(t, 0.0, summary[SegCom].DictSizeTotal, "no com occurrences were produced")
}

func TestSummarize_CountsSharedContainerOncePerOccurrence(t *testing.T) {
	ctx := NewContext()

	a := NewRawSeg()
	a.Put(SegCalc, 2.0)
	b := NewRawSeg()
	b.Put(SegCalc, 2.0)

	gh := buildSegGroup(ctx, []*RawSeg{a, b})
	cs := BuildClusters(ctx, gh, Tolerance{MuMax: 1.1, SigmaMax: 1.1})
	require.Equal(t, 1, cs.Size())
	require.NoError(t, cs.Compress(ctx, 0.04, 1<<15))

	beforeDedup := Summarize(ctx)

	cs.RemoveDuplicates(ctx)
	afterDedup := Summarize(ctx)

	// Both vertices still exist as distinct occurrences even though they
	// now share one container after dedup — summary walks vertex
	// occurrences, not distinct containers, so the dictionary-size total
	// must still count twice, unchanged by the dedup pass.
	assert.Equal(t, beforeDedup[SegCalc].DictSizeTotal, afterDedup[SegCalc].DictSizeTotal)
	assert.Greater(t, afterDedup[SegCalc].DictSizeTotal, 0.0)
}
