package ppm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildCalcDict(t *testing.T, values []float64, k float64) *Dict {
	t.Helper()
	sorted := append([]float64(nil), values...)
	sortFloat64s(sorted)
	d, err := BuildDict(sorted, k, 1<<15)
	require.NoError(t, err)
	return d
}

func TestNewBucketedSeg_MinimalSequential(t *testing.T) {
	raw := NewRawSeg()
	raw.Put(SegCalc, 2.0)
	raw.Put(SegCalc, 2.0)

	calcDict := buildCalcDict(t, []float64{2.0, 2.0}, 0.04)
	comDict := buildCalcDict(t, nil, 0.04)

	b, err := NewBucketedSeg(raw, calcDict, comDict)
	require.NoError(t, err)

	require.Len(t, b.Letters, 2)
	assert.Equal(t, SegCalc, b.Letters[0].Type())
	assert.Equal(t, DictKey(0), b.Letters[0].Key())
	assert.Equal(t, b.Letters[0], b.Letters[1])
}

func TestNewBucketedSeg_OutOfDomainFails(t *testing.T) {
	raw := NewRawSeg()
	raw.Put(SegCalc, 50.0)

	calcDict := buildCalcDict(t, []float64{1, 1, 1}, 0.04)
	comDict := buildCalcDict(t, nil, 0.04)

	_, err := NewBucketedSeg(raw, calcDict, comDict)
	require.Error(t, err)
	assert.True(t, IsStructuralError(err))
}

func TestBucketedSeg_Equal(t *testing.T) {
	calcDict := buildCalcDict(t, []float64{1, 1, 10, 10}, 0.1)
	comDict := buildCalcDict(t, nil, 0.1)

	raw1 := NewRawSeg()
	raw1.Put(SegCalc, 1)
	raw1.Put(SegCalc, 10)

	raw2 := NewRawSeg()
	raw2.Put(SegCalc, 1.0)
	raw2.Put(SegCalc, 9.5)

	b1, err := NewBucketedSeg(raw1, calcDict, comDict)
	require.NoError(t, err)
	b2, err := NewBucketedSeg(raw2, calcDict, comDict)
	require.NoError(t, err)

	assert.True(t, b1.Equal(b2))
}

func TestBucketedSeg_NotEqualDifferentDict(t *testing.T) {
	dictA := buildCalcDict(t, []float64{1, 1}, 0.1)
	dictB := buildCalcDict(t, []float64{1, 1}, 0.1)

	raw := NewRawSeg()
	raw.Put(SegCalc, 1)

	b1, err := NewBucketedSeg(raw, dictA, dictA)
	require.NoError(t, err)
	b2, err := NewBucketedSeg(raw, dictB, dictB)
	require.NoError(t, err)

	assert.False(t, b1.Equal(b2), "distinct dictionary instances must not compare equal even with identical contents")
}

func TestLetter_PackAndUnpack(t *testing.T) {
	l := NewLetter(SegCom, DictKey(1234))
	assert.Equal(t, SegCom, l.Type())
	assert.Equal(t, DictKey(1234), l.Key())
}

func TestBadness(t *testing.T) {
	assert.Equal(t, 0.0, Badness([]float64{5}))
	assert.InDelta(t, 4.5/5.5, Badness([]float64{1, 1, 1, 10, 10, 10}), 1e-9)
}
