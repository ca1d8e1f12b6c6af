package ppm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMineAsymmetric_SingleSegmentBranchesAreSymmetric(t *testing.T) {
	// start->fork->[calc(1)->calc(1)->join, calc(2)->calc(2)->calc(1)->calc(1)->join]->end
	table := &Table{
		Head: 1,
		Tasks: []Task{
			{},
			{No: 1, Pid: 1, Type: TaskStart, Next: [2]int{2, 0}},
			{No: 2, Pid: 1, Type: TaskFork, Next: [2]int{3, 5}},
			{No: 3, Pid: 1, Type: TaskCalc, Weight: 1, Next: [2]int{4, 0}},
			{No: 4, Pid: 1, Type: TaskCalc, Weight: 1, Next: [2]int{11, 0}},
			{No: 5, Pid: 1, Type: TaskCalc, Weight: 2, Next: [2]int{6, 0}},
			{No: 6, Pid: 1, Type: TaskCalc, Weight: 2, Next: [2]int{7, 0}},
			{No: 7, Pid: 1, Type: TaskCalc, Weight: 1, Next: [2]int{8, 0}},
			{No: 8, Pid: 1, Type: TaskCalc, Weight: 1, Next: [2]int{11, 0}},
			{},
			{},
			{No: 11, Pid: 1, Type: TaskJoin, Next: [2]int{12, 0}},
			{No: 12, Pid: 1, Type: TaskEnd},
		},
	}

	ctx, err := BuildGraph(table, 1000, 1000)
	require.NoError(t, err)

	head := ctx.Vertex(ctx.Head)
	require.Equal(t, VInsc, head.Variant)
	// pp is one segment (calc(1),calc(1)); cp is a single segment too, since
	// calc/com tasks with no intervening fork/join all collapse into one
	// segment regardless of weight. Segment content does not enter the
	// structural hash, so the two branches are similar and the fork is
	// symmetric; the asymmetric pass skips it, and this test confirms it
	// runs without violating any invariant.
	require.True(t, head.IsSymmetric)

	MineAsymmetric(ctx)

	pp, cp := head.PP, head.CP
	assert.NotEqual(t, NilVH, pp)
	assert.NotEqual(t, NilVH, cp)
}

func TestMineRecurrence_WrapsRepeatedStem(t *testing.T) {
	// S(1,1) -> S(1,1) -> S(1,1) -> end, three structurally identical
	// segments back-to-back (content doesn't affect structural hash, so any
	// three segments in a row qualify).
	ctx := NewContext()
	head := segChain(ctx, 3)
	ctx.SetHead(head)
	ctx.Eval(head, true)

	MineRecurrence(ctx)

	require.Equal(t, VWrap, ctx.Vertex(ctx.Head).Variant)

	wraps := 0
	var innerGroup GH = NilGH
	vh := ctx.Head
	for vh != NilVH {
		v := ctx.Vertex(vh)
		require.Equal(t, VWrap, v.Variant)
		wraps++
		if innerGroup == NilGH {
			innerGroup = ctx.groupOf(v.WP)
		} else {
			assert.Equal(t, innerGroup, ctx.groupOf(v.WP))
		}
		vh = v.Next
	}
	assert.Equal(t, 3, wraps)

	wrapGroup := ctx.groupOf(ctx.Head)
	// The wrapped segments share one group (checked above); the pass merges
	// the wrapped segments, not the wrappers, so each wrapper keeps its own
	// group. Eval passes a wrapper's wp summary through and folds in its np
	// successor, so the head wrapper's hash is its wp's hash plus the next
	// wrapper's hash.
	hv := ctx.Vertex(ctx.Head)
	assert.Equal(t, (ctx.hashOf(hv.WP)+ctx.hashOf(hv.Next))%hashMod, ctx.hashOf(ctx.Head))
	_ = wrapGroup
}

func TestMine_RunsAllPassesWithoutPanicking(t *testing.T) {
	table := &Table{
		Head: 1,
		Tasks: []Task{
			{},
			{No: 1, Pid: 1, Type: TaskStart, Next: [2]int{2, 0}},
			{No: 2, Pid: 1, Type: TaskFork, Next: [2]int{3, 5}},
			{No: 3, Pid: 1, Type: TaskCalc, Weight: 1, Next: [2]int{4, 0}},
			{No: 4, Pid: 1, Type: TaskCalc, Weight: 1, Next: [2]int{7, 0}},
			{No: 5, Pid: 1, Type: TaskCalc, Weight: 1, Next: [2]int{6, 0}},
			{No: 6, Pid: 1, Type: TaskCalc, Weight: 1, Next: [2]int{7, 0}},
			{No: 7, Pid: 1, Type: TaskJoin, Next: [2]int{8, 0}},
			{No: 8, Pid: 1, Type: TaskEnd},
		},
	}

	ctx, err := BuildGraph(table, 1000, 1000)
	require.NoError(t, err)

	assert.NotPanics(t, func() { Mine(ctx) })
}
