package ppm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Task numbers below are array indices (§6); index 0 is left unused where a
// table doesn't define task 0, matching the parser contract.

func TestBuildGraph_MinimalSequential(t *testing.T) {
	// start(1) -> calc(2,2.0) -> calc(3,2.0) -> end(4)
	table := &Table{
		Head: 1,
		Tasks: []Task{
			{},
			{No: 1, Pid: 1, Type: TaskStart, Next: [2]int{2, 0}},
			{No: 2, Pid: 1, Type: TaskCalc, Weight: 2.0, Next: [2]int{3, 0}},
			{No: 3, Pid: 1, Type: TaskCalc, Weight: 2.0, Next: [2]int{4, 0}},
			{No: 4, Pid: 1, Type: TaskEnd},
		},
	}

	ctx, err := BuildGraph(table, 1000, 1000)
	require.NoError(t, err)

	require.NotEqual(t, NilVH, ctx.Head)
	head := ctx.Vertex(ctx.Head)
	assert.Equal(t, VSeg, head.Variant)
	assert.Equal(t, NilVH, head.Next)

	raw := ctx.Container(head.Seg).Raw
	raw.Eval()
	assert.Equal(t, 2, raw.Size(SegCalc))
	assert.Equal(t, 4.0, raw.Sum(SegCalc))
}

func TestBuildGraph_SymmetricFork(t *testing.T) {
	// start(1) -> fork(2, 3/5) -> {calc(3,1)->calc(4,1)->join(7)}
	//                             {calc(5,1)->calc(6,1)->join(7)}
	//           -> end(8)
	table := &Table{
		Head: 1,
		Tasks: []Task{
			{}, // 0
			{No: 1, Pid: 1, Type: TaskStart, Next: [2]int{2, 0}},     // 1
			{No: 2, Pid: 1, Type: TaskFork, Next: [2]int{3, 5}},      // 2
			{No: 3, Pid: 1, Type: TaskCalc, Weight: 1, Next: [2]int{4, 0}}, // 3 pp1
			{No: 4, Pid: 1, Type: TaskCalc, Weight: 1, Next: [2]int{7, 0}}, // 4 pp2 -> join
			{No: 5, Pid: 1, Type: TaskCalc, Weight: 1, Next: [2]int{6, 0}}, // 5 cp1
			{No: 6, Pid: 1, Type: TaskCalc, Weight: 1, Next: [2]int{7, 0}}, // 6 cp2 -> join
			{No: 7, Pid: 1, Type: TaskJoin, Next: [2]int{8, 0}},      // 7
			{No: 8, Pid: 1, Type: TaskEnd},                           // 8
		},
	}

	ctx, err := BuildGraph(table, 1000, 1000)
	require.NoError(t, err)

	head := ctx.Vertex(ctx.Head)
	require.Equal(t, VInsc, head.Variant)
	assert.True(t, head.IsSymmetric)
}

func TestBuildGraph_EmptyForkSkipsToForkEnd(t *testing.T) {
	table := &Table{
		Head: 1,
		Tasks: []Task{
			{},
			{No: 1, Pid: 1, Type: TaskStart, Next: [2]int{2, 0}},
			{No: 2, Pid: 1, Type: TaskFork, Next: [2]int{3, 0}}, // next[1]==0: empty branch
			{No: 3, Pid: 1, Type: TaskCalc, Weight: 5, Next: [2]int{4, 0}},
			{No: 4, Pid: 1, Type: TaskForkEnd, Next: [2]int{5, 0}},
			{No: 5, Pid: 1, Type: TaskEnd},
		},
	}

	ctx, err := BuildGraph(table, 1000, 1000)
	require.NoError(t, err)

	head := ctx.Vertex(ctx.Head)
	require.Equal(t, VSeg, head.Variant, "empty fork must not allocate an inosculation vertex")
	raw := ctx.Container(head.Seg).Raw
	raw.Eval()
	assert.Equal(t, 5.0, raw.Sum(SegCalc))
}

func TestBuildGraph_MismatchedJoinIsStructuralError(t *testing.T) {
	table := &Table{
		Head: 1,
		Tasks: []Task{
			{},
			{No: 1, Pid: 1, Type: TaskStart, Next: [2]int{2, 0}},
			{No: 2, Pid: 1, Type: TaskFork, Next: [2]int{3, 5}},
			{No: 3, Pid: 1, Type: TaskCalc, Weight: 1, Next: [2]int{4, 0}},
			{No: 4, Pid: 1, Type: TaskJoin, Next: [2]int{8, 0}},
			{No: 5, Pid: 1, Type: TaskCalc, Weight: 1, Next: [2]int{6, 0}},
			{No: 6, Pid: 1, Type: TaskJoin, Next: [2]int{8, 0}}, // different join task index
			{No: 8, Pid: 1, Type: TaskEnd},
		},
	}

	_, err := BuildGraph(table, 1000, 1000)
	require.Error(t, err)
	assert.True(t, IsStructuralError(err))
}

func TestBuildGraph_WeightCapping(t *testing.T) {
	table := &Table{
		Head: 1,
		Tasks: []Task{
			{},
			{No: 1, Pid: 1, Type: TaskStart, Next: [2]int{2, 0}},
			{No: 2, Pid: 1, Type: TaskCalc, Weight: 500, Next: [2]int{3, 0}},
			{No: 3, Pid: 1, Type: TaskEnd},
		},
	}

	ctx, err := BuildGraph(table, 10, 10)
	require.NoError(t, err)
	head := ctx.Vertex(ctx.Head)
	raw := ctx.Container(head.Seg).Raw
	raw.Eval()
	assert.Equal(t, 10.0, raw.Sum(SegCalc))
}
