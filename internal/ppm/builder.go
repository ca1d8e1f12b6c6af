package ppm

import "math"

// builder turns a parsed task table (§6) into a PPM IR graph (4.G). It walks
// the table depth-first starting at the head task, mirroring the original
// implementation's recursive-descent builder: a fork becomes an inosculation
// vertex with its two branches built independently and required to
// reconverge at the same join task, a run of calc/com tasks becomes a single
// segment vertex, and a join or end task terminates the current branch.
type builder struct {
	table *Table
	ctx   *Context

	cti int // index of the task about to be consumed, mirrors parsctx->cti

	capCalc float64
	capCom  float64
}

// BuildGraph constructs a PPM IR context from a task table (4.G). capCalc and
// capCom bound the per-task weight accepted into a segment (§3); a weight
// exceeding its cap is clamped, matching the original implementation's
// ternary-min clamp in _create_seg. A negative cap disables capping for that
// task type.
func BuildGraph(table *Table, capCalc, capCom float64) (*Context, error) {
	head, ok := table.Get(table.Head)
	if !ok {
		return nil, Structural("task table head index out of range")
	}
	if head.Type != TaskStart {
		return nil, Structural("task table head is not a start task")
	}

	b := &builder{
		table:   table,
		ctx:     NewContext(),
		cti:     head.Next[0],
		capCalc: capCalc,
		capCom:  capCom,
	}

	root, err := b.build()
	if err != nil {
		return nil, err
	}

	b.ctx.SetHead(root)
	b.ctx.Eval(b.ctx.Head, true)
	return b.ctx, nil
}

// cur returns the task the cursor currently points at.
func (b *builder) cur() (Task, error) {
	t, ok := b.table.Get(b.cti)
	if !ok {
		return Task{}, Structural("task index out of range during graph build")
	}
	return t, nil
}

// build consumes tasks from the cursor, dispatching on type, and returns the
// vertex that begins the subtree rooted at the cursor's current position.
// join and end terminate the current branch (NilVH, no error); start
// appearing mid-stream is a structural error, matching the original
// implementation's fatal assertion in _build_graph.
func (b *builder) build() (VH, error) {
	t, err := b.cur()
	if err != nil {
		return NilVH, err
	}

	switch t.Type {
	case TaskFork:
		return b.createInsc(t)
	case TaskCalc, TaskCom:
		return b.createSeg(t)
	case TaskForkEnd:
		b.cti = t.Next[0]
		return b.build()
	case TaskJoin, TaskEnd:
		return NilVH, nil
	case TaskStart:
		return NilVH, Structural("unexpected start task mid-stream")
	default:
		return NilVH, Structural("unknown task type during graph build")
	}
}

// createSeg consumes a run of consecutive calc/com tasks into one segment
// vertex, capping each weight against the builder's calc/com ceilings (where
// non-negative), then
// continues building from the first non-calc/com task.
func (b *builder) createSeg(head Task) (VH, error) {
	raw := NewRawSeg()
	pid := head.Pid

	t := head
	for {
		if t.Pid != pid {
			return NilVH, Structural("pid changes within a single task segment")
		}

		var tt SegTaskType
		var limit float64
		switch t.Type {
		case TaskCalc:
			tt, limit = SegCalc, b.capCalc
		case TaskCom:
			tt, limit = SegCom, b.capCom
		default:
			// Cursor now sits on the task following the segment.
			container := b.ctx.NewContainer(raw, pid)
			vh := b.ctx.NewSegVertex(container)
			next, err := b.build()
			if err != nil {
				return NilVH, err
			}
			b.ctx.SetNext(vh, next)
			return vh, nil
		}

		w := t.Weight
		if limit >= 0 {
			w = math.Min(w, limit)
		}
		raw.Put(tt, w)

		b.cti = t.Next[0]
		var ok bool
		t, ok = b.table.Get(b.cti)
		if !ok {
			return NilVH, Structural("task index out of range within segment")
		}
	}
}

// createInsc consumes a fork into an inosculation vertex. An empty second
// branch (Next[1] == 0) is not a real fork: the original implementation
// skips straight through the matching fork_end without allocating an
// inosculation vertex at all, and so do we. Otherwise both branches are
// built independently and must reconverge at the identical join task index;
// anything else is a malformed task graph.
func (b *builder) createInsc(fork Task) (VH, error) {
	if fork.Next[1] == 0 {
		// No second branch: the lone branch runs straight into the
		// fork_end that closes this fork, which build's TaskForkEnd
		// case already skips through, so there is nothing special to
		// do beyond continuing the walk from Next[0].
		b.cti = fork.Next[0]
		return b.build()
	}

	b.cti = fork.Next[0]
	pp, err := b.build()
	if err != nil {
		return NilVH, err
	}
	retTi := b.cti

	b.cti = fork.Next[1]
	cp, err := b.build()
	if err != nil {
		return NilVH, err
	}
	if b.cti != retTi {
		return NilVH, Structural("fork branches reconverge at different join tasks")
	}

	vh := b.ctx.NewInscVertex(pp, cp)

	join, err := b.cur()
	if err != nil {
		return NilVH, err
	}
	b.cti = join.Next[0]
	next, err := b.build()
	if err != nil {
		return NilVH, err
	}
	b.ctx.SetNext(vh, next)
	return vh, nil
}
