package ppm

import (
	"bufio"
	"encoding/binary"
	"io"
)

// Binary layout (§6), all integers little-endian, fields packed without
// padding, grounded on pm.c's PMContext_to_file/_segcont_l_to_file/
// _pmvg_ctx_to_file and TaskSegRaw.c/TaskSegBuck.c's Ctx_to_file functions:
//
//	Full file = [ PPM data ][ segment data ][ dictionary data (bucketed only) ]
//
//	PPM data = [ segment container list ][ compressed PPM graph ]
//
//	Segment container list: u32 c, then c x {u32 segid, u32 pid}, in DFS
//	order over the tree (S and I -> pp then cp, W -> wp, then np).
//
//	Compressed PPM graph (after LinkGroups): u32 v, then v x
//	{u8 type, i32 ni, i32 a, i32 b}; (a,b) is (pi,ci) for an inosculation
//	group, (wi,_) for a wrapper group, (_,_) for a segment group; a missing
//	edge is -1.
//
//	Raw-segment data: {u8 class_id=1, u32 n}, then n segments each {u32 k}
//	followed by k x {u8 type, f64 weight}.
//
//	Bucketed-segment data: {u8 class_id=2, u32 n}, then n segments each
//	{u32 k, u32 calc_dict_idx, u32 com_dict_idx} followed by k x u16 letter.
//
//	Dictionary data: u32 d, then d dictionaries, each u32 size, then
//	size x f64 suprema, then size x f64 means.
//
// Indices embedded in the format are assigned just before serialization by
// walking the respective element list and numbering from 0 (segments in
// their DFS occurrence order producing distinct-container indices, live
// groups in the arena's creation order, dictionaries in first-reference
// order).

const (
	classIDRaw     uint8 = 1
	classIDBucketed uint8 = 2
)

// occurrence is one VSeg vertex visited during the graph walk, paired with
// the container it references.
type occurrence struct {
	container ContainerH
	pid       int
}

// collectOccurrences walks the tree from ctx.Head exactly as
// _segcont_l_pack does: pp before cp for an inosculation, wp for a wrapper,
// then continuing along np.
func collectOccurrences(ctx *Context) []occurrence {
	var out []occurrence
	var walk func(VH)
	walk = func(vh VH) {
		for vh != NilVH {
			v := ctx.v(vh)
			switch v.Variant {
			case VSeg:
				out = append(out, occurrence{container: v.Seg, pid: ctx.Container(v.Seg).Pid})
			case VInsc:
				walk(v.PP)
				walk(v.CP)
			case VWrap:
				walk(v.WP)
			}
			vh = v.Next
		}
	}
	walk(ctx.Head)
	return out
}

// distinctContainers assigns a stable index to each distinct container
// reachable from the graph, in first-seen order, mirroring
// ElemCtx_assign_idx over the segment context.
func distinctContainers(occs []occurrence) ([]ContainerH, map[ContainerH]int) {
	var list []ContainerH
	idx := make(map[ContainerH]int)
	for _, o := range occs {
		if _, ok := idx[o.container]; !ok {
			idx[o.container] = len(list)
			list = append(list, o.container)
		}
	}
	return list, idx
}

// dictTable assigns first-reference indices to dictionaries, mirroring
// ElemCtx_assign_idx over the dictionary context.
type dictTable struct {
	dicts []*Dict
	index map[*Dict]int
}

func newDictTable() *dictTable { return &dictTable{index: make(map[*Dict]int)} }

func (t *dictTable) indexOf(d *Dict) uint32 {
	if i, ok := t.index[d]; ok {
		return uint32(i)
	}
	i := len(t.dicts)
	t.dicts = append(t.dicts, d)
	t.index[d] = i
	return uint32(i)
}

// WriteModel serializes a compressed or uncompressed PPM model to w (4.H,
// §6). ctx.LinkGroups is invoked internally so every live group carries a
// populated CPMV, matching _pmvg_ctx_to_file calling PM_link_groups first.
// Segments are written raw if no container has been bucketized yet,
// bucketed (with a trailing dictionary block) otherwise; mixing the two
// within one model is a structural error, since the original's two segment
// context types are mutually exclusive for a given file.
func WriteModel(w io.Writer, ctx *Context) (int64, error) {
	bw := bufio.NewWriter(w)
	cw := &countingWriter{w: bw}

	occs := collectOccurrences(ctx)
	containers, containerIdx := distinctContainers(occs)

	bucketed := 0
	for _, ch := range containers {
		if ctx.Container(ch).Bucketed != nil {
			bucketed++
		}
	}
	if bucketed != 0 && bucketed != len(containers) {
		return 0, Structural("cannot serialize a model with both raw and bucketed segments")
	}

	if err := writeContainerList(cw, occs, containerIdx); err != nil {
		return cw.n, err
	}
	if err := writeGraph(cw, ctx); err != nil {
		return cw.n, err
	}

	if bucketed == 0 {
		if err := writeRawSegments(cw, ctx, containers); err != nil {
			return cw.n, err
		}
	} else {
		dt := newDictTable()
		if err := writeBucketedSegments(cw, ctx, containers, dt); err != nil {
			return cw.n, err
		}
		if err := writeDictBlock(cw, dt); err != nil {
			return cw.n, err
		}
	}

	return cw.n, bw.Flush()
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	if err != nil {
		return n, IOErr("binary write failed", err)
	}
	return n, nil
}

func writeContainerList(w io.Writer, occs []occurrence, containerIdx map[ContainerH]int) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(occs))); err != nil {
		return IOErr("binary write failed", err)
	}
	for _, o := range occs {
		if err := binary.Write(w, binary.LittleEndian, uint32(containerIdx[o.container])); err != nil {
			return IOErr("binary write failed", err)
		}
		if err := binary.Write(w, binary.LittleEndian, uint32(o.pid)); err != nil {
			return IOErr("binary write failed", err)
		}
	}
	return nil
}

func writeGraph(w io.Writer, ctx *Context) error {
	ctx.LinkGroups()

	var live []GH
	for gh := GH(0); int(gh) < len(ctx.groups); gh++ {
		if !ctx.g(gh).Dead {
			live = append(live, gh)
		}
	}
	liveIdx := make(map[GH]int, len(live))
	for i, gh := range live {
		liveIdx[gh] = i
	}
	idxOf := func(gh GH) int32 {
		if gh == NilGH {
			return -1
		}
		return int32(liveIdx[gh])
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(len(live))); err != nil {
		return IOErr("binary write failed", err)
	}
	for _, gh := range live {
		grp := ctx.g(gh)
		var a, b int32 = -1, -1
		switch grp.CPMV.Type {
		case VInsc:
			a, b = idxOf(grp.CPMV.A), idxOf(grp.CPMV.B)
		case VWrap:
			a = idxOf(grp.CPMV.A)
		}
		fields := []interface{}{
			uint8(grp.CPMV.Type),
			idxOf(grp.CPMV.Next),
			a,
			b,
		}
		for _, f := range fields {
			if err := binary.Write(w, binary.LittleEndian, f); err != nil {
				return IOErr("binary write failed", err)
			}
		}
	}
	return nil
}

func writeRawSegments(w io.Writer, ctx *Context, containers []ContainerH) error {
	if err := binary.Write(w, binary.LittleEndian, classIDRaw); err != nil {
		return IOErr("binary write failed", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(containers))); err != nil {
		return IOErr("binary write failed", err)
	}
	for _, ch := range containers {
		raw := ctx.Container(ch).Raw
		if err := binary.Write(w, binary.LittleEndian, uint32(raw.Len())); err != nil {
			return IOErr("binary write failed", err)
		}
		raw.Rewind()
		for {
			tt, weight, ok := raw.Next()
			if !ok {
				break
			}
			if err := binary.Write(w, binary.LittleEndian, uint8(tt)); err != nil {
				return IOErr("binary write failed", err)
			}
			if err := binary.Write(w, binary.LittleEndian, weight); err != nil {
				return IOErr("binary write failed", err)
			}
		}
		raw.Rewind()
	}
	return nil
}

func writeBucketedSegments(w io.Writer, ctx *Context, containers []ContainerH, dt *dictTable) error {
	if err := binary.Write(w, binary.LittleEndian, classIDBucketed); err != nil {
		return IOErr("binary write failed", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(containers))); err != nil {
		return IOErr("binary write failed", err)
	}
	for _, ch := range containers {
		b := ctx.Container(ch).Bucketed
		if err := binary.Write(w, binary.LittleEndian, uint32(len(b.Letters))); err != nil {
			return IOErr("binary write failed", err)
		}
		if err := binary.Write(w, binary.LittleEndian, dt.indexOf(b.CalcDict)); err != nil {
			return IOErr("binary write failed", err)
		}
		if err := binary.Write(w, binary.LittleEndian, dt.indexOf(b.ComDict)); err != nil {
			return IOErr("binary write failed", err)
		}
		if err := binary.Write(w, binary.LittleEndian, b.Letters); err != nil {
			return IOErr("binary write failed", err)
		}
	}
	return nil
}

func writeDictBlock(w io.Writer, dt *dictTable) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(dt.dicts))); err != nil {
		return IOErr("binary write failed", err)
	}
	for _, d := range dt.dicts {
		if err := binary.Write(w, binary.LittleEndian, uint32(d.Size())); err != nil {
			return IOErr("binary write failed", err)
		}
		if err := binary.Write(w, binary.LittleEndian, d.Supremum); err != nil {
			return IOErr("binary write failed", err)
		}
		if err := binary.Write(w, binary.LittleEndian, d.Mean); err != nil {
			return IOErr("binary write failed", err)
		}
	}
	return nil
}
