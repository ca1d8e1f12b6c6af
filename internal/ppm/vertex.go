package ppm

// Variant tags the three PPM IR vertex shapes (4.E). This replaces the
// original implementation's PMV_seg/PMV_insc/PMV_wrap enum switched over by
// a single untagged union; Go gets a real sum type via the tag plus
// variant-specific fields left zero when unused.
type Variant uint8

const (
	VSeg  Variant = iota // Segment: wraps a task-segment container.
	VInsc                // Inosculation: two-branch fork/join node (pp, cp).
	VWrap                // Wrapper: encapsulates a contiguous stem.

	variantCount
)

func (v Variant) String() string {
	switch v {
	case VSeg:
		return "S"
	case VInsc:
		return "I"
	case VWrap:
		return "W"
	default:
		return "?"
	}
}

// VH is a vertex handle: an index into a Context's vertex arena. NilVH marks
// the absence of a vertex (the original implementation's NULL PMV*).
type VH int32

// NilVH is the invalid/absent vertex handle.
const NilVH VH = -1

// GH is a vertex-group (PMVG) handle. NilGH marks the absence of a group.
type GH int32

// NilGH is the invalid/absent group handle.
const NilGH GH = -1

// ContainerH indexes a segment container in a Context's container arena.
type ContainerH int32

// NilContainer is the invalid/absent container handle.
const NilContainer ContainerH = -1

// SlotKind identifies which field of which owner (or the context's head) a
// vertex is reached through. This is the handle-based replacement for the
// original implementation's PMV**prevnpp "pointer to the pointer pointing at
// me" trick: Go has no address-of-a-struct-field-through-an-interface
// portable enough to abuse that way, so the owning slot is named instead and
// resolved through the arena on write.
type SlotKind uint8

const (
	SlotNone SlotKind = iota
	SlotHead          // the context's head pointer
	SlotNp            // Owner.Next
	SlotPp            // Owner.PP
	SlotCp            // Owner.CP
	SlotWp            // Owner.WP
)

// Slot names the one edge in the tree that currently targets a vertex.
type Slot struct {
	Kind  SlotKind
	Owner VH
}

// Vertex is one node of the PPM IR (4.E). Only the fields relevant to its
// Variant are meaningful; the rest sit at their zero value.
type Vertex struct {
	Variant Variant

	Next     VH
	PrevSlot Slot
	Group    GH

	Depth uint32
	VCnt  uint32
	Hash  uint32

	Evaluated      bool
	IsSymmetric    bool // meaningful only for VInsc
	RecurringAdded bool // miner tag: this wrapper was produced by mine_recurrence

	// Overlap guard for find_similar_stem (original: PMV_SBIT_commonstem_start_{1,2}).
	// Set for the duration of one outer FindSimilarStem call so a self-stem
	// probe (mine_recurrence compares v against a later vertex on its own
	// stem) cannot wrap around and match a vertex against its own ancestor.
	stemStart1 bool
	stemStart2 bool

	Seg ContainerH // valid iff Variant == VSeg
	PP  VH         // valid iff Variant == VInsc
	CP  VH         // valid iff Variant == VInsc
	WP  VH         // valid iff Variant == VWrap
}

// CPMV is a compressed-graph vertex: one group's structural description,
// populated once by LinkGroups. Edges reference groups, not vertices.
type CPMV struct {
	Type Variant
	Next GH
	A, B GH // (pp,cp) groups for VInsc, (wp,_) for VWrap, unused for VSeg
}

// Group (PMVG) is a vertex-equivalence class: members accumulate as the
// miner passes merge similar subtrees; after LinkGroups every live group
// carries one CPMV describing the compressed graph's edges.
type Group struct {
	Variant Variant
	Members []VH
	Dead    bool // true once merged away (members moved to another group)

	CPMVSet bool
	CPMV    CPMV
}

// Segcont is a segment container: the thing a VSeg vertex points at. It
// starts out holding a raw segment; clustering (4.D) replaces the reference
// with a bucketed segment in place, which is why containers are handles
// rather than the segments themselves living on the vertex.
type Segcont struct {
	Raw      *RawSeg
	Bucketed *BucketedSeg
	Pid      int
}

// Context is the PPM IR arena (original: PMContext). Vertices and groups are
// held as pointers so handles and pointers taken before an arena append
// remain valid after it (a plain []Vertex would invalidate pointers on
// reallocation; the arena only ever grows, so indices are always stable
// either way, but pointer-stability makes the splice helpers far simpler to
// reason about).
type Context struct {
	Head VH

	vertices   []*Vertex
	groups     []*Group
	containers []*Segcont

	counts [variantCount]int
}

// NewContext creates an empty PPM IR arena.
func NewContext() *Context {
	return &Context{Head: NilVH}
}

func (ctx *Context) v(h VH) *Vertex {
	if h == NilVH {
		return nil
	}
	return ctx.vertices[h]
}

func (ctx *Context) g(h GH) *Group {
	if h == NilGH {
		return nil
	}
	return ctx.groups[h]
}

// Vertex exposes a handle's vertex for read access by other ppm files
// (builder, miner, cluster, serialize).
func (ctx *Context) Vertex(h VH) *Vertex { return ctx.v(h) }

// Group exposes a handle's group for read access.
func (ctx *Context) Group(h GH) *Group { return ctx.g(h) }

// VertexCount returns how many vertices of a variant exist (debugging/stats,
// mirrors PMContext_get_vcnt).
func (ctx *Context) VertexCount(v Variant) int { return ctx.counts[v] }

// Container returns a container by handle.
func (ctx *Context) Container(h ContainerH) *Segcont { return ctx.containers[h] }

// Containers returns every container in creation order.
func (ctx *Context) Containers() []*Segcont { return ctx.containers }

// NewContainer registers a raw-segment container and returns its handle.
func (ctx *Context) NewContainer(raw *RawSeg, pid int) ContainerH {
	ctx.containers = append(ctx.containers, &Segcont{Raw: raw, Pid: pid})
	return ContainerH(len(ctx.containers) - 1)
}

func (ctx *Context) newVertex(variant Variant) VH {
	v := &Vertex{Variant: variant, Next: NilVH, PP: NilVH, CP: NilVH, WP: NilVH, Seg: NilContainer}
	ctx.vertices = append(ctx.vertices, v)
	vh := VH(len(ctx.vertices) - 1)

	grp := &Group{Variant: variant, Members: []VH{vh}}
	ctx.groups = append(ctx.groups, grp)
	v.Group = GH(len(ctx.groups) - 1)

	ctx.counts[variant]++
	return vh
}

// NewSegVertex creates a segment vertex over an existing container.
func (ctx *Context) NewSegVertex(container ContainerH) VH {
	vh := ctx.newVertex(VSeg)
	ctx.v(vh).Seg = container
	return vh
}

// NewInscVertex creates a fork/join vertex over two already-built branches.
func (ctx *Context) NewInscVertex(pp, cp VH) VH {
	vh := ctx.newVertex(VInsc)
	v := ctx.v(vh)
	v.PP, v.CP = pp, cp
	if pp != NilVH {
		ctx.v(pp).PrevSlot = Slot{SlotPp, vh}
	}
	if cp != NilVH {
		ctx.v(cp).PrevSlot = Slot{SlotCp, vh}
	}
	return vh
}

// SetHead attaches target as the context's head, wiring up its PrevSlot.
func (ctx *Context) SetHead(target VH) {
	ctx.Head = target
	if target != NilVH {
		ctx.v(target).PrevSlot = Slot{SlotHead, NilVH}
	}
}

// SetNext attaches target as vh's np-successor.
func (ctx *Context) SetNext(vh, target VH) {
	ctx.v(vh).Next = target
	if target != NilVH {
		ctx.v(target).PrevSlot = Slot{SlotNp, vh}
	}
}

func (ctx *Context) writeSlot(slot Slot, target VH) {
	switch slot.Kind {
	case SlotHead:
		ctx.Head = target
	case SlotNp:
		ctx.v(slot.Owner).Next = target
	case SlotPp:
		ctx.v(slot.Owner).PP = target
	case SlotCp:
		ctx.v(slot.Owner).CP = target
	case SlotWp:
		ctx.v(slot.Owner).WP = target
	}
	if target != NilVH {
		ctx.v(target).PrevSlot = slot
	}
}

func (ctx *Context) hashOf(vh VH) uint32 {
	if vh == NilVH {
		return 0
	}
	return ctx.v(vh).Hash
}

func (ctx *Context) depthOf(vh VH) uint32 {
	if vh == NilVH {
		return 0
	}
	return ctx.v(vh).Depth
}

func (ctx *Context) vcntOf(vh VH) uint32 {
	if vh == NilVH {
		return 0
	}
	return ctx.v(vh).VCnt
}

func (ctx *Context) nextOf(vh VH) VH {
	if vh == NilVH {
		return NilVH
	}
	return ctx.v(vh).Next
}

func maxu32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

// hashMod is the largest prime <= (2^31-1)/2 = 1073741823, the modulus the
// original implementation folds the structural hash under.
const hashMod uint32 = 1073741789

// Eval recomputes (hash, depth, vcnt) bottom-up for the subtree rooted at
// vh, along with an inosculation vertex's cached is_symmetric flag. Unless
// force, already-evaluated subtrees are left untouched — this makes
// re-running Eval after an unrelated edit cheap, and makes it safe to call
// Eval(head, false) repeatedly as a no-op once the tree is stable.
//
// Segments do not carry the hash: a VSeg vertex always contributes (hash=1,
// depth=1, vcnt=1) regardless of its container's content. Structural
// similarity and segment-content similarity are deliberately separate
// relations (4.D handles the latter).
func (ctx *Context) Eval(vh VH, force bool) {
	if vh == NilVH {
		return
	}
	v := ctx.v(vh)
	if !force && v.Evaluated {
		return
	}

	var selfHash, selfDepth, selfVCnt uint32
	switch v.Variant {
	case VSeg:
		selfHash, selfDepth, selfVCnt = 1, 1, 1

	case VInsc:
		ctx.Eval(v.PP, force)
		ctx.Eval(v.CP, force)
		selfHash = (uint32(1)<<15 + ctx.hashOf(v.PP) + ctx.hashOf(v.CP)) % hashMod
		selfDepth = 1 + maxu32(ctx.depthOf(v.PP), ctx.depthOf(v.CP))
		selfVCnt = 1 + ctx.vcntOf(v.PP) + ctx.vcntOf(v.CP)
		v.IsSymmetric = ctx.IsSimilar(v.PP, v.CP, true)

	case VWrap:
		ctx.Eval(v.WP, force)
		selfHash = ctx.hashOf(v.WP)
		selfDepth = ctx.depthOf(v.WP)
		selfVCnt = ctx.vcntOf(v.WP)
	}

	ctx.Eval(v.Next, force)
	v.Hash = (selfHash + ctx.hashOf(v.Next)) % hashMod
	v.Depth = selfDepth + ctx.depthOf(v.Next)
	v.VCnt = selfVCnt + ctx.vcntOf(v.Next)
	v.Evaluated = true
}

// FindSimilarStem returns the last vertices of the longest common stem
// prefix starting at v1 and v2 (4.E "Similarity and common-stem matching").
// Both returned handles are NilVH iff no common prefix exists at all.
//
// check_summary gates the (hash,depth,vcnt) fast-reject for the v1/v2
// comparison itself; it is always forced on for pp/cp/wp sub-matches and
// propagates unchanged into the np-extension. Turning it off is how a
// wrapper's detached wrapped content is compared against a live stem, whose
// own np-chain summary would not otherwise match.
//
// The overlap guard (stemStart1/2) makes this safe to call with v1 and v2 on
// the very same stem, as mine_recurrence does.
func (ctx *Context) FindSimilarStem(v1, v2 VH, checkSummary bool) (end1, end2 VH) {
	if (v1 == NilVH) != (v2 == NilVH) || v1 == v2 {
		return NilVH, NilVH
	}
	ctx.v(v1).stemStart1 = true
	ctx.v(v2).stemStart2 = true
	end1, end2 = ctx.findSimilarStemRaw(v1, v2, checkSummary)
	ctx.v(v1).stemStart1 = false
	ctx.v(v2).stemStart2 = false
	return end1, end2
}

func (ctx *Context) findSimilarStemRaw(v1, v2 VH, checkSummary bool) (end1, end2 VH) {
	if (v1 == NilVH) != (v2 == NilVH) || v1 == v2 {
		return NilVH, NilVH
	}

	vv1 := ctx.v(v1)
	vv2 := ctx.v(v2)
	if vv1.stemStart2 || vv2.stemStart1 {
		return NilVH, NilVH
	}

	if vv1.Variant != vv2.Variant {
		var wrap, other VH
		var wrapIsV1 bool
		switch {
		case vv1.Variant == VWrap:
			wrap, other, wrapIsV1 = v1, v2, true
		case vv2.Variant == VWrap:
			wrap, other, wrapIsV1 = v2, v1, false
		default:
			return NilVH, NilVH
		}

		// check_summary forced off: the wrapped content is detached from a
		// live np-chain, so its folded summary can't be expected to match.
		wrapEnd, otherEnd := ctx.findSimilarStemRaw(ctx.v(wrap).WP, other, false)
		if wrapEnd == NilVH || ctx.v(wrapEnd).Next != NilVH {
			// no match, or the wrapped content wasn't consumed to its own end
			return NilVH, NilVH
		}

		n1, n2 := ctx.findSimilarStemRaw(ctx.v(wrap).Next, ctx.nextOf(otherEnd), checkSummary)
		if n1 == NilVH {
			// nothing beyond the wrapper itself matched; the wrapper (and its
			// counterpart's matched prefix) is the whole match
			if wrapIsV1 {
				return wrap, otherEnd
			}
			return otherEnd, wrap
		}
		if wrapIsV1 {
			return n1, n2
		}
		return n2, n1
	}

	if checkSummary {
		if vv1.Hash != vv2.Hash || vv1.Depth != vv2.Depth || vv1.VCnt != vv2.VCnt {
			return NilVH, NilVH
		}
	}

	switch vv1.Variant {
	case VSeg:
		// nothing to sub-match: segment content similarity is 4.D's concern

	case VInsc:
		if vv1.IsSymmetric != vv2.IsSymmetric {
			return NilVH, NilVH
		}
		e1, e2 := ctx.findSimilarStemRaw(vv1.PP, vv2.PP, true)
		if e1 == NilVH || ctx.nextOf(e1) != ctx.nextOf(e2) {
			return NilVH, NilVH
		}
		e1, e2 = ctx.findSimilarStemRaw(vv1.CP, vv2.CP, true)
		if e1 == NilVH || ctx.nextOf(e1) != ctx.nextOf(e2) {
			return NilVH, NilVH
		}

	case VWrap:
		e1, e2 := ctx.findSimilarStemRaw(vv1.WP, vv2.WP, true)
		if e1 == NilVH || ctx.nextOf(e1) != ctx.nextOf(e2) {
			return NilVH, NilVH
		}
	}

	n1, n2 := ctx.findSimilarStemRaw(vv1.Next, vv2.Next, checkSummary)
	if n1 == NilVH {
		return v1, v2
	}
	return n1, n2
}

// IsSimilar reports whether the PPMs rooted at v1 and v2 are similar: a
// non-empty common stem whose matched ends share the same np-successor.
func (ctx *Context) IsSimilar(v1, v2 VH, checkSummary bool) bool {
	if v1 == NilVH {
		return v2 == NilVH
	}
	end1, end2 := ctx.FindSimilarStem(v1, v2, checkSummary)
	if end1 == NilVH {
		return false
	}
	return ctx.nextOf(end1) == ctx.nextOf(end2)
}

// WrapSection wraps the stem segment [from, until] (inclusive, from and
// until on the same np-chain, from==until allowed) in a new wrapper vertex,
// splicing it in place of from and re-evaluating the affected subtree.
func (ctx *Context) WrapSection(from, until VH) VH {
	fromV := ctx.v(from)
	untilV := ctx.v(until)
	prevSlot := fromV.PrevSlot
	afterUntil := untilV.Next

	w := ctx.newVertex(VWrap)
	wv := ctx.v(w)
	wv.WP = from

	ctx.writeSlot(prevSlot, w)
	fromV.PrevSlot = Slot{SlotWp, w}

	untilV.Next = NilVH
	wv.Next = afterUntil
	if afterUntil != NilVH {
		ctx.v(afterUntil).PrevSlot = Slot{SlotNp, w}
	}

	// The wrapped content's tail just lost its continuation (until.Next went
	// to nil), which changes its folded hash/depth/vcnt, so the whole wrapped
	// subtree must be recomputed, not just assumed stale-but-cached.
	ctx.Eval(from, true)
	ctx.Eval(w, false)

	return w
}

// MergeRecursive merges two similar subtrees' vertex groups (4.E "Merge").
// Preconditions: v1 and v2 are both nil, or both non-nil and similar per
// IsSimilar. Violating this is a programmer error.
//
// Deviates from the literal original_source recursion in one place: when the
// two subtrees differ in shape because one side already picked up a wrapper
// from an earlier merge, the original's self-call re-passes the same two
// stale pointers (one of which never became a wrapper), which would recurse
// forever. Here the freshly wrapped vertex explicitly replaces the local
// reference before falling through to the matching-variant merge below.
func (ctx *Context) MergeRecursive(v1, v2 VH) {
	if v1 == NilVH {
		if v2 != NilVH {
			panic("ppm: merge_recursive: stems of different length")
		}
		return
	}
	if v2 == NilVH {
		panic("ppm: merge_recursive: stems of different length")
	}
	if v1 == v2 {
		panic("ppm: merge_recursive: reflexive merge")
	}

	vv1 := ctx.v(v1)
	vv2 := ctx.v(v2)

	if vv1.Variant != vv2.Variant {
		var wrap, other VH
		var wrapIsV1 bool
		switch {
		case vv2.Variant == VWrap:
			wrap, other, wrapIsV1 = v2, v1, false
		case vv1.Variant == VWrap:
			wrap, other, wrapIsV1 = v1, v2, true
		default:
			panic("ppm: merge_recursive: incompatible variants")
		}

		wrapEnd, otherEnd := ctx.FindSimilarStem(ctx.v(wrap).WP, other, false)
		if wrapEnd == NilVH || ctx.v(wrapEnd).Next != NilVH {
			panic("ppm: merge_recursive: wrapped subtree does not fully match target stem")
		}

		w2 := ctx.WrapSection(other, otherEnd)
		if wrapIsV1 {
			v2 = w2
		} else {
			v1 = w2
		}
		vv1 = ctx.v(v1)
		vv2 = ctx.v(v2)
	}

	switch vv1.Variant {
	case VSeg:
	case VInsc:
		ctx.MergeRecursive(vv1.PP, vv2.PP)
		ctx.MergeRecursive(vv1.CP, vv2.CP)
	case VWrap:
		ctx.MergeRecursive(vv1.WP, vv2.WP)
	}

	ctx.MergeRecursive(ctx.v(v1).Next, ctx.v(v2).Next)
	ctx.mergeGroups(ctx.v(v1).Group, ctx.v(v2).Group)
}

func (ctx *Context) mergeGroups(dst, src GH) {
	if dst == src {
		return
	}
	dstG := ctx.g(dst)
	srcG := ctx.g(src)
	for _, m := range srcG.Members {
		ctx.v(m).Group = dst
		dstG.Members = append(dstG.Members, m)
	}
	srcG.Members = nil
	srcG.Dead = true
}

func (ctx *Context) groupOf(vh VH) GH {
	if vh == NilVH {
		return NilGH
	}
	return ctx.v(vh).Group
}

// LinkGroups populates every live group's CPMV (the compressed graph's
// edges, expressed over groups rather than vertices) by walking the tree
// once and filling each group's CPMV from the first vertex reached that
// belongs to it (4.E, last step before serialization).
func (ctx *Context) LinkGroups() {
	visited := make(map[VH]bool, len(ctx.vertices))
	ctx.linkGroupsWalk(ctx.Head, visited)
}

func (ctx *Context) linkGroupsWalk(vh VH, visited map[VH]bool) {
	for vh != NilVH {
		if visited[vh] {
			return
		}
		visited[vh] = true

		v := ctx.v(vh)
		grp := ctx.g(v.Group)
		if !grp.CPMVSet {
			grp.CPMV.Type = v.Variant
			grp.CPMV.Next = ctx.groupOf(v.Next)
			switch v.Variant {
			case VInsc:
				grp.CPMV.A = ctx.groupOf(v.PP)
				grp.CPMV.B = ctx.groupOf(v.CP)
			case VWrap:
				grp.CPMV.A = ctx.groupOf(v.WP)
			}
			grp.CPMVSet = true
		}

		switch v.Variant {
		case VInsc:
			ctx.linkGroupsWalk(v.PP, visited)
			ctx.linkGroupsWalk(v.CP, visited)
		case VWrap:
			ctx.linkGroupsWalk(v.WP, visited)
		}

		vh = v.Next
	}
}
