package ppm

// Miner implements the three graph-mining passes (4.F). Each pass assumes
// Eval has already been run on the context's head so Hash/Depth/VCnt/
// IsSymmetric are current; no pass re-runs Eval over the whole tree. The
// only re-evaluation is the one WrapSection performs on the section it
// wraps and on the new wrapper.

// MineSymmetric merges fork branches that are structurally identical
// (symmetric inosculation vertices): pp and cp collapse into one group.
func MineSymmetric(ctx *Context) {
	mineSymmetric(ctx, ctx.Head)
}

func mineSymmetric(ctx *Context, vh VH) {
	for vh != NilVH {
		v := ctx.v(vh)
		switch v.Variant {
		case VInsc:
			mineSymmetric(ctx, v.PP)
			mineSymmetric(ctx, v.CP)
			if v.IsSymmetric {
				ctx.MergeRecursive(v.PP, v.CP)
			}
		case VWrap:
			mineSymmetric(ctx, v.WP)
		}
		vh = v.Next
	}
}

// MineAsymmetric finds, for each non-symmetric fork, occurrences of one
// branch's subtree nested inside the other branch, and merges them.
func MineAsymmetric(ctx *Context) {
	mineAsymmetric(ctx, ctx.Head)
}

func mineAsymmetric(ctx *Context, vh VH) {
	for vh != NilVH {
		v := ctx.v(vh)
		switch v.Variant {
		case VInsc:
			mineAsymmetric(ctx, v.PP)
			mineAsymmetric(ctx, v.CP)
			if !v.IsSymmetric {
				haystack, needle := v.PP, v.CP
				matches := findTerminating(ctx, haystack, needle)
				if len(matches) == 0 {
					haystack, needle = v.CP, v.PP
					matches = findTerminating(ctx, haystack, needle)
				}
				for _, m := range matches {
					ctx.MergeRecursive(needle, m)
				}
			}
		case VWrap:
			mineAsymmetric(ctx, v.WP)
		}
		vh = v.Next
	}
}

// findTerminating searches haystack's subtree for occurrences structurally
// similar to needle, pruning branches whose depth/vcnt can no longer fit it.
// A match ends the walk of that branch: neither its interior nor the rest of
// its stem along np is searched further.
func findTerminating(ctx *Context, haystack, needle VH) []VH {
	var out []VH
	var walk func(VH)
	needleV := ctx.v(needle)
	walk = func(h VH) {
		if h == NilVH {
			return
		}
		if ctx.IsSimilar(h, needle, true) {
			out = append(out, h)
			return
		}
		hv := ctx.v(h)
		if hv.Depth < needleV.Depth || hv.VCnt < needleV.VCnt {
			return
		}
		switch hv.Variant {
		case VInsc:
			walk(hv.PP)
			walk(hv.CP)
		case VWrap:
			walk(hv.WP)
		}
		walk(hv.Next)
	}
	walk(haystack)
	return out
}

// MineRecurrence finds parts of the tree that sit on top of each other
// (the same content repeating back-to-back along a stem) and collapses each
// repetition into a wrapper, merging their groups.
func MineRecurrence(ctx *Context) {
	mineRecurrence(ctx, ctx.Head)
}

func mineRecurrence(ctx *Context, vh VH) {
	if vh == NilVH {
		return
	}
	v := ctx.v(vh)
	if v.Variant == VInsc {
		mineRecurrence(ctx, v.PP)
		mineRecurrence(ctx, v.CP)
	}

	np := v.Next
	resume := v.Next

	if !v.RecurringAdded {
		firstRecurrence := true
		firstNotMatching := true
		wrapEnd := NilVH

		for np != NilVH {
			vend, nend := ctx.FindSimilarStem(vh, np, false)
			if vend != NilVH {
				if firstRecurrence {
					w := ctx.WrapSection(vh, vend)
					ctx.v(w).RecurringAdded = true
					firstRecurrence = false
					wrapEnd = vend
				} else if vend != wrapEnd {
					if firstNotMatching {
						resume = np
						firstNotMatching = false
					}
					np = ctx.v(np).Next
					continue
				}

				w2 := ctx.WrapSection(np, nend)
				ctx.v(w2).RecurringAdded = true
				ctx.MergeRecursive(vh, np)
				np = ctx.v(w2).Next
			} else {
				if firstNotMatching {
					resume = np
					firstNotMatching = false
				}
				np = ctx.v(np).Next
			}
		}
	}

	mineRecurrence(ctx, resume)
}

// Mine runs all three passes in the canonical order.
func Mine(ctx *Context) {
	MineSymmetric(ctx)
	MineAsymmetric(ctx)
	MineRecurrence(ctx)
}
