package ppm

// Cluster groups VSeg vertices belonging to the same structural group (PMVG)
// whose raw segments compare equal under a ratio tolerance (4.B, 4.D). A
// structural group only ever holds vertices of one shape; for a VSeg group
// the vertices can still differ in segment *content*, and clustering is how
// that content gets consolidated before quantization.
type Cluster struct {
	Members []VH
}

// ClusterSet is one structural group's segments partitioned into clusters.
type ClusterSet struct {
	Group     GH
	Clusters  []*Cluster
	Tolerance Tolerance
}

// BuildClusters partitions a VSeg group's members into clusters of
// tolerance-equal raw-segment content (4.D), grounded on seg_cluster.c's
// SegClusterCtx_create/_add: a member joins the first existing cluster whose
// representative (that cluster's first member) compares equal to it under
// Tolerance, or starts a new cluster otherwise.
func BuildClusters(ctx *Context, group GH, tol Tolerance) *ClusterSet {
	cs := &ClusterSet{Group: group, Tolerance: tol}
	for _, vh := range ctx.g(group).Members {
		cs.add(ctx, vh)
	}
	return cs
}

func (cs *ClusterSet) add(ctx *Context, vh VH) {
	raw := ctx.Container(ctx.v(vh).Seg).Raw
	for _, cl := range cs.Clusters {
		rep := ctx.Container(ctx.v(cl.Members[0]).Seg).Raw
		if rep.Compare(raw, cs.Tolerance) {
			cl.Members = append(cl.Members, vh)
			return
		}
	}
	cs.Clusters = append(cs.Clusters, &Cluster{Members: []VH{vh}})
}

// Size returns the number of clusters.
func (cs *ClusterSet) Size() int { return len(cs.Clusters) }

// Compress turns each cluster's raw segments into bucketed segments sharing
// one pair of calc/com dictionaries per cluster (4.D), grounded on
// SegClusterCtx_compress: every member's raw segment is merged into one
// synthetic segment, whose sorted per-type weight lists (ToReql) seed the
// dictionary build, then every member is re-encoded against that dictionary
// pair. Members keep their own raw segment; only their container's Bucketed
// field is populated.
func (cs *ClusterSet) Compress(ctx *Context, k float64, maxDictSize int) error {
	for _, cl := range cs.Clusters {
		merged := NewRawSeg()
		for _, vh := range cl.Members {
			Merge(merged, ctx.Container(ctx.v(vh).Seg).Raw)
		}

		reql := merged.ToReql(true)

		calcDict, err := BuildDict(reql[SegCalc], k, maxDictSize)
		if err != nil {
			return err
		}
		comDict, err := BuildDict(reql[SegCom], k, maxDictSize)
		if err != nil {
			return err
		}

		for _, vh := range cl.Members {
			container := ctx.Container(ctx.v(vh).Seg)
			bucketed, err := NewBucketedSeg(container.Raw, calcDict, comDict)
			if err != nil {
				return err
			}
			container.Bucketed = bucketed
		}
	}
	return nil
}

// RemoveDuplicates collapses each cluster down to a single shared container
// (4.D deduplication): every member beyond the cluster's first is repointed
// at the first member's container, which was quantized against the same
// dictionaries and so already stands in for the whole cluster. Grounded on
// SegClusterCtx_remdupl, which performs the same unconditional
// first-member-as-representative collapse rather than a second exact-equality
// pass.
func (cs *ClusterSet) RemoveDuplicates(ctx *Context) {
	for _, cl := range cs.Clusters {
		if len(cl.Members) < 2 {
			continue
		}
		rep := ctx.v(cl.Members[0]).Seg
		for _, vh := range cl.Members[1:] {
			ctx.v(vh).Seg = rep
		}
	}
}

// ClusterAll runs BuildClusters/Compress/RemoveDuplicates over every live
// VSeg group in the context — the whole-model entry point for 4.D, invoked
// once mining (4.F) has produced its final set of structural groups.
func ClusterAll(ctx *Context, tol Tolerance, k float64, maxDictSize int) ([]*ClusterSet, error) {
	var out []*ClusterSet
	for gh := GH(0); int(gh) < len(ctx.groups); gh++ {
		grp := ctx.g(gh)
		if grp.Dead || grp.Variant != VSeg || len(grp.Members) == 0 {
			continue
		}
		cs := BuildClusters(ctx, gh, tol)
		if err := cs.Compress(ctx, k, maxDictSize); err != nil {
			return nil, err
		}
		cs.RemoveDuplicates(ctx)
		out = append(out, cs)
	}
	return out, nil
}
