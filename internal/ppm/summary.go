package ppm

// TaskTypeSummary is one task-type axis of a whole-model statistics report,
// grounded on pm.c's PM_seg_summary (supplemented feature, §3 of
// SPEC_FULL.md — task deviation is the difference between a segment's
// compressed and uncompressed weight).
type TaskTypeSummary struct {
	DeviSumTotal    float64
	DeviSumMean     float64
	DeviSumStddev   float64
	DeviMean        float64
	DeviMeanStddev  float64
	DictSizeMean    float64
	DictSizeTotal   float64
	TaskBadnessMean float64
	SegBadnessMean  float64
}

// ModelSummary reports calc/com statistics across every VSeg vertex
// occurrence in a compressed model.
type ModelSummary [SegTaskTypeCount]TaskTypeSummary

// Summarize computes whole-model statistics (supplemented feature) over
// every VSeg vertex occurrence reachable from the context's live groups,
// grounded on PMContext_eval/_get_seg_summary. It walks group members rather
// than distinct segment containers, so a container shared by RemoveDuplicates
// is counted once per vertex that references it, matching the original
// implementation's behavior. Call after clustering has populated every
// container's Bucketed segment.
func Summarize(ctx *Context) ModelSummary {
	var occurrences []*BucketSummary
	for gh := GH(0); int(gh) < len(ctx.groups); gh++ {
		grp := ctx.g(gh)
		if grp.Dead || grp.Variant != VSeg {
			continue
		}
		for _, vh := range grp.Members {
			container := ctx.Container(ctx.v(vh).Seg)
			if container.Bucketed == nil {
				continue
			}
			occurrences = append(occurrences, &container.Bucketed.Summary)
		}
	}

	var out ModelSummary
	if len(occurrences) == 0 {
		return out
	}

	n := len(occurrences)
	for tt := SegTaskType(0); tt < SegTaskTypeCount; tt++ {
		deviSum := make([]float64, n)
		deviMean := make([]float64, n)
		dictSize := make([]float64, n)
		segBadness := make([]float64, n)
		taskBadness := make([]float64, n)

		for i, s := range occurrences {
			deviSum[i] = s.DeviSum[tt]
			deviMean[i] = s.DeviMean[tt]
			dictSize[i] = float64(s.DictSize[tt])
			out[tt].DeviSumTotal += s.DeviSum[tt]
			out[tt].DictSizeTotal += float64(s.DictSize[tt])

			if s.Sum[tt] != 0 {
				segBadness[i] = s.DeviSum[tt] / s.Sum[tt]
			}
			if s.Mean[tt] != 0 {
				taskBadness[i] = s.DeviMean[tt] / s.Mean[tt]
			}
		}

		deviSumMu := mean(deviSum)
		out[tt].DeviSumMean = deviSumMu
		out[tt].DeviSumStddev = stddev(deviSum, deviSumMu)

		deviMeanMu := mean(deviMean)
		out[tt].DeviMean = deviMeanMu
		out[tt].DeviMeanStddev = stddev(deviMean, deviMeanMu)

		out[tt].DictSizeMean = mean(dictSize)
		out[tt].SegBadnessMean = mean(segBadness)
		out[tt].TaskBadnessMean = mean(taskBadness)
	}

	return out
}
