package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/perf-analysis/ppmc/internal/ppm"
	"github.com/perf-analysis/ppmc/internal/ppmtext"
	"github.com/perf-analysis/ppmc/internal/repository"
	"github.com/perf-analysis/ppmc/internal/storage"
	"github.com/perf-analysis/ppmc/pkg/utils"
)

var tracer = otel.Tracer("github.com/perf-analysis/ppmc/internal/pipeline")

// Pipeline drives one compression run end to end. Repo and Store are both
// optional: a nil Repo skips history persistence, a nil Store skips
// uploading the compressed model.
type Pipeline struct {
	Opts   Options
	Repo   repository.CompressionRunRepository
	Store  storage.Storage
	Logger utils.Logger
}

// New creates a Pipeline. A nil logger falls back to utils.NullLogger.
func New(opts Options, repo repository.CompressionRunRepository, store storage.Storage, logger utils.Logger) *Pipeline {
	if logger == nil {
		logger = &utils.NullLogger{}
	}
	return &Pipeline{Opts: opts, Repo: repo, Store: store, Logger: logger}
}

// Result summarizes one completed compression run.
type Result struct {
	RunUUID        string
	VertexCountRaw int
	// VertexCountMined is the number of live structural segment groups
	// remaining after mining, i.e. len(clusters) from ClusterAll.
	VertexCountMined int
	ClusterCount     int
	DictCount        int
	RawBytes         int64
	CompressedBytes  int64
	Summary          ppm.ModelSummary
}

// Compress reads a §6 text task table from sourcePath, builds and mines the
// PPM graph, clusters and quantizes its segments, and writes the binary
// model to outputPath. uploadKey, if non-empty, additionally uploads the
// file at outputPath to p.Store under that key once the model is written.
func (p *Pipeline) Compress(ctx context.Context, sourcePath, outputPath, uploadKey string) (res *Result, err error) {
	ctx, span := tracer.Start(ctx, "pipeline.Compress")
	defer span.End()

	runUUID := uuid.NewString()
	log := p.Logger.WithField("run_uuid", runUUID)
	span.SetAttributes(attribute.String("ppmc.run_uuid", runUUID), attribute.String("ppmc.source_path", sourcePath))

	if p.Repo != nil {
		if err := p.Repo.Create(ctx, &repository.CompressionRun{RunUUID: runUUID, SourcePath: sourcePath, OutputPath: outputPath}); err != nil {
			return nil, fmt.Errorf("pipeline: record run start: %w", err)
		}
	}

	defer func() {
		if p.Repo == nil {
			return
		}
		if err != nil {
			if ferr := p.Repo.Fail(ctx, runUUID, err.Error()); ferr != nil {
				log.Warn("failed to record run failure: %v", ferr)
			}
			return
		}
		summaryJSON, jerr := json.Marshal(res.Summary)
		if jerr != nil {
			log.Warn("failed to marshal model summary: %v", jerr)
		}
		stats := repository.CompressionStats{
			VertexCountRaw:   res.VertexCountRaw,
			VertexCountMined: res.VertexCountMined,
			ClusterCount:     res.ClusterCount,
			DictCount:        res.DictCount,
			RawBytes:         res.RawBytes,
			CompressedBytes:  res.CompressedBytes,
			Summary:          summaryJSON,
		}
		if cerr := p.Repo.Complete(ctx, runUUID, stats); cerr != nil {
			log.Warn("failed to record run completion: %v", cerr)
		}
	}()

	start := time.Now()

	src, err := os.Open(sourcePath)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("pipeline: open source: %w", err)
	}
	defer src.Close()

	rawBytes, err := fileSize(src)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("pipeline: stat source: %w", err)
	}

	_, parseSpan := tracer.Start(ctx, "pipeline.parse")
	table, err := ppmtext.Parse(src, p.Opts.parserOptions())
	parseSpan.End()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("pipeline: parse task table: %w", err)
	}
	log.Debug("parsed %d tasks from %s", len(table.Tasks), sourcePath)

	_, buildSpan := tracer.Start(ctx, "pipeline.build")
	gctx, err := ppm.BuildGraph(table, p.Opts.CapCalc, p.Opts.CapCom)
	buildSpan.End()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("pipeline: build graph: %w", err)
	}
	vertexCountRaw := gctx.VertexCount(ppm.VSeg)

	_, mineSpan := tracer.Start(ctx, "pipeline.mine")
	ppm.Mine(gctx)
	mineSpan.End()

	_, clusterSpan := tracer.Start(ctx, "pipeline.cluster")
	clusters, err := ppm.ClusterAll(gctx, p.Opts.Tolerance, p.Opts.K, p.Opts.MaxDictSize)
	clusterSpan.End()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("pipeline: cluster and quantize: %w", err)
	}

	clusterCount, dictCount := tallyClusters(gctx, clusters)

	out, err := os.Create(outputPath)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("pipeline: create output: %w", err)
	}
	defer out.Close()

	_, writeSpan := tracer.Start(ctx, "pipeline.serialize")
	compressedBytes, err := ppm.WriteModel(out, gctx)
	writeSpan.End()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("pipeline: serialize model: %w", err)
	}

	if uploadKey != "" {
		if p.Store == nil {
			return nil, fmt.Errorf("pipeline: upload requested but no storage backend configured")
		}
		if err := p.Store.UploadFile(ctx, uploadKey, outputPath); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("pipeline: upload compressed model: %w", err)
		}
	}

	res = &Result{
		RunUUID:          runUUID,
		VertexCountRaw:   vertexCountRaw,
		VertexCountMined: len(clusters),
		ClusterCount:     clusterCount,
		DictCount:        dictCount,
		RawBytes:         rawBytes,
		CompressedBytes:  compressedBytes,
		Summary:          ppm.Summarize(gctx),
	}

	log.Info("compressed %s -> %s in %v (raw=%d mined=%d clusters=%d dicts=%d ratio=%.4f)",
		sourcePath, outputPath, time.Since(start),
		res.VertexCountRaw, res.VertexCountMined, res.ClusterCount, res.DictCount,
		ratio(res.CompressedBytes, res.RawBytes))

	return res, nil
}

// tallyClusters counts the total cluster count across every structural
// group and the number of distinct calc/com dictionaries referenced by the
// bucketed containers: each cluster's Compress builds its own pair of Dict
// values, so every cluster contributes two distinct dictionaries.
func tallyClusters(ctx *ppm.Context, clusters []*ppm.ClusterSet) (clusterCount, dictCount int) {
	seen := make(map[*ppm.Dict]bool)
	for _, cs := range clusters {
		clusterCount += cs.Size()
	}
	for _, container := range ctx.Containers() {
		if container.Bucketed == nil {
			continue
		}
		seen[container.Bucketed.CalcDict] = true
		seen[container.Bucketed.ComDict] = true
	}
	return clusterCount, len(seen)
}

func fileSize(f *os.File) (int64, error) {
	stat, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return stat.Size(), nil
}

func ratio(compressed, raw int64) float64 {
	if raw == 0 {
		return 0
	}
	return float64(compressed) / float64(raw)
}
