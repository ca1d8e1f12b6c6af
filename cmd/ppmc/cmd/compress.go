package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/perf-analysis/ppmc/internal/ppm"
	"github.com/perf-analysis/ppmc/internal/pipeline"
	"github.com/perf-analysis/ppmc/internal/repository"
	"github.com/perf-analysis/ppmc/internal/storage"
)

var (
	compressInput   string
	compressOutput  string
	compressUpload  string
	compressRecord  bool
	compressSummary bool
)

var compressCmd = &cobra.Command{
	Use:   "compress",
	Short: "Compress a task-graph trace into a PPM binary model",
	Long: `compress reads a §6-format task table (digit-led lines describing
start/end/fork/join/calc/com/fork_end tasks), builds and mines its Parallel
Program Model graph, clusters and quantizes its segments, and writes the
compressed binary model.`,
	Example: fmt.Sprintf(`  # Compress a trace, writing the binary model alongside it
  %s compress -i trace.txt -o trace.ppm

  # Compress, record the run in the database, and upload the model
  %s compress -i trace.txt -o trace.ppm --record --upload runs/trace.ppm`,
		BinName(), BinName()),
	RunE: runCompress,
}

func init() {
	rootCmd.AddCommand(compressCmd)

	compressCmd.Flags().StringVarP(&compressInput, "input", "i", "", "input task-table file (required)")
	compressCmd.Flags().StringVarP(&compressOutput, "output", "o", "", "output binary model path (required)")
	compressCmd.Flags().StringVar(&compressUpload, "upload", "", "object storage key to upload the compressed model to")
	compressCmd.Flags().BoolVar(&compressRecord, "record", false, "persist this run's history to the configured database")
	compressCmd.Flags().BoolVar(&compressSummary, "summary", false, "print per-task-type deviation/badness statistics after compressing")

	_ = compressCmd.MarkFlagRequired("input")
	_ = compressCmd.MarkFlagRequired("output")
}

func runCompress(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	var repo repository.CompressionRunRepository
	if compressRecord {
		dbCfg := &repository.DBConfig{
			Type:     cfg.Database.Type,
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			Database: cfg.Database.Database,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			MaxConns: cfg.Database.MaxConns,
		}
		gormDB, err := repository.NewGormDB(dbCfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		repos, err := repository.NewRepositories(gormDB, dbCfg.Type)
		if err != nil {
			return fmt.Errorf("initialize repositories: %w", err)
		}
		defer repos.Close()
		repo = repos.Run
	}

	var store storage.Storage
	if compressUpload != "" {
		s, err := storage.NewStorage(&cfg.Storage)
		if err != nil {
			return fmt.Errorf("initialize storage: %w", err)
		}
		store = s
	}

	p := pipeline.New(pipeline.FromConfig(cfg.Compression), repo, store, logger)

	res, err := p.Compress(ctx, compressInput, compressOutput, compressUpload)
	if err != nil {
		return err
	}

	fmt.Printf("run:        %s\n", res.RunUUID)
	fmt.Printf("raw bytes:  %d\n", res.RawBytes)
	fmt.Printf("compressed: %d (%.2f%%)\n", res.CompressedBytes, ratioPercent(res.CompressedBytes, res.RawBytes))
	fmt.Printf("vertices:   %d raw -> %d mined\n", res.VertexCountRaw, res.VertexCountMined)
	fmt.Printf("clusters:   %d (%d dictionaries)\n", res.ClusterCount, res.DictCount)

	if compressSummary {
		printSummary(res.Summary)
	}

	return nil
}

func printSummary(summary ppm.ModelSummary) {
	for tt := ppm.SegTaskType(0); tt < ppm.SegTaskTypeCount; tt++ {
		s := summary[tt]
		fmt.Printf("%s: devi_sum=%.4f±%.4f devi_mean=%.4f±%.4f dict_size=%.2f task_badness=%.4f seg_badness=%.4f\n",
			tt, s.DeviSumMean, s.DeviSumStddev, s.DeviMean, s.DeviMeanStddev,
			s.DictSizeMean, s.TaskBadnessMean, s.SegBadnessMean)
	}
}

func ratioPercent(compressed, raw int64) float64 {
	if raw == 0 {
		return 0
	}
	return 100 * float64(compressed) / float64(raw)
}
