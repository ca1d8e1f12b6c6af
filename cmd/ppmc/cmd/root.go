package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/perf-analysis/ppmc/pkg/config"
	"github.com/perf-analysis/ppmc/pkg/telemetry"
	"github.com/perf-analysis/ppmc/pkg/utils"
)

var (
	verbose    bool
	configPath string

	logger utils.Logger
	cfg    *config.Config

	otelShutdown telemetry.ShutdownFunc
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "ppmc",
	Short: "Compress parallel program models",
	Long: `ppmc compresses task-graph traces of parallel programs into the
Parallel Program Model (PPM) intermediate representation: it mines
structural repetition in the task graph, clusters and quantizes segment
weights, and serializes the result as a compact binary model.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logLevel := utils.LevelInfo
		if verbose {
			logLevel = utils.LevelDebug
		}
		logger = utils.NewDefaultLogger(logLevel, os.Stdout)

		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded

		shutdown, err := telemetry.Init(context.Background())
		if err != nil {
			logger.Warn("telemetry initialization failed, continuing without tracing: %v", err)
			shutdown = nil
		}
		otelShutdown = shutdown

		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if otelShutdown != nil {
			return otelShutdown(context.Background())
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (defaults to ./config.yaml)")
}

// BinName returns the invoked binary's base name, for building dynamic
// usage examples the way the teacher's cli does.
func BinName() string {
	return filepath.Base(os.Args[0])
}
