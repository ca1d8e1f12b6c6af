package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/perf-analysis/ppmc/internal/ppm"
	"github.com/perf-analysis/ppmc/pkg/writer"
)

var inspectJSONOut string

var inspectCmd = &cobra.Command{
	Use:   "inspect <model-file>",
	Short: "Print the shape of a compressed PPM binary model",
	Long: `inspect parses a binary model written by "compress" without
rebuilding a live graph arena, and reports its container, graph, segment,
and dictionary block sizes. With --json-out, it additionally dumps the
fully decoded model as pretty-printed JSON for offline inspection.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&inspectJSONOut, "json-out", "", "also write the decoded model as JSON to this path")
}

func runInspect(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open model: %w", err)
	}
	defer f.Close()

	model, err := ppm.ReadModel(f)
	if err != nil {
		return fmt.Errorf("decode model: %w", err)
	}

	fmt.Printf("containers:      %d\n", len(model.Containers))
	fmt.Printf("graph vertices:  %d\n", len(model.Graph))
	if len(model.RawSegs) > 0 {
		fmt.Printf("encoding:        raw\n")
		fmt.Printf("segments:        %d\n", len(model.RawSegs))
	} else {
		fmt.Printf("encoding:        bucketed\n")
		fmt.Printf("segments:        %d\n", len(model.BucketedSegs))
		fmt.Printf("dictionaries:    %d\n", len(model.Dicts))
	}

	if inspectJSONOut != "" {
		w := writer.NewPrettyJSONWriter[*ppm.DecodedModel]()
		if err := w.WriteToFile(model, inspectJSONOut); err != nil {
			return fmt.Errorf("write json dump: %w", err)
		}
		fmt.Printf("json dump:       %s\n", inspectJSONOut)
	}

	return nil
}
