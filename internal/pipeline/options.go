// Package pipeline orchestrates a single compression run: parse the task
// table, build the PPM graph, mine structural repetition, cluster and
// quantize, then serialize the compressed model. It plays the role the
// teacher's internal/service orchestrator played for task analysis, adapted
// from "fetch a profiling task and analyze it" to "read a task table and
// compress it."
package pipeline

import (
	"github.com/perf-analysis/ppmc/internal/ppm"
	"github.com/perf-analysis/ppmc/internal/ppmtext"
	"github.com/perf-analysis/ppmc/pkg/config"
)

// Options controls one Run: the parser's weight caps and the
// cluster/quantization tolerances.
type Options struct {
	CapCalc     float64
	CapCom      float64
	Tolerance   ppm.Tolerance
	K           float64
	MaxDictSize int
}

// DefaultOptions mirrors the original implementation's defaults: no weight
// capping, a tight similarity tolerance, and the dictionary badness/size
// bounds spec.md names in 4.D.
func DefaultOptions() Options {
	return Options{
		CapCalc:     -1,
		CapCom:      -1,
		Tolerance:   ppm.Tolerance{MuMax: 1.2, SigmaMax: 1.2},
		K:           0.04,
		MaxDictSize: 1 << 15,
	}
}

// FromConfig builds Options from the service's loaded CompressionConfig.
func FromConfig(cfg config.CompressionConfig) Options {
	return Options{
		CapCalc:     cfg.CapCalc,
		CapCom:      cfg.CapCom,
		Tolerance:   ppm.Tolerance{MuMax: cfg.MuMax, SigmaMax: cfg.SigmaMax},
		K:           cfg.K,
		MaxDictSize: cfg.MaxDictSize,
	}
}

func (o Options) parserOptions() ppmtext.Options {
	return ppmtext.Options{CapCalc: o.CapCalc, CapCom: o.CapCom}
}
