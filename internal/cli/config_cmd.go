package cli

import (
	"fmt"
	"io"

	"geotab/internal/config"
)

func (r *Root) configShow(w io.Writer) error {
	fmt.Fprintf(w, "Current configuration:\n")
	fmt.Fprintf(w, "Config file: %s\n", config.Path())

	p := r.cfg.Processing
	fmt.Fprintf(w, "\nProcessing:\n")
	fmt.Fprintf(w, "  Parallel volumes: %d\n", p.ParallelJobs)
	fmt.Fprintf(w, "  Observation workers: %d\n", p.ObservationWorkers)
	fmt.Fprintf(w, "  Sampling: every %d samples\n", p.Sampling)
	fmt.Fprintf(w, "  Tiling minimum: %d samples\n", p.TilingMin)
	fmt.Fprintf(w, "  Selection: %s\n", p.Selection)
	if p.First > 0 {
		fmt.Fprintf(w, "  First: %d observations per volume\n", p.First)
	}

	fmt.Fprintf(w, "\nPaths:\n")
	fmt.Fprintf(w, "  Input tree: %s\n", r.cfg.Paths.InputTree)
	fmt.Fprintf(w, "  Output tree: %s\n", r.cfg.Paths.OutputTree)
	fmt.Fprintf(w, "  Database: %s\n", r.cfg.Paths.DatabasePath)
	rules := r.cfg.Paths.RulesFile
	if rules == "" {
		rules = "(built-in tilings)"
	}
	fmt.Fprintf(w, "  Rules file: %s\n", rules)

	fmt.Fprintf(w, "\nLogging:\n")
	fmt.Fprintf(w, "  Level: %s\n", r.cfg.Logging.Level)
	fmt.Fprintf(w, "  Format: %s\n", r.cfg.Logging.Format)
	if r.cfg.Logging.FileOutput {
		fmt.Fprintf(w, "  Directory: %s\n", r.cfg.Logging.LogDir)
	}

	fmt.Fprintf(w, "\nServer:\n")
	fmt.Fprintf(w, "  HTTP: %s\n", r.cfg.Server.HTTPAddr)
	fmt.Fprintf(w, "  gRPC: %s\n", r.cfg.Server.GRPCAddr)
	return nil
}
