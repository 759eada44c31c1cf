package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"geotab/internal/angles"
	"geotab/internal/backplane"
	"geotab/internal/bodies"
	"geotab/internal/columns"
	"geotab/internal/config"
	"geotab/internal/fsutil"
	"geotab/internal/grpcserver"
	"geotab/internal/pipeline"
	"geotab/internal/probe"
	"geotab/internal/quicklook"
	"geotab/internal/storage"
	"geotab/internal/suite"
	"geotab/internal/tiles"
	"geotab/internal/watch"
)

// Version is reported by the version command.
var Version = "0.9.0"

// NewRootCmd creates the root Cobra command
func NewRootCmd(cfg *config.Config, log *slog.Logger, store *storage.Store, pipe *pipeline.Pipeline, catalog *columns.Catalog, primaries *bodies.Table) *cobra.Command {
	return newRootCmd(NewRoot(pipe, cfg, log, store, catalog, primaries))
}

func newRootCmd(root *Root) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "geotab",
		Short: "geotab tabulates observation geometry",
		Long: `geotab summarizes per-pixel geometry backplanes into fixed-width tables,
one row per observation or per spatial subregion of each observed body.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newTabulateCmd(root))
	rootCmd.AddCommand(newCumulativeCmd(root))
	rootCmd.AddCommand(newServeCmd(root))
	rootCmd.AddCommand(newWatchCmd(root))
	rootCmd.AddCommand(newHealthCmd(root))
	rootCmd.AddCommand(newQuicklookCmd(root))
	rootCmd.AddCommand(newGapTableCmd(root))
	rootCmd.AddCommand(newRunsCmd(root))
	rootCmd.AddCommand(newConfigCmd(root))
	rootCmd.AddCommand(newVersionCmd(root))

	return rootCmd
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newTabulateCmd(root *Root) *cobra.Command {
	var (
		plan      volumePlan
		selection string
		first     int
	)

	cmd := &cobra.Command{
		Use:   "tabulate [volume_dir...]",
		Short: "Write the geometry tables of each volume",
		Long: `Write the inventory, sky, sun, ring and body tables of every volume.

Without arguments, every volume of the collection under --input is processed;
the collection name (default: the base name of --input) gives the volume glob,
e.g. GO_0xxx matches GO_0001 through GO_0999.

Examples:
  geotab tabulate --input /holdings/volumes/GO_0xxx
  geotab tabulate --input /holdings/volumes/GO_0xxx --exclude GO_0016 --new-only
  geotab tabulate /holdings/volumes/GO_0xxx/GO_0017 --selection S --first 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := columns.ParseLevels(selection); err != nil {
				return err
			}
			targets, err := root.volumes(plan, args)
			if err != nil {
				return err
			}
			if len(targets) == 0 {
				root.log.Warn("no volumes to tabulate", "input", plan.input)
				return nil
			}

			jobs := make([]pipeline.Job, len(targets))
			for i, t := range targets {
				jobs[i] = tabulateJob(t, selection, first)
			}
			ctx, stop := signalContext()
			defer stop()
			return root.runJobs(ctx, jobs)
		},
	}

	cmd.Flags().StringVarP(&plan.input, "input", "i", root.cfg.Paths.InputTree, "collection directory holding the volumes")
	cmd.Flags().StringVarP(&plan.output, "output", "o", root.cfg.Paths.OutputTree, "output tree mirroring the input (empty: beside each archive)")
	cmd.Flags().StringVar(&plan.collection, "collection", "", "collection name, e.g. GO_0xxx (default: base name of --input)")
	cmd.Flags().StringSliceVar(&plan.exclude, "exclude", nil, "volume IDs or directory names to skip")
	cmd.Flags().BoolVar(&plan.newOnly, "new-only", false, "skip volumes that already have an inventory table")
	cmd.Flags().StringVar(&selection, "selection", root.cfg.Processing.Selection, "table levels: S (summary), D (detailed) or SD")
	cmd.Flags().IntVar(&first, "first", root.cfg.Processing.First, "process at most this many observations per volume (0: all)")

	return cmd
}

func newCumulativeCmd(root *Root) *cobra.Command {
	var (
		input      string
		output     string
		collection string
		selection  string
	)

	cmd := &cobra.Command{
		Use:   "cumulative",
		Short: "Concatenate the volume tables of a collection",
		Long: `Concatenate every volume's tables into the collection's cumulative volume,
e.g. GO_0xxx tables are gathered into GO_0999/GO_0999_<table>.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if collection == "" {
				collection = filepath.Base(filepath.Clean(input))
			}
			job := pipeline.Job{
				ID:        newRunID(),
				Type:      pipeline.JobCumulative,
				InputPath: input,
				Output:    output,
				Options: map[string]any{
					"collection": collection,
					"selection":  selection,
				},
			}
			ctx, stop := signalContext()
			defer stop()
			return root.enqueueAndWait(ctx, job)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", root.cfg.Paths.OutputTree, "tree holding the tabulated volumes")
	cmd.Flags().StringVarP(&output, "output", "o", "", "tree receiving the cumulative volume (default: --input)")
	cmd.Flags().StringVar(&collection, "collection", "", "collection name, e.g. GO_0xxx (default: base name of --input)")
	cmd.Flags().StringVar(&selection, "selection", root.cfg.Processing.Selection, "table levels: S, D or SD")

	return cmd
}

func newServeCmd(root *Root) *cobra.Command {
	var (
		addr     string
		grpcAddr string
		watchDir string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve run status over HTTP and gRPC health",
		Long: `Start the HTTP status API (/healthz, /runs, /runs/{id}, /stream, /ws) and the
gRPC health service. With --watch, volumes are tabulated as their backplane
archives land under the given collection directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			health := grpcserver.New(grpcAddr, root.log)
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return root.serveFn(gctx, addr, root.store, root.pipeline, root.log)
			})
			g.Go(func() error { return health.Start(gctx) })
			if watchDir != "" {
				g.Go(func() error { return root.watchVolumes(gctx, watchDir) })
			}

			root.log.Info("server ready",
				"addr", addr,
				"grpc_addr", grpcAddr,
				"endpoints", []string{"/healthz", "/runs", "/runs/{id}", "/stream", "/ws"},
			)
			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", root.cfg.Server.HTTPAddr, "HTTP address (host:port)")
	cmd.Flags().StringVar(&grpcAddr, "grpc-addr", root.cfg.Server.GRPCAddr, "gRPC health address (host:port)")
	cmd.Flags().StringVar(&watchDir, "watch", "", "collection directory to watch for new backplane archives")

	return cmd
}

func newWatchCmd(root *Root) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Tabulate volumes as their backplane archives land",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()
			err := root.watchVolumes(ctx, input)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", root.cfg.Paths.InputTree, "collection directory to watch")
	return cmd
}

// watchVolumes queues a tabulate job whenever a volume archive settles.
func (r *Root) watchVolumes(ctx context.Context, input string) error {
	glob, err := fsutil.VolumeGlob(filepath.Base(filepath.Clean(input)))
	if err != nil {
		return err
	}
	w, err := watch.New(input, glob, r.log)
	if err != nil {
		return err
	}
	plan := volumePlan{input: input, output: r.cfg.Paths.OutputTree}
	r.log.Info("watching for backplane archives", "input", input, "glob", glob)
	return w.Run(ctx, func(ev watch.VolumeEvent) {
		job := tabulateJob(target{vol: ev.Volume, outDir: plan.outDir(ev.Volume)}, r.cfg.Processing.Selection, r.cfg.Processing.First)
		if err := r.enqueue(ctx, job); err != nil {
			r.log.Warn("cannot queue volume", "volume", ev.Volume.ID, "error", err)
		}
	})
}

func newHealthCmd(root *Root) *cobra.Command {
	var (
		cfg    probe.Config
		follow bool
	)

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check the gRPC health of a running server",
		Long: `Ask a running "geotab serve" whether its pipeline accepts jobs. With --watch,
keep polling and print every status change until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := probe.New(cfg, root.log)
			if err != nil {
				return err
			}
			defer p.Close()

			ctx, stop := signalContext()
			defer stop()
			w := cmd.OutOrStdout()

			if !follow {
				status, err := p.Check(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s: %s\n", cfg.Address, status)
				if status != healthpb.HealthCheckResponse_SERVING {
					return fmt.Errorf("%s is %s", cfg.Address, status)
				}
				return nil
			}

			err = p.Run(ctx, func(status healthpb.HealthCheckResponse_ServingStatus, err error) {
				if err != nil {
					fmt.Fprintf(w, "%s %s: unreachable: %v\n", time.Now().Format(time.RFC3339), cfg.Address, err)
					return
				}
				fmt.Fprintf(w, "%s %s: %s\n", time.Now().Format(time.RFC3339), cfg.Address, status)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&cfg.Address, "addr", root.cfg.Server.GRPCAddr, "gRPC health address (host:port)")
	cmd.Flags().StringVar(&cfg.Service, "service", grpcserver.PipelineService, "health service name")
	cmd.Flags().BoolVar(&follow, "watch", false, "poll until interrupted")
	cmd.Flags().DurationVar(&cfg.Interval, "interval", probe.DefaultInterval, "poll interval with --watch")
	cmd.Flags().BoolVar(&cfg.Insecure, "insecure", true, "connect without TLS")
	cmd.Flags().StringVar(&cfg.CACertPath, "ca-cert", "", "CA certificate for TLS")
	cmd.Flags().StringVar(&cfg.TLSCertPath, "tls-cert", "", "client certificate for TLS")
	cmd.Flags().StringVar(&cfg.TLSKeyPath, "tls-key", "", "client key for TLS")

	return cmd
}

func newQuicklookCmd(root *Root) *cobra.Command {
	var (
		body   string
		ring   bool
		sky    bool
		output string
		scale  int
	)

	cmd := &cobra.Command{
		Use:   "quicklook <volume_dir> <observation>",
		Short: "Render the tile partition of one observation",
		Long: `Render the detailed-table subregions of one observation as a grayscale image,
one gray level per subregion index. Samples outside every subregion are black.

Examples:
  geotab quicklook GO_0xxx/GO_0017 C0349632100R --body IO -o io.png
  geotab quicklook COISS_2xxx/COISS_2001 N1454725799 --ring --scale 8`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := filepath.Clean(args[0])
			vol := fsutil.Volume{ID: filepath.Base(dir), Dir: dir}
			src, err := root.openFn(suite.ArchivePath(vol), root.cfg.Processing.Sampling)
			if err != nil {
				return err
			}
			defer src.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			obs, err := findObservation(ctx, src, args[1])
			if err != nil {
				return fmt.Errorf("%s: %w", vol.ID, err)
			}
			p, err := src.Provider(ctx, obs)
			if err != nil {
				return err
			}

			var sets []tiles.Set
			switch {
			case sky:
				sets = []tiles.Set{root.catalog.SkyTiles()}
			case ring:
				primary, _, err := root.primaries.Primary(obs.SCLK)
				if err != nil {
					return err
				}
				if primary == "" || !bodies.HasRings(primary) {
					return fmt.Errorf("%s: no ringed primary", obs)
				}
				sets = root.catalog.RingTiles(primary)
			default:
				if body == "" {
					body = bodies.Translate(obs.Target)
				}
				sets = []tiles.Set{root.catalog.BodyTiles(body)}
			}

			lm, err := quicklook.Labels(p, sets, root.cfg.Processing.TilingMin)
			if err != nil {
				return err
			}
			if output == "" {
				output = args[1] + "_tiles.png"
			}
			if err := quicklook.Render(output, lm, scale); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d subregions, %dx%d samples\n", output, lm.Max, lm.Shape.Cols, lm.Shape.Rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&body, "body", "", "body whose tiling is drawn (default: the observation target)")
	cmd.Flags().BoolVar(&ring, "ring", false, "draw the ring tilings of the primary")
	cmd.Flags().BoolVar(&sky, "sky", false, "draw the sky tiling")
	cmd.Flags().StringVarP(&output, "output", "o", "", "image file (default: <observation>_tiles.png)")
	cmd.Flags().IntVar(&scale, "scale", 4, "magnification of each sample")

	return cmd
}

// findObservation looks up an observation by basename.
func findObservation(ctx context.Context, src backplane.Source, basename string) (backplane.Observation, error) {
	list, err := src.Observations(ctx)
	if err != nil {
		return backplane.Observation{}, err
	}
	for _, o := range list {
		if o.Basename == basename {
			return o, nil
		}
	}
	return backplane.Observation{}, fmt.Errorf("observation %s not found", basename)
}

func newGapTableCmd(root *Root) *cobra.Command {
	var (
		maxN  int
		tests int
		prob  float64
		seed  int64
	)

	cmd := &cobra.Command{
		Use:   "gaptable",
		Short: "Regenerate the angular coverage table by simulation",
		Long: `For each sample count n, print the span in degrees within which n uniformly
drawn angles fall with the given probability. The range estimator's built-in
table is this output at probability 0.1.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rng := rand.New(rand.NewSource(seed))
			w := cmd.OutOrStdout()
			for n := 0; n < maxN; n++ {
				fmt.Fprintf(w, "%4d, %8.3f\n", n, angles.RangeOfNAngles(n, prob, tests, rng))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxN, "max", 1000, "number of sample counts to simulate")
	cmd.Flags().IntVar(&tests, "tests", 10000, "trials per sample count")
	cmd.Flags().Float64Var(&prob, "prob", 0.1, "probability that all n angles fall within the span")
	cmd.Flags().Int64Var(&seed, "seed", 1, "random seed")

	return cmd
}

func newRunsCmd(root *Root) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs [run_id]",
		Short: "List recent runs, or show one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer w.Flush()

			if len(args) == 0 {
				runs, err := root.store.RecentRuns(limit)
				if err != nil {
					return err
				}
				fmt.Fprintln(w, "ID\tTYPE\tSTATUS\tINPUT\tERROR")
				for _, r := range runs {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.RunType, r.Status, r.InputPath, r.Error)
				}
				return nil
			}

			vols, err := root.store.VolumeResults(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "VOLUME\tOBSERVATIONS\tSUCCEEDED\tFAILED\tTABLES")
			for _, v := range vols {
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n", v.VolumeID, v.Observations, v.Succeeded, v.Failed, len(v.Tables))
			}
			failures, err := root.store.ObservationFailures(args[0])
			if err != nil {
				return err
			}
			if len(failures) > 0 {
				fmt.Fprintln(w, "\nOBSERVATION\tSEVERITY\tMESSAGE")
				for _, f := range failures {
					fmt.Fprintf(w, "%s\t%s\t%s\n", f.Observation, f.Severity, f.Message)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to list")
	return cmd
}

func newConfigCmd(root *Root) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or validate configuration settings",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.configShow(cmd.OutOrStdout())
		},
	}

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and column declarations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := root.cfg.Validate(); err != nil {
				return err
			}
			if err := root.catalog.Validate(); err != nil {
				return err
			}
			root.log.Info("configuration validation", "status", "valid")
			fmt.Fprintln(cmd.OutOrStdout(), "configuration is valid")
			return nil
		},
	}

	cmd.AddCommand(showCmd, validateCmd)
	return cmd
}

func newVersionCmd(root *Root) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("geotab v" + Version)
		},
	}
}
