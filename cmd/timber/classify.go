package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/timber/internal/config"
	"github.com/crimson-sun/timber/internal/pipeline"
	"github.com/crimson-sun/timber/internal/source"
	"github.com/crimson-sun/timber/pkg/timber"

	// Register source implementations.
	_ "github.com/crimson-sun/timber/internal/source/file"
	_ "github.com/crimson-sun/timber/internal/source/stdin"
)

type classifyFlags struct {
	train         string
	options       string
	input         string
	workers       int
	output        string
	outputPath    string
	verbosity     string
	pretty        bool
	normalize     bool
	threshold     float64
	requiredDepth int
	safe          bool
	metricsAddr   string
}

func newClassifyCmd(root *rootOptions) *cobra.Command {
	f := &classifyFlags{}

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify instance lines from stdin or a file",
		Long: `Train an experiment and classify every input line with a pool of workers.
Results are written as NDJSON, one object per input line. Lines the engine
rejects produce a result with an "error" field; the run continues.

Examples:
  # Classify stdin against a training file
  timber classify --train weather.data < queries.txt

  # Four workers, minimal output, drop classes under 10%
  timber classify --train weather.data --input queries.txt \
      --workers 4 --verbosity minimal --threshold 0.1

  # Expose Prometheus metrics while running
  timber classify --train weather.data --metrics-addr :9090 < queries.txt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := root.cfg
			f.apply(cmd, &cfg)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration:\n%w", err)
			}
			if cfg.Engine.TrainPath == "" {
				return errNoTrainingData
			}
			return runClassify(cmd, cfg, root.logger)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.train, "train", "", "labeled training instances")
	fl.StringVar(&f.options, "options", "", `engine options, e.g. "-k 3 -w 2 -d ID"`)
	fl.StringVarP(&f.input, "input", "i", "", "input file (default stdin)")
	fl.IntVarP(&f.workers, "workers", "w", 0, "concurrent workers (default NumCPU)")
	fl.StringVarP(&f.output, "output", "o", "", "output: stdout, file or tee")
	fl.StringVar(&f.outputPath, "output-path", "", "output file for file and tee")
	fl.StringVar(&f.verbosity, "verbosity", "", "minimal, standard or full")
	fl.BoolVar(&f.pretty, "pretty", false, "indent stdout JSON")
	fl.BoolVar(&f.normalize, "normalize", true, "normalize distributions to sum to 1")
	fl.Float64Var(&f.threshold, "threshold", 0, "drop classes below this share")
	fl.IntVar(&f.requiredDepth, "required-depth", 0, "reject matches shallower than this")
	fl.BoolVar(&f.safe, "safe", true, "replace a worker's experiment after engine errors")
	fl.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	return cmd
}

// apply overrides cfg with every flag set on the command line.
func (f *classifyFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	fl := cmd.Flags()
	if fl.Changed("train") {
		cfg.Engine.TrainPath = f.train
	}
	if fl.Changed("options") {
		cfg.Engine.Options = f.options
	}
	if fl.Changed("input") {
		cfg.Pipeline.Source = "file"
		cfg.Pipeline.InputPath = f.input
	}
	if fl.Changed("workers") {
		cfg.Pipeline.Workers = f.workers
	}
	if fl.Changed("output") {
		cfg.Output.Format = f.output
	}
	if fl.Changed("output-path") {
		cfg.Output.Path = f.outputPath
	}
	if fl.Changed("verbosity") {
		cfg.Output.Verbosity = f.verbosity
	}
	if fl.Changed("pretty") {
		cfg.Output.Pretty = f.pretty
	}
	if fl.Changed("normalize") {
		cfg.Classify.Normalize = f.normalize
	}
	if fl.Changed("threshold") {
		cfg.Classify.Threshold = f.threshold
	}
	if fl.Changed("required-depth") {
		cfg.Classify.RequiredDepth = f.requiredDepth
	}
	if fl.Changed("safe") {
		cfg.Classify.Safe = f.safe
	}
	if fl.Changed("metrics-addr") {
		cfg.Metrics.Addr = f.metricsAddr
	}
}

func runClassify(cmd *cobra.Command, cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var m *timber.Metrics
	if cfg.Metrics.Addr != "" {
		m = timber.NewMetrics(cfg.Metrics.Namespace)
		srv, err := serveMetrics(cfg.Metrics.Addr, m, logger)
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(sctx); err != nil {
				logger.Warn("metrics server shutdown", "error", err)
			}
		}()
	}

	clf, err := newClassifier(cfg, logger, m)
	if err != nil {
		return err
	}
	defer clf.Close()
	logger.Info("experiment ready", "options", clf.Options(), "train", cfg.Engine.TrainPath)

	out, err := newOutput(cfg.Output, cmd.OutOrStdout(), logger)
	if err != nil {
		return err
	}

	ctor, err := source.Get(cfg.Pipeline.Source)
	if err != nil {
		out.Close()
		return err
	}

	p := pipeline.New(ctor(), clf, out,
		pipeline.WithWorkers(cfg.Pipeline.Workers),
		pipeline.WithNormalize(cfg.Classify.Normalize),
		pipeline.WithRequiredDepth(cfg.Classify.RequiredDepth),
		pipeline.WithSafe(cfg.Classify.Safe),
		pipeline.WithLogger(logger),
	)

	srcCfg := source.Config{
		Provider: cfg.Pipeline.Source,
		Path:     cfg.Pipeline.InputPath,
		Reader:   cmd.InOrStdin(),
	}
	_, runErr := p.Run(ctx, srcCfg)
	return errors.Join(runErr, p.Close())
}

// serveMetrics starts the /metrics listener in the background.
func serveMetrics(addr string, m *timber.Metrics, logger *slog.Logger) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Handler: mux}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", ln.Addr().String())
	return srv, nil
}
