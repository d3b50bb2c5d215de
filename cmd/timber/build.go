package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/crimson-sun/timber/internal/config"
	"github.com/crimson-sun/timber/internal/output"
	"github.com/crimson-sun/timber/internal/output/async"
	"github.com/crimson-sun/timber/internal/output/file"
	"github.com/crimson-sun/timber/internal/output/stdout"
	"github.com/crimson-sun/timber/pkg/timber"
)

var errNoTrainingData = errors.New("no training data: set --train or engine.train_path")

// newClassifier builds a classifier from the engine section and trains it
// when a training path is configured.
func newClassifier(cfg config.Config, logger *slog.Logger, m *timber.Metrics) (*timber.Classifier, error) {
	opts := []timber.Option{
		timber.WithName(cfg.Engine.Name),
		timber.WithLogger(logger),
		timber.WithThreshold(cfg.Classify.Threshold),
	}
	if m != nil {
		opts = append(opts, timber.WithMetrics(m))
	}

	clf, err := timber.New(cfg.Engine.Options, opts...)
	if err != nil {
		return nil, err
	}
	if cfg.Engine.TrainPath == "" {
		return clf, nil
	}
	if err := clf.TrainFile(cfg.Engine.TrainPath); err != nil {
		clf.Close()
		return nil, fmt.Errorf("train from %s: %w", cfg.Engine.TrainPath, err)
	}
	return clf, nil
}

// newOutput builds the configured output. stdout results go to w.
func newOutput(cfg config.OutputConfig, w io.Writer, logger *slog.Logger) (output.Output, error) {
	verbosity, err := output.ParseVerbosity(cfg.Verbosity)
	if err != nil {
		return nil, err
	}

	var out output.Output
	switch cfg.Format {
	case "stdout":
		out = stdout.NewWriter(w, verbosity, cfg.Pretty)
	case "file", "tee":
		opts := []file.Option{file.WithMaxSize(int64(cfg.MaxSize))}
		if cfg.Format == "tee" {
			opts = append(opts, file.WithMirror(w, cfg.Pretty))
		}
		f, err := file.New(cfg.Path, verbosity, opts...)
		if err != nil {
			return nil, err
		}
		out = f
	default:
		return nil, fmt.Errorf("unknown output format %q", cfg.Format)
	}

	if cfg.AsyncBuffer > 0 {
		out = async.New(out, async.WithBufferSize(cfg.AsyncBuffer), async.WithLogger(logger))
	}
	return out, nil
}
