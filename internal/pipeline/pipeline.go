// Package pipeline classifies a stream of records with a pool of workers and
// writes the results to an output.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/crimson-sun/timber/internal/model"
	"github.com/crimson-sun/timber/internal/output"
	"github.com/crimson-sun/timber/internal/source"
	"github.com/crimson-sun/timber/pkg/timber"
)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithWorkers sets the number of concurrent workers. Default: 1.
func WithWorkers(n int) Option {
	return func(p *Pipeline) { p.workers = n }
}

// WithNormalize makes result distributions sum to 1.
func WithNormalize(on bool) Option {
	return func(p *Pipeline) { p.normalize = on }
}

// WithRequiredDepth rejects matches shallower than depth. 0 disables.
func WithRequiredDepth(depth int) Option {
	return func(p *Pipeline) { p.requiredDepth = depth }
}

// WithSafe replaces a worker's experiment after every engine error.
func WithSafe(on bool) Option {
	return func(p *Pipeline) { p.safe = on }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// Stats counts what a run processed.
type Stats struct {
	Records int64 // records read and classified
	Errors  int64 // records whose classification failed
}

// Pipeline connects a source, a classifier and an output.
type Pipeline struct {
	src           source.Source
	clf           *timber.Classifier
	out           output.Output
	workers       int
	normalize     bool
	requiredDepth int
	safe          bool
	logger        *slog.Logger
}

// New creates a Pipeline from the given components.
func New(src source.Source, clf *timber.Classifier, out output.Output, opts ...Option) *Pipeline {
	p := &Pipeline{
		src:     src,
		clf:     clf,
		out:     out,
		workers: 1,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.workers < 1 {
		p.workers = 1
	}
	return p
}

// Run classifies every record of the source until it is exhausted or ctx
// is cancelled. A record the engine rejects is written as a result with
// Error set and does not stop the run. Output failures and a classifier
// that stops being ready do.
func (p *Pipeline) Run(ctx context.Context, cfg source.Config) (Stats, error) {
	g, gctx := errgroup.WithContext(ctx)

	stream, err := p.src.Open(gctx, cfg)
	if err != nil {
		return Stats{}, fmt.Errorf("pipeline open: %w", err)
	}

	var records, failures atomic.Int64
	for i := 0; i < p.workers; i++ {
		g.Go(func() error {
			w := p.clf.NewWorker()
			defer func() {
				if err := w.Close(); err != nil {
					p.logger.Warn("worker close failed", "worker", w.ID(), "error", err)
				}
			}()

			for {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case rec, ok := <-stream.C:
					if !ok {
						return nil
					}
					res, err := p.classify(w, rec)
					if err != nil {
						return err
					}
					records.Add(1)
					if res.Error != "" {
						failures.Add(1)
					}
					if err := p.out.Write(gctx, res); err != nil {
						return fmt.Errorf("pipeline output: %w", err)
					}
				}
			}
		})
	}

	runErr := g.Wait()
	streamErr := stream.Err()
	stats := Stats{Records: records.Load(), Errors: failures.Load()}

	// Cancellation by the caller is a clean stop.
	if errors.Is(runErr, context.Canceled) && ctx.Err() != nil {
		runErr = nil
	}
	if err := errors.Join(runErr, streamErr); err != nil {
		return stats, err
	}
	p.logger.Info("pipeline finished", "records", stats.Records, "errors", stats.Errors, "workers", p.workers)
	return stats, nil
}

// classify turns one record into a result. Engine errors become part of the
// result; a classifier that is not ready is returned as an error.
func (p *Pipeline) classify(w *timber.Worker, rec model.Record) (model.Result, error) {
	var (
		res timber.Result
		err error
	)
	if p.safe {
		res, err = w.Classify3Safe(rec.Line, p.normalize, p.requiredDepth)
	} else {
		res, err = w.Classify3(rec.Line, p.normalize, p.requiredDepth)
	}

	out := model.Result{
		Seq:       rec.Seq,
		Timestamp: rec.Timestamp,
		Line:      rec.Line,
	}
	if err != nil {
		if errors.Is(err, timber.ErrNotReady) {
			return model.Result{}, fmt.Errorf("pipeline classify: %w", err)
		}
		p.logger.Debug("record rejected", "seq", rec.Seq, "error", err)
		out.Error = err.Error()
		return out, nil
	}

	out.Label = res.Label
	out.Distribution = res.Distribution
	out.Confidence = res.Confidence
	out.Entropy = res.Entropy
	out.Distance = res.Distance
	out.Depth = res.Depth
	return out, nil
}

// Close shuts down the output.
func (p *Pipeline) Close() error {
	return p.out.Close()
}
