package stdout

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/crimson-sun/timber/internal/model"
	"github.com/crimson-sun/timber/internal/output"
)

// Output writes JSON-encoded results to stdout, or to any writer given to
// NewWriter. Safe for concurrent use.
type Output struct {
	mu        sync.Mutex
	w         io.Writer
	verbosity output.Verbosity
	pretty    bool
}

// New creates a new stdout Output with verbosity-aware field omission
// and optional pretty-printed JSON.
func New(verbosity output.Verbosity, pretty bool) *Output {
	return NewWriter(os.Stdout, verbosity, pretty)
}

// NewWriter is New for an arbitrary writer.
func NewWriter(w io.Writer, verbosity output.Verbosity, pretty bool) *Output {
	return &Output{w: w, verbosity: verbosity, pretty: pretty}
}

func (o *Output) Write(_ context.Context, result model.Result) error {
	line, err := output.EncodeLine(result, o.verbosity, o.pretty)
	if err != nil {
		return fmt.Errorf("stdout output: %w", err)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, err := o.w.Write(line); err != nil {
		return fmt.Errorf("stdout output: %w", err)
	}
	return nil
}

func (o *Output) Close() error {
	return nil
}
