// Package stdin reads records from standard input.
package stdin

import (
	"context"
	"os"

	"github.com/crimson-sun/timber/internal/source"
)

func init() {
	source.Register("stdin", func() source.Source {
		return &Source{}
	})
}

// Source reads one instance per line from cfg.Reader, or os.Stdin.
type Source struct{}

func (s *Source) Open(ctx context.Context, cfg source.Config) (*source.Stream, error) {
	r := cfg.Reader
	if r == nil {
		r = os.Stdin
	}
	return source.Scan(ctx, r, "stdin", nil), nil
}
