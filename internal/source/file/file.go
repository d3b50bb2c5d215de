// Package file reads records from a file on disk.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/crimson-sun/timber/internal/source"
)

func init() {
	source.Register("file", func() source.Source {
		return &Source{}
	})
}

// Source reads one instance per line from cfg.Path.
type Source struct{}

func (s *Source) Open(ctx context.Context, cfg source.Config) (*source.Stream, error) {
	if cfg.Path == "" {
		return nil, errors.New("file source: path is required")
	}
	f, err := os.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("file source: %w", err)
	}
	return source.Scan(ctx, f, "file", f), nil
}
