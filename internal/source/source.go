// Package source produces the instance lines a pipeline classifies.
package source

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/crimson-sun/timber/internal/model"
)

const maxLineSize = 1 << 20

// Source defines the interface all record providers must implement.
type Source interface {
	// Open starts reading and returns a stream of records. The stream's
	// channel closes at end of input, on a read error or when ctx is done.
	Open(ctx context.Context, cfg Config) (*Stream, error)
}

// Config holds provider settings.
type Config struct {
	Provider string
	Path     string    // file provider
	Reader   io.Reader // stdin provider; nil reads os.Stdin
}

// Stream is an open record stream.
type Stream struct {
	C <-chan model.Record

	done chan struct{}
	err  error
}

// Err waits for the stream to finish and returns the read error, if any.
// Cancellation is not reported as an error.
func (s *Stream) Err() error {
	<-s.done
	return s.err
}

// Scan streams the non-blank, non-comment lines of r as records tagged with
// provider. closer, when non-nil, is closed once reading stops.
func Scan(ctx context.Context, r io.Reader, provider string, closer io.Closer) *Stream {
	ch := make(chan model.Record)
	s := &Stream{C: ch, done: make(chan struct{})}

	go func() {
		defer close(s.done)
		defer close(ch)
		if closer != nil {
			defer closer.Close()
		}

		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		seq := 0
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			rec := model.Record{
				Seq:       seq,
				Timestamp: time.Now(),
				Source:    provider,
				Line:      line,
			}
			select {
			case ch <- rec:
				seq++
			case <-ctx.Done():
				return
			}
		}
		if err := sc.Err(); err != nil && ctx.Err() == nil {
			s.err = fmt.Errorf("%s source: read: %w", provider, err)
		}
	}()
	return s
}
