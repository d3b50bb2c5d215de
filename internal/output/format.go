package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/crimson-sun/timber/internal/model"
)

// Verbosity controls which result fields are written.
type Verbosity int

const (
	Minimal Verbosity = iota
	Standard
	Full
)

func (v Verbosity) String() string {
	switch v {
	case Minimal:
		return "minimal"
	case Standard:
		return "standard"
	case Full:
		return "full"
	default:
		return fmt.Sprintf("verbosity(%d)", int(v))
	}
}

// ParseVerbosity maps a config string to a Verbosity.
func ParseVerbosity(s string) (Verbosity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minimal":
		return Minimal, nil
	case "standard", "":
		return Standard, nil
	case "full":
		return Full, nil
	default:
		return Standard, fmt.Errorf("unknown verbosity %q", s)
	}
}

// FormatResult returns a copy of the result with fields stripped according to verbosity.
// At Minimal: Line, Distribution and Entropy are zeroed (omitted from JSON via omitempty).
// At Standard/Full: all fields preserved.
func FormatResult(r model.Result, verbosity Verbosity) model.Result {
	if verbosity == Minimal {
		r.Line = ""
		r.Distribution = nil
		r.Entropy = 0
	}
	return r
}

// EncodeLine renders r at the given verbosity as one newline-terminated
// JSON record. Pretty records span several lines.
func EncodeLine(r model.Result, verbosity Verbosity, pretty bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(FormatResult(r, verbosity)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
