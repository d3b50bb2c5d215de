package ib1

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidOption is returned for unknown or malformed option strings.
var ErrInvalidOption = errors.New("invalid option")

// Weighting selects how feature weights are derived from the instance base.
type Weighting int

const (
	NoWeighting Weighting = iota // every feature weighs 1
	InfoGain                     // information gain
	GainRatio                    // information gain divided by split info
)

func (w Weighting) String() string {
	switch w {
	case NoWeighting:
		return "none"
	case InfoGain:
		return "information gain"
	default:
		return "gain ratio"
	}
}

// Voting selects how neighbors contribute to the class distribution.
type Voting int

const (
	Majority        Voting = iota // each neighbor adds its class counts
	InverseDistance               // counts scaled by 1/(distance+epsilon)
)

func (v Voting) code() string {
	if v == InverseDistance {
		return "ID"
	}
	return "Z"
}

// InputFormat selects how instance lines are split into fields.
type InputFormat int

const (
	Columns InputFormat = iota // whitespace separated
	C45                        // comma separated
)

func (f InputFormat) code() string {
	if f == C45 {
		return "C4.5"
	}
	return "Columns"
}

// Options is the parsed engine configuration.
type Options struct {
	K         int
	Weighting Weighting
	Voting    Voting
	Format    InputFormat
}

// DefaultOptions mirrors the engine's behavior with an empty option string.
func DefaultOptions() Options {
	return Options{K: 1, Weighting: GainRatio, Voting: Majority, Format: Columns}
}

// String renders the options in the syntax ParseOptions accepts.
func (o Options) String() string {
	return fmt.Sprintf("-k %d -w %d -d %s -F %s", o.K, int(o.Weighting), o.Voting.code(), o.Format.code())
}

// ParseOptions parses a TiMBL-style option string. Supported flags are
// -k N, -w 0|1|2, -d Z|ID and -F Columns|C4.5. A flag's value may be
// attached ("-k3") or the next field ("-k 3").
func ParseOptions(s string) (Options, error) {
	o := DefaultOptions()
	fields := strings.Fields(s)

	for i := 0; i < len(fields); i++ {
		f := fields[i]
		if len(f) < 2 || f[0] != '-' {
			return o, fmt.Errorf("%w: unexpected %q", ErrInvalidOption, f)
		}
		flag, val := f[:2], f[2:]
		if val == "" {
			if i+1 >= len(fields) {
				return o, fmt.Errorf("%w: %s requires a value", ErrInvalidOption, flag)
			}
			i++
			val = fields[i]
		}

		switch flag {
		case "-k":
			k, err := strconv.Atoi(val)
			if err != nil || k < 1 {
				return o, fmt.Errorf("%w: -k %q must be a positive integer", ErrInvalidOption, val)
			}
			o.K = k
		case "-w":
			switch val {
			case "0":
				o.Weighting = NoWeighting
			case "1":
				o.Weighting = InfoGain
			case "2":
				o.Weighting = GainRatio
			default:
				return o, fmt.Errorf("%w: -w %q", ErrInvalidOption, val)
			}
		case "-d":
			switch strings.ToUpper(val) {
			case "Z":
				o.Voting = Majority
			case "ID":
				o.Voting = InverseDistance
			default:
				return o, fmt.Errorf("%w: -d %q", ErrInvalidOption, val)
			}
		case "-F":
			switch strings.ToLower(val) {
			case "columns":
				o.Format = Columns
			case "c4.5":
				o.Format = C45
			default:
				return o, fmt.Errorf("%w: -F %q", ErrInvalidOption, val)
			}
		default:
			return o, fmt.Errorf("%w: unknown flag %s", ErrInvalidOption, flag)
		}
	}
	return o, nil
}
