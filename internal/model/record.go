package model

import "time"

// Record is the intermediate type produced by sources and consumed by the
// classification pipeline.
type Record struct {
	Seq       int       // position in the source stream, starting at 0
	Timestamp time.Time // when the record was read
	Source    string    // provider name (e.g. "stdin", "file")
	Line      string    // unparsed instance line handed to the engine
}
