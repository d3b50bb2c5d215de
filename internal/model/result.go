package model

import "time"

// Result is the caller-facing outcome of one classification call.
type Result struct {
	Seq          int                `json:"seq"`
	Timestamp    time.Time          `json:"timestamp"`
	Line         string             `json:"line,omitempty"`         // input record (retained at standard/full verbosity)
	Label        string             `json:"label,omitempty"`        // predicted class
	Distribution map[string]float64 `json:"distribution,omitempty"` // formatted class weights
	Confidence   float64            `json:"confidence"`             // normalized weight of Label
	Entropy      float64            `json:"entropy,omitempty"`      // Shannon entropy in bits
	Distance     float64            `json:"distance"`               // distance to the nearest neighbor set
	Depth        int                `json:"depth,omitempty"`        // engine match depth
	Error        string             `json:"error,omitempty"`        // set instead of the fields above on failure
}
