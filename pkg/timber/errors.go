package timber

import "errors"

var (
	// ErrConfig is returned for malformed construction arguments and for
	// training a classifier that cannot be trained.
	ErrConfig = errors.New("timber: invalid configuration")

	// ErrNotReady is returned when classifying before training completed
	// or after Close.
	ErrNotReady = errors.New("timber: classifier not ready")

	// ErrEngine is returned when the engine rejects an input line or fails
	// internally. The engine's own error stays reachable with errors.Is.
	ErrEngine = errors.New("timber: engine error")

	// ErrIO is returned when an introspection writer fails.
	ErrIO = errors.New("timber: write failed")

	// ErrClosed is returned, together with ErrNotReady, after Close.
	ErrClosed = errors.New("timber: classifier closed")

	// ErrInsufficientDepth is returned, together with ErrEngine, when the
	// engine's match depth is below the required depth.
	ErrInsufficientDepth = errors.New("timber: insufficient match depth")
)
