package output

import (
	"context"

	"github.com/crimson-sun/timber/internal/model"
)

// Output defines the interface for classification result destinations.
type Output interface {
	Write(ctx context.Context, result model.Result) error
	Close() error
}
