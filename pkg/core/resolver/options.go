package resolver

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pipcore/pkg/core/deps/marker"
)

// DefaultConcurrency is the batch size and in-flight fetch limit.
const DefaultConcurrency = 10

// Options configures a [Resolver].
type Options struct {
	// Environment is the target that dependency markers are evaluated
	// against. The zero value means [marker.Current].
	Environment marker.Environment

	// Concurrency bounds both the batch size and the number of
	// simultaneous fetches. Values <= 0 mean [DefaultConcurrency].
	Concurrency int

	// Logger receives resolution events. Nil discards them.
	Logger *log.Logger
}

// WithDefaults returns a copy of o with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	if o.Environment == (marker.Environment{}) {
		o.Environment = marker.Current()
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return o
}
