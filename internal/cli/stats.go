package cli

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/matzehuels/pipcore/pkg/observability"
)

// runStats counts resolver, cache and HTTP events for the summary line.
type runStats struct {
	observability.NoopResolverHooks
	observability.NoopCacheHooks
	observability.NoopHTTPHooks

	fetches   atomic.Int64
	failures  atomic.Int64
	cacheHits atomic.Int64
	requests  atomic.Int64
}

// install registers s as the global hooks and returns a function that
// restores the no-op defaults.
func (s *runStats) install() func() {
	observability.SetResolverHooks(s)
	observability.SetCacheHooks(s)
	observability.SetHTTPHooks(s)
	return observability.Reset
}

func (s *runStats) OnFetch(_ context.Context, _, _ string, _ time.Duration, err error) {
	s.fetches.Add(1)
	if err != nil {
		s.failures.Add(1)
	}
}

func (s *runStats) OnCacheHit(_ context.Context, keyType string) {
	// Index responses only; "deps" is the resolver memo.
	if keyType != "deps" {
		s.cacheHits.Add(1)
	}
}

func (s *runStats) OnRequest(context.Context, string, string, string) {
	s.requests.Add(1)
}
