// Package umetrics holds the process-wide tally metrics registry.
// Until Bootstrap is called every scope is a no-op, so library code
// can record metrics unconditionally.
package umetrics

import (
	"io"
	"sync"
	"time"

	"github.com/uber-go/tally/v4"
)

var (
	mu   sync.Mutex
	root tally.Scope = tally.NoopScope
)

// Options configures the root scope.
type Options struct {
	Prefix         string
	Reporter       tally.CachedStatsReporter
	ReportInterval time.Duration
	CommonTags     map[string]string
}

// Bootstrap installs the real root scope. The first call wins; later
// calls return nil without touching the registry. The returned closer
// flushes the reporter on shutdown.
func Bootstrap(opts Options) io.Closer {
	mu.Lock()
	defer mu.Unlock()

	if root != tally.NoopScope {
		return nil
	}

	if opts.Prefix == "" {
		opts.Prefix = "fireback"
	}
	if opts.ReportInterval <= 0 {
		opts.ReportInterval = time.Second
	}

	scope, closer := tally.NewRootScope(tally.ScopeOptions{
		Prefix:         opts.Prefix,
		Tags:           opts.CommonTags,
		CachedReporter: opts.Reporter,
		Separator:      "_",
	}, opts.ReportInterval)

	scope.Gauge("process_start_time_seconds").Update(float64(time.Now().UTC().Unix()))
	root = scope
	return closer
}

// Scope returns a sub-scope for one package or component.
//
//nolint:ireturn
func Scope(component string) tally.Scope {
	mu.Lock()
	defer mu.Unlock()
	return root.SubScope(component)
}
