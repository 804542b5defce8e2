package process

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/schmitthub/fixture/internal/logger"
)

// ErrSealed is reported for launches attempted after teardown began.
var ErrSealed = errors.New("teardown has begun; launch refused")

// Group is a named, ordered list of processes launched together.
type Group struct {
	Name  string
	Specs []Spec
}

// LaunchResult records the outcome of launching one Spec.
type LaunchResult struct {
	Group    string
	Name     string
	Pid      int
	LogPath  string
	Required bool
	Err      error
}

// OK reports whether the process was spawned.
func (r LaunchResult) OK() bool { return r.Err == nil }

// TeardownSummary describes one StopAll pass.
type TeardownSummary struct {
	// Requested is the number of termination requests issued.
	Requested int
	// Killed is the number of processes that needed SIGKILL.
	Killed int
	// LogsClosed is the number of log files closed.
	LogsClosed int
}

// Registry owns every handle launched during a run. All access goes through
// its mutex; once StopAll starts the registry is sealed and launches are
// refused, so no handle can escape teardown.
type Registry struct {
	mu      sync.Mutex
	handles []*Handle
	sealed  bool

	// start is swapped in tests.
	start func(Spec) (*Handle, error)
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{start: Start}
}

// Launch starts the group's processes strictly in order, without waiting for
// any of them to become ready. A spawn failure is recorded and the next
// entry is still launched. Once ctx is done or the registry is sealed the
// remaining entries are reported as not launched.
func (r *Registry) Launch(ctx context.Context, g Group) []LaunchResult {
	results := make([]LaunchResult, 0, len(g.Specs))
	for _, spec := range g.Specs {
		res := LaunchResult{
			Group:    g.Name,
			Name:     spec.Name,
			LogPath:  spec.LogPath,
			Required: spec.Required,
		}
		if err := ctx.Err(); err != nil {
			res.Err = err
			results = append(results, res)
			continue
		}

		h, err := r.launchOne(spec)
		if err != nil {
			logger.Warn().Err(err).Str("group", g.Name).Str("process", spec.Name).Msg("launch failed")
			res.Err = err
		} else {
			res.Pid = h.Pid()
			logger.Info().Str("group", g.Name).Str("process", spec.Name).Int("pid", res.Pid).Msg("launched")
		}
		results = append(results, res)
	}
	return results
}

func (r *Registry) launchOne(spec Spec) (*Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return nil, ErrSealed
	}
	h, err := r.start(spec)
	if err != nil {
		return nil, err
	}
	r.handles = append(r.handles, h)
	return h, nil
}

// Handles returns a snapshot of the launched handles in launch order.
func (r *Registry) Handles() []*Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Handle(nil), r.handles...)
}

// Sealed reports whether teardown has begun.
func (r *Registry) Sealed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sealed
}

// StopAll seals the registry and tears every handle down: one termination
// request each, a bounded wait of grace, SIGKILL for stragglers, then every
// log file is closed. Errors are logged and swallowed. Only the first call
// does anything.
func (r *Registry) StopAll(grace time.Duration) TeardownSummary {
	r.mu.Lock()
	if r.sealed {
		r.mu.Unlock()
		return TeardownSummary{}
	}
	r.sealed = true
	handles := append([]*Handle(nil), r.handles...)
	r.mu.Unlock()

	var summary TeardownSummary

	// Request termination of everything before waiting on anything.
	for _, h := range handles {
		if err := h.Terminate(); err != nil {
			logger.Debug().Err(err).Str("process", h.Name()).Msg("termination request failed")
		}
		summary.Requested++
	}

	var killed atomic.Int32
	var wg sync.WaitGroup
	for _, h := range handles {
		wg.Add(1)
		go func(h *Handle) {
			defer wg.Done()
			if h.Stop(grace) {
				killed.Add(1)
			}
		}(h)
	}
	wg.Wait()
	summary.Killed = int(killed.Load())

	for _, h := range handles {
		if err := h.Close(); err != nil {
			logger.Debug().Err(err).Str("process", h.Name()).Msg("closing log file failed")
			continue
		}
		summary.LogsClosed++
	}

	logger.Debug().
		Int("requested", summary.Requested).
		Int("killed", summary.Killed).
		Int("logs_closed", summary.LogsClosed).
		Msg("process teardown complete")

	return summary
}
