// Package signals routes termination signals into context cancellation.
// This is a leaf package: stdlib only, no internal imports, no logging.
package signals

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Interceptor turns the first SIGINT or SIGTERM into cancellation of a run
// context. It never exits the process; the caller decides how to finish.
// Signals after the first are reported to OnRepeat and otherwise ignored.
type Interceptor struct {
	// OnRepeat, if set, is called for every signal after the first.
	OnRepeat func(os.Signal)

	sigChan  chan os.Signal
	done     chan struct{}
	notify   func(chan<- os.Signal, ...os.Signal)
	stop     func(chan<- os.Signal)
	mu       sync.Mutex
	received os.Signal
	started  bool
	stopOnce sync.Once
}

// NewInterceptor creates an interceptor for SIGINT and SIGTERM.
func NewInterceptor() *Interceptor {
	return &Interceptor{
		sigChan: make(chan os.Signal, 2),
		done:    make(chan struct{}),
		notify:  signal.Notify,
		stop:    signal.Stop,
	}
}

// Start installs the handlers and returns a context that is cancelled on the
// first signal. Start may be called once.
func (i *Interceptor) Start(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)

	i.mu.Lock()
	if i.started {
		i.mu.Unlock()
		panic("signals: Interceptor started twice")
	}
	i.started = true
	i.mu.Unlock()

	i.notify(i.sigChan, syscall.SIGINT, syscall.SIGTERM)
	go i.handle(cancel)
	return ctx
}

func (i *Interceptor) handle(cancel context.CancelFunc) {
	defer cancel()
	for {
		select {
		case <-i.done:
			return
		case sig := <-i.sigChan:
			i.mu.Lock()
			first := i.received == nil
			if first {
				i.received = sig
			}
			onRepeat := i.OnRepeat
			i.mu.Unlock()

			if first {
				cancel()
				continue
			}
			if onRepeat != nil {
				onRepeat(sig)
			}
		}
	}
}

// Signal returns the first signal received, or nil.
func (i *Interceptor) Signal() os.Signal {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.received
}

// Stop uninstalls the handlers and cancels the context returned by Start.
// Safe to call multiple times.
func (i *Interceptor) Stop() {
	i.stopOnce.Do(func() {
		i.stop(i.sigChan)
		close(i.done)
	})
}

// ExitCode returns 128 plus the signal number, the conventional shell status
// for a process ended by sig. It returns 0 for nil or unknown signals.
func ExitCode(sig os.Signal) int {
	s, ok := sig.(syscall.Signal)
	if !ok {
		return 0
	}
	return 128 + int(s)
}
