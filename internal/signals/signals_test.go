package signals

import (
	"context"
	"os"
	"sync"
	"syscall"
	"testing"
	"time"
)

func newTestInterceptor() *Interceptor {
	i := NewInterceptor()
	i.notify = func(chan<- os.Signal, ...os.Signal) {}
	i.stop = func(chan<- os.Signal) {}
	return i
}

func waitDone(t *testing.T, ctx context.Context) {
	t.Helper()
	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context should be done")
	}
}

func TestInterceptor_FirstSignalCancels(t *testing.T) {
	i := newTestInterceptor()
	ctx := i.Start(context.Background())
	defer i.Stop()

	select {
	case <-ctx.Done():
		t.Fatal("context should not be done yet")
	default:
	}
	if i.Signal() != nil {
		t.Fatalf("Signal() = %v, want nil", i.Signal())
	}

	i.sigChan <- syscall.SIGTERM
	waitDone(t, ctx)

	if i.Signal() != syscall.SIGTERM {
		t.Errorf("Signal() = %v, want SIGTERM", i.Signal())
	}
}

func TestInterceptor_RepeatSignalsAreReported(t *testing.T) {
	var mu sync.Mutex
	var repeats []os.Signal
	got := make(chan struct{}, 2)

	i := newTestInterceptor()
	i.OnRepeat = func(sig os.Signal) {
		mu.Lock()
		repeats = append(repeats, sig)
		mu.Unlock()
		got <- struct{}{}
	}
	ctx := i.Start(context.Background())
	defer i.Stop()

	i.sigChan <- syscall.SIGINT
	waitDone(t, ctx)
	i.sigChan <- syscall.SIGTERM
	i.sigChan <- syscall.SIGINT

	for range 2 {
		select {
		case <-got:
		case <-time.After(2 * time.Second):
			t.Fatal("repeat signal not reported")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(repeats) != 2 {
		t.Fatalf("repeats = %v, want 2 entries", repeats)
	}
	if i.Signal() != syscall.SIGINT {
		t.Errorf("Signal() = %v, want first signal SIGINT", i.Signal())
	}
}

func TestInterceptor_ParentCancel(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	i := newTestInterceptor()
	ctx := i.Start(parent)
	defer i.Stop()

	cancel()
	waitDone(t, ctx)
	if i.Signal() != nil {
		t.Errorf("Signal() = %v, want nil", i.Signal())
	}
}

func TestInterceptor_StopIdempotent(t *testing.T) {
	i := newTestInterceptor()
	ctx := i.Start(context.Background())

	i.Stop()
	i.Stop()
	waitDone(t, ctx)
}

func TestInterceptor_RealSignal(t *testing.T) {
	i := NewInterceptor()
	ctx := i.Start(context.Background())
	defer i.Stop()

	p, err := os.FindProcess(os.Getpid())
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Signal(syscall.SIGTERM); err != nil {
		t.Skipf("cannot signal self: %v", err)
	}
	waitDone(t, ctx)
	if i.Signal() != syscall.SIGTERM {
		t.Errorf("Signal() = %v, want SIGTERM", i.Signal())
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		sig  os.Signal
		want int
	}{
		{syscall.SIGINT, 130},
		{syscall.SIGTERM, 143},
		{nil, 0},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.sig); got != tt.want {
			t.Errorf("ExitCode(%v) = %d, want %d", tt.sig, got, tt.want)
		}
	}
}
