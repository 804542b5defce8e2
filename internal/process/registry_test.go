//go:build unix

package process

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_LaunchInOrderToleratesFailures(t *testing.T) {
	r := NewRegistry()
	dir := t.TempDir()
	bad := Spec{
		Name:     "broken",
		Argv:     []string{filepath.Join(dir, "missing-binary")},
		Dir:      dir,
		LogPath:  filepath.Join(dir, "broken-log"),
		Required: true,
	}

	results := r.Launch(context.Background(), Group{
		Name: "mocks",
		Specs: []Spec{
			shellSpec(t, "first", "sleep 30"),
			bad,
			shellSpec(t, "third", "sleep 30"),
		},
	})
	t.Cleanup(func() { r.StopAll(time.Second) })

	require.Len(t, results, 3)
	assert.Equal(t, "first", results[0].Name)
	assert.True(t, results[0].OK())
	assert.Positive(t, results[0].Pid)
	assert.False(t, results[1].OK())
	assert.True(t, results[1].Required)
	assert.Equal(t, "mocks", results[1].Group)
	assert.True(t, results[2].OK())

	handles := r.Handles()
	require.Len(t, handles, 2)
	assert.Equal(t, "first", handles[0].Name())
	assert.Equal(t, "third", handles[1].Name())
}

func TestRegistry_StopAllTerminatesEveryHandleOnce(t *testing.T) {
	r := NewRegistry()
	r.Launch(context.Background(), Group{Name: "mocks", Specs: []Spec{
		shellSpec(t, "m1", "sleep 30"),
		shellSpec(t, "m2", "sleep 30"),
	}})
	r.Launch(context.Background(), Group{Name: "servers", Specs: []Spec{
		shellSpec(t, "s1", "sleep 30"),
		shellSpec(t, "done", "true"),
	}})

	summary := r.StopAll(2 * time.Second)
	assert.Equal(t, 4, summary.Requested)
	assert.Equal(t, 0, summary.Killed)
	assert.Equal(t, 4, summary.LogsClosed)

	for _, h := range r.Handles() {
		assert.True(t, h.Terminated(), h.Name())
		assert.False(t, h.Running(), h.Name())
	}

	again := r.StopAll(2 * time.Second)
	assert.Equal(t, TeardownSummary{}, again, "second teardown is a no-op")
}

func TestRegistry_RefusesLaunchAfterSeal(t *testing.T) {
	r := NewRegistry()
	r.StopAll(time.Second)
	assert.True(t, r.Sealed())

	results := r.Launch(context.Background(), Group{Name: "servers", Specs: []Spec{
		shellSpec(t, "late", "sleep 30"),
	}})
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, ErrSealed)
	assert.Empty(t, r.Handles())
}

func TestRegistry_CancelledContextStopsLaunching(t *testing.T) {
	r := NewRegistry()
	var started []string
	r.start = func(s Spec) (*Handle, error) {
		started = append(started, s.Name)
		return Start(s)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := r.Launch(ctx, Group{Name: "mocks", Specs: []Spec{
		shellSpec(t, "a", "true"),
		shellSpec(t, "b", "true"),
	}})
	assert.Empty(t, started)
	require.Len(t, results, 2)
	for _, res := range results {
		assert.ErrorIs(t, res.Err, context.Canceled)
	}
}

func TestRegistry_StopAllKillsStragglers(t *testing.T) {
	r := NewRegistry()
	spec := shellSpec(t, "stubborn", `trap '' TERM; sleep 30`)
	results := r.Launch(context.Background(), Group{Name: "servers", Specs: []Spec{spec}})
	require.True(t, results[0].OK())

	// Give the shell time to install its trap.
	time.Sleep(200 * time.Millisecond)

	summary := r.StopAll(200 * time.Millisecond)
	assert.Equal(t, 1, summary.Requested)
	assert.Equal(t, 1, summary.Killed)
}
