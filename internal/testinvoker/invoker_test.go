//go:build unix

package testinvoker

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "tests")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func newTestInvoker() (*Invoker, *bytes.Buffer) {
	var out bytes.Buffer
	return &Invoker{Stdout: &out, Stderr: &out, WaitDelay: time.Second}, &out
}

func TestRun_ExitCodePropagated(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"success", "exit 0\n", 0},
		{"failure", "exit 1\n", 1},
		{"arbitrary", "exit 42\n", 42},
		{"signaled", "kill -TERM $$\n", 143},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			exe := writeScript(t, dir, tt.body)
			inv, _ := newTestInvoker()

			code, err := inv.Run(context.Background(), exe, dir, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestRun_ArgsForwardedVerbatim(t *testing.T) {
	dir := t.TempDir()
	exe := writeScript(t, dir, "for a in \"$@\"; do echo \"[$a]\"; done\npwd\n")
	inv, out := newTestInvoker()

	args := []string{"-test.run", "TestKick", "--unknown=x y", "-v"}
	code, err := inv.Run(context.Background(), exe, dir, args)
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, []string{"[-test.run]", "[TestKick]", "[--unknown=x y]", "[-v]"}, lines[:4])

	resolved, _ := filepath.EvalSymlinks(dir)
	assert.Contains(t, []string{dir, resolved}, lines[4])
}

func TestRun_Env(t *testing.T) {
	dir := t.TempDir()
	exe := writeScript(t, dir, "echo \"$FIXTURE_RUN_ID\"\n")
	inv, out := newTestInvoker()
	inv.Env = []string{"FIXTURE_RUN_ID=abc"}

	_, err := inv.Run(context.Background(), exe, dir, nil)
	require.NoError(t, err)
	assert.Equal(t, "abc\n", out.String())
}

func TestRun_MissingExecutable(t *testing.T) {
	inv, _ := newTestInvoker()
	_, err := inv.Run(context.Background(), "/nonexistent/tests", t.TempDir(), nil)
	require.Error(t, err)
}

func TestRun_CancelTerminates(t *testing.T) {
	dir := t.TempDir()
	exe := writeScript(t, dir, "exec sleep 30\n")
	inv, _ := newTestInvoker()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	code, err := inv.Run(ctx, exe, dir, nil)
	require.NoError(t, err)
	assert.Equal(t, 143, code)
	assert.Less(t, time.Since(start), 5*time.Second)
}
