package orchestrator

import (
	"path/filepath"
	"testing"

	"github.com/schmitthub/fixture/internal/config"
	"github.com/schmitthub/fixture/internal/readiness"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPlan_Defaults(t *testing.T) {
	root := filepath.FromSlash("/work/client")
	opts := config.RunOptions{Root: root, TestsDir: filepath.Join(root, "out"), ScriptRuntime: "/opt/node/bin/node"}

	plan, err := NewPlan(config.DefaultConfig(), opts, "run-1")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "out", config.ExeName("tests")), plan.TestExe)

	require.Len(t, plan.Mocks.Specs, 5)
	kick := plan.Mocks.Specs[2]
	assert.Equal(t, "mock-kick-server", kick.Name)
	assert.Equal(t, []string{"/opt/node/bin/node", "mock-kick-server.js"}, kick.Argv)
	assert.Equal(t, filepath.Join(root, "test", "mock-servers"), kick.Dir)
	assert.Equal(t, filepath.Join(root, "test", "mock-servers", "mock-kick-server-log"), kick.LogPath)
	assert.Equal(t, []string{"FIXTURE_RUN_ID=run-1"}, kick.Env)
	assert.True(t, kick.Required)

	require.Len(t, plan.Servers.Specs, 2)
	for i, s := range plan.Servers.Specs {
		name := []string{"json-server", "protobuf-server"}[i]
		dir := filepath.Join(root, "pitaya-servers", name)
		assert.Equal(t, []string{filepath.Join(dir, config.ExeName("server"))}, s.Argv)
		assert.Equal(t, dir, s.Dir)
		assert.Equal(t, filepath.Join(dir, "server-exe-out"), s.LogPath)
	}
	assert.Contains(t, plan.Servers.Specs[0].Env, "PITAYA_METRICS_PROMETHEUS_PORT=9091")
	assert.Contains(t, plan.Servers.Specs[1].Env, "PITAYA_METRICS_PROMETHEUS_PORT=9092")

	require.Len(t, plan.Targets, 2)
	assert.Equal(t, "json-server", plan.Targets[0].Name)
	assert.Equal(t, config.ExeName("server"), plan.Targets[0].Output)
	assert.Equal(t, "main.go", plan.Targets[0].Source)
	assert.Empty(t, plan.Probes)
}

func TestNewPlan_ArgsAndProbes(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Servers.Build.Enabled = false
	cfg.Servers.Processes[0].Args = `--port 3250 --name "json server"`
	cfg.Servers.Processes[0].Ready = config.ProbeConfig{TCP: "127.0.0.1:3250", HTTP: "http://127.0.0.1:9091/metrics"}
	cfg.Mocks.Processes[0].Ready = config.ProbeConfig{LogPattern: "listening"}

	plan, err := NewPlan(cfg, config.RunOptions{Root: "/r"}, "id")
	require.NoError(t, err)

	assert.Empty(t, plan.Targets)
	assert.Equal(t, []string{"--port", "3250", "--name", "json server"}, plan.Servers.Specs[0].Argv[1:])
	assert.Equal(t, "node", plan.Mocks.Specs[0].Argv[0])

	require.Len(t, plan.Probes, 3)
	assert.IsType(t, &readiness.LogProbe{}, plan.Probes[0])
	assert.IsType(t, readiness.TCPProbe{}, plan.Probes[1])
	assert.IsType(t, readiness.HTTPProbe{}, plan.Probes[2])
}

func TestNewPlan_Errors(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Mocks.Processes[0].Args = `"unterminated`
	_, err := NewPlan(cfg, config.RunOptions{Root: "/r"}, "id")
	require.Error(t, err)

	cfg = config.DefaultConfig()
	cfg.Servers.Processes[1].Ready.LogPattern = "("
	_, err = NewPlan(cfg, config.RunOptions{Root: "/r"}, "id")
	require.Error(t, err)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "init", Init.String())
	assert.Equal(t, "awaiting-readiness", AwaitingReadiness.String())
	assert.Equal(t, "done", Done.String())
	assert.Equal(t, "unknown", State(99).String())
}
