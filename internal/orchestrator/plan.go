package orchestrator

import (
	"fmt"
	"path/filepath"

	"github.com/google/shlex"
	"github.com/schmitthub/fixture/internal/build"
	"github.com/schmitthub/fixture/internal/config"
	"github.com/schmitthub/fixture/internal/process"
	"github.com/schmitthub/fixture/internal/readiness"
)

// RunIDEnv is set in the environment of every process a run starts.
const RunIDEnv = "FIXTURE_RUN_ID"

// Group names used in logs and reports.
const (
	GroupMocks   = "mocks"
	GroupServers = "servers"
)

// Plan is everything a run will build, launch and wait for, resolved to
// absolute paths before anything is started.
type Plan struct {
	Targets []build.Target
	Mocks   process.Group
	Servers process.Group
	Probes  []readiness.Probe
	TestExe string
}

// NewPlan resolves cfg and opts against the fixture root.
func NewPlan(cfg *config.Config, opts config.RunOptions, runID string) (*Plan, error) {
	p := &Plan{TestExe: opts.TestExecutable(cfg)}
	runtime := opts.ScriptRuntimePath(cfg)

	var err error
	if p.Mocks, err = p.addGroup(GroupMocks, cfg.Mocks, opts.Root, runtime, runID); err != nil {
		return nil, err
	}
	if p.Servers, err = p.addGroup(GroupServers, cfg.Servers, opts.Root, runtime, runID); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Plan) addGroup(name string, g config.GroupConfig, root, runtime, runID string) (process.Group, error) {
	base := resolve(root, g.Dir)
	group := process.Group{Name: name}

	for i, pc := range g.Processes {
		exe := filepath.Join(base, pc.Path)
		args, err := shlex.Split(pc.Args)
		if err != nil {
			return group, fmt.Errorf("invalid args for %s: %w", pc.Name, err)
		}

		var argv []string
		if g.Runtime == config.RuntimeScript {
			argv = append([]string{runtime, filepath.Base(exe)}, args...)
		} else {
			argv = append([]string{exe}, args...)
		}

		env := []string{RunIDEnv + "=" + runID}
		if g.MetricsPortEnv != "" {
			env = append(env, fmt.Sprintf("%s=%d", g.MetricsPortEnv, g.MetricsPortBase+i))
		}

		spec := process.Spec{
			Name:     pc.Name,
			Argv:     argv,
			Dir:      filepath.Dir(exe),
			LogPath:  filepath.Join(base, pc.Log),
			Env:      env,
			Required: pc.IsRequired(),
		}
		group.Specs = append(group.Specs, spec)

		if g.Build.Enabled {
			p.Targets = append(p.Targets, build.Target{
				Name:     pc.Name,
				Dir:      spec.Dir,
				Output:   filepath.Base(exe),
				Source:   g.Build.Source,
				Required: spec.Required,
			})
		}

		probes, err := probesFor(pc, spec.LogPath)
		if err != nil {
			return group, err
		}
		p.Probes = append(p.Probes, probes...)
	}
	return group, nil
}

func probesFor(pc config.ProcessConfig, logPath string) ([]readiness.Probe, error) {
	if pc.Ready.IsZero() {
		return nil, nil
	}
	var probes []readiness.Probe
	if pc.Ready.TCP != "" {
		probes = append(probes, readiness.TCPProbe{Process: pc.Name, Addr: pc.Ready.TCP})
	}
	if pc.Ready.HTTP != "" {
		probes = append(probes, readiness.HTTPProbe{Process: pc.Name, URL: pc.Ready.HTTP})
	}
	if pc.Ready.LogPattern != "" {
		lp, err := readiness.NewLogProbe(pc.Name, logPath, pc.Ready.LogPattern)
		if err != nil {
			return nil, err
		}
		probes = append(probes, lp)
	}
	return probes, nil
}

func resolve(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
