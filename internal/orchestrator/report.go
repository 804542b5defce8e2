package orchestrator

import (
	"fmt"
	"io"

	"github.com/schmitthub/fixture/internal/build"
	"github.com/schmitthub/fixture/internal/iostreams"
	"github.com/schmitthub/fixture/internal/process"
)

// Report stages.
const (
	StageBuild        = "build"
	StageDaemon       = "daemon"
	StageDependencies = "dependencies"
	StageLaunch       = "launch"
	StageReadiness    = "readiness"
)

// Entry is one pre-flight outcome.
type Entry struct {
	Stage    string
	Name     string
	Required bool
	Err      error
}

// Report aggregates pre-flight outcomes so failures that would otherwise
// only show up as confusing test failures are surfaced up front.
type Report struct {
	Entries []Entry
}

func (r *Report) add(e Entry) {
	r.Entries = append(r.Entries, e)
}

func (r *Report) addBuilds(results []build.Result) {
	for _, res := range results {
		r.add(Entry{Stage: StageBuild, Name: res.Target.Name, Required: res.Target.Required, Err: res.Err})
	}
}

func (r *Report) addLaunches(results []process.LaunchResult) {
	for _, res := range results {
		r.add(Entry{Stage: StageLaunch, Name: res.Group + "/" + res.Name, Required: res.Required, Err: res.Err})
	}
}

// Failures returns the failed entries that are required.
func (r Report) Failures() []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if e.Err != nil && e.Required {
			out = append(out, e)
		}
	}
	return out
}

// Failed reports whether any required entry failed.
func (r Report) Failed() bool {
	return len(r.Failures()) > 0
}

// Render writes one line per entry.
func (r Report) Render(w io.Writer, cs *iostreams.ColorScheme) {
	fmt.Fprintln(w, cs.Bold("Fixture pre-flight report"))
	for _, e := range r.Entries {
		label := fmt.Sprintf("%-12s %s", e.Stage, e.Name)
		switch {
		case e.Err == nil:
			fmt.Fprintf(w, "  %s %s\n", cs.SuccessIcon(), label)
		case e.Required:
			fmt.Fprintf(w, "  %s %s: %s\n", cs.FailureIcon(), label, cs.Red(e.Err.Error()))
		default:
			fmt.Fprintf(w, "  %s %s: %s\n", cs.WarningIcon(), label, cs.Muted(e.Err.Error()))
		}
	}
}
