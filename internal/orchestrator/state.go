package orchestrator

// State is a phase of a run. Phases only move forward; an interrupt jumps
// straight to TearingDown.
type State int

const (
	Init State = iota
	Validating
	Building
	DependenciesUp
	LaunchingMocks
	LaunchingServers
	AwaitingReadiness
	RunningTests
	TearingDown
	Done
)

var stateNames = [...]string{
	Init:              "init",
	Validating:        "validating",
	Building:          "building",
	DependenciesUp:    "dependencies-up",
	LaunchingMocks:    "launching-mocks",
	LaunchingServers:  "launching-servers",
	AwaitingReadiness: "awaiting-readiness",
	RunningTests:      "running-tests",
	TearingDown:       "tearing-down",
	Done:              "done",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}
