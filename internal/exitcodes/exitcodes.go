// Package exitcodes defines the exit codes fixture itself produces.
//
// The test executable's own exit status is always propagated unchanged; these
// values only apply when the test executable was never reached.
package exitcodes

const (
	Success = 0 // Test executable exited 0
	// Precondition is returned when validation fails before any process
	// is spawned (missing test executable, missing toolchain override).
	Precondition = 1
	// FixtureFailed is returned when a required process failed to build,
	// launch, or become ready, so the tests were never invoked.
	FixtureFailed = 2
	// SignalBase is added to the signal number when a run is interrupted
	// before the test executable started.
	SignalBase = 128
)
