// Package orchestrator implements the phase scheduler of §4.5: a small
// state machine that launches Source Drivers in the right order, bounds
// each phase with a deadline, and feeds every Observation to the
// Correlator. It is the one package that knows about all of the others.
package orchestrator

// State is a stage of the scan state machine.
type State string

const (
	StateIdle     State = "IDLE"
	StateInit     State = "INIT"
	StatePhase0   State = "PHASE0"
	StatePhase1   State = "PHASE1"
	StatePhase2   State = "PHASE2"
	StatePhase3   State = "PHASE3"
	StateComplete State = "COMPLETE"
	StateFailed   State = "FAILED"
)

// phaseDeadlineSeconds derives a per-phase budget from the scan level, per
// §4.5's floor table. Run lowers it to an explicit session timeout when one
// is configured and shorter.
func phaseDeadlineSeconds(level string) int {
	switch level {
	case "quick", "fast":
		return 5
	case "thorough":
		return 90
	default:
		return 30
	}
}
