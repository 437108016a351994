package pipeline

import domtrace "github.com/kailas-cloud/vecrec/internal/domain/trace"

// Policy is what the orchestrator does when a stage fails.
type Policy string

// Stage failure policies.
const (
	// PolicyAbort ends the run with a StageError.
	PolicyAbort Policy = "abort"
	// PolicyFallback runs the stage's non-failing alternative.
	PolicyFallback Policy = "fallback"
	// PolicySkip continues with the stage's zero output.
	PolicySkip Policy = "skip"
)

var policies = map[domtrace.Stage]Policy{
	domtrace.StageIntent:     PolicyFallback,
	domtrace.StageContext:    PolicySkip,
	domtrace.StageConstraint: PolicyAbort,
	domtrace.StageCandidate:  PolicyAbort,
	domtrace.StageRank:       PolicyAbort,
	domtrace.StageResponse:   PolicyFallback,
}

// PolicyFor returns the failure policy of a stage. Unknown stages abort.
func PolicyFor(s domtrace.Stage) Policy {
	if p, ok := policies[s]; ok {
		return p
	}
	return PolicyAbort
}
