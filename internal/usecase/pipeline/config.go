package pipeline

import (
	"time"

	domtrace "github.com/kailas-cloud/vecrec/internal/domain/trace"
)

// Defaults.
const (
	DefaultCandidatePool = 50
	DefaultTopN          = 5
)

// Timeouts are per-stage budgets.
type Timeouts struct {
	Intent     time.Duration
	Context    time.Duration
	Constraint time.Duration
	Candidate  time.Duration
	Rank       time.Duration
	Response   time.Duration
}

// DefaultTimeouts returns production stage budgets.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Intent:     10 * time.Second,
		Context:    6 * time.Second,
		Constraint: 5 * time.Second,
		Candidate:  10 * time.Second,
		Rank:       2 * time.Second,
		Response:   15 * time.Second,
	}
}

// For returns the budget of a stage, falling back to the default when unset.
func (t Timeouts) For(s domtrace.Stage) time.Duration {
	if d := t.lookup(s); d > 0 {
		return d
	}
	return DefaultTimeouts().lookup(s)
}

func (t Timeouts) lookup(s domtrace.Stage) time.Duration {
	switch s {
	case domtrace.StageIntent:
		return t.Intent
	case domtrace.StageContext:
		return t.Context
	case domtrace.StageConstraint:
		return t.Constraint
	case domtrace.StageCandidate:
		return t.Candidate
	case domtrace.StageRank:
		return t.Rank
	case domtrace.StageResponse:
		return t.Response
	}
	return 0
}

// Config tunes the orchestrator.
type Config struct {
	Timeouts      Timeouts
	CandidatePool int
	TopN          int
	// IncludeOutOfStock relaxes the stock filter for every request.
	IncludeOutOfStock bool
}
