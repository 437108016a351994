package trace

import (
	"slices"
	"time"
)

// Stage names one step of the recommendation pipeline.
type Stage string

// Pipeline stages in execution order.
const (
	StageIntent     Stage = "INTENT"
	StageContext    Stage = "CONTEXT"
	StageConstraint Stage = "CONSTRAINT"
	StageCandidate  Stage = "CANDIDATE"
	StageRank       Stage = "RANK"
	StageResponse   Stage = "RESPONSE"
)

// Stages lists all stages in order.
var Stages = []Stage{StageIntent, StageContext, StageConstraint, StageCandidate, StageRank, StageResponse}

// Status is the outcome of one stage.
type Status string

// Stage statuses.
const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Outcome is the terminal state of a run.
type Outcome string

// Run outcomes.
const (
	OutcomeDone   Outcome = "done"
	OutcomeFailed Outcome = "failed"
)

// CancelledError is the error text recorded for a cancelled run.
const CancelledError = "cancelled"

// StageEvent records one stage transition.
type StageEvent struct {
	Name     Stage
	Start    time.Time
	Duration time.Duration
	Status   Status
	Error    string
	// Detail carries the applied policy ("fallback") or a short outcome note.
	Detail string
}

// DurationMS returns the wall-clock duration in milliseconds.
func (e StageEvent) DurationMS() float64 {
	return float64(e.Duration.Microseconds()) / 1000
}

// Record is the ordered, append-only event log of one request.
type Record struct {
	RequestID string
	Events    []StageEvent
	Outcome   Outcome
	Started   time.Time
	Finished  time.Time
}

// Clone returns a deep copy.
func (r Record) Clone() Record {
	r.Events = slices.Clone(r.Events)
	return r
}

// Last returns the most recent event.
func (r Record) Last() (StageEvent, bool) {
	if len(r.Events) == 0 {
		return StageEvent{}, false
	}
	return r.Events[len(r.Events)-1], true
}
