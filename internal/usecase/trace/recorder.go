package trace

import (
	"errors"
	"fmt"
	"sync"
	"time"

	domtrace "github.com/kailas-cloud/vecrec/internal/domain/trace"
)

var (
	// ErrTraceExists is returned when Begin is called twice for the same id.
	ErrTraceExists = errors.New("trace already exists")
	// ErrTraceNotFound is returned for ids that were never begun or are already finished.
	ErrTraceNotFound = errors.New("trace not found")
)

// Recorder keeps open traces keyed by request id.
type Recorder struct {
	mu   sync.Mutex
	open map[string]*domtrace.Record
	now  func() time.Time
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{open: make(map[string]*domtrace.Record), now: time.Now}
}

// Begin opens a trace for requestID.
func (r *Recorder) Begin(requestID string) error {
	if requestID == "" {
		return fmt.Errorf("%w: empty request id", ErrTraceNotFound)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.open[requestID]; ok {
		return fmt.Errorf("%w: %s", ErrTraceExists, requestID)
	}
	r.open[requestID] = &domtrace.Record{RequestID: requestID, Started: r.now()}
	return nil
}

// Record appends an event to an open trace.
func (r *Recorder) Record(requestID string, ev domtrace.StageEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.open[requestID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTraceNotFound, requestID)
	}
	rec.Events = append(rec.Events, ev)
	return nil
}

// Finish closes a trace and returns its final copy. The outcome is failed when
// the last event failed.
func (r *Recorder) Finish(requestID string) (domtrace.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.open[requestID]
	if !ok {
		return domtrace.Record{}, fmt.Errorf("%w: %s", ErrTraceNotFound, requestID)
	}
	delete(r.open, requestID)

	rec.Finished = r.now()
	rec.Outcome = domtrace.OutcomeDone
	if last, ok := rec.Last(); ok && last.Status == domtrace.StatusFailed {
		rec.Outcome = domtrace.OutcomeFailed
	}
	return rec.Clone(), nil
}

// Snapshot returns a copy of an open trace.
func (r *Recorder) Snapshot(requestID string) (domtrace.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.open[requestID]
	if !ok {
		return domtrace.Record{}, fmt.Errorf("%w: %s", ErrTraceNotFound, requestID)
	}
	return rec.Clone(), nil
}

// Open returns the number of unfinished traces.
func (r *Recorder) Open() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.open)
}

// Start begins a trace and returns a handle bound to it.
func (r *Recorder) Start(requestID string) (*Handle, error) {
	if err := r.Begin(requestID); err != nil {
		return nil, err
	}
	return &Handle{rec: r, id: requestID}, nil
}

// Handle is a per-request view of the recorder.
type Handle struct {
	rec *Recorder
	id  string
}

// RequestID returns the bound request id.
func (h *Handle) RequestID() string { return h.id }

// Record appends an event.
func (h *Handle) Record(ev domtrace.StageEvent) error { return h.rec.Record(h.id, ev) }

// Snapshot returns the events recorded so far.
func (h *Handle) Snapshot() (domtrace.Record, error) { return h.rec.Snapshot(h.id) }

// Finish closes the trace.
func (h *Handle) Finish() (domtrace.Record, error) { return h.rec.Finish(h.id) }
