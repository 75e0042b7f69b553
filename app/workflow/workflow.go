// Package workflow drives one operator's analysis from form entry through
// processing to results.
package workflow

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"uniscan/app/progress"
	"uniscan/domain/core"
	"uniscan/domain/submission"
	"uniscan/internal"
	"uniscan/internal/errors"
	"uniscan/ports"
)

// State of a workflow
type State string

const (
	StateInput      State = "input"
	StateProcessing State = "processing"
	StateResults    State = "results"
)

// MsgTimeout is shown when the pipeline exceeds its deadline
const MsgTimeout = "L'analisi ha superato il tempo massimo. Riprova."

// Snapshot is an immutable view of a workflow. Version increases with every
// change so consumers can discard out-of-order snapshots.
type Snapshot struct {
	SessionID  string             `json:"session_id"`
	Version    uint64             `json:"version"`
	State      State              `json:"state"`
	Phase      int                `json:"phase"`
	PhaseLabel string             `json:"phase_label"`
	Error      string             `json:"error,omitempty"`
	Violations []errors.Violation `json:"violations,omitempty"`
	AnalysisID int64              `json:"analysis_id,omitempty"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// Options configure a workflow
type Options struct {
	Schedule []progress.Step
	Timeout  time.Duration
	Logger   *internal.Logger
	// OnChange receives every snapshot; it is called without locks held
	OnChange func(Snapshot)
}

// Workflow is the per-session state machine. Its zero value is not usable;
// create it with New.
type Workflow struct {
	id     core.SessionID
	runner ports.AnalysisRunner
	opts   Options
	log    *internal.Logger

	mu         sync.Mutex
	state      State
	phase      int
	version    uint64
	gen        uint64
	form       submission.Form
	errMsg     string
	violations []errors.Violation
	outcome    *ports.AnalysisOutcome
	sim        *progress.Simulator
	cancel     context.CancelFunc
	closed     bool
	lastActive time.Time

	inflight sync.WaitGroup
}

// New creates a workflow in the input state
func New(id core.SessionID, runner ports.AnalysisRunner, opts Options) *Workflow {
	if opts.Schedule == nil {
		opts.Schedule = progress.DefaultSchedule
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Minute
	}
	logger := opts.Logger
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &Workflow{
		id:         id,
		runner:     runner,
		opts:       opts,
		log:        logger.With("session_id", id.String()),
		state:      StateInput,
		lastActive: time.Now(),
	}
}

// ID returns the session id
func (w *Workflow) ID() core.SessionID { return w.id }

// Submit validates the form and, when it passes, dispatches exactly one
// analysis run. Validation errors leave the workflow in input. A submit
// while a run is in flight is rejected with core.ErrInFlight.
func (w *Workflow) Submit(form submission.Form) error {
	w.mu.Lock()
	switch {
	case w.closed:
		w.mu.Unlock()
		return core.ErrClosed
	case w.state == StateProcessing:
		w.mu.Unlock()
		return core.ErrInFlight
	case w.state == StateResults:
		w.mu.Unlock()
		return core.ErrInvalidState
	}
	w.lastActive = time.Now()
	w.form = form

	sub, err := submission.Validate(form)
	if err != nil {
		w.errMsg = ""
		w.violations = violationsOf(err)
		snap := w.snapshotLocked()
		w.mu.Unlock()
		w.notify(snap)
		return err
	}

	w.gen++
	gen := w.gen
	w.state = StateProcessing
	w.phase = progress.PhaseStarting
	w.errMsg = ""
	w.violations = nil
	w.outcome = nil

	ctx, cancel := context.WithTimeout(context.Background(), w.opts.Timeout)
	w.cancel = cancel
	sim := progress.New(w.opts.Schedule, func(phase int) { w.advance(gen, phase) })
	w.sim = sim
	w.inflight.Add(1)
	snap := w.snapshotLocked()
	w.mu.Unlock()

	w.log.Info("analysis dispatched", "subject_id", sub.SubjectID, "title", sub.Title)
	w.notify(snap)
	sim.Start()
	go w.dispatch(ctx, cancel, gen, sub)
	return nil
}

func (w *Workflow) dispatch(ctx context.Context, cancel context.CancelFunc, gen uint64, sub submission.Submission) {
	defer w.inflight.Done()
	defer cancel()

	started := time.Now()
	outcome, err := w.runner.RunAnalysis(ctx, sub)
	if err == nil && outcome == nil {
		err = errors.InternalError("analysis returned no result")
	}
	if err != nil && stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = errors.RemoteFailure(MsgTimeout, err)
	}
	w.complete(gen, outcome, err, time.Since(started))
}

// complete applies a run's outcome unless the run has been superseded
func (w *Workflow) complete(gen uint64, outcome *ports.AnalysisOutcome, err error, took time.Duration) {
	w.mu.Lock()
	if w.closed || gen != w.gen || w.state != StateProcessing {
		w.mu.Unlock()
		w.log.Debug("discarding stale analysis completion", "generation", gen)
		return
	}

	sim := w.sim
	w.sim, w.cancel = nil, nil

	if err != nil {
		w.state = StateInput
		w.errMsg = errors.OperatorMessage(err)
		w.violations = violationsOf(err)
		w.log.Warn("analysis failed", "error", err, "duration", took)
	} else {
		w.state = StateResults
		w.phase = progress.PhaseCommercial
		w.outcome = outcome
		w.log.Info("analysis completed", "analysis_id", outcome.ID(), "duration", took)
	}
	w.lastActive = time.Now()
	snap := w.snapshotLocked()
	w.mu.Unlock()

	sim.Stop()
	w.notify(snap)
}

// advance is the simulator callback; stale generations are ignored
func (w *Workflow) advance(gen uint64, phase int) {
	w.mu.Lock()
	if w.closed || gen != w.gen || w.state != StateProcessing || phase <= w.phase {
		w.mu.Unlock()
		return
	}
	w.phase = phase
	snap := w.snapshotLocked()
	w.mu.Unlock()
	w.notify(snap)
}

// Reset returns from results (or a failed input) to an empty input form.
// It is refused while a run is in flight.
func (w *Workflow) Reset() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return core.ErrClosed
	}
	if w.state == StateProcessing {
		w.mu.Unlock()
		return core.ErrInFlight
	}
	w.state = StateInput
	w.phase = progress.PhaseStarting
	w.form = submission.Form{}
	w.errMsg = ""
	w.violations = nil
	w.outcome = nil
	w.lastActive = time.Now()
	snap := w.snapshotLocked()
	w.mu.Unlock()
	w.notify(snap)
	return nil
}

// Close tears the workflow down. The simulator is stopped; a run still in
// flight is left to finish under its own deadline and its result discarded.
func (w *Workflow) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.gen++
	sim := w.sim
	w.sim = nil
	w.mu.Unlock()

	if sim != nil {
		sim.Stop()
	}
}

// Abort closes the workflow and cancels the run in flight, if any
func (w *Workflow) Abort() {
	w.Close()
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Wait blocks until no run is in flight
func (w *Workflow) Wait() {
	w.inflight.Wait()
}

// Snapshot returns the current state
func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

// Form returns the last submitted form, for redisplay after a failure
func (w *Workflow) Form() submission.Form {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.form
}

// Outcome returns the result of the last successful run while in results
func (w *Workflow) Outcome() (*ports.AnalysisOutcome, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateResults || w.outcome == nil {
		return nil, false
	}
	return w.outcome, true
}

// IdleSince reports when the workflow last changed state, and whether it is
// currently processing.
func (w *Workflow) IdleSince() (time.Time, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastActive, w.state == StateProcessing
}

func (w *Workflow) snapshotLocked() Snapshot {
	w.version++
	snap := Snapshot{
		SessionID:  w.id.String(),
		Version:    w.version,
		State:      w.state,
		Phase:      w.phase,
		PhaseLabel: progress.PhaseLabel(w.phase),
		Error:      w.errMsg,
		Violations: append([]errors.Violation(nil), w.violations...),
		UpdatedAt:  time.Now(),
	}
	if w.outcome != nil {
		snap.AnalysisID = w.outcome.ID()
	}
	return snap
}

func (w *Workflow) notify(snap Snapshot) {
	if w.opts.OnChange != nil {
		w.opts.OnChange(snap)
	}
}

func violationsOf(err error) []errors.Violation {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr.Violations
	}
	return nil
}
