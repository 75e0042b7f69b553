// Package progress simulates the phase indicator shown while an analysis
// runs. The simulated phase is cosmetic: it never waits for, or holds back,
// the real result.
package progress

import (
	"sync"
	"time"
)

// Phases counted by the indicator: 0 (starting) through 3 (commercial strategy)
const (
	PhaseStarting   = 0
	PhaseContextual = 1
	PhaseTechnical  = 2
	PhaseCommercial = 3
)

// Step advances the indicator to Phase once After has elapsed since Start
type Step struct {
	After time.Duration
	Phase int
}

// DefaultSchedule advances at 2s, 6s and 10s
var DefaultSchedule = []Step{
	{After: 2 * time.Second, Phase: PhaseContextual},
	{After: 6 * time.Second, Phase: PhaseTechnical},
	{After: 10 * time.Second, Phase: PhaseCommercial},
}

// PhaseLabel is the Italian caption of a phase
func PhaseLabel(phase int) string {
	switch phase {
	case PhaseContextual:
		return "Analisi contestuale del programma"
	case PhaseTechnical:
		return "Analisi tecnica della copertura"
	case PhaseCommercial:
		return "Elaborazione della strategia commerciale"
	default:
		return "Avvio dell'analisi"
	}
}

// Simulator fires onAdvance for each step of its schedule, in order, until
// the schedule is exhausted or Stop is called.
type Simulator struct {
	schedule  []Step
	onAdvance func(phase int)

	mu      sync.Mutex
	started bool
	stopped bool
	stop    chan struct{}
	done    chan struct{}
}

// New creates an idle simulator. onAdvance runs on the simulator's own
// goroutine and must not call Stop.
func New(schedule []Step, onAdvance func(phase int)) *Simulator {
	steps := make([]Step, len(schedule))
	copy(steps, schedule)
	return &Simulator{
		schedule:  steps,
		onAdvance: onAdvance,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the schedule. Calling it twice, or after Stop, is a no-op.
func (s *Simulator) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopped {
		return
	}
	s.started = true
	go s.run(time.Now())
}

func (s *Simulator) run(start time.Time) {
	defer close(s.done)

	for _, step := range s.schedule {
		wait := step.After - time.Since(start)
		if wait < 0 {
			wait = 0
		}
		timer := time.NewTimer(wait)
		select {
		case <-s.stop:
			timer.Stop()
			return
		case <-timer.C:
		}

		// a Stop racing the timer wins
		select {
		case <-s.stop:
			return
		default:
		}
		if s.onAdvance != nil {
			s.onAdvance(step.Phase)
		}
	}
}

// Stop cancels every pending step and waits for the simulator goroutine to
// exit. No callback fires after Stop returns. Safe to call more than once,
// and before Start.
func (s *Simulator) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		close(s.stop)
	}
	started := s.started
	s.mu.Unlock()

	if started {
		<-s.done
	}
}
