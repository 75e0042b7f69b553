package workflow

import (
	"sync"
	"time"

	"uniscan/domain/core"
	"uniscan/internal"
	"uniscan/ports"
)

// Manager owns one workflow per operator session
type Manager struct {
	runner ports.AnalysisRunner
	opts   Options
	log    *internal.Logger

	mu        sync.Mutex
	workflows map[core.SessionID]*Workflow
}

// NewManager creates a manager; opts are applied to every workflow it creates
func NewManager(runner ports.AnalysisRunner, opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &Manager{
		runner:    runner,
		opts:      opts,
		log:       logger,
		workflows: make(map[core.SessionID]*Workflow),
	}
}

// Get returns the workflow of a session, creating it on first use
func (m *Manager) Get(id core.SessionID) *Workflow {
	m.mu.Lock()
	defer m.mu.Unlock()
	if wf, ok := m.workflows[id]; ok {
		return wf
	}
	wf := New(id, m.runner, m.opts)
	m.workflows[id] = wf
	m.log.Debug("workflow created", "session_id", id.String())
	return wf
}

// Lookup returns an existing workflow without creating one
func (m *Manager) Lookup(id core.SessionID) (*Workflow, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wf, ok := m.workflows[id]
	return wf, ok
}

// Remove closes and forgets a session's workflow
func (m *Manager) Remove(id core.SessionID) {
	m.mu.Lock()
	wf, ok := m.workflows[id]
	delete(m.workflows, id)
	m.mu.Unlock()
	if ok {
		wf.Close()
	}
}

// Len is the number of live workflows
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.workflows)
}

// Sweep closes workflows idle for longer than idle. Processing workflows are
// never swept. It returns how many were removed.
func (m *Manager) Sweep(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)

	m.mu.Lock()
	var stale []*Workflow
	for id, wf := range m.workflows {
		last, processing := wf.IdleSince()
		if processing || last.After(cutoff) {
			continue
		}
		stale = append(stale, wf)
		delete(m.workflows, id)
	}
	m.mu.Unlock()

	for _, wf := range stale {
		wf.Close()
	}
	if len(stale) > 0 {
		m.log.Info("swept idle workflows", "count", len(stale))
	}
	return len(stale)
}

// Shutdown aborts every workflow and waits for runs in flight to return
func (m *Manager) Shutdown() {
	m.mu.Lock()
	all := make([]*Workflow, 0, len(m.workflows))
	for id, wf := range m.workflows {
		all = append(all, wf)
		delete(m.workflows, id)
	}
	m.mu.Unlock()

	for _, wf := range all {
		wf.Abort()
	}
	for _, wf := range all {
		wf.Wait()
	}
}
