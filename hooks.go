package eventmap

import (
	"sync"

	"github.com/agentstation/eventmap/pkg/sources"
)

// Hook function types for pipeline events
type (
	// SourceFailedHook is called when a chain yields no records
	SourceFailedHook func(outcome sources.Outcome)

	// ReconciledHook is called after a run finishes
	ReconciledHook func(result *Result)
)

// Hooks registers callbacks for pipeline events.
type Hooks interface {
	// OnSourceFailed registers a callback for exhausted chains
	OnSourceFailed(SourceFailedHook)

	// OnReconciled registers a callback for finished runs
	OnReconciled(ReconciledHook)
}

// hooks manages event callbacks for runs
type hooks struct {
	mu             sync.RWMutex
	onSourceFailed []SourceFailedHook
	onReconciled   []ReconciledHook
}

// newHooks creates a new hooks instance
func newHooks() *hooks {
	return &hooks{}
}

// OnSourceFailed registers a callback for when a chain is exhausted
func (h *hooks) OnSourceFailed(fn SourceFailedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onSourceFailed = append(h.onSourceFailed, fn)
}

// OnReconciled registers a callback for when a run finishes
func (h *hooks) OnReconciled(fn ReconciledHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onReconciled = append(h.onReconciled, fn)
}

// OnSourceFailed registers a callback for when a chain is exhausted
func (c *client) OnSourceFailed(fn SourceFailedHook) {
	c.hooks.OnSourceFailed(fn)
}

// OnReconciled registers a callback for when a run finishes
func (c *client) OnReconciled(fn ReconciledHook) {
	c.hooks.OnReconciled(fn)
}

// triggerOutcomes calls the failure hooks for every exhausted chain, in chain order
func (h *hooks) triggerOutcomes(outcomes []sources.Outcome) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, o := range outcomes {
		if o.OK() {
			continue
		}
		for _, hook := range h.onSourceFailed {
			hook(o)
		}
	}
}

// triggerReconciled calls the run hooks
func (h *hooks) triggerReconciled(result *Result) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, hook := range h.onReconciled {
		hook(result)
	}
}
