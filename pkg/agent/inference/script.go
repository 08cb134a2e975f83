package inference

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// ScriptedGateway replays a fixed sequence of decisions, one per Propose
// call. Used by tests and offline runs; exhausting the script yields
// ErrInferenceUnavailable.
type ScriptedGateway struct {
	mu        sync.Mutex
	decisions []Decision
	errs      []error
	requests  []Request
}

var _ Gateway = (*ScriptedGateway)(nil)

// NewScriptedGateway creates a gateway that replays decisions in order.
func NewScriptedGateway(decisions ...Decision) *ScriptedGateway {
	return &ScriptedGateway{decisions: decisions, errs: make([]error, len(decisions))}
}

// Then appends a successful decision to the script.
func (g *ScriptedGateway) Then(d Decision) *ScriptedGateway {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.decisions = append(g.decisions, d)
	g.errs = append(g.errs, nil)
	return g
}

// ThenError appends a failing step to the script.
func (g *ScriptedGateway) ThenError(err error) *ScriptedGateway {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.decisions = append(g.decisions, Decision{})
	g.errs = append(g.errs, err)
	return g
}

func (g *ScriptedGateway) Propose(_ context.Context, req Request) (Decision, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.requests = append(g.requests, req)
	idx := len(g.requests) - 1
	if idx >= len(g.decisions) {
		return Decision{}, errors.Wrap(ErrInferenceUnavailable, "script exhausted")
	}
	if err := g.errs[idx]; err != nil {
		return Decision{}, err
	}
	return g.decisions[idx], nil
}

// Requests returns the requests seen so far, in order.
func (g *ScriptedGateway) Requests() []Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Request, len(g.requests))
	copy(out, g.requests)
	return out
}
