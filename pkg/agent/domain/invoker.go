package domain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/moldcrm/agent/pkg/agent/tools"
)

// Invoker executes a validated tool call against the domain capability bound
// to its definition. Implementations guarantee at-most-one execution per
// call; retry policy lives in the orchestrator.
type Invoker interface {
	Invoke(ctx context.Context, def *tools.ToolDefinition, args tools.ValidatedArguments, scope tools.Scope) (any, error)
}

// CapabilityInvoker is the default Invoker. It enforces account scoping,
// applies the per-call timeout, and normalizes capability errors into the
// closed DomainError set.
type CapabilityInvoker struct {
	timeout time.Duration
}

// NewCapabilityInvoker creates an invoker. A zero timeout disables the
// per-call deadline.
func NewCapabilityInvoker(timeout time.Duration) *CapabilityInvoker {
	return &CapabilityInvoker{timeout: timeout}
}

func (in *CapabilityInvoker) Invoke(ctx context.Context, def *tools.ToolDefinition, args tools.ValidatedArguments, scope tools.Scope) (any, error) {
	if def == nil || def.Capability == nil {
		return nil, InvalidState("tool has no bound capability")
	}
	if scope.AccountID == 0 {
		return nil, PermissionDenied("missing account scope for %s", def.Name)
	}

	execCtx := ctx
	if in.timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, in.timeout)
		defer cancel()
	}

	start := time.Now()
	value, err := def.Capability(execCtx, scope, json.RawMessage(args))
	elapsed := time.Since(start)
	if err != nil {
		derr := Normalize(err)
		log.Debug().
			Str("tool", def.Name).
			Int64("account_id", scope.AccountID).
			Dur("duration", elapsed).
			Str("kind", string(derr.Kind)).
			Msg("domain: capability failed")
		return nil, derr
	}
	log.Debug().
		Str("tool", def.Name).
		Int64("account_id", scope.AccountID).
		Dur("duration", elapsed).
		Msg("domain: capability succeeded")
	return value, nil
}
