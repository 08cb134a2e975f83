// Package orchestrator drives the agent request/response cycle: round-trip
// with the inference gateway, validate and execute requested tool calls,
// fold results back, and assemble the final response. The loop is a bounded
// state machine; a non-terminating agent loop is structurally impossible.
package orchestrator

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/moldcrm/agent/pkg/agent/conversation"
	"github.com/moldcrm/agent/pkg/agent/domain"
	"github.com/moldcrm/agent/pkg/agent/events"
	"github.com/moldcrm/agent/pkg/agent/inference"
	"github.com/moldcrm/agent/pkg/agent/tools"
)

// ErrEmptyQuery is returned when the query is empty or blank. No gateway
// or domain call is attempted.
var ErrEmptyQuery = errors.New("empty query")

const (
	failureKindValidation  = "validation"
	failureKindUnknownTool = "unknown_tool"
)

// Orchestrator executes one query at a time against a shared read-only
// catalog. Instances are safe for concurrent use across conversations; a
// single conversation must not be queried concurrently.
type Orchestrator struct {
	gateway inference.Gateway
	catalog *tools.Catalog
	invoker domain.Invoker
	cfg     Config
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// New creates an orchestrator. Gateway and catalog are required; the
// invoker defaults to a CapabilityInvoker with no per-call timeout.
func New(opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{cfg: DefaultConfig()}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.gateway == nil {
		return nil, errors.New("orchestrator requires an inference gateway")
	}
	if o.catalog == nil {
		return nil, errors.New("orchestrator requires a tool catalog")
	}
	if o.invoker == nil {
		o.invoker = domain.NewCapabilityInvoker(0)
	}
	o.cfg = o.cfg.normalized()
	return o, nil
}

func WithGateway(g inference.Gateway) Option {
	return func(o *Orchestrator) { o.gateway = g }
}

func WithCatalog(c *tools.Catalog) Option {
	return func(o *Orchestrator) { o.catalog = c }
}

func WithInvoker(inv domain.Invoker) Option {
	return func(o *Orchestrator) { o.invoker = inv }
}

func WithConfig(cfg Config) Option {
	return func(o *Orchestrator) { o.cfg = cfg }
}

// Query processes one orchestration request. The returned response is
// never nil; the error mirrors request-level failures (empty query,
// gateway unavailability) for callers that want to branch on them.
func (o *Orchestrator) Query(ctx context.Context, query string, history conversation.State, scope tools.Scope) (*AgentResponse, error) {
	meta := events.Metadata{ConversationID: uuid.NewString(), AccountID: scope.AccountID}

	if strings.TrimSpace(query) == "" {
		resp := &AgentResponse{
			Success:             false,
			Response:            "Please provide a question or instruction.",
			FunctionCalls:       []CallRecord{},
			ConversationHistory: o.bound(history),
			Error:               ErrEmptyQuery.Error(),
		}
		return resp, ErrEmptyQuery
	}

	events.Publish(ctx, events.NewQueryStart(meta, query))
	log.Debug().
		Str("conversation_id", meta.ConversationID).
		Int64("account_id", scope.AccountID).
		Int("history_turns", history.Len()).
		Msg("orchestrator: query start")

	state := conversation.Append(history, conversation.NewUserTurn(query))
	var executed []tools.ToolResult

	for round := 1; round <= o.cfg.MaxRounds; round++ {
		meta.Round = round

		req := inference.Request{History: state, Catalog: o.catalog}
		if round == 1 {
			// The new user turn is already part of the state; later rounds
			// carry the query through the history instead.
			req = inference.Request{Query: query, History: history, Catalog: o.catalog}
		}

		decision, err := o.propose(ctx, req)
		if err != nil {
			log.Warn().Err(err).Int("round", round).Msg("orchestrator: gateway failed")
			return o.respond(ctx, meta, state, executed, respondArgs{
				text:    "I could not reach the reasoning service. Partial results, if any, are included.",
				success: false,
				errMsg:  err.Error(),
			}), err
		}

		if decision.Kind == inference.DecisionFinalAnswer {
			events.Publish(ctx, events.NewFinalAnswer(meta, false))
			return o.respond(ctx, meta, state, executed, respondArgs{
				text:    decision.Text,
				success: !anyCriticalFailure(executed, o.catalog),
			}), nil
		}

		events.Publish(ctx, events.NewRoundStart(meta, len(decision.Calls)))
		results, criticalFailed := o.executeRound(ctx, meta, scope, decision.Calls)
		executed = append(executed, results...)
		state = conversation.Append(state, roundTurn(round, results))

		if criticalFailed {
			failed := lastFailure(results)
			return o.respond(ctx, meta, state, executed, respondArgs{
				text:    "I could not complete the request: " + failed,
				success: false,
				errMsg:  failed,
			}), nil
		}
	}

	// Round ceiling reached without a final answer.
	events.Publish(ctx, events.NewFinalAnswer(meta, true))
	return o.respond(ctx, meta, state, executed, respondArgs{
		text:      "I encountered too many steps processing your request. Please try rephrasing.",
		success:   false,
		truncated: true,
		errMsg:    "maximum rounds reached without a final answer",
	}), nil
}

func (o *Orchestrator) propose(ctx context.Context, req inference.Request) (inference.Decision, error) {
	proposeCtx := ctx
	if o.cfg.InferenceTimeout > 0 {
		var cancel context.CancelFunc
		proposeCtx, cancel = context.WithTimeout(ctx, o.cfg.InferenceTimeout)
		defer cancel()
	}
	return o.gateway.Propose(proposeCtx, req)
}

// executeRound processes the round's calls and returns their results in
// request order. Calls are independent by construction, so non-critical
// rounds run concurrently; a round containing a critical tool runs
// sequentially so a critical failure can stop the calls after it.
func (o *Orchestrator) executeRound(ctx context.Context, meta events.Metadata, scope tools.Scope, proposed []inference.ProposedCall) ([]tools.ToolResult, bool) {
	calls := make([]tools.ToolCall, len(proposed))
	for i, p := range proposed {
		id := p.ID
		if id == "" {
			id = uuid.NewString()
		}
		calls[i] = tools.ToolCall{ID: id, Name: p.Name, Arguments: p.Arguments, Index: i}
	}

	if o.roundHasCritical(calls) || o.cfg.MaxParallelCalls <= 1 {
		return o.executeSequentially(ctx, meta, scope, calls)
	}

	results := make([]tools.ToolResult, len(calls))
	group := errgroup.Group{}
	group.SetLimit(o.cfg.MaxParallelCalls)
	for i := range calls {
		i := i
		group.Go(func() error {
			results[i] = o.executeCall(ctx, meta, scope, calls[i])
			return nil
		})
	}
	_ = group.Wait()
	return results, false
}

func (o *Orchestrator) executeSequentially(ctx context.Context, meta events.Metadata, scope tools.Scope, calls []tools.ToolCall) ([]tools.ToolResult, bool) {
	results := make([]tools.ToolResult, 0, len(calls))
	for _, call := range calls {
		result := o.executeCall(ctx, meta, scope, call)
		results = append(results, result)
		if result.Failed() && o.isCritical(call.Name) {
			log.Debug().Str("tool", call.Name).Msg("orchestrator: critical tool failed, aborting round")
			return results, true
		}
	}
	return results, false
}

// executeCall validates and invokes a single call. Failures become data;
// nothing raises out of the executing state.
func (o *Orchestrator) executeCall(ctx context.Context, meta events.Metadata, scope tools.Scope, call tools.ToolCall) tools.ToolResult {
	start := time.Now()
	events.Publish(ctx, events.NewToolCall(meta, call.Name, call.ID, string(call.Arguments)))

	fail := func(kind, message string) tools.ToolResult {
		result := tools.ToolResult{
			Call:     call,
			Err:      &tools.CallError{Kind: kind, Message: message},
			Duration: time.Since(start),
		}
		events.Publish(ctx, events.NewToolResult(meta, call.Name, call.ID, true, kind, result.Duration))
		return result
	}

	def, err := o.catalog.Lookup(call.Name)
	if err != nil {
		return fail(failureKindUnknownTool, "tool not available: "+call.Name)
	}

	validated, err := tools.Validate(def, call.Arguments)
	if err != nil {
		var verr *tools.ValidationError
		if errors.As(err, &verr) {
			return fail(failureKindValidation, verr.Constraint)
		}
		return fail(failureKindValidation, err.Error())
	}

	value, err := o.invoker.Invoke(ctx, def, validated, scope)
	if err != nil {
		derr := domain.Normalize(err)
		if derr.Retryable() {
			if retryValue, retryErr := o.retryOnce(ctx, def, validated, scope); retryErr == nil {
				value, err = retryValue, nil
			} else {
				derr = domain.Normalize(retryErr)
			}
		}
		if err != nil {
			return fail(string(derr.Kind), derr.Message)
		}
	}

	result := tools.ToolResult{Call: call, Value: value, Duration: time.Since(start)}
	events.Publish(ctx, events.NewToolResult(meta, call.Name, call.ID, false, "", result.Duration))
	return result
}

// retryOnce waits out the backoff and re-invokes exactly once. Only
// unavailable results are eligible; the second failure is terminal.
func (o *Orchestrator) retryOnce(ctx context.Context, def *tools.ToolDefinition, args tools.ValidatedArguments, scope tools.Scope) (any, error) {
	if o.cfg.RetryBackoff > 0 {
		select {
		case <-ctx.Done():
			return nil, domain.Unavailable("retry abandoned: %s", ctx.Err().Error())
		case <-time.After(o.cfg.RetryBackoff):
		}
	}
	log.Debug().Str("tool", def.Name).Msg("orchestrator: retrying unavailable call")
	return o.invoker.Invoke(ctx, def, args, scope)
}

type respondArgs struct {
	text      string
	success   bool
	truncated bool
	errMsg    string
}

func (o *Orchestrator) respond(ctx context.Context, meta events.Metadata, state conversation.State, executed []tools.ToolResult, args respondArgs) *AgentResponse {
	state = conversation.Append(state, conversation.NewAgentTurn(args.text))
	state = o.bound(state)

	events.Publish(ctx, events.NewQueryDone(meta, args.success))
	log.Debug().
		Str("conversation_id", meta.ConversationID).
		Bool("success", args.success).
		Int("executed_calls", len(executed)).
		Msg("orchestrator: query done")

	return &AgentResponse{
		Success:             args.success,
		Response:            args.text,
		FunctionCalls:       recordCalls(executed),
		ConversationHistory: state,
		Truncated:           args.truncated,
		Error:               args.errMsg,
	}
}

func (o *Orchestrator) bound(state conversation.State) conversation.State {
	return conversation.TruncateWithSummary(state, o.cfg.MaxHistoryTurns, o.cfg.Summarizer)
}

func (o *Orchestrator) isCritical(name string) bool {
	def, err := o.catalog.Lookup(name)
	return err == nil && def.Critical
}

func (o *Orchestrator) roundHasCritical(calls []tools.ToolCall) bool {
	for _, call := range calls {
		if o.isCritical(call.Name) {
			return true
		}
	}
	return false
}

func anyCriticalFailure(executed []tools.ToolResult, catalog *tools.Catalog) bool {
	for _, r := range executed {
		if !r.Failed() {
			continue
		}
		if def, err := catalog.Lookup(r.Call.Name); err == nil && def.Critical {
			return true
		}
	}
	return false
}

func lastFailure(results []tools.ToolResult) string {
	for i := len(results) - 1; i >= 0; i-- {
		if results[i].Failed() {
			return results[i].Call.Name + " failed: " + results[i].Err.Message
		}
	}
	return "a required step failed"
}

// roundTurn folds a round's results into the synthetic tool turn the next
// gateway round-trip sees.
func roundTurn(round int, results []tools.ToolResult) conversation.Turn {
	outcomes := make([]map[string]any, 0, len(results))
	for _, r := range results {
		entry := map[string]any{
			"function": r.Call.Name,
			"success":  !r.Failed(),
		}
		if r.Failed() {
			entry["error_kind"] = r.Err.Kind
			entry["error"] = r.Err.Message
		} else if r.Value != nil {
			if raw, err := json.Marshal(r.Value); err == nil {
				entry["result"] = json.RawMessage(raw)
			}
		}
		outcomes = append(outcomes, entry)
	}
	payload := map[string]any{"round": round, "results": outcomes}
	summary, _ := json.Marshal(payload)
	return conversation.NewToolTurn(string(summary), payload)
}
