// Package inference wraps the reasoning capability behind a narrow gateway:
// given the current query, history, and tool catalog, a Gateway returns
// either a final text answer or the tool calls it wants executed. Gateways
// are stateless; a call depends only on its explicit arguments.
package inference

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/moldcrm/agent/pkg/agent/conversation"
	"github.com/moldcrm/agent/pkg/agent/tools"
)

// ErrInferenceUnavailable wraps upstream unavailability or model output
// that cannot be parsed into a Decision. Recoverable at the orchestrator
// level, never fatal to the process.
var ErrInferenceUnavailable = errors.New("inference unavailable")

// Request carries everything a Gateway may depend on.
type Request struct {
	Query   string
	History conversation.State
	Catalog *tools.Catalog
}

// DecisionKind tags the Decision variant.
type DecisionKind string

const (
	DecisionFinalAnswer  DecisionKind = "final_answer"
	DecisionRequestCalls DecisionKind = "request_calls"
)

// ProposedCall is one tool invocation the model requested, in request order.
type ProposedCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// Decision is the tagged result of one gateway round-trip: either a final
// answer or an ordered list of requested tool calls, never both.
type Decision struct {
	Kind  DecisionKind
	Text  string
	Calls []ProposedCall
}

// FinalAnswer builds a final-answer decision.
func FinalAnswer(text string) Decision {
	return Decision{Kind: DecisionFinalAnswer, Text: text}
}

// RequestCalls builds a request-calls decision.
func RequestCalls(calls ...ProposedCall) Decision {
	return Decision{Kind: DecisionRequestCalls, Calls: calls}
}

// Gateway is the reasoning capability. Implementations must be safe for
// concurrent use across conversations.
type Gateway interface {
	Propose(ctx context.Context, req Request) (Decision, error)
}
