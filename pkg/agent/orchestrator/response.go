package orchestrator

import (
	"encoding/json"
	"time"

	"github.com/moldcrm/agent/pkg/agent/conversation"
	"github.com/moldcrm/agent/pkg/agent/tools"
)

// CallResult is the outcome half of a recorded call.
type CallResult struct {
	Success  bool          `json:"success"`
	Value    any           `json:"value,omitempty"`
	Kind     string        `json:"error_kind,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// CallRecord is one executed (or rejected) tool call as reported to the
// caller, in request order.
type CallRecord struct {
	Function  string         `json:"function"`
	Arguments map[string]any `json:"arguments"`
	Result    CallResult     `json:"result"`
}

// AgentResponse is the full output contract of one orchestration request.
// It is returned exactly once and never mutated afterwards; the caller is
// guaranteed a response object on every invocation, even in total failure.
type AgentResponse struct {
	Success             bool               `json:"success"`
	Response            string             `json:"response"`
	FunctionCalls       []CallRecord       `json:"function_calls"`
	ConversationHistory conversation.State `json:"conversation_history"`
	Truncated           bool               `json:"truncated,omitempty"`
	Error               string             `json:"error,omitempty"`
}

func recordCalls(results []tools.ToolResult) []CallRecord {
	records := make([]CallRecord, 0, len(results))
	for _, r := range results {
		args := map[string]any{}
		if len(r.Call.Arguments) > 0 {
			_ = json.Unmarshal(r.Call.Arguments, &args)
		}
		record := CallRecord{
			Function:  r.Call.Name,
			Arguments: args,
			Result: CallResult{
				Success:  !r.Failed(),
				Value:    r.Value,
				Duration: r.Duration,
			},
		}
		if r.Err != nil {
			record.Result.Kind = r.Err.Kind
			record.Result.Error = r.Err.Message
		}
		records = append(records, record)
	}
	return records
}
