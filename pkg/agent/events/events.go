package events

import (
	"time"
)

// EventType discriminates orchestration events.
type EventType string

const (
	EventTypeQueryStart  EventType = "query-start"
	EventTypeRoundStart  EventType = "round-start"
	EventTypeToolCall    EventType = "tool-call"
	EventTypeToolResult  EventType = "tool-result"
	EventTypeFinalAnswer EventType = "final-answer"
	EventTypeQueryDone   EventType = "query-done"
)

// Metadata identifies which conversation and round an event belongs to.
type Metadata struct {
	ConversationID string `json:"conversation_id,omitempty"`
	AccountID      int64  `json:"account_id,omitempty"`
	Round          int    `json:"round,omitempty"`
}

// Event is anything the orchestrator publishes while processing a query.
type Event interface {
	Type() EventType
	Meta() Metadata
}

type base struct {
	Type_ EventType `json:"type"`
	Meta_ Metadata  `json:"meta"`
}

func (b base) Type() EventType { return b.Type_ }
func (b base) Meta() Metadata  { return b.Meta_ }

// EventQueryStart is published once per orchestration request.
type EventQueryStart struct {
	base
	Query string `json:"query"`
}

// EventRoundStart is published when a round of tool execution begins.
type EventRoundStart struct {
	base
	CallCount int `json:"call_count"`
}

// EventToolCall is published before a tool call executes.
type EventToolCall struct {
	base
	Tool      string `json:"tool"`
	CallID    string `json:"call_id"`
	Arguments string `json:"arguments,omitempty"`
}

// EventToolResult is published after a tool call completes, success or not.
type EventToolResult struct {
	base
	Tool     string        `json:"tool"`
	CallID   string        `json:"call_id"`
	Failed   bool          `json:"failed"`
	Kind     string        `json:"kind,omitempty"`
	Duration time.Duration `json:"duration"`
}

// EventFinalAnswer is published when the gateway returns its final text.
type EventFinalAnswer struct {
	base
	Truncated bool `json:"truncated"`
}

// EventQueryDone closes the request.
type EventQueryDone struct {
	base
	Success bool `json:"success"`
}

func NewQueryStart(meta Metadata, query string) *EventQueryStart {
	return &EventQueryStart{base: base{Type_: EventTypeQueryStart, Meta_: meta}, Query: query}
}

func NewRoundStart(meta Metadata, callCount int) *EventRoundStart {
	return &EventRoundStart{base: base{Type_: EventTypeRoundStart, Meta_: meta}, CallCount: callCount}
}

func NewToolCall(meta Metadata, tool, callID, arguments string) *EventToolCall {
	return &EventToolCall{base: base{Type_: EventTypeToolCall, Meta_: meta}, Tool: tool, CallID: callID, Arguments: arguments}
}

func NewToolResult(meta Metadata, tool, callID string, failed bool, kind string, duration time.Duration) *EventToolResult {
	return &EventToolResult{base: base{Type_: EventTypeToolResult, Meta_: meta}, Tool: tool, CallID: callID, Failed: failed, Kind: kind, Duration: duration}
}

func NewFinalAnswer(meta Metadata, truncated bool) *EventFinalAnswer {
	return &EventFinalAnswer{base: base{Type_: EventTypeFinalAnswer, Meta_: meta}, Truncated: truncated}
}

func NewQueryDone(meta Metadata, success bool) *EventQueryDone {
	return &EventQueryDone{base: base{Type_: EventTypeQueryDone, Meta_: meta}, Success: success}
}
