package tools

import (
	"context"
	"encoding/json"
	"reflect"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
)

// Scope carries the authenticated account context a capability executes under.
// It is supplied by the orchestrator, never by the model.
type Scope struct {
	AccountID int64 `json:"account_id"`
	UserID    int64 `json:"user_id"`
}

// Capability is the domain operation bound to a tool. Arguments have already
// been validated against the tool's parameter schema when this is called.
type Capability func(ctx context.Context, scope Scope, args json.RawMessage) (any, error)

// ToolDefinition describes a single tool the model may request.
//
// Parameters and Result are JSON schemas generated by reflection from the
// typed argument/result structs registered with the catalog. Critical marks
// tools whose failure aborts the remaining calls of a round instead of being
// isolated.
type ToolDefinition struct {
	Name        string             `json:"name" yaml:"name"`
	Description string             `json:"description" yaml:"description"`
	Parameters  *jsonschema.Schema `json:"parameters" yaml:"parameters"`
	Result      *jsonschema.Schema `json:"result,omitempty" yaml:"result,omitempty"`
	Critical    bool               `json:"critical,omitempty" yaml:"critical,omitempty"`
	Capability  Capability         `json:"-" yaml:"-"`

	compiled compiledSchema
}

// ToolCall is one requested invocation within a round. Index is the position
// the call was requested at; results are reported in the same order.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
	Index     int             `json:"index"`
}

// ToolResult is the outcome of exactly one ToolCall.
type ToolResult struct {
	Call     ToolCall      `json:"call"`
	Value    any           `json:"value,omitempty"`
	Err      *CallError    `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Failed reports whether the call ended in failure.
func (r ToolResult) Failed() bool {
	return r.Err != nil
}

// CallError is a per-call failure recorded as data. Kind is one of the
// orchestration failure kinds ("validation", "unknown_tool") or a domain
// error kind ("not_found", "permission_denied", "conflict", "unavailable",
// "invalid_state").
type CallError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (e *CallError) Error() string {
	return e.Kind + ": " + e.Message
}

// NewDefinition builds a ToolDefinition whose parameter schema is reflected
// from argsPrototype. Fields without an omitempty json tag are required.
func NewDefinition(name, description string, argsPrototype any, capability Capability) (*ToolDefinition, error) {
	if name == "" {
		return nil, errors.New("tool name cannot be empty")
	}
	if capability == nil {
		return nil, errors.Errorf("tool %s has no capability", name)
	}
	schema, err := reflectSchema(argsPrototype)
	if err != nil {
		return nil, errors.Wrapf(err, "reflect parameter schema for %s", name)
	}
	return &ToolDefinition{
		Name:        name,
		Description: description,
		Parameters:  schema,
		Capability:  capability,
	}, nil
}

// WithResult attaches a result schema reflected from resultPrototype.
func (d *ToolDefinition) WithResult(resultPrototype any) *ToolDefinition {
	schema, err := reflectSchema(resultPrototype)
	if err == nil {
		d.Result = schema
	}
	return d
}

// WithCritical marks the tool as critical.
func (d *ToolDefinition) WithCritical() *ToolDefinition {
	d.Critical = true
	return d
}

func reflectSchema(prototype any) (*jsonschema.Schema, error) {
	if prototype == nil {
		return &jsonschema.Schema{Type: "object"}, nil
	}
	t := reflect.TypeOf(prototype)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, errors.Errorf("schema prototype must be a struct, got %s", t.Kind())
	}
	reflector := jsonschema.Reflector{
		// Expand definitions inline instead of using $refs, for provider compatibility.
		DoNotReference: true,
	}
	schema := reflector.Reflect(reflect.New(t).Elem().Interface())
	if schema.Type == "" && schema.Ref == "" {
		schema.Type = "object"
	}
	return schema, nil
}
