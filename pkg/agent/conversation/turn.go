package conversation

import (
	"time"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
	RoleTool  Role = "tool"
)

// Turn is one entry of a conversation transcript. Turns are append-only;
// their order within a State is the sole relevance signal.
type Turn struct {
	Role      Role           `json:"role"`
	Content   string         `json:"content,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewUserTurn creates a user turn with the current timestamp.
func NewUserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content, Timestamp: time.Now().UTC()}
}

// NewAgentTurn creates an agent turn with the current timestamp.
func NewAgentTurn(content string) Turn {
	return Turn{Role: RoleAgent, Content: content, Timestamp: time.Now().UTC()}
}

// NewToolTurn creates a synthetic tool turn carrying a structured payload,
// typically the folded results of one execution round.
func NewToolTurn(content string, payload map[string]any) Turn {
	return Turn{Role: RoleTool, Content: content, Payload: payload, Timestamp: time.Now().UTC()}
}
