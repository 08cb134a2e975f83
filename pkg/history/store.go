// Package history persists conversation state between orchestration
// requests. The orchestrator itself never touches a store; callers load
// state before a query and save the returned state after.
package history

import (
	"context"

	"github.com/pkg/errors"

	"github.com/moldcrm/agent/pkg/agent/conversation"
)

// ErrConversationNotFound is returned by Load for an unknown conversation.
var ErrConversationNotFound = errors.New("conversation not found")

// Store keeps per-conversation state keyed by conversation ID.
type Store interface {
	Load(ctx context.Context, conversationID string) (conversation.State, error)
	Save(ctx context.Context, conversationID string, state conversation.State) error
	Delete(ctx context.Context, conversationID string) error
}
