package history

import (
	"context"
	"sync"

	"github.com/moldcrm/agent/pkg/agent/conversation"
)

// MemoryStore keeps conversation state in process memory. Used by the CLI
// and by tests; state does not survive a restart.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string][]byte
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string][]byte)}
}

func (s *MemoryStore) Load(_ context.Context, conversationID string) (conversation.State, error) {
	s.mu.RLock()
	raw, ok := s.states[conversationID]
	s.mu.RUnlock()
	if !ok {
		return conversation.State{}, ErrConversationNotFound
	}
	return conversation.Unmarshal(raw)
}

func (s *MemoryStore) Save(_ context.Context, conversationID string, state conversation.State) error {
	raw, err := conversation.Marshal(state)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.states[conversationID] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, conversationID string) error {
	s.mu.Lock()
	delete(s.states, conversationID)
	s.mu.Unlock()
	return nil
}
