package history

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/moldcrm/agent/pkg/agent/conversation"
)

const defaultKeyPrefix = "agent:conversation:"

// RedisStore persists conversation state in Redis with a per-conversation
// TTL, so stale conversations expire on their own.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix overrides the key prefix, for sharing a Redis instance.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) { s.prefix = prefix }
}

// WithTTL sets the per-conversation expiry. Zero disables expiry.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) { s.ttl = ttl }
}

// NewRedisStore creates a store over an existing client. The caller owns
// the client's lifecycle.
func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, prefix: defaultKeyPrefix, ttl: 24 * time.Hour}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(conversationID string) string {
	return s.prefix + conversationID
}

func (s *RedisStore) Load(ctx context.Context, conversationID string) (conversation.State, error) {
	raw, err := s.client.Get(ctx, s.key(conversationID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return conversation.State{}, ErrConversationNotFound
	}
	if err != nil {
		return conversation.State{}, errors.Wrap(err, "load conversation")
	}
	return conversation.Unmarshal(raw)
}

func (s *RedisStore) Save(ctx context.Context, conversationID string, state conversation.State) error {
	raw, err := conversation.Marshal(state)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(conversationID), raw, s.ttl).Err(); err != nil {
		return errors.Wrap(err, "save conversation")
	}
	log.Debug().
		Str("conversation_id", conversationID).
		Int("turns", state.Len()).
		Msg("history: conversation saved")
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, conversationID string) error {
	if err := s.client.Del(ctx, s.key(conversationID)).Err(); err != nil {
		return errors.Wrap(err, "delete conversation")
	}
	return nil
}
