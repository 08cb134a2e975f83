package orchestrator

import (
	"time"

	"github.com/moldcrm/agent/pkg/agent/conversation"
)

// Config bounds one orchestration request.
type Config struct {
	// MaxRounds caps the ask-execute-fold cycles per request.
	MaxRounds int
	// MaxParallelCalls caps concurrent tool execution within a round.
	MaxParallelCalls int
	// MaxHistoryTurns bounds the conversation state after every request.
	MaxHistoryTurns int
	// InferenceTimeout bounds a single gateway round-trip. Zero disables it.
	InferenceTimeout time.Duration
	// RetryBackoff is the wait before the single retry of an unavailable
	// domain call.
	RetryBackoff time.Duration
	// Summarizer, when set, folds evicted turns into a summary turn
	// instead of dropping them.
	Summarizer conversation.Summarizer
}

// DefaultConfig returns the defaults used when no config option is given.
func DefaultConfig() Config {
	return Config{
		MaxRounds:        3,
		MaxParallelCalls: 3,
		MaxHistoryTurns:  20,
		InferenceTimeout: 60 * time.Second,
		RetryBackoff:     250 * time.Millisecond,
	}
}

func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.MaxRounds <= 0 {
		c.MaxRounds = def.MaxRounds
	}
	if c.MaxParallelCalls <= 0 {
		c.MaxParallelCalls = 1
	}
	if c.MaxHistoryTurns <= 0 {
		c.MaxHistoryTurns = def.MaxHistoryTurns
	}
	return c
}
