package conversation

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// State is the ordered transcript of a conversation. It is a value type:
// Append and Truncate return new states and never mutate their input, which
// keeps growth and eviction independently testable. A State is owned by
// exactly one in-flight orchestration request at a time; the caller is
// responsible for not submitting concurrent requests against the same
// conversation.
type State struct {
	Turns []Turn `json:"turns"`
}

// Len returns the number of turns.
func (s State) Len() int {
	return len(s.Turns)
}

// Append returns a new state with turn added at the end.
func Append(s State, turn Turn) State {
	out := make([]Turn, 0, len(s.Turns)+1)
	out = append(out, s.Turns...)
	out = append(out, turn)
	return State{Turns: out}
}

// Summarizer folds evicted turns into a single replacement turn. When nil,
// eviction is plain FIFO truncation.
type Summarizer func(evicted []Turn) Turn

// Truncate returns a state bounded to maxTurns, dropping the oldest turns
// first. Truncating an already-bounded state is a no-op. maxTurns <= 0
// leaves the state unchanged.
func Truncate(s State, maxTurns int) State {
	return TruncateWithSummary(s, maxTurns, nil)
}

// TruncateWithSummary bounds the state like Truncate; when a summarizer is
// configured, the evicted turns are replaced by the single summary turn it
// produces (the summary counts against the bound).
func TruncateWithSummary(s State, maxTurns int, summarize Summarizer) State {
	if maxTurns <= 0 || len(s.Turns) <= maxTurns {
		return s
	}
	if summarize == nil {
		kept := make([]Turn, maxTurns)
		copy(kept, s.Turns[len(s.Turns)-maxTurns:])
		return State{Turns: kept}
	}
	// Reserve one slot for the summary turn.
	keep := maxTurns - 1
	evicted := make([]Turn, len(s.Turns)-keep)
	copy(evicted, s.Turns[:len(s.Turns)-keep])
	out := make([]Turn, 0, maxTurns)
	out = append(out, summarize(evicted))
	out = append(out, s.Turns[len(s.Turns)-keep:]...)
	return State{Turns: out}
}

// Marshal serializes the state for handoff across orchestration requests.
// Persistence of the serialized form is the caller's responsibility.
func Marshal(s State) ([]byte, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, errors.Wrap(err, "marshal conversation state")
	}
	return raw, nil
}

// Unmarshal restores a state produced by Marshal. Empty input yields an
// empty state.
func Unmarshal(raw []byte) (State, error) {
	if len(raw) == 0 {
		return State{}, nil
	}
	var s State
	if err := json.Unmarshal(raw, &s); err != nil {
		return State{}, errors.Wrap(err, "unmarshal conversation state")
	}
	return s, nil
}

// TextSummarizer is a transcript-level Summarizer that joins evicted turn
// contents into a compact agent-visible digest. It is deliberately plain;
// callers wanting model-written summaries plug in their own Summarizer.
func TextSummarizer(evicted []Turn) Turn {
	var b strings.Builder
	b.WriteString("Earlier in this conversation: ")
	first := true
	for _, t := range evicted {
		if t.Content == "" {
			continue
		}
		if !first {
			b.WriteString(" / ")
		}
		b.WriteString(string(t.Role))
		b.WriteString(": ")
		b.WriteString(t.Content)
		first = false
	}
	return NewAgentTurn(b.String())
}
