package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func turnsWithContent(contents ...string) State {
	s := State{}
	for _, c := range contents {
		s = Append(s, NewUserTurn(c))
	}
	return s
}

func TestAppendDoesNotMutateInput(t *testing.T) {
	s1 := turnsWithContent("a", "b")
	s2 := Append(s1, NewAgentTurn("c"))

	assert.Equal(t, 2, s1.Len())
	assert.Equal(t, 3, s2.Len())
	assert.Equal(t, "c", s2.Turns[2].Content)
}

func TestTruncateDropsOldestFirst(t *testing.T) {
	s := turnsWithContent("t1", "t2", "t3", "t4", "t5")

	bounded := Truncate(s, 3)
	require.Equal(t, 3, bounded.Len())
	assert.Equal(t, "t3", bounded.Turns[0].Content)
	assert.Equal(t, "t5", bounded.Turns[2].Content)
	// Input untouched.
	assert.Equal(t, 5, s.Len())
}

func TestTruncateIsIdempotent(t *testing.T) {
	s := turnsWithContent("t1", "t2", "t3")

	once := Truncate(s, 3)
	twice := Truncate(once, 3)
	assert.Equal(t, once, twice)
}

func TestTruncateZeroBoundLeavesStateAlone(t *testing.T) {
	s := turnsWithContent("t1", "t2")
	assert.Equal(t, 2, Truncate(s, 0).Len())
	assert.Equal(t, 2, Truncate(s, -1).Len())
}

func TestBoundedHistoryEvictsOnePairAtATime(t *testing.T) {
	// History at the bound plus one new user/agent pair stays at the bound.
	s := State{}
	for i := 0; i < 10; i++ {
		s = Append(s, NewUserTurn("old"))
	}
	s.Turns[0].Content = "oldest"

	s = Append(s, NewUserTurn("new question"))
	s = Append(s, NewAgentTurn("new answer"))
	s = Truncate(s, 10)

	require.Equal(t, 10, s.Len())
	for _, turn := range s.Turns {
		assert.NotEqual(t, "oldest", turn.Content)
	}
	assert.Equal(t, "new answer", s.Turns[9].Content)
}

func TestTruncateWithSummaryFoldsEvictedTurns(t *testing.T) {
	s := turnsWithContent("t1", "t2", "t3", "t4", "t5")

	bounded := TruncateWithSummary(s, 3, TextSummarizer)
	require.Equal(t, 3, bounded.Len())
	assert.Equal(t, RoleAgent, bounded.Turns[0].Role)
	assert.Contains(t, bounded.Turns[0].Content, "t1")
	assert.Contains(t, bounded.Turns[0].Content, "t3")
	assert.Equal(t, "t4", bounded.Turns[1].Content)
	assert.Equal(t, "t5", bounded.Turns[2].Content)
}

func TestMarshalRoundTrip(t *testing.T) {
	s := Append(turnsWithContent("hello"), NewToolTurn("round 1 results", map[string]any{
		"calls": []any{"get_lead"},
	}))

	raw, err := Marshal(s)
	require.NoError(t, err)

	restored, err := Unmarshal(raw)
	require.NoError(t, err)
	require.Equal(t, 2, restored.Len())
	assert.Equal(t, RoleUser, restored.Turns[0].Role)
	assert.Equal(t, RoleTool, restored.Turns[1].Role)
	assert.Equal(t, "round 1 results", restored.Turns[1].Content)
}

func TestUnmarshalEmptyInput(t *testing.T) {
	s, err := Unmarshal(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
}
