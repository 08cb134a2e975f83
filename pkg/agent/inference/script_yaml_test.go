package inference

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScript(t *testing.T) {
	raw := []byte(`
steps:
  - calls:
      - tool: search_leads
        args:
          query: textile
          limit: 5
      - tool: get_pipeline_summary
  - answer: "Found 2 textile leads."
`)
	gw, err := LoadScript(raw)
	require.NoError(t, err)

	ctx := context.Background()
	d1, err := gw.Propose(ctx, Request{Query: "textile leads?"})
	require.NoError(t, err)
	require.Equal(t, DecisionRequestCalls, d1.Kind)
	require.Len(t, d1.Calls, 2)
	assert.Equal(t, "search_leads", d1.Calls[0].Name)
	assert.JSONEq(t, `{"query":"textile","limit":5}`, string(d1.Calls[0].Arguments))
	assert.Equal(t, "get_pipeline_summary", d1.Calls[1].Name)
	assert.JSONEq(t, `{}`, string(d1.Calls[1].Arguments))

	d2, err := gw.Propose(ctx, Request{})
	require.NoError(t, err)
	assert.Equal(t, DecisionFinalAnswer, d2.Kind)
	assert.Equal(t, "Found 2 textile leads.", d2.Text)
}

func TestLoadScriptFailStep(t *testing.T) {
	gw, err := LoadScript([]byte("steps:\n  - fail: upstream down\n"))
	require.NoError(t, err)

	_, err = gw.Propose(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrInferenceUnavailable)
}

func TestLoadScriptRejectsBadSteps(t *testing.T) {
	_, err := LoadScript([]byte("steps: []\n"))
	assert.Error(t, err)

	_, err = LoadScript([]byte("steps:\n  - {}\n"))
	assert.Error(t, err)

	_, err = LoadScript([]byte("steps:\n  - calls:\n      - args: {}\n"))
	assert.Error(t, err)
}
