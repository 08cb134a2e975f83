package inference

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	go_openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moldcrm/agent/pkg/agent/conversation"
	"github.com/moldcrm/agent/pkg/agent/tools"
)

type fakeChatClient struct {
	resp go_openai.ChatCompletionResponse
	err  error

	lastRequest go_openai.ChatCompletionRequest
}

func (c *fakeChatClient) CreateChatCompletion(_ context.Context, req go_openai.ChatCompletionRequest) (go_openai.ChatCompletionResponse, error) {
	c.lastRequest = req
	return c.resp, c.err
}

func smallCatalog(t *testing.T) *tools.Catalog {
	t.Helper()
	type args struct {
		LeadID int64 `json:"lead_id"`
	}
	b := tools.NewCatalogBuilder("v1")
	def, err := tools.NewDefinition("get_lead", "Fetch a lead", args{},
		func(_ context.Context, _ tools.Scope, _ json.RawMessage) (any, error) { return nil, nil })
	require.NoError(t, err)
	require.NoError(t, b.Register(def))
	return b.Build()
}

func TestProposeParsesFinalAnswer(t *testing.T) {
	client := &fakeChatClient{
		resp: go_openai.ChatCompletionResponse{
			Choices: []go_openai.ChatCompletionChoice{{
				Message: go_openai.ChatCompletionMessage{
					Role:    go_openai.ChatMessageRoleAssistant,
					Content: "You have 3 open deals.",
				},
			}},
		},
	}
	g := NewOpenAIGatewayWithClient(client, "gpt-4o-mini")

	decision, err := g.Propose(context.Background(), Request{Query: "pipeline?", Catalog: smallCatalog(t)})
	require.NoError(t, err)
	assert.Equal(t, DecisionFinalAnswer, decision.Kind)
	assert.Equal(t, "You have 3 open deals.", decision.Text)
}

func TestProposeParsesToolCallsInOrder(t *testing.T) {
	client := &fakeChatClient{
		resp: go_openai.ChatCompletionResponse{
			Choices: []go_openai.ChatCompletionChoice{{
				Message: go_openai.ChatCompletionMessage{
					Role: go_openai.ChatMessageRoleAssistant,
					ToolCalls: []go_openai.ToolCall{
						{ID: "call-1", Type: go_openai.ToolTypeFunction, Function: go_openai.FunctionCall{Name: "create_lead", Arguments: `{"first_name":"John"}`}},
						{ID: "call-2", Type: go_openai.ToolTypeFunction, Function: go_openai.FunctionCall{Name: "get_lead", Arguments: `{"lead_id":890}`}},
					},
				},
			}},
		},
	}
	g := NewOpenAIGatewayWithClient(client, "gpt-4o-mini")

	decision, err := g.Propose(context.Background(), Request{Query: "create a lead", Catalog: smallCatalog(t)})
	require.NoError(t, err)
	assert.Equal(t, DecisionRequestCalls, decision.Kind)
	require.Len(t, decision.Calls, 2)
	assert.Equal(t, "create_lead", decision.Calls[0].Name)
	assert.Equal(t, "get_lead", decision.Calls[1].Name)
	assert.JSONEq(t, `{"lead_id":890}`, string(decision.Calls[1].Arguments))
}

func TestProposeWrapsUpstreamFailure(t *testing.T) {
	client := &fakeChatClient{err: errors.New("connection refused")}
	g := NewOpenAIGatewayWithClient(client, "gpt-4o-mini")

	_, err := g.Propose(context.Background(), Request{Query: "hello"})
	assert.True(t, errors.Is(err, ErrInferenceUnavailable))
}

func TestProposeRejectsMalformedArguments(t *testing.T) {
	client := &fakeChatClient{
		resp: go_openai.ChatCompletionResponse{
			Choices: []go_openai.ChatCompletionChoice{{
				Message: go_openai.ChatCompletionMessage{
					ToolCalls: []go_openai.ToolCall{
						{ID: "call-1", Function: go_openai.FunctionCall{Name: "get_lead", Arguments: `{"lead_id": `}},
					},
				},
			}},
		},
	}
	g := NewOpenAIGatewayWithClient(client, "gpt-4o-mini")

	_, err := g.Propose(context.Background(), Request{Query: "get it"})
	assert.True(t, errors.Is(err, ErrInferenceUnavailable))
}

func TestBuildMessagesMapsRolesAndToolPayloads(t *testing.T) {
	history := conversation.State{}
	history = conversation.Append(history, conversation.NewUserTurn("show my pipeline"))
	history = conversation.Append(history, conversation.NewToolTurn("round 1", map[string]any{"total_deals": 45}))
	history = conversation.Append(history, conversation.NewAgentTurn("You have 45 deals."))

	messages := buildMessages(Request{Query: "and my leads?", History: history})
	require.Len(t, messages, 5)
	assert.Equal(t, go_openai.ChatMessageRoleSystem, messages[0].Role)
	assert.Equal(t, go_openai.ChatMessageRoleUser, messages[1].Role)
	assert.Equal(t, go_openai.ChatMessageRoleSystem, messages[2].Role)
	assert.Contains(t, messages[2].Content, "total_deals")
	assert.Equal(t, go_openai.ChatMessageRoleAssistant, messages[3].Role)
	assert.Equal(t, "and my leads?", messages[4].Content)
}

func TestCatalogToolsCarriesSchemas(t *testing.T) {
	out := catalogTools(smallCatalog(t))
	require.Len(t, out, 1)
	assert.Equal(t, "get_lead", out[0].Function.Name)

	raw, err := json.Marshal(out[0].Function.Parameters)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "lead_id")
}
