package inference

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	go_openai "github.com/sashabaranov/go-openai"

	"github.com/moldcrm/agent/pkg/agent/conversation"
	"github.com/moldcrm/agent/pkg/agent/tools"
)

// systemPrompt is the agent persona and capability briefing sent on every
// gateway round-trip.
const systemPrompt = `You are an AI assistant for MoldCRM, a customer relationship management system.
You help users manage their leads, contacts, and deals through natural conversation.

When a user asks you to perform actions:
1. Use the available tools to access or modify CRM data
2. Always verify you have the necessary information before calling tools
3. Provide clear, concise responses in natural language
4. If you encounter errors, explain them clearly to the user
5. Be proactive - suggest next steps when appropriate

Available capabilities:
- Search and retrieve lead, contact, and deal information
- Create new leads and deals
- Update lead statuses and deal stages
- Generate pipeline and sales reports
- Answer questions about CRM data

Always maintain a professional, helpful tone.`

// chatClient is the slice of the OpenAI client the gateway uses.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, req go_openai.ChatCompletionRequest) (go_openai.ChatCompletionResponse, error)
}

// OpenAIGateway proposes decisions via the OpenAI chat completion API with
// function calling.
type OpenAIGateway struct {
	client chatClient
	model  string
}

var _ Gateway = (*OpenAIGateway)(nil)

// NewOpenAIGateway creates a gateway for the given API key and model.
func NewOpenAIGateway(apiKey, model string) *OpenAIGateway {
	if model == "" {
		model = go_openai.GPT4oMini
	}
	return &OpenAIGateway{client: go_openai.NewClient(apiKey), model: model}
}

// NewOpenAIGatewayWithClient injects a custom client, used by tests.
func NewOpenAIGatewayWithClient(client chatClient, model string) *OpenAIGateway {
	return &OpenAIGateway{client: client, model: model}
}

func (g *OpenAIGateway) Propose(ctx context.Context, req Request) (Decision, error) {
	chatReq := go_openai.ChatCompletionRequest{
		Model:    g.model,
		Messages: buildMessages(req),
		Tools:    catalogTools(req.Catalog),
	}

	log.Debug().
		Str("model", g.model).
		Int("message_count", len(chatReq.Messages)).
		Int("tool_count", len(chatReq.Tools)).
		Msg("inference: sending chat completion request")

	resp, err := g.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return Decision{}, errors.Wrap(ErrInferenceUnavailable, err.Error())
	}
	if len(resp.Choices) == 0 {
		return Decision{}, errors.Wrap(ErrInferenceUnavailable, "model returned no choices")
	}

	return parseChoice(resp.Choices[0], req.Catalog)
}

// buildMessages flattens the conversation into chat messages. Tool turns
// carry the folded results of earlier rounds; they are rendered as system
// messages because this gateway does not retain provider-native tool call
// identifiers across requests.
func buildMessages(req Request) []go_openai.ChatCompletionMessage {
	messages := make([]go_openai.ChatCompletionMessage, 0, len(req.History.Turns)+2)
	messages = append(messages, go_openai.ChatCompletionMessage{
		Role:    go_openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, turn := range req.History.Turns {
		msg := go_openai.ChatCompletionMessage{Content: turn.Content}
		switch turn.Role {
		case conversation.RoleUser:
			msg.Role = go_openai.ChatMessageRoleUser
		case conversation.RoleAgent:
			msg.Role = go_openai.ChatMessageRoleAssistant
		case conversation.RoleTool:
			msg.Role = go_openai.ChatMessageRoleSystem
			if len(turn.Payload) > 0 {
				if raw, err := json.Marshal(turn.Payload); err == nil {
					msg.Content = "Tool results from your previous requests: " + string(raw)
				}
			}
		default:
			continue
		}
		messages = append(messages, msg)
	}
	if req.Query != "" {
		messages = append(messages, go_openai.ChatCompletionMessage{
			Role:    go_openai.ChatMessageRoleUser,
			Content: req.Query,
		})
	}
	return messages
}

// catalogTools converts catalog definitions to the provider tool format.
func catalogTools(catalog *tools.Catalog) []go_openai.Tool {
	if catalog == nil {
		return nil
	}
	defs := catalog.List()
	out := make([]go_openai.Tool, 0, len(defs))
	for _, def := range defs {
		fn := &go_openai.FunctionDefinition{
			Name:        def.Name,
			Description: def.Description,
		}
		if def.Parameters != nil {
			// go-openai serializes Parameters as-is; hand it the schema JSON.
			if raw, err := json.Marshal(def.Parameters); err == nil {
				fn.Parameters = json.RawMessage(raw)
			}
		}
		out = append(out, go_openai.Tool{Type: go_openai.ToolTypeFunction, Function: fn})
	}
	return out
}

// parseChoice converts a chat completion choice into a Decision. A tool
// call naming something outside the catalog is still passed through: the
// orchestrator records it as an unknown-tool failure rather than the whole
// round being discarded. Only structurally unusable output is rejected.
func parseChoice(choice go_openai.ChatCompletionChoice, catalog *tools.Catalog) (Decision, error) {
	msg := choice.Message
	if len(msg.ToolCalls) == 0 {
		text := msg.Content
		if text == "" {
			return Decision{}, errors.Wrap(ErrInferenceUnavailable, "model returned neither text nor tool calls")
		}
		return FinalAnswer(text), nil
	}

	calls := make([]ProposedCall, 0, len(msg.ToolCalls))
	for _, tc := range msg.ToolCalls {
		if tc.Function.Name == "" {
			return Decision{}, errors.Wrap(ErrInferenceUnavailable, "tool call without a function name")
		}
		args := tc.Function.Arguments
		if args == "" {
			args = "{}"
		}
		if !json.Valid([]byte(args)) {
			return Decision{}, errors.Wrapf(ErrInferenceUnavailable, "unparseable arguments for %s", tc.Function.Name)
		}
		calls = append(calls, ProposedCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(args),
		})
		if catalog != nil && !catalog.Has(tc.Function.Name) {
			log.Debug().Str("tool", tc.Function.Name).Msg("inference: model requested a tool outside the catalog")
		}
	}
	return RequestCalls(calls...), nil
}
