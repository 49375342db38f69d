package chat

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

const systemPrompt = "You are a friendly medical assistant for a risk prediction service covering diabetes, heart disease, lung cancer and stroke. " +
	"Give general health information only, never a diagnosis, and suggest seeing a doctor when symptoms are serious."

// maxContext bounds how many past messages are sent to the bot.
const maxContext = 20

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// OpenAIResponder talks to an OpenAI-compatible chat completion endpoint.
type OpenAIResponder struct {
	client *openai.Client
	model  string
}

func NewOpenAIResponder(cfg OpenAIConfig) *OpenAIResponder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIResponder{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}
}

func (o *OpenAIResponder) Reply(ctx context.Context, conversation []Message) (string, error) {
	if len(conversation) > maxContext {
		conversation = conversation[len(conversation)-maxContext:]
	}

	msgs := make([]openai.ChatCompletionMessage, 0, len(conversation)+1)
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: systemPrompt})
	for _, m := range conversation {
		role := openai.ChatMessageRoleUser
		if m.Sender == SenderBot {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: msgs,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
