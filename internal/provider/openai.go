package provider

import (
	"context"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/tbourn/go-voice-chat/internal/config"
	"github.com/tbourn/go-voice-chat/internal/domain"
)

// DefaultOpenAIModel is used when COMPLETION_MODEL is empty.
const DefaultOpenAIModel = "gpt-4"

// OpenAI completes prompts with the Chat Completions API.
type OpenAI struct {
	client openai.Client
	model  string
}

// NewOpenAIClient builds an OpenAI client with retries disabled. Empty
// apiKey/baseURL fall back to the SDK defaults (OPENAI_API_KEY, api.openai.com).
func NewOpenAIClient(apiKey, baseURL string) openai.Client {
	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return openai.NewClient(opts...)
}

// NewOpenAI returns a Completer bound to cfg.Model (gpt-4 by default).
func NewOpenAI(cfg config.CompletionConfig) *OpenAI {
	return &OpenAI{
		client: NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL),
		model:  modelOr(cfg.Model, DefaultOpenAIModel),
	}
}

func (o *OpenAI) Name() string { return "openai" }

// Model returns the configured model id.
func (o *OpenAI) Model() string { return o.model }

// Complete sends prompt as a single user message.
func (o *OpenAI) Complete(ctx context.Context, prompt string) (string, error) {
	res, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", domain.WrapProviderError(ctx, o.Name(), "complete", err)
	}
	if len(res.Choices) == 0 {
		return "", domain.NewProviderError(o.Name(), "complete", ErrEmptyCompletion)
	}
	return res.Choices[0].Message.Content, nil
}
