package provider

import (
	"context"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/tbourn/go-voice-chat/internal/config"
	"github.com/tbourn/go-voice-chat/internal/domain"
)

// DefaultOllamaModel is used when COMPLETION_MODEL is empty.
const DefaultOllamaModel = "llama3"

// Ollama completes prompts against a local Ollama server.
type Ollama struct {
	llm   llms.Model
	model string
}

// NewOllama returns a Completer for cfg.OllamaBaseURL.
func NewOllama(cfg config.CompletionConfig) (*Ollama, error) {
	model := modelOr(cfg.Model, DefaultOllamaModel)
	llm, err := ollama.New(
		ollama.WithServerURL(cfg.OllamaBaseURL),
		ollama.WithModel(model),
	)
	if err != nil {
		return nil, domain.NewProviderError("ollama", "init", err)
	}
	return &Ollama{llm: llm, model: model}, nil
}

func (o *Ollama) Name() string { return "ollama" }

// Model returns the configured model id.
func (o *Ollama) Model() string { return o.model }

// Complete sends prompt as a single human message.
func (o *Ollama) Complete(ctx context.Context, prompt string) (string, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, o.llm, prompt)
	if err != nil {
		return "", domain.WrapProviderError(ctx, o.Name(), "complete", err)
	}
	return out, nil
}
