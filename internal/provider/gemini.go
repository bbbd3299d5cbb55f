package provider

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/tbourn/go-voice-chat/internal/config"
	"github.com/tbourn/go-voice-chat/internal/domain"
)

// DefaultGeminiModel is used when COMPLETION_MODEL is empty.
const DefaultGeminiModel = "gemini-1.5-flash"

// Gemini completes prompts with Google's Generative Language API.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
}

// NewGemini dials the Gemini API with cfg.GeminiAPIKey.
func NewGemini(ctx context.Context, cfg config.CompletionConfig) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, domain.NewProviderError("gemini", "init", err)
	}
	name := modelOr(cfg.Model, DefaultGeminiModel)
	return &Gemini{client: client, model: client.GenerativeModel(name), name: name}, nil
}

func (g *Gemini) Name() string { return "gemini" }

// Model returns the configured model id.
func (g *Gemini) Model() string { return g.name }

// Close releases the underlying client.
func (g *Gemini) Close() error { return g.client.Close() }

// Complete sends prompt as a single text part and returns the first
// candidate's text.
func (g *Gemini) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", domain.WrapProviderError(ctx, g.Name(), "complete", err)
	}
	text, ok := firstCandidateText(resp)
	if !ok {
		return "", domain.NewProviderError(g.Name(), "complete", ErrEmptyCompletion)
	}
	return text, nil
}

// firstCandidateText concatenates the text parts of the first candidate.
func firstCandidateText(resp *genai.GenerateContentResponse) (string, bool) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", false
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String(), true
}
