// Package provider contains the text-completion clients. A Completer sends a
// single user-role prompt to a fixed model and returns the first choice's
// text. Implementations exist for OpenAI, Ollama (through langchaingo) and
// Google Gemini; COMPLETION_PROVIDER picks one at startup through the
// Registry.
//
// Clients never retry. Every failure is reported as *domain.ProviderError so
// the HTTP layer can map it to 502 or, when the deadline fired, 504.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/tbourn/go-voice-chat/internal/config"
)

// Completer turns a prompt into a model reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Name() string
}

// ErrEmptyCompletion is returned when the provider answered without any choice.
var ErrEmptyCompletion = errors.New("provider returned no choices")

// Factory builds a Completer from the completion settings.
type Factory func(ctx context.Context, cfg config.CompletionConfig) (Completer, error)

// Registry maps provider names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry returns a registry with the built-in providers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("openai", func(_ context.Context, cfg config.CompletionConfig) (Completer, error) {
		return NewOpenAI(cfg), nil
	})
	r.Register("ollama", func(_ context.Context, cfg config.CompletionConfig) (Completer, error) {
		return NewOllama(cfg)
	})
	r.Register("gemini", func(ctx context.Context, cfg config.CompletionConfig) (Completer, error) {
		return NewGemini(ctx, cfg)
	})
	return r
}

// Register adds or replaces a factory under name (case-insensitive).
func (r *Registry) Register(name string, f Factory) {
	name = strings.ToLower(strings.TrimSpace(name))
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Get builds the Completer registered under cfg.Provider.
func (r *Registry) Get(ctx context.Context, cfg config.CompletionConfig) (Completer, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Provider))
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown completion provider: %s", name)
	}
	return f(ctx, cfg)
}

// New builds the configured Completer from the default registry.
func New(ctx context.Context, cfg config.CompletionConfig) (Completer, error) {
	return DefaultRegistry().Get(ctx, cfg)
}

func modelOr(model, fallback string) string {
	if m := strings.TrimSpace(model); m != "" {
		return m
	}
	return fallback
}
