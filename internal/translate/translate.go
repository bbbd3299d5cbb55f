// Package translate contains the translation clients used by POST /chat.
// TRANSLATE_PROVIDER selects Google Cloud Translation (default),
// LibreTranslate, or "none", which returns the text unchanged and is meant
// for local development.
//
// The remote call is made even when the target equals the source language.
// Failures are reported as *domain.ProviderError.
package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tbourn/go-voice-chat/internal/config"
)

// Translator renders text in the target language (a BCP 47 tag).
type Translator interface {
	Translate(ctx context.Context, text, target string) (string, error)
	Name() string
}

// ErrEmptyTranslation is returned when the service answered without a result.
var ErrEmptyTranslation = errors.New("translation service returned no result")

// New builds the Translator selected by cfg.Provider.
func New(ctx context.Context, cfg config.TranslateConfig) (Translator, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "google":
		return NewGoogle(ctx, cfg)
	case "libretranslate":
		return NewLibre(cfg), nil
	case "none":
		return None{}, nil
	default:
		return nil, fmt.Errorf("unknown translate provider: %s", cfg.Provider)
	}
}

// None is the identity translator.
type None struct{}

func (None) Name() string { return "none" }

func (None) Translate(_ context.Context, text, _ string) (string, error) { return text, nil }
