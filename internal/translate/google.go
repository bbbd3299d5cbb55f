package translate

import (
	"context"

	"google.golang.org/api/option"
	gtranslate "google.golang.org/api/translate/v2"

	"github.com/tbourn/go-voice-chat/internal/config"
	"github.com/tbourn/go-voice-chat/internal/domain"
)

// Google translates with the Cloud Translation v2 REST API.
type Google struct {
	svc *gtranslate.Service
}

// NewGoogle builds the client from cfg.GoogleAPIKey. GoogleBaseURL overrides
// the API endpoint.
func NewGoogle(ctx context.Context, cfg config.TranslateConfig) (*Google, error) {
	opts := []option.ClientOption{option.WithAPIKey(cfg.GoogleAPIKey)}
	if cfg.GoogleBaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.GoogleBaseURL))
	}
	svc, err := gtranslate.NewService(ctx, opts...)
	if err != nil {
		return nil, domain.NewProviderError("google", "init", err)
	}
	return &Google{svc: svc}, nil
}

func (g *Google) Name() string { return "google" }

// Translate detects the source language and returns plain text.
func (g *Google) Translate(ctx context.Context, text, target string) (string, error) {
	resp, err := g.svc.Translations.List([]string{text}, target).
		Format("text").
		Context(ctx).
		Do()
	if err != nil {
		return "", domain.WrapProviderError(ctx, g.Name(), "translate", err)
	}
	if resp == nil || len(resp.Translations) == 0 {
		return "", domain.NewProviderError(g.Name(), "translate", ErrEmptyTranslation)
	}
	return resp.Translations[0].TranslatedText, nil
}
