package translate

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/tbourn/go-voice-chat/internal/config"
	"github.com/tbourn/go-voice-chat/internal/domain"
)

// Libre translates with a LibreTranslate server.
type Libre struct {
	client *resty.Client
	apiKey string
}

type libreRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type libreResponse struct {
	TranslatedText string `json:"translatedText"`
}

type libreError struct {
	Error string `json:"error"`
}

// NewLibre builds a client for cfg.LibreURL.
func NewLibre(cfg config.TranslateConfig) *Libre {
	return &Libre{
		client: resty.New().
			SetBaseURL(cfg.LibreURL).
			SetHeader("Accept", "application/json"),
		apiKey: cfg.LibreAPIKey,
	}
}

func (l *Libre) Name() string { return "libretranslate" }

// Translate posts to /translate with automatic source detection.
func (l *Libre) Translate(ctx context.Context, text, target string) (string, error) {
	var (
		out    libreResponse
		apiErr libreError
	)
	res, err := l.client.R().
		SetContext(ctx).
		SetBody(libreRequest{Q: text, Source: "auto", Target: target, Format: "text", APIKey: l.apiKey}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/translate")
	if err != nil {
		return "", domain.WrapProviderError(ctx, l.Name(), "translate", err)
	}
	if !res.IsSuccess() {
		msg := apiErr.Error
		if msg == "" {
			msg = res.Status()
		}
		return "", domain.NewProviderError(l.Name(), "translate", fmt.Errorf("status %d: %s", res.StatusCode(), msg))
	}
	if out.TranslatedText == "" && text != "" {
		return "", domain.NewProviderError(l.Name(), "translate", ErrEmptyTranslation)
	}
	return out.TranslatedText, nil
}
