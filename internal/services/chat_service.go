// Package services – ChatService
//
// ChatService owns the text turn behind POST /chat:
//
//	complete -> translate -> insert (+ idempotency record) -> append to log
//
// A failure at any step aborts the rest, so no row is written unless both the
// completion and the translation succeeded, and no log entry exists without
// its row. Each outbound call gets its own deadline.
//
// Observability: Send is OpenTelemetry-instrumented and every provider call
// is recorded in the provider metrics.
package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tbourn/go-voice-chat/internal/domain"
	"github.com/tbourn/go-voice-chat/internal/observability"
	"github.com/tbourn/go-voice-chat/internal/provider"
	"github.com/tbourn/go-voice-chat/internal/repo"
	"github.com/tbourn/go-voice-chat/internal/sessionlog"
	"github.com/tbourn/go-voice-chat/internal/translate"
)

// ChatResult is the outcome of a text turn.
type ChatResult struct {
	Turn domain.ChatTurn
	// Replayed is true when the turn was served from an earlier request with
	// the same Idempotency-Key.
	Replayed bool
}

// ChatService runs text turns.
type ChatService struct {
	DB         *gorm.DB
	Log        *sessionlog.Log
	Completer  provider.Completer
	Translator translate.Translator

	CompletionTimeout time.Duration
	TranslateTimeout  time.Duration

	DefaultLanguage string
	MaxMessageRunes int
	IdempotencyTTL  time.Duration
}

// Send completes message, translates the reply into lang (DefaultLanguage
// when empty), persists the turn and appends it to the session log. A
// non-empty idemKey makes the call safe to retry: a live record for the key
// returns the stored turn without side effects.
func (s *ChatService) Send(ctx context.Context, message, lang, idemKey string) (*ChatResult, error) {
	ctx, span := observability.Tracer("services/ChatService").Start(ctx, "Send",
		trace.WithAttributes(
			attribute.Int("message.runes", utf8.RuneCountInString(message)),
			attribute.Bool("idempotent", idemKey != ""),
		),
	)
	defer span.End()

	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}
	if s.MaxMessageRunes > 0 && utf8.RuneCountInString(message) > s.MaxMessageRunes {
		return nil, ErrMessageTooLong
	}
	target, err := s.targetLanguage(lang)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("language", target))

	if idemKey != "" {
		if res, err := s.replay(ctx, idemKey); res != nil || err != nil {
			return res, err
		}
	}

	reply, err := s.complete(ctx, message)
	if err != nil {
		return nil, fail(span, err)
	}
	translated, err := s.translate(ctx, reply, target)
	if err != nil {
		return nil, fail(span, err)
	}

	var turn *domain.ChatTurn
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := repo.InsertTurn(ctx, tx, message, translated)
		if err != nil {
			return err
		}
		if idemKey != "" {
			if _, err := repo.CreateIdempotency(ctx, tx, idemKey, t.ID, http.StatusOK, s.IdempotencyTTL); err != nil {
				return err
			}
		}
		turn = t
		return nil
	})
	if errors.Is(err, repo.ErrDuplicate) {
		// A concurrent request with the same key committed first.
		if res, rerr := s.replay(ctx, idemKey); res != nil || rerr != nil {
			return res, rerr
		}
	}
	if err != nil {
		return nil, fail(span, &domain.StorageError{Op: "insert", Err: err})
	}

	s.Log.Append(turn.UserMessage, turn.AIResponse)
	observability.IncTurn("chat")
	return &ChatResult{Turn: *turn}, nil
}

func (s *ChatService) targetLanguage(lang string) (string, error) {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		lang = s.DefaultLanguage
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return "", ErrInvalidLanguage
	}
	return tag.String(), nil
}

// replay returns the stored turn for a live idempotency record, or (nil, nil)
// when there is none.
func (s *ChatService) replay(ctx context.Context, key string) (*ChatResult, error) {
	rec, err := repo.GetIdempotency(ctx, s.DB, key, time.Now().UTC())
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.StorageError{Op: "idempotency lookup", Err: err}
	}
	turn, err := repo.GetTurn(ctx, s.DB, rec.TurnID)
	if err != nil {
		return nil, &domain.StorageError{Op: "idempotency replay", Err: err}
	}
	observability.IncTurn("replay")
	return &ChatResult{Turn: *turn, Replayed: true}, nil
}

func (s *ChatService) complete(ctx context.Context, prompt string) (string, error) {
	return completeWithTimeout(ctx, s.Completer, prompt, s.CompletionTimeout)
}

func (s *ChatService) translate(ctx context.Context, text, target string) (string, error) {
	if s.TranslateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.TranslateTimeout)
		defer cancel()
	}
	start := time.Now()
	out, err := s.Translator.Translate(ctx, text, target)
	err = domain.WrapProviderError(ctx, s.Translator.Name(), "translate", err)
	observability.ObserveProviderCall(s.Translator.Name(), "translate", start, err)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("target", target).Msg("translation failed")
	}
	return out, err
}

// completeWithTimeout is shared by the text and voice workflows.
func completeWithTimeout(ctx context.Context, c provider.Completer, prompt string, timeout time.Duration) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	start := time.Now()
	out, err := c.Complete(ctx, prompt)
	err = domain.WrapProviderError(ctx, c.Name(), "complete", err)
	observability.ObserveProviderCall(c.Name(), "complete", start, err)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("provider", c.Name()).Msg("completion failed")
	}
	return out, err
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
