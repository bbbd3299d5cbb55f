// Package services – VoiceService
//
// VoiceService owns POST /voice: capture one utterance, complete it and
// append the pair to the session log. Voice turns are never persisted.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tbourn/go-voice-chat/internal/domain"
	"github.com/tbourn/go-voice-chat/internal/observability"
	"github.com/tbourn/go-voice-chat/internal/provider"
	"github.com/tbourn/go-voice-chat/internal/sessionlog"
)

// Listener captures and transcribes one utterance.
type Listener interface {
	Listen(ctx context.Context) (string, error)
}

// VoiceService runs voice turns.
type VoiceService struct {
	Listener  Listener
	Completer provider.Completer
	Log       *sessionlog.Log

	SpeechTimeout     time.Duration
	CompletionTimeout time.Duration
}

// Ask listens for a question and returns the (transcript, completion) pair.
func (s *VoiceService) Ask(ctx context.Context) (*domain.LogEntry, error) {
	ctx, span := observability.Tracer("services/VoiceService").Start(ctx, "Ask")
	defer span.End()

	text, err := s.listen(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrDeviceBusy) {
			observability.IncDeviceBusy()
		}
		return nil, fail(span, err)
	}
	span.SetAttributes(attribute.Int("transcript.len", len(text)))

	reply, err := completeWithTimeout(ctx, s.Completer, text, s.CompletionTimeout)
	if err != nil {
		return nil, fail(span, err)
	}

	s.Log.Append(text, reply)
	observability.IncTurn("voice")
	return &domain.LogEntry{User: text, AI: reply}, nil
}

func (s *VoiceService) listen(ctx context.Context) (string, error) {
	if s.SpeechTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.SpeechTimeout)
		defer cancel()
	}
	start := time.Now()
	text, err := s.Listener.Listen(ctx)

	var pe *domain.ProviderError
	if err == nil || errors.As(err, &pe) {
		observability.ObserveProviderCall("speech", "transcribe", start, err)
	}
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("voice capture failed")
	}
	return text, err
}
