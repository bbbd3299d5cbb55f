// Package speech captures one utterance from the local microphone and turns
// it into text.
//
// The pipeline has three parts:
//
//   - Recorder runs an external capture command (sox by default) that stops
//     at the first natural pause and writes a WAV file.
//   - Transcriber sends that file to a speech-to-text API.
//   - Listener combines both behind an exclusive device guard, because only
//     one capture can own the microphone at a time.
//
// Capture problems (no device, command failure, deadline, silence) are
// reported as *domain.RecognitionError. Upstream transcription failures are
// reported as *domain.ProviderError.
package speech

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-voice-chat/internal/domain"
)

// Recorder captures a single utterance and returns the path of a WAV file.
// The caller must invoke cleanup once the file is no longer needed.
type Recorder interface {
	Record(ctx context.Context) (path string, cleanup func(), err error)
}

// Transcriber converts a recorded audio file to text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// Listener is the blocking listen-and-transcribe entry point used by
// POST /voice.
type Listener struct {
	Recorder    Recorder
	Transcriber Transcriber
	Guard       *DeviceGuard
}

// NewListener wires a Listener whose device guard waits at most micWait.
func NewListener(rec Recorder, tr Transcriber, micWait time.Duration) *Listener {
	return &Listener{Recorder: rec, Transcriber: tr, Guard: NewDeviceGuard(micWait)}
}

// Listen takes the microphone, records until a pause, releases the device and
// transcribes. It fails with domain.ErrDeviceBusy (wrapped) when another
// capture holds the device past the guard's wait.
func (l *Listener) Listen(ctx context.Context) (string, error) {
	release, err := l.Guard.Acquire(ctx)
	if err != nil {
		return "", domain.NewRecognitionError(err)
	}

	log.Ctx(ctx).Info().Msg("listening")
	path, cleanup, err := l.Recorder.Record(ctx)
	release()
	if err != nil {
		return "", domain.NewRecognitionError(err)
	}
	defer cleanup()

	text, err := l.Transcriber.Transcribe(ctx, path)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", domain.NewRecognitionError(domain.ErrNoSpeech)
	}
	log.Ctx(ctx).Info().Str("text", text).Msg("recognized")
	return text, nil
}
