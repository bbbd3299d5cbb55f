package domain

import (
	"context"
	"errors"
	"fmt"
)

// Speech capture sentinels. They are wrapped in a RecognitionError.
var (
	// ErrDeviceBusy is returned when another request currently owns the
	// microphone.
	ErrDeviceBusy = errors.New("audio device is busy")

	// ErrNoSpeech is returned when the recognizer produced an empty transcript.
	ErrNoSpeech = errors.New("could not understand audio")
)

// ProviderError reports a failure from a remote provider: completion,
// translation, or transcription. Auth failures, quota errors, network
// failures and malformed upstream responses all land here.
type ProviderError struct {
	Provider string // e.g. "openai", "google"
	Op       string // e.g. "complete", "translate", "transcribe"
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Timeout reports whether the provider call was cut short by its deadline.
func (e *ProviderError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// NewProviderError wraps err unless it is nil or already a ProviderError.
func NewProviderError(provider, op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return &ProviderError{Provider: provider, Op: op, Err: err}
}

// RecognitionError reports a speech capture or transcription failure: no
// device, a capture that failed or timed out, or unintelligible audio.
type RecognitionError struct {
	Err error
}

func (e *RecognitionError) Error() string {
	return "speech recognition failed: " + e.Err.Error()
}

func (e *RecognitionError) Unwrap() error { return e.Err }

// NewRecognitionError wraps err unless it is nil or already a RecognitionError.
func NewRecognitionError(err error) error {
	if err == nil {
		return nil
	}
	var re *RecognitionError
	if errors.As(err, &re) {
		return err
	}
	return &RecognitionError{Err: err}
}

// StorageError reports a database read or write failure.
type StorageError struct {
	Op  string // e.g. "insert", "recent"
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// WrapProviderError is NewProviderError for calls made under ctx: when the
// context has already expired, its error is joined in so Timeout and
// errors.Is(err, context.DeadlineExceeded) hold even if the client library
// reported the failure differently. An existing ProviderError is re-labelled
// with its own provider and op.
func WrapProviderError(ctx context.Context, provider, op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		provider, op, err = pe.Provider, pe.Op, pe.Err
	}
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		err = fmt.Errorf("%w: %w", ctxErr, err)
	}
	return &ProviderError{Provider: provider, Op: op, Err: err}
}
