package speech

import (
	"context"
	"os"

	openai "github.com/openai/openai-go"

	"github.com/tbourn/go-voice-chat/internal/domain"
)

// WhisperTranscriber transcribes with the OpenAI audio transcription API.
type WhisperTranscriber struct {
	Client   openai.Client
	Model    string
	Language string // ISO-639-1 hint; empty lets the API detect it
}

// Transcribe uploads the WAV file at path.
func (w *WhisperTranscriber) Transcribe(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", domain.NewRecognitionError(err)
	}
	defer f.Close()

	params := openai.AudioTranscriptionNewParams{
		File:  f,
		Model: w.Model,
	}
	if w.Language != "" {
		params.Language = openai.String(w.Language)
	}
	res, err := w.Client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", domain.WrapProviderError(ctx, "openai", "transcribe", err)
	}
	return res.Text, nil
}
