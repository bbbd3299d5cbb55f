package speech

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/tbourn/go-voice-chat/internal/domain"
)

// OutPlaceholder marks where the WAV output path goes in a record command.
const OutPlaceholder = "{out}"

// wavHeaderSize is the canonical RIFF/WAVE header length; a file no larger
// than this holds no samples.
const wavHeaderSize = 44

// waitDelay bounds how long a killed capture may hold its output pipes.
const waitDelay = 2 * time.Second

// ErrNoDevice is returned when the capture program is not installed.
var ErrNoDevice = errors.New("audio capture program not available")

// CommandRecorder runs an external program to capture audio.
type CommandRecorder struct {
	// Args is the command line; one element must be OutPlaceholder.
	Args []string
	// TempDir holds recordings; the OS temp dir when empty.
	TempDir string
}

// NewCommandRecorder splits command on whitespace.
func NewCommandRecorder(command string) (*CommandRecorder, error) {
	args := strings.Fields(command)
	if len(args) == 0 {
		return nil, errors.New("record command is empty")
	}
	if !strings.Contains(command, OutPlaceholder) {
		return nil, fmt.Errorf("record command must contain %s", OutPlaceholder)
	}
	return &CommandRecorder{Args: args}, nil
}

// Record runs the command until it exits or ctx is done.
func (r *CommandRecorder) Record(ctx context.Context) (string, func(), error) {
	f, err := os.CreateTemp(r.TempDir, "utterance-*.wav")
	if err != nil {
		return "", nil, fmt.Errorf("create recording file: %w", err)
	}
	path := f.Name()
	_ = f.Close()
	cleanup := func() { _ = os.Remove(path) }

	args := make([]string, len(r.Args))
	for i, a := range r.Args {
		args[i] = strings.ReplaceAll(a, OutPlaceholder, path)
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.WaitDelay = waitDelay
	if out, err := cmd.CombinedOutput(); err != nil {
		cleanup()
		switch {
		case ctx.Err() != nil:
			return "", nil, fmt.Errorf("capture interrupted: %w", ctx.Err())
		case errors.Is(err, exec.ErrNotFound):
			return "", nil, fmt.Errorf("%w: %s", ErrNoDevice, args[0])
		default:
			return "", nil, fmt.Errorf("capture failed: %w: %s", err, strings.TrimSpace(string(out)))
		}
	}

	st, err := os.Stat(path)
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("capture produced no file: %w", err)
	}
	if st.Size() <= wavHeaderSize {
		cleanup()
		return "", nil, domain.ErrNoSpeech
	}
	return path, cleanup, nil
}
