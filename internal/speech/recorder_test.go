package speech

import (
	"context"
	"errors"
	"os"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-voice-chat/internal/domain"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("recorder tests use a POSIX shell")
	}
}

func TestNewCommandRecorder_Validates(t *testing.T) {
	_, err := NewCommandRecorder("   ")
	assert.Error(t, err)

	_, err = NewCommandRecorder("arecord out.wav")
	assert.ErrorContains(t, err, OutPlaceholder)

	r, err := NewCommandRecorder("sox -q -d {out} silence 1 0.1 1%")
	require.NoError(t, err)
	assert.Equal(t, []string{"sox", "-q", "-d", "{out}", "silence", "1", "0.1", "1%"}, r.Args)
}

func TestCommandRecorder_Record_WritesFile(t *testing.T) {
	skipOnWindows(t)
	r := &CommandRecorder{Args: []string{"sh", "-c", "head -c 512 /dev/zero > {out}"}, TempDir: t.TempDir()}

	path, cleanup, err := r.Record(context.Background())
	require.NoError(t, err)
	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.EqualValues(t, 512, st.Size())

	cleanup()
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "cleanup must remove the recording")
}

func TestCommandRecorder_Record_HeaderOnlyIsNoSpeech(t *testing.T) {
	skipOnWindows(t)
	r := &CommandRecorder{Args: []string{"sh", "-c", "head -c 44 /dev/zero > {out}"}, TempDir: t.TempDir()}

	_, _, err := r.Record(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoSpeech)
}

func TestCommandRecorder_Record_MissingProgram(t *testing.T) {
	r := &CommandRecorder{Args: []string{"definitely-not-a-recorder-binary", "{out}"}, TempDir: t.TempDir()}

	_, _, err := r.Record(context.Background())
	assert.ErrorIs(t, err, ErrNoDevice)
}

func TestCommandRecorder_Record_CommandFailure(t *testing.T) {
	skipOnWindows(t)
	r := &CommandRecorder{Args: []string{"sh", "-c", "echo no input device >&2; exit 3", "{out}"}, TempDir: t.TempDir()}

	_, _, err := r.Record(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no input device")
}

func TestCommandRecorder_Record_Deadline(t *testing.T) {
	skipOnWindows(t)
	r := &CommandRecorder{Args: []string{"sh", "-c", "exec sleep 5", "{out}"}, TempDir: t.TempDir()}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, _, err := r.Record(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
}
