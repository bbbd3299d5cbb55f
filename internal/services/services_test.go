package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-voice-chat/internal/domain"
	"github.com/tbourn/go-voice-chat/internal/repo"
)

// ----- Fakes -----

type fakeCompleter struct {
	mu      sync.Mutex
	reply   string
	err     error
	block   bool // wait for ctx to expire
	prompts []string
}

func (f *fakeCompleter) Name() string { return "fake-llm" }

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if f.err != nil {
		return "", domain.NewProviderError("fake-llm", "complete", f.err)
	}
	return f.reply, nil
}

func (f *fakeCompleter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type fakeTranslator struct {
	mu      sync.Mutex
	out     map[string]string // target -> output; falls back to input
	err     error
	targets []string
}

func (f *fakeTranslator) Name() string { return "fake-tr" }

func (f *fakeTranslator) Translate(_ context.Context, text, target string) (string, error) {
	f.mu.Lock()
	f.targets = append(f.targets, target)
	f.mu.Unlock()
	if f.err != nil {
		return "", domain.NewProviderError("fake-tr", "translate", f.err)
	}
	if v, ok := f.out[target]; ok {
		return v, nil
	}
	return text, nil
}

func (f *fakeTranslator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.targets)
}

type fakeListener struct {
	text string
	err  error
}

func (f *fakeListener) Listen(context.Context) (string, error) { return f.text, f.err }

// ----- Helpers -----

func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func countRows(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	n, err := repo.CountTurns(context.Background(), db)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func isProviderTimeout(err error) bool {
	var pe *domain.ProviderError
	return errors.As(err, &pe) && pe.Timeout()
}

// newFileServiceDB opens a WAL database on disk for concurrency tests.
func newFileServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "chat_history.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
