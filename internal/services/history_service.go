// Package services – HistoryService
//
// HistoryService serves the read-only views: the persisted recent turns
// (GET /history) and the in-memory session log (GET /log), plus the
// validators used for conditional GETs.
package services

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-voice-chat/internal/domain"
	"github.com/tbourn/go-voice-chat/internal/observability"
	"github.com/tbourn/go-voice-chat/internal/repo"
	"github.com/tbourn/go-voice-chat/internal/sessionlog"
	"github.com/tbourn/go-voice-chat/internal/utils"
)

// MaxHistory is the largest number of turns GET /history returns.
const MaxHistory = 10

// HistoryService reads the store and the session log.
type HistoryService struct {
	DB  *gorm.DB
	Log *sessionlog.Log
}

// Recent returns up to limit turns, newest first. limit is clamped to
// [1, MaxHistory]; zero or negative means MaxHistory.
func (s *HistoryService) Recent(ctx context.Context, limit int) ([]domain.ChatTurn, error) {
	limit = utils.ClampLimit(limit, MaxHistory)
	ctx, span := observability.Tracer("services/HistoryService").Start(ctx, "Recent",
		trace.WithAttributes(attribute.Int("limit", limit)),
	)
	defer span.End()

	turns, err := repo.RecentTurns(ctx, s.DB, limit)
	if err != nil {
		return nil, fail(span, &domain.StorageError{Op: "recent", Err: err})
	}
	return turns, nil
}

// HistoryETag returns a weak validator that changes whenever a turn is
// inserted.
func (s *HistoryService) HistoryETag(ctx context.Context) (string, error) {
	count, maxID, err := repo.TurnsStats(ctx, s.DB)
	if err != nil {
		return "", &domain.StorageError{Op: "stats", Err: err}
	}
	return fmt.Sprintf(`W/"history:%d:%d"`, count, maxID), nil
}

// SessionLog returns the log entries in append order and their validator.
func (s *HistoryService) SessionLog() ([]domain.LogEntry, string) {
	entries, seq := s.Log.Snapshot()
	return entries, LogETag(seq)
}

// LogETag formats the session log validator for sequence seq.
func LogETag(seq uint64) string {
	return fmt.Sprintf(`W/"log:%d"`, seq)
}
