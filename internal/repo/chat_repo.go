// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the ChatTurn
// model (the chats table).
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only
// persistence and query composition. Raw gorm errors are propagated; the
// service layer wraps them into domain.StorageError.
//
// Functions:
//
//   - InsertTurn(ctx, db, user, ai) -> *domain.ChatTurn, error
//     Appends one row and returns it with its assigned id.
//
//   - RecentTurns(ctx, db, limit) -> []domain.ChatTurn, error
//     Returns at most limit rows ordered by id descending (newest first).
//
//   - CountTurns(ctx, db) -> int64, error
//     Returns the total number of persisted turns.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-voice-chat/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// InsertTurn appends a (user message, AI response) row. Ids are assigned by
// the database and strictly increase with insertion order.
func InsertTurn(ctx context.Context, db *gorm.DB, userMessage, aiResponse string) (*domain.ChatTurn, error) {
	t := &domain.ChatTurn{UserMessage: userMessage, AIResponse: aiResponse}
	if err := db.WithContext(ctx).Create(t).Error; err != nil {
		return nil, err
	}
	return t, nil
}

// RecentTurns returns up to limit turns, newest first. A non-positive limit
// yields an empty slice without touching the database.
func RecentTurns(ctx context.Context, db *gorm.DB, limit int) ([]domain.ChatTurn, error) {
	if limit <= 0 {
		return []domain.ChatTurn{}, nil
	}
	out := make([]domain.ChatTurn, 0, limit)
	err := db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// GetTurn fetches a single turn by id, or ErrNotFound.
func GetTurn(ctx context.Context, db *gorm.DB, id uint) (*domain.ChatTurn, error) {
	var t domain.ChatTurn
	if err := db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// CountTurns returns the number of rows in the chats table.
func CountTurns(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.ChatTurn{}).Count(&total).Error
	return total, err
}
