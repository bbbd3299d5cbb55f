// Package sessionlog holds the process-lifetime conversation log served by
// GET /log. It is in-memory only: entries are lost on restart and are never
// reloaded from the database.
//
// The log is safe for concurrent use. Appends are serialized and every reader
// sees either all or none of a given entry. When a capacity is configured the
// log behaves as a ring: the oldest entries are dropped once it is full.
package sessionlog

import (
	"sync"

	"github.com/tbourn/go-voice-chat/internal/domain"
)

// Log is an append-only, optionally bounded, list of (user, ai) entries.
type Log struct {
	mu       sync.RWMutex
	entries  []domain.LogEntry
	start    int // index of the oldest entry when the ring has wrapped
	capacity int // 0 = unbounded
	seq      uint64
}

// New returns an empty Log. A capacity of 0 (or less) means unbounded.
func New(capacity int) *Log {
	if capacity < 0 {
		capacity = 0
	}
	l := &Log{capacity: capacity}
	if capacity > 0 {
		l.entries = make([]domain.LogEntry, 0, capacity)
	}
	return l
}

// Append records one entry and returns the new append sequence number.
func (l *Log) Append(user, ai string) uint64 {
	e := domain.LogEntry{User: user, AI: ai}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.capacity > 0 && len(l.entries) == l.capacity {
		l.entries[l.start] = e
		l.start = (l.start + 1) % l.capacity
	} else {
		l.entries = append(l.entries, e)
	}
	l.seq++
	return l.seq
}

// All returns a copy of the entries in append order (oldest first).
func (l *Log) All() []domain.LogEntry {
	out, _ := l.Snapshot()
	return out
}

// Snapshot returns a copy of the entries together with the sequence number
// they correspond to, taken under a single read lock.
func (l *Log) Snapshot() ([]domain.LogEntry, uint64) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.LogEntry, 0, len(l.entries))
	out = append(out, l.entries[l.start:]...)
	out = append(out, l.entries[:l.start]...)
	return out, l.seq
}

// Seq returns the number of appends performed so far. It only grows, even
// after the ring starts evicting, which makes it usable as a cache validator.
func (l *Log) Seq() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.seq
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Capacity returns the configured bound, 0 when unbounded.
func (l *Log) Capacity() int { return l.capacity }
