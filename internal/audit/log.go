// Package audit keeps a bounded in-memory record of every access decision
// and gate evaluation, readable only by the top-executive role.
package audit

import (
	"sync"
	"time"

	"github.com/memhive/memhive/internal/identity"
)

// DefaultCapacity bounds the ring buffer when no explicit capacity is given.
const DefaultCapacity = 1000

// Status marks the outcome recorded in an entry.
type Status string

const (
	StatusGranted Status = "GRANTED"
	StatusDenied  Status = "DENIED"
)

// Entry is one recorded gate or engine decision.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Principal string    `json:"principal"`
	Resource  string    `json:"resource"`
	Status    Status    `json:"status"`
	Reason    string    `json:"reason"`
}

// Log is an append-only sliding window: once capacity is reached, each append
// evicts the oldest entry. It is safe for concurrent use.
type Log struct {
	mu       sync.Mutex
	entries  []Entry
	capacity int
	appended uint64
}

// NewLog constructs a Log. Non-positive capacities fall back to
// DefaultCapacity.
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{capacity: capacity}
}

// Record appends one decision for the given principal. A nil principal is
// recorded as anonymous.
func (l *Log) Record(p *identity.Principal, resource string, granted bool, reason string) {
	status := StatusDenied
	if granted {
		status = StatusGranted
	}
	l.Append(Entry{
		Timestamp: time.Now().UTC(),
		Principal: p.Display(),
		Resource:  resource,
		Status:    status,
		Reason:    reason,
	})
}

// Append adds an entry, evicting the oldest when the window is full.
func (l *Log) Append(e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
	if len(l.entries) > l.capacity {
		overflow := len(l.entries) - l.capacity
		l.entries = append(l.entries[:0:0], l.entries[overflow:]...)
	}
	l.appended++
}

// Read returns a copy of the window in call order. Principals other than the
// top executive receive an empty result, not an error.
func (l *Log) Read(p *identity.Principal) []Entry {
	if p == nil || !p.Role.IsTopExecutive() {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Clear empties the window. For any principal other than the top executive it
// is a no-op.
func (l *Log) Clear(p *identity.Principal) {
	if p == nil || !p.Role.IsTopExecutive() {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}

// Len reports the number of retained entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// SnapshotSince returns the retained entries appended after the given
// sequence number together with the current sequence. It lets the background
// flusher persist new entries without disturbing the window; it is not part
// of the principal-facing API.
func (l *Log) SnapshotSince(seq uint64) ([]Entry, uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if seq >= l.appended {
		return nil, l.appended
	}
	fresh := l.appended - seq
	if fresh > uint64(len(l.entries)) {
		fresh = uint64(len(l.entries))
	}
	out := make([]Entry, fresh)
	copy(out, l.entries[uint64(len(l.entries))-fresh:])
	return out, l.appended
}
