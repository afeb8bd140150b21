package repository

import (
	"context"
	"time"
)

// TranscriptRecord is one archived kernel output line
type TranscriptRecord struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	Stream     string    `json:"stream"`
	Text       string    `json:"text"`
	EventKind  string    `json:"event_kind,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

// TranscriptStore persists transcript records
type TranscriptStore interface {
	// Write operations
	AppendLines(ctx context.Context, records []TranscriptRecord) error

	// Read operations
	Recent(ctx context.Context, limit int) ([]TranscriptRecord, error)
	CountBySession(ctx context.Context, sessionID string) (int, error)

	// Close releases resources
	Close() error
}
