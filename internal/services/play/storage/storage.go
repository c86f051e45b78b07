// Package storage defines the persistence interfaces for the play service.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/openlms/ispring-play/internal/services/play/domain/grading"
	"github.com/openlms/ispring-play/internal/services/play/domain/session"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrSessionEnded indicates a write raced against a session that already
	// reached a terminal status.
	ErrSessionEnded = errors.New("session already ended")
)

// ContentRecord is the collaborator view of an uploaded package version.
type ContentRecord struct {
	ID        string
	ModuleID  string
	Version   int64
	CreatedAt time.Time
}

// ModuleRecord is the collaborator view of a course activity configuration.
type ModuleRecord struct {
	ID          string
	Name        string
	GradeMethod grading.Method
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SessionPage is one page of a session report listing.
type SessionPage struct {
	Sessions      []session.Session
	NextPageToken string
}

// ReportQuery selects sessions for instructor reporting.
type ReportQuery struct {
	ModuleID string
	// Filter is an AIP-160 filter expression over session fields
	// (user_id, content_id, status, score, began_at). Empty matches all.
	Filter    string
	PageSize  int
	PageToken string
}

// TelemetryEvent records one operational event emitted by the service.
type TelemetryEvent struct {
	EventName  string
	Severity   string
	SessionID  string
	ContentID  string
	ModuleID   string
	UserID     string
	Timestamp  time.Time
	Attributes map[string]any
}

// SessionStore persists playback session rows.
type SessionStore interface {
	// AddSession inserts a new session row.
	AddSession(ctx context.Context, sess session.Session) error
	// UpdateSession overwrites the mutable playback fields of an open
	// session. Returns ErrNotFound for unknown ids and ErrSessionEnded
	// when the row already carries a terminal status.
	UpdateSession(ctx context.Context, sess session.Session) error
	// EndSession writes the terminal status and score fields. The write is
	// conditional on the row still being open so concurrent enders race
	// safely; the loser observes ErrSessionEnded.
	EndSession(ctx context.Context, sess session.Session) error
	// DeleteSessionsByContent removes every session of a content version
	// and reports how many rows were removed. Removing zero is not an error.
	DeleteSessionsByContent(ctx context.Context, contentID string) (int64, error)
}

// SessionQueryStore is the read side used by grading and the player.
// Implementations must not mutate session rows.
type SessionQueryStore interface {
	GetSession(ctx context.Context, id string) (session.Session, error)
	SessionExists(ctx context.Context, id string) (bool, error)
	// GetLastSessionByContent returns the most recently begun session of a
	// user for one content version, used to restore resumable player state.
	GetLastSessionByContent(ctx context.Context, contentID, userID string) (session.Session, error)
	// GetLastSessionByModule returns the most recently begun session of a
	// user across every content version of a module.
	GetLastSessionByModule(ctx context.Context, moduleID, userID string) (session.Session, error)
	// ListAttemptsByContent returns a user's attempts for one content
	// version, scored and unscored alike, ordered by begin time.
	ListAttemptsByContent(ctx context.Context, contentID, userID string) ([]grading.Attempt, error)
	// ListAttemptsByModule groups a user's attempts per content version of
	// a module, ordered by content version then begin time.
	ListAttemptsByModule(ctx context.Context, moduleID, userID string) ([]grading.ContentAttempts, error)
	// PassingRequirementsWereUpdated reports whether any session under the
	// given contents carries recorded passing/score fields. userID narrows
	// the check to one learner when non-empty.
	PassingRequirementsWereUpdated(ctx context.Context, contentIDs []string, userID string) (bool, error)
	// ListSessionReport pages sessions of a module for instructor reports.
	ListSessionReport(ctx context.Context, query ReportQuery) (SessionPage, error)
}

// ContentStore is the collaborator lookup for uploaded package versions.
type ContentStore interface {
	PutContent(ctx context.Context, record ContentRecord) error
	GetContent(ctx context.Context, id string) (ContentRecord, error)
	DeleteContent(ctx context.Context, id string) error
}

// ModuleStore is the collaborator lookup for course activity configuration.
type ModuleStore interface {
	PutModule(ctx context.Context, record ModuleRecord) error
	GetModule(ctx context.Context, id string) (ModuleRecord, error)
	DeleteModule(ctx context.Context, id string) error
}

// TelemetryStore persists operational telemetry events.
type TelemetryStore interface {
	AppendTelemetryEvent(ctx context.Context, event TelemetryEvent) error
}
