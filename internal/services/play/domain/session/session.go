package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/openlms/ispring-play/internal/platform/errors"
	"github.com/openlms/ispring-play/internal/platform/id"
)

// Status describes the lifecycle state of a playback session.
type Status int

const (
	// StatusUnspecified represents an invalid session status value.
	StatusUnspecified Status = iota
	// StatusNotStarted indicates the player has created the session but not begun playback.
	StatusNotStarted
	// StatusInProgress indicates the learner is actively playing the content.
	StatusInProgress
	// StatusCompleted indicates the learner finished the content.
	StatusCompleted
	// StatusIncomplete indicates the learner ended playback without finishing.
	StatusIncomplete
	// StatusPassed indicates the learner finished and met the passing score.
	StatusPassed
	// StatusFailed indicates the learner finished without meeting the passing score.
	StatusFailed
)

// String returns the canonical wire/storage name of the status.
func (s Status) String() string {
	switch s {
	case StatusNotStarted:
		return "not_started"
	case StatusInProgress:
		return "in_progress"
	case StatusCompleted:
		return "completed"
	case StatusIncomplete:
		return "incomplete"
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	default:
		return "unspecified"
	}
}

// ParseStatus maps a canonical status name back to its Status value.
func ParseStatus(value string) (Status, error) {
	switch strings.TrimSpace(value) {
	case "not_started":
		return StatusNotStarted, nil
	case "in_progress":
		return StatusInProgress, nil
	case "completed":
		return StatusCompleted, nil
	case "incomplete":
		return StatusIncomplete, nil
	case "passed":
		return StatusPassed, nil
	case "failed":
		return StatusFailed, nil
	default:
		return StatusUnspecified, errors.WithMetadata(
			errors.CodeSessionInvalidStatus,
			fmt.Sprintf("unknown session status %q", value),
			map[string]string{"Status": value},
		)
	}
}

// IsTerminal reports whether the status ends the session lifecycle.
// A terminal session accepts no further updates.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusIncomplete, StatusPassed, StatusFailed:
		return true
	default:
		return false
	}
}

// IsOpen reports whether the status permits playback updates.
func (s Status) IsOpen() bool {
	return s == StatusNotStarted || s == StatusInProgress
}

// Session represents one learner's playback attempt against a content version.
type Session struct {
	ID        string
	ContentID string
	UserID    string
	Status    Status

	// PersistState and SuspendData are opaque resumable player payloads.
	// PersistStateID versions the persist state so the player can detect
	// stale resume data.
	PersistStateID string
	PersistState   string
	SuspendData    string

	// Duration is the accumulated playback time as reported by the player.
	Duration time.Duration

	BeganAt   time.Time
	UpdatedAt time.Time

	// Score fields are written once, at session end. nil means the player
	// never reported a value; zero is a real score.
	MaxScore     *float64
	MinScore     *float64
	PassingScore *float64
	Score        *float64

	DetailedReport string
}

// StartInput describes the data needed to start a session.
type StartInput struct {
	ContentID    string
	UserID       string
	PersistState string
	// Status optionally overrides the initial open status.
	// Zero value starts the session as not_started.
	Status Status
}

// Start creates a new session in an open state with a generated ID.
func Start(input StartInput, now func() time.Time, idGenerator func() (string, error)) (Session, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	input.ContentID = strings.TrimSpace(input.ContentID)
	if input.ContentID == "" {
		return Session{}, errors.New(errors.CodeSessionEmptyContentID, "content id is required")
	}
	input.UserID = strings.TrimSpace(input.UserID)
	if input.UserID == "" {
		return Session{}, errors.New(errors.CodeSessionEmptyUserID, "user id is required")
	}

	status := input.Status
	if status == StatusUnspecified {
		status = StatusNotStarted
	}
	if !status.IsOpen() {
		return Session{}, errors.WithMetadata(
			errors.CodeSessionInvalidStatus,
			fmt.Sprintf("session cannot start in status %s", status),
			map[string]string{"Status": status.String()},
		)
	}

	sessionID, err := idGenerator()
	if err != nil {
		return Session{}, fmt.Errorf("generate session id: %w", err)
	}

	createdAt := now().UTC()
	return Session{
		ID:           sessionID,
		ContentID:    input.ContentID,
		UserID:       input.UserID,
		Status:       status,
		PersistState: input.PersistState,
		BeganAt:      createdAt,
		UpdatedAt:    createdAt,
	}, nil
}

// UpdateInput carries playback progress reported by the player mid-session.
//
// Duration is the caller-computed absolute playback time, not a delta; the
// session stores exactly what it is given. Persist state follows
// last-write-wins between concurrent player tabs.
type UpdateInput struct {
	Duration       time.Duration
	PersistStateID string
	PersistState   string
	SuspendData    string
	// Status optionally moves the session between open sub-states
	// (not_started to in_progress). Zero value keeps the current status.
	Status Status
}

// ApplyUpdate returns a copy of the session with playback progress applied.
// Updating a terminal session fails with an invalid-state error.
func (s Session) ApplyUpdate(input UpdateInput, now func() time.Time) (Session, error) {
	if now == nil {
		now = time.Now
	}

	if s.Status.IsTerminal() {
		return Session{}, errors.WithMetadata(
			errors.CodeSessionAlreadyEnded,
			fmt.Sprintf("session %s already ended with status %s", s.ID, s.Status),
			map[string]string{"SessionID": s.ID, "Status": s.Status.String()},
		)
	}
	if input.Duration < 0 {
		return Session{}, errors.New(errors.CodeSessionNegativeDuration, "duration cannot be negative")
	}
	if input.Status != StatusUnspecified {
		if !input.Status.IsOpen() {
			return Session{}, errors.WithMetadata(
				errors.CodeSessionInvalidStatus,
				fmt.Sprintf("update cannot move session to status %s", input.Status),
				map[string]string{"Status": input.Status.String()},
			)
		}
		s.Status = input.Status
	}

	s.Duration = input.Duration
	s.PersistStateID = input.PersistStateID
	s.PersistState = input.PersistState
	if input.SuspendData != "" {
		s.SuspendData = input.SuspendData
	}
	s.UpdatedAt = now().UTC()
	return s, nil
}

// EndInput carries the terminal status and final score fields for a session.
type EndInput struct {
	Status         Status
	MaxScore       *float64
	MinScore       *float64
	PassingScore   *float64
	Score          *float64
	DetailedReport string
}

// End returns a copy of the session moved to a terminal status with score
// fields written. Ending an already-ended session fails with an invalid-state
// error; an unrecognized terminal status or inconsistent score bounds fail
// with validation errors.
func (s Session) End(input EndInput, now func() time.Time) (Session, error) {
	if now == nil {
		now = time.Now
	}

	if s.Status.IsTerminal() {
		return Session{}, errors.WithMetadata(
			errors.CodeSessionAlreadyEnded,
			fmt.Sprintf("session %s already ended with status %s", s.ID, s.Status),
			map[string]string{"SessionID": s.ID, "Status": s.Status.String()},
		)
	}
	if !input.Status.IsTerminal() {
		return Session{}, errors.WithMetadata(
			errors.CodeSessionStatusNotTerminal,
			fmt.Sprintf("status %s cannot end a session", input.Status),
			map[string]string{"Status": input.Status.String()},
		)
	}
	if err := validateScoreBounds(input); err != nil {
		return Session{}, err
	}

	s.Status = input.Status
	s.MaxScore = input.MaxScore
	s.MinScore = input.MinScore
	s.PassingScore = input.PassingScore
	s.Score = input.Score
	s.DetailedReport = input.DetailedReport
	s.UpdatedAt = now().UTC()
	return s, nil
}

// validateScoreBounds enforces min <= score <= max and passing within
// [min, max]. Checks only apply when every involved value is present;
// absent values are not defaulted to zero.
func validateScoreBounds(input EndInput) error {
	if input.MinScore != nil && input.MaxScore != nil && *input.MinScore > *input.MaxScore {
		return errors.WithMetadata(
			errors.CodeSessionInvalidScoreBounds,
			fmt.Sprintf("min score %v exceeds max score %v", *input.MinScore, *input.MaxScore),
			map[string]string{
				"MinScore": formatScore(input.MinScore),
				"MaxScore": formatScore(input.MaxScore),
			},
		)
	}
	if input.Score != nil && input.MinScore != nil && input.MaxScore != nil {
		if *input.Score < *input.MinScore || *input.Score > *input.MaxScore {
			return errors.WithMetadata(
				errors.CodeSessionScoreOutOfBounds,
				fmt.Sprintf("score %v outside [%v, %v]", *input.Score, *input.MinScore, *input.MaxScore),
				map[string]string{
					"Score":    formatScore(input.Score),
					"MinScore": formatScore(input.MinScore),
					"MaxScore": formatScore(input.MaxScore),
				},
			)
		}
	}
	if input.PassingScore != nil && input.MinScore != nil && input.MaxScore != nil {
		if *input.PassingScore < *input.MinScore || *input.PassingScore > *input.MaxScore {
			return errors.WithMetadata(
				errors.CodeSessionPassingScoreOutOfMax,
				fmt.Sprintf("passing score %v outside [%v, %v]", *input.PassingScore, *input.MinScore, *input.MaxScore),
				map[string]string{
					"PassingScore": formatScore(input.PassingScore),
					"MinScore":     formatScore(input.MinScore),
					"MaxScore":     formatScore(input.MaxScore),
				},
			)
		}
	}
	return nil
}

func formatScore(value *float64) string {
	if value == nil {
		return ""
	}
	return fmt.Sprintf("%g", *value)
}
