package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	platformerrors "github.com/openlms/ispring-play/internal/platform/errors"
	"github.com/openlms/ispring-play/internal/platform/id"
	"github.com/openlms/ispring-play/internal/services/play/domain/session"
	"github.com/openlms/ispring-play/internal/services/play/storage"
)

// Stores groups the persistence collaborators of the play service.
type Stores struct {
	Session   storage.SessionStore
	Query     storage.SessionQueryStore
	Content   storage.ContentStore
	Module    storage.ModuleStore
	Telemetry storage.TelemetryStore
}

// Service orchestrates playback session lifecycle and grading on top of
// the storage collaborators.
type Service struct {
	stores  Stores
	emitter *Emitter
	now     func() time.Time
	newID   func() (string, error)
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithClock overrides the service clock, used by tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides the session id generator, used by tests.
func WithIDGenerator(newID func() (string, error)) ServiceOption {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// NewService creates a play service over the provided stores.
func NewService(stores Stores, opts ...ServiceOption) *Service {
	svc := &Service{
		stores: stores,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  id.NewID,
	}
	for _, opt := range opts {
		opt(svc)
	}
	svc.emitter = NewEmitter(stores.Telemetry, svc.now)
	return svc
}

// StartSession opens a new playback session for a learner against one
// content version.
func (s *Service) StartSession(ctx context.Context, input session.StartInput) (session.Session, error) {
	if s.stores.Content != nil {
		if _, err := s.stores.Content.GetContent(ctx, input.ContentID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return session.Session{}, platformerrors.WithMetadata(
					platformerrors.CodeNotFound,
					fmt.Sprintf("content %s does not exist", input.ContentID),
					map[string]string{"content_id": input.ContentID},
				)
			}
			return session.Session{}, fmt.Errorf("look up content: %w", err)
		}
	}

	sess, err := session.Start(input, s.now, s.newID)
	if err != nil {
		return session.Session{}, err
	}
	if err := s.stores.Session.AddSession(ctx, sess); err != nil {
		return session.Session{}, fmt.Errorf("persist session: %w", err)
	}
	return sess, nil
}

// UpdateSession overwrites the mutable playback fields of an open session.
func (s *Service) UpdateSession(ctx context.Context, sessionID string, input session.UpdateInput) (session.Session, error) {
	current, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return session.Session{}, err
	}

	updated, err := current.ApplyUpdate(input, s.now)
	if err != nil {
		return session.Session{}, err
	}
	if err := s.stores.Session.UpdateSession(ctx, updated); err != nil {
		return session.Session{}, s.explainWriteError(sessionID, err)
	}
	return updated, nil
}

// EndSession transitions an open session to a terminal status and records
// its score fields. On success a session ended event is emitted so grade
// consumers can recompute.
func (s *Service) EndSession(ctx context.Context, sessionID string, input session.EndInput) (session.Session, error) {
	current, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return session.Session{}, err
	}

	ended, err := current.End(input, s.now)
	if err != nil {
		return session.Session{}, err
	}
	if err := s.stores.Session.EndSession(ctx, ended); err != nil {
		return session.Session{}, s.explainWriteError(sessionID, err)
	}

	s.emitter.SessionEnded(ctx, ended, s.moduleIDForContent(ctx, ended.ContentID))
	return ended, nil
}

// moduleIDForContent resolves the owning module of a content version for
// event enrichment. Lookup failures degrade to an empty id.
func (s *Service) moduleIDForContent(ctx context.Context, contentID string) string {
	if s.stores.Content == nil {
		return ""
	}
	record, err := s.stores.Content.GetContent(ctx, contentID)
	if err != nil {
		return ""
	}
	return record.ModuleID
}

// GetSession returns one session by id.
func (s *Service) GetSession(ctx context.Context, sessionID string) (session.Session, error) {
	return s.loadSession(ctx, sessionID)
}

// GetLastSessionByContent returns the learner's most recently begun session
// for a content version, used to restore resumable player state.
func (s *Service) GetLastSessionByContent(ctx context.Context, contentID, userID string) (session.Session, error) {
	sess, err := s.stores.Query.GetLastSessionByContent(ctx, contentID, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return session.Session{}, platformerrors.WithMetadata(
				platformerrors.CodeNotFound,
				fmt.Sprintf("no session for content %s", contentID),
				map[string]string{"content_id": contentID, "user_id": userID},
			)
		}
		return session.Session{}, fmt.Errorf("load last session by content: %w", err)
	}
	return sess, nil
}

// GetLastSessionByModule returns the learner's most recently begun session
// across every content version of a module.
func (s *Service) GetLastSessionByModule(ctx context.Context, moduleID, userID string) (session.Session, error) {
	sess, err := s.stores.Query.GetLastSessionByModule(ctx, moduleID, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return session.Session{}, platformerrors.WithMetadata(
				platformerrors.CodeNotFound,
				fmt.Sprintf("no session for module %s", moduleID),
				map[string]string{"module_id": moduleID, "user_id": userID},
			)
		}
		return session.Session{}, fmt.Errorf("load last session by module: %w", err)
	}
	return sess, nil
}

// ListSessionReport pages the sessions of a module for instructor reports.
func (s *Service) ListSessionReport(ctx context.Context, query storage.ReportQuery) (storage.SessionPage, error) {
	return s.stores.Query.ListSessionReport(ctx, query)
}

// DeleteSessionsByContent removes every session of a content version, for
// example when the hosting course removes the activity. Removing zero
// sessions is not an error.
func (s *Service) DeleteSessionsByContent(ctx context.Context, contentID string) (int64, error) {
	return s.stores.Session.DeleteSessionsByContent(ctx, contentID)
}

func (s *Service) loadSession(ctx context.Context, sessionID string) (session.Session, error) {
	sess, err := s.stores.Query.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return session.Session{}, platformerrors.WithMetadata(
				platformerrors.CodeNotFound,
				fmt.Sprintf("session %s does not exist", sessionID),
				map[string]string{"session_id": sessionID},
			)
		}
		return session.Session{}, fmt.Errorf("load session: %w", err)
	}
	return sess, nil
}

// explainWriteError maps storage sentinels from conditional session writes
// to the typed errors callers act on.
func (s *Service) explainWriteError(sessionID string, err error) error {
	switch {
	case errors.Is(err, storage.ErrSessionEnded):
		return platformerrors.WithMetadata(
			platformerrors.CodeSessionAlreadyEnded,
			fmt.Sprintf("session %s has already ended", sessionID),
			map[string]string{"session_id": sessionID},
		)
	case errors.Is(err, storage.ErrNotFound):
		return platformerrors.WithMetadata(
			platformerrors.CodeNotFound,
			fmt.Sprintf("session %s does not exist", sessionID),
			map[string]string{"session_id": sessionID},
		)
	default:
		return fmt.Errorf("persist session: %w", err)
	}
}
