package server

import (
	"context"
	"log"
	"time"

	"github.com/openlms/ispring-play/internal/services/play/domain/session"
	"github.com/openlms/ispring-play/internal/services/play/storage"
)

// Emitter records operational events about session lifecycle. Emission is
// best effort; a failed append is logged and never fails the operation that
// produced it.
type Emitter struct {
	store storage.TelemetryStore
	now   func() time.Time
}

// NewEmitter creates an emitter over the provided telemetry store. A nil
// store disables emission.
func NewEmitter(store storage.TelemetryStore, now func() time.Time) *Emitter {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Emitter{store: store, now: now}
}

// SessionEnded records that a session reached a terminal status. Grade
// consumers listen for this event to recompute aggregates.
func (e *Emitter) SessionEnded(ctx context.Context, sess session.Session, moduleID string) {
	if e == nil || e.store == nil {
		return
	}
	attributes := map[string]any{
		"status":      sess.Status.String(),
		"duration_ms": sess.Duration.Milliseconds(),
	}
	if sess.Score != nil {
		attributes["score"] = *sess.Score
	}
	e.emit(ctx, storage.TelemetryEvent{
		EventName:  "play.session.ended",
		Severity:   "info",
		SessionID:  sess.ID,
		ContentID:  sess.ContentID,
		ModuleID:   moduleID,
		UserID:     sess.UserID,
		Timestamp:  e.now(),
		Attributes: attributes,
	})
}

// SessionsDeleted records a bulk session removal under one content version.
func (e *Emitter) SessionsDeleted(ctx context.Context, contentID string, removed int64) {
	if e == nil || e.store == nil {
		return
	}
	e.emit(ctx, storage.TelemetryEvent{
		EventName: "play.sessions.deleted",
		Severity:  "info",
		ContentID: contentID,
		Timestamp: e.now(),
		Attributes: map[string]any{
			"removed": removed,
		},
	})
}

func (e *Emitter) emit(ctx context.Context, event storage.TelemetryEvent) {
	if err := e.store.AppendTelemetryEvent(ctx, event); err != nil {
		log.Printf("append telemetry event %s: %v", event.EventName, err)
	}
}
