package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	platformerrors "github.com/openlms/ispring-play/internal/platform/errors"
	"github.com/openlms/ispring-play/internal/services/play/domain/grading"
	"github.com/openlms/ispring-play/internal/services/play/storage"
)

// PutModule inserts or replaces a module configuration row.
func (s *Store) PutModule(ctx context.Context, record storage.ModuleRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	record.ID = strings.TrimSpace(record.ID)
	if record.ID == "" {
		return fmt.Errorf("module id is required")
	}
	if !record.GradeMethod.Valid() {
		return platformerrors.WithMetadata(
			platformerrors.CodeModuleInvalidGradeMethod,
			fmt.Sprintf("grade method %d is not supported", record.GradeMethod),
			map[string]string{"grade_method": fmt.Sprintf("%d", record.GradeMethod)},
		)
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO modules (id, name, grade_method, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    name = excluded.name,
    grade_method = excluded.grade_method,
    updated_at = excluded.updated_at
`, record.ID, record.Name, int64(record.GradeMethod), toMillis(record.CreatedAt), toMillis(record.UpdatedAt))
	if err != nil {
		return fmt.Errorf("put module: %w", err)
	}
	return nil
}

// GetModule returns one module configuration row.
func (s *Store) GetModule(ctx context.Context, id string) (storage.ModuleRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.ModuleRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.ModuleRecord{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return storage.ModuleRecord{}, storage.ErrNotFound
	}

	var (
		record      storage.ModuleRecord
		gradeMethod int64
		createdAt   int64
		updatedAt   int64
	)
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT id, name, grade_method, created_at, updated_at
FROM modules
WHERE id = ?
`, id).Scan(&record.ID, &record.Name, &gradeMethod, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ModuleRecord{}, storage.ErrNotFound
		}
		return storage.ModuleRecord{}, fmt.Errorf("get module: %w", err)
	}
	method, err := grading.ParseMethod(int(gradeMethod))
	if err != nil {
		return storage.ModuleRecord{}, fmt.Errorf("get module: %w", err)
	}
	record.GradeMethod = method
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}

// DeleteModule removes a module row. Content and session rows under it are
// removed by foreign key cascade.
func (s *Store) DeleteModule(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	result, err := s.sqlDB.ExecContext(ctx, "DELETE FROM modules WHERE id = ?", strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("delete module: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete module: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// PutContent inserts or replaces an uploaded package version row.
func (s *Store) PutContent(ctx context.Context, record storage.ContentRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	record.ID = strings.TrimSpace(record.ID)
	record.ModuleID = strings.TrimSpace(record.ModuleID)
	if record.ID == "" {
		return fmt.Errorf("content id is required")
	}
	if record.ModuleID == "" {
		return fmt.Errorf("module id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO contents (id, module_id, version, created_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    module_id = excluded.module_id,
    version = excluded.version
`, record.ID, record.ModuleID, record.Version, toMillis(record.CreatedAt))
	if err != nil {
		return fmt.Errorf("put content: %w", err)
	}
	return nil
}

// GetContent returns one uploaded package version row.
func (s *Store) GetContent(ctx context.Context, id string) (storage.ContentRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.ContentRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.ContentRecord{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return storage.ContentRecord{}, storage.ErrNotFound
	}

	var (
		record    storage.ContentRecord
		createdAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT id, module_id, version, created_at
FROM contents
WHERE id = ?
`, id).Scan(&record.ID, &record.ModuleID, &record.Version, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ContentRecord{}, storage.ErrNotFound
		}
		return storage.ContentRecord{}, fmt.Errorf("get content: %w", err)
	}
	record.CreatedAt = fromMillis(createdAt)
	return record, nil
}

// DeleteContent removes a content row. Session rows under it are removed by
// foreign key cascade.
func (s *Store) DeleteContent(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	result, err := s.sqlDB.ExecContext(ctx, "DELETE FROM contents WHERE id = ?", strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("delete content: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete content: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// AppendTelemetryEvent records one operational event row. Attributes are
// stored as JSON.
func (s *Store) AppendTelemetryEvent(ctx context.Context, event storage.TelemetryEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(event.EventName) == "" {
		return fmt.Errorf("event name is required")
	}

	attributes := "{}"
	if len(event.Attributes) > 0 {
		encoded, err := json.Marshal(event.Attributes)
		if err != nil {
			return fmt.Errorf("encode telemetry attributes: %w", err)
		}
		attributes = string(encoded)
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO telemetry_events (event_name, severity, session_id, content_id, module_id, user_id, timestamp, attributes_json)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, event.EventName, event.Severity, event.SessionID, event.ContentID,
		event.ModuleID, event.UserID, toMillis(event.Timestamp), attributes)
	if err != nil {
		return fmt.Errorf("append telemetry event: %w", err)
	}
	return nil
}
