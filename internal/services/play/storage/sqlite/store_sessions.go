package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openlms/ispring-play/internal/services/play/domain/session"
	"github.com/openlms/ispring-play/internal/services/play/storage"
)

const sessionColumns = "s.id, s.content_id, s.user_id, s.status, s.persist_state_id, s.persist_state, s.suspend_data, s.duration_ms, s.began_at, s.updated_at, s.max_score, s.min_score, s.passing_score, s.score, s.detailed_report"

// AddSession inserts a new session row.
func (s *Store) AddSession(ctx context.Context, sess session.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(sess.ID) == "" {
		return fmt.Errorf("session id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO sessions (id, content_id, user_id, status, persist_state_id, persist_state, suspend_data, duration_ms, began_at, updated_at, max_score, min_score, passing_score, score, detailed_report)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		sess.ID,
		sess.ContentID,
		sess.UserID,
		sess.Status.String(),
		sess.PersistStateID,
		sess.PersistState,
		sess.SuspendData,
		sess.Duration.Milliseconds(),
		toMillis(sess.BeganAt),
		toMillis(sess.UpdatedAt),
		toNullFloat(sess.MaxScore),
		toNullFloat(sess.MinScore),
		toNullFloat(sess.PassingScore),
		toNullFloat(sess.Score),
		nullString(sess.DetailedReport),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// UpdateSession overwrites the mutable playback fields of an open session.
// The write is guarded on the row still carrying an open status so updates
// racing an end observe storage.ErrSessionEnded.
func (s *Store) UpdateSession(ctx context.Context, sess session.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(sess.ID) == "" {
		return fmt.Errorf("session id is required")
	}

	placeholders, statusArgs := openStatusArgs()
	args := []any{
		sess.Status.String(),
		sess.PersistStateID,
		sess.PersistState,
		sess.SuspendData,
		sess.Duration.Milliseconds(),
		toMillis(sess.UpdatedAt),
		sess.ID,
	}
	args = append(args, statusArgs...)

	result, err := s.sqlDB.ExecContext(ctx, fmt.Sprintf(`
UPDATE sessions
SET status = ?, persist_state_id = ?, persist_state = ?, suspend_data = ?, duration_ms = ?, updated_at = ?
WHERE id = ? AND status IN (%s)
`, placeholders), args...)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return s.explainZeroRows(ctx, result, sess.ID)
}

// EndSession writes the terminal status and score fields. The conditional
// status guard serializes concurrent enders without in-process locking.
func (s *Store) EndSession(ctx context.Context, sess session.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(sess.ID) == "" {
		return fmt.Errorf("session id is required")
	}

	placeholders, statusArgs := openStatusArgs()
	args := []any{
		sess.Status.String(),
		toNullFloat(sess.MaxScore),
		toNullFloat(sess.MinScore),
		toNullFloat(sess.PassingScore),
		toNullFloat(sess.Score),
		nullString(sess.DetailedReport),
		toMillis(sess.UpdatedAt),
		sess.ID,
	}
	args = append(args, statusArgs...)

	result, err := s.sqlDB.ExecContext(ctx, fmt.Sprintf(`
UPDATE sessions
SET status = ?, max_score = ?, min_score = ?, passing_score = ?, score = ?, detailed_report = ?, updated_at = ?
WHERE id = ? AND status IN (%s)
`, placeholders), args...)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return s.explainZeroRows(ctx, result, sess.ID)
}

// DeleteSessionsByContent removes every session of a content version.
func (s *Store) DeleteSessionsByContent(ctx context.Context, contentID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	contentID = strings.TrimSpace(contentID)
	if contentID == "" {
		return 0, fmt.Errorf("content id is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, "DELETE FROM sessions WHERE content_id = ?", contentID)
	if err != nil {
		return 0, fmt.Errorf("delete sessions by content: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count removed sessions: %w", err)
	}
	return removed, nil
}

// explainZeroRows distinguishes a missing row from a terminal row after a
// guarded write touched nothing.
func (s *Store) explainZeroRows(ctx context.Context, result sql.Result, sessionID string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("count affected rows: %w", err)
	}
	if affected > 0 {
		return nil
	}

	var status string
	err = s.sqlDB.QueryRowContext(ctx, "SELECT status FROM sessions WHERE id = ?", sessionID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("check session status: %w", err)
	}
	return storage.ErrSessionEnded
}

func nullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func scanSession(scan func(dest ...any) error) (session.Session, error) {
	var (
		sess           session.Session
		statusName     string
		durationMillis int64
		beganAt        int64
		updatedAt      int64
		maxScore       sql.NullFloat64
		minScore       sql.NullFloat64
		passingScore   sql.NullFloat64
		score          sql.NullFloat64
		detailedReport sql.NullString
	)
	err := scan(
		&sess.ID,
		&sess.ContentID,
		&sess.UserID,
		&statusName,
		&sess.PersistStateID,
		&sess.PersistState,
		&sess.SuspendData,
		&durationMillis,
		&beganAt,
		&updatedAt,
		&maxScore,
		&minScore,
		&passingScore,
		&score,
		&detailedReport,
	)
	if err != nil {
		return session.Session{}, err
	}

	status, err := session.ParseStatus(statusName)
	if err != nil {
		return session.Session{}, fmt.Errorf("parse stored status: %w", err)
	}
	sess.Status = status
	sess.Duration = time.Duration(durationMillis) * time.Millisecond
	sess.BeganAt = fromMillis(beganAt)
	sess.UpdatedAt = fromMillis(updatedAt)
	sess.MaxScore = fromNullFloat(maxScore)
	sess.MinScore = fromNullFloat(minScore)
	sess.PassingScore = fromNullFloat(passingScore)
	sess.Score = fromNullFloat(score)
	if detailedReport.Valid {
		sess.DetailedReport = detailedReport.String
	}
	return sess, nil
}
