package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	platformerrors "github.com/openlms/ispring-play/internal/platform/errors"
	"github.com/openlms/ispring-play/internal/platform/grpc/pagination"
	"github.com/openlms/ispring-play/internal/services/play/core/filter"
	"github.com/openlms/ispring-play/internal/services/play/domain/grading"
	"github.com/openlms/ispring-play/internal/services/play/domain/session"
	"github.com/openlms/ispring-play/internal/services/play/storage"
	"github.com/openlms/ispring-play/internal/services/play/storage/cursor"
)

const (
	defaultReportPageSize = 50
	maxReportPageSize     = 200
)

// GetSession returns one session by id.
func (s *Store) GetSession(ctx context.Context, id string) (session.Session, error) {
	if err := ctx.Err(); err != nil {
		return session.Session{}, err
	}
	if s == nil || s.sqlDB == nil {
		return session.Session{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return session.Session{}, storage.ErrNotFound
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT `+sessionColumns+`
FROM sessions s
WHERE s.id = ?
`, id)
	sess, err := scanSession(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return session.Session{}, storage.ErrNotFound
		}
		return session.Session{}, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// SessionExists reports whether a session row exists.
func (s *Store) SessionExists(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if s == nil || s.sqlDB == nil {
		return false, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return false, nil
	}

	var one int
	err := s.sqlDB.QueryRowContext(ctx, "SELECT 1 FROM sessions WHERE id = ?", id).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check session exists: %w", err)
	}
	return true, nil
}

// GetLastSessionByContent returns the most recently begun session of a user
// for one content version.
func (s *Store) GetLastSessionByContent(ctx context.Context, contentID, userID string) (session.Session, error) {
	if err := ctx.Err(); err != nil {
		return session.Session{}, err
	}
	if s == nil || s.sqlDB == nil {
		return session.Session{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT `+sessionColumns+`
FROM sessions s
WHERE s.content_id = ? AND s.user_id = ?
ORDER BY s.began_at DESC, s.seq DESC
LIMIT 1
`, strings.TrimSpace(contentID), strings.TrimSpace(userID))
	sess, err := scanSession(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return session.Session{}, storage.ErrNotFound
		}
		return session.Session{}, fmt.Errorf("get last session by content: %w", err)
	}
	return sess, nil
}

// GetLastSessionByModule returns the most recently begun session of a user
// across every content version of a module.
func (s *Store) GetLastSessionByModule(ctx context.Context, moduleID, userID string) (session.Session, error) {
	if err := ctx.Err(); err != nil {
		return session.Session{}, err
	}
	if s == nil || s.sqlDB == nil {
		return session.Session{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT `+sessionColumns+`
FROM sessions s
JOIN contents c ON c.id = s.content_id
WHERE c.module_id = ? AND s.user_id = ?
ORDER BY s.began_at DESC, s.seq DESC
LIMIT 1
`, strings.TrimSpace(moduleID), strings.TrimSpace(userID))
	sess, err := scanSession(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return session.Session{}, storage.ErrNotFound
		}
		return session.Session{}, fmt.Errorf("get last session by module: %w", err)
	}
	return sess, nil
}

// ListAttemptsByContent returns a user's attempts for one content version
// ordered by begin time.
func (s *Store) ListAttemptsByContent(ctx context.Context, contentID, userID string) ([]grading.Attempt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT s.score, s.began_at
FROM sessions s
WHERE s.content_id = ? AND s.user_id = ?
ORDER BY s.began_at, s.seq
`, strings.TrimSpace(contentID), strings.TrimSpace(userID))
	if err != nil {
		return nil, fmt.Errorf("list attempts by content: %w", err)
	}
	defer rows.Close()

	var attempts []grading.Attempt
	for rows.Next() {
		var (
			score   sql.NullFloat64
			beganAt int64
		)
		if err := rows.Scan(&score, &beganAt); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		attempts = append(attempts, grading.Attempt{
			Score:   fromNullFloat(score),
			BeganAt: fromMillis(beganAt),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return attempts, nil
}

// ListAttemptsByModule groups a user's attempts per content version of a
// module, ordered by content version.
func (s *Store) ListAttemptsByModule(ctx context.Context, moduleID, userID string) ([]grading.ContentAttempts, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT c.id, s.score, s.began_at
FROM sessions s
JOIN contents c ON c.id = s.content_id
WHERE c.module_id = ? AND s.user_id = ?
ORDER BY c.version, c.id, s.began_at, s.seq
`, strings.TrimSpace(moduleID), strings.TrimSpace(userID))
	if err != nil {
		return nil, fmt.Errorf("list attempts by module: %w", err)
	}
	defer rows.Close()

	var grouped []grading.ContentAttempts
	for rows.Next() {
		var (
			contentID string
			score     sql.NullFloat64
			beganAt   int64
		)
		if err := rows.Scan(&contentID, &score, &beganAt); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		attempt := grading.Attempt{
			Score:   fromNullFloat(score),
			BeganAt: fromMillis(beganAt),
		}
		if len(grouped) == 0 || grouped[len(grouped)-1].ContentID != contentID {
			grouped = append(grouped, grading.ContentAttempts{ContentID: contentID})
		}
		last := &grouped[len(grouped)-1]
		last.Attempts = append(last.Attempts, attempt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return grouped, nil
}

// PassingRequirementsWereUpdated reports whether any session under the given
// contents carries recorded passing/score fields.
func (s *Store) PassingRequirementsWereUpdated(ctx context.Context, contentIDs []string, userID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if s == nil || s.sqlDB == nil {
		return false, fmt.Errorf("storage is not configured")
	}
	if len(contentIDs) == 0 {
		return false, nil
	}

	placeholders := make([]string, 0, len(contentIDs))
	args := make([]any, 0, len(contentIDs)+1)
	for _, contentID := range contentIDs {
		placeholders = append(placeholders, "?")
		args = append(args, strings.TrimSpace(contentID))
	}

	query := fmt.Sprintf(`
SELECT EXISTS (
    SELECT 1 FROM sessions
    WHERE content_id IN (%s)
      AND (passing_score IS NOT NULL OR score IS NOT NULL)
`, strings.Join(placeholders, ", "))
	if userID = strings.TrimSpace(userID); userID != "" {
		query += "      AND user_id = ?\n"
		args = append(args, userID)
	}
	query += ")"

	var updated bool
	if err := s.sqlDB.QueryRowContext(ctx, query, args...).Scan(&updated); err != nil {
		return false, fmt.Errorf("check passing requirements: %w", err)
	}
	return updated, nil
}

// ListSessionReport pages a module's sessions newest-first for instructor
// reports. The query filter is an AIP-160 expression over session fields.
func (s *Store) ListSessionReport(ctx context.Context, query storage.ReportQuery) (storage.SessionPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.SessionPage{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.SessionPage{}, fmt.Errorf("storage is not configured")
	}
	moduleID := strings.TrimSpace(query.ModuleID)
	if moduleID == "" {
		return storage.SessionPage{}, fmt.Errorf("module id is required")
	}

	cond, err := filter.ParseSessionFilter(query.Filter)
	if err != nil {
		return storage.SessionPage{}, platformerrors.Wrap(
			platformerrors.CodeReportInvalidFilter,
			fmt.Sprintf("parse report filter: %v", err),
			err,
		)
	}

	pageSize := pagination.ClampPageSize(int32(query.PageSize), pagination.PageSizeConfig{
		Default: defaultReportPageSize,
		Max:     maxReportPageSize,
	})

	sqlQuery := `
SELECT s.seq, ` + sessionColumns + `
FROM sessions s
JOIN contents c ON c.id = s.content_id
WHERE c.module_id = ?
`
	args := []any{moduleID}
	if cond.Clause != "" {
		sqlQuery += "  AND " + cond.Clause + "\n"
		args = append(args, cond.Params...)
	}
	if query.PageToken != "" {
		token, err := cursor.Decode(query.PageToken)
		if err != nil {
			return storage.SessionPage{}, fmt.Errorf("decode page token: %w", err)
		}
		if err := cursor.ValidateFilterHash(token, query.Filter); err != nil {
			return storage.SessionPage{}, fmt.Errorf("validate page token: %w", err)
		}
		sqlQuery += "  AND s.seq < ?\n"
		args = append(args, token.Seq)
	}
	sqlQuery += fmt.Sprintf("ORDER BY s.seq DESC\nLIMIT %d", pageSize+1)

	rows, err := s.sqlDB.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return storage.SessionPage{}, fmt.Errorf("list session report: %w", err)
	}
	defer rows.Close()

	var (
		page    storage.SessionPage
		lastSeq int64
	)
	for rows.Next() {
		var seq int64
		sess, err := scanSession(func(dest ...any) error {
			return rows.Scan(append([]any{&seq}, dest...)...)
		})
		if err != nil {
			return storage.SessionPage{}, fmt.Errorf("scan report row: %w", err)
		}
		if len(page.Sessions) == pageSize {
			token, err := cursor.Encode(cursor.New(lastSeq, query.Filter))
			if err != nil {
				return storage.SessionPage{}, fmt.Errorf("encode page token: %w", err)
			}
			page.NextPageToken = token
			break
		}
		page.Sessions = append(page.Sessions, sess)
		lastSeq = seq
	}
	if err := rows.Err(); err != nil {
		return storage.SessionPage{}, fmt.Errorf("iterate report rows: %w", err)
	}
	return page, nil
}
