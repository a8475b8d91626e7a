package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"irtracker/lib/models"
	"irtracker/lib/session"

	"github.com/sirupsen/logrus"
)

// SQLiteSessionDao implements session.Storage on a local SQLite file for the console.
// Timestamps are stored as RFC 3339 text.
type SQLiteSessionDao struct {
	DB     *sql.DB
	Logger *logrus.Logger
}

// EnsureSchema creates the session tables if they do not exist
func (dao *SQLiteSessionDao) EnsureSchema(ctx context.Context) error {
	_, err := dao.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL,
			fullname TEXT NOT NULL DEFAULT '',
			department TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL,
			created_at TEXT NOT NULL,
			last_activity TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS system_info (
			key TEXT PRIMARY KEY,
			stamped_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS current_session (
			slot INTEGER PRIMARY KEY CHECK (slot = 1),
			session_id TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create session schema: %w", err)
	}
	return nil
}

// sqliteTimeLayout is fixed width so stored timestamps compare as text
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func (dao *SQLiteSessionDao) Load(ctx context.Context, id string) (models.Session, error) {
	var (
		s                     models.Session
		createdAt, lastActive string
	)
	err := dao.DB.QueryRowContext(ctx, `
		SELECT id, username, fullname, department, role, created_at, last_activity
		FROM sessions
		WHERE id = ?
	`, id).Scan(&s.ID, &s.User.Username, &s.User.Fullname, &s.User.Department, &s.User.Role, &createdAt, &lastActive)

	if errors.Is(err, sql.ErrNoRows) {
		return models.Session{}, session.ErrNotFound
	}
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to load session: %w", err)
	}

	if s.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return models.Session{}, fmt.Errorf("corrupt created_at for session %s: %w", id, err)
	}
	if s.LastActivity, err = time.Parse(time.RFC3339Nano, lastActive); err != nil {
		return models.Session{}, fmt.Errorf("corrupt last_activity for session %s: %w", id, err)
	}
	return s, nil
}

func (dao *SQLiteSessionDao) Save(ctx context.Context, s models.Session) error {
	_, err := dao.DB.ExecContext(ctx, `
		INSERT INTO sessions (id, username, fullname, department, role, created_at, last_activity)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			username = excluded.username,
			fullname = excluded.fullname,
			department = excluded.department,
			role = excluded.role,
			last_activity = excluded.last_activity
	`, s.ID, s.User.Username, s.User.Fullname, s.User.Department, s.User.Role, formatTime(s.CreatedAt), formatTime(s.LastActivity))
	if err != nil {
		if dao.Logger != nil {
			dao.Logger.WithFields(logrus.Fields{
				"operation":  "Save",
				"session_id": s.ID,
				"error":      err.Error(),
			}).Error("Failed to save session")
		}
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (dao *SQLiteSessionDao) Delete(ctx context.Context, id string) error {
	result, err := dao.DB.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if _, err := dao.DB.ExecContext(ctx, `DELETE FROM current_session WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("failed to clear current session: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return session.ErrNotFound
	}
	return nil
}

// DeleteExpired removes sessions idle since before cutoff
func (dao *SQLiteSessionDao) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := dao.DB.ExecContext(ctx, `DELETE FROM sessions WHERE last_activity < ?`, formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return result.RowsAffected()
}

func (dao *SQLiteSessionDao) SystemStartTime(ctx context.Context, now time.Time) (time.Time, error) {
	_, err := dao.DB.ExecContext(ctx, `
		INSERT OR IGNORE INTO system_info (key, stamped_at) VALUES ('system_start_time', ?)
	`, formatTime(now))
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to stamp system start time: %w", err)
	}

	var stamped string
	err = dao.DB.QueryRowContext(ctx, `SELECT stamped_at FROM system_info WHERE key = 'system_start_time'`).Scan(&stamped)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read system start time: %w", err)
	}
	return time.Parse(time.RFC3339Nano, stamped)
}

// SetCurrent remembers which session the console is logged in with
func (dao *SQLiteSessionDao) SetCurrent(ctx context.Context, id string) error {
	_, err := dao.DB.ExecContext(ctx, `
		INSERT INTO current_session (slot, session_id) VALUES (1, ?)
		ON CONFLICT (slot) DO UPDATE SET session_id = excluded.session_id
	`, id)
	if err != nil {
		return fmt.Errorf("failed to set current session: %w", err)
	}
	return nil
}

// Current returns the console's session id
func (dao *SQLiteSessionDao) Current(ctx context.Context) (string, error) {
	var id string
	err := dao.DB.QueryRowContext(ctx, `SELECT session_id FROM current_session WHERE slot = 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", session.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read current session: %w", err)
	}
	return id, nil
}
