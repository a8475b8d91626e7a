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

// SessionDao implements session.Storage on PostgreSQL for the lambdas
type SessionDao struct {
	DB     *sql.DB
	Logger *logrus.Logger
}

// Load retrieves a session by id
func (dao *SessionDao) Load(ctx context.Context, id string) (models.Session, error) {
	var s models.Session
	err := dao.DB.QueryRowContext(ctx, `
		SELECT id, username, fullname, department, role, created_at, last_activity
		FROM irtracker.sessions
		WHERE id = $1
	`, id).Scan(&s.ID, &s.User.Username, &s.User.Fullname, &s.User.Department, &s.User.Role, &s.CreatedAt, &s.LastActivity)

	if errors.Is(err, sql.ErrNoRows) {
		return models.Session{}, session.ErrNotFound
	}
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"operation":  "Load",
			"session_id": id,
			"error":      err.Error(),
		}).Error("Failed to load session")
		return models.Session{}, fmt.Errorf("failed to load session: %w", err)
	}
	return s, nil
}

// Save inserts a session or refreshes its user and last activity
func (dao *SessionDao) Save(ctx context.Context, s models.Session) error {
	_, err := dao.DB.ExecContext(ctx, `
		INSERT INTO irtracker.sessions (id, username, fullname, department, role, created_at, last_activity)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			fullname = EXCLUDED.fullname,
			department = EXCLUDED.department,
			role = EXCLUDED.role,
			last_activity = EXCLUDED.last_activity
	`, s.ID, s.User.Username, s.User.Fullname, s.User.Department, s.User.Role, s.CreatedAt, s.LastActivity)

	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"operation":  "Save",
			"session_id": s.ID,
			"error":      err.Error(),
		}).Error("Failed to save session")
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete removes a session
func (dao *SessionDao) Delete(ctx context.Context, id string) error {
	result, err := dao.DB.ExecContext(ctx, `DELETE FROM irtracker.sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return session.ErrNotFound
	}
	return nil
}

// SystemStartTime stamps now on first call and returns the stored stamp afterwards
func (dao *SessionDao) SystemStartTime(ctx context.Context, now time.Time) (time.Time, error) {
	_, err := dao.DB.ExecContext(ctx, `
		INSERT INTO irtracker.system_info (key, stamped_at)
		VALUES ('system_start_time', $1)
		ON CONFLICT (key) DO NOTHING
	`, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to stamp system start time: %w", err)
	}

	var start time.Time
	err = dao.DB.QueryRowContext(ctx, `
		SELECT stamped_at FROM irtracker.system_info WHERE key = 'system_start_time'
	`).Scan(&start)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read system start time: %w", err)
	}
	return start, nil
}

// DeleteExpired removes sessions idle since before cutoff
func (dao *SessionDao) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := dao.DB.ExecContext(ctx, `DELETE FROM irtracker.sessions WHERE last_activity < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return result.RowsAffected()
}
