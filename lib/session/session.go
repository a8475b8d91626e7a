// Package session gates access by role with a sliding inactivity window. The
// authenticated user is persisted behind the Storage interface.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"irtracker/lib/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultWindow is how long a session survives without activity
const DefaultWindow = 24 * time.Hour

// LoginPath is where unauthenticated users are sent
const LoginPath = "/login"

var (
	// ErrNotFound is returned by storages for unknown session ids
	ErrNotFound = errors.New("session not found")
	// ErrSessionExpired is returned when the inactivity window elapsed
	ErrSessionExpired = errors.New("session expired")
	// ErrForbidden is returned when the session's role may not access a surface
	ErrForbidden = errors.New("forbidden for role")
	// ErrInvalidCredentials is returned for empty usernames or passwords
	ErrInvalidCredentials = errors.New("username and password are required")
)

// RedirectError tells the caller where the user should be sent instead
type RedirectError struct {
	Reason error
	Path   string
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("%s (redirect to %s)", e.Reason, e.Path)
}

func (e *RedirectError) Unwrap() error {
	return e.Reason
}

// Storage persists sessions and the system start stamp
type Storage interface {
	Load(ctx context.Context, id string) (models.Session, error)
	Save(ctx context.Context, session models.Session) error
	Delete(ctx context.Context, id string) error
	// SystemStartTime returns the first stamped start time, stamping now if none exists
	SystemStartTime(ctx context.Context, now time.Time) (time.Time, error)
}

// Pruner is implemented by storages that can drop idle sessions in bulk
type Pruner interface {
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// Authenticator verifies credentials against the IR API
type Authenticator interface {
	Login(ctx context.Context, username, password string) (models.User, error)
}

// HomePath is the landing page of a role
func HomePath(role string) (string, bool) {
	switch strings.ToLower(role) {
	case models.RoleAdmin:
		return "/admin", true
	case models.RoleDC:
		return "/dc", true
	case models.RoleEngineer, models.RoleHead:
		return "/engineer", true
	default:
		return LoginPath, false
	}
}

// Manager creates, validates and ends sessions
type Manager struct {
	Storage Storage
	Auth    Authenticator
	Window  time.Duration
	Logger  *logrus.Logger
	Now     func() time.Time
}

// NewManager builds a manager with the default window and wall clock
func NewManager(storage Storage, auth Authenticator, logger *logrus.Logger) *Manager {
	return &Manager{Storage: storage, Auth: auth, Window: DefaultWindow, Logger: logger, Now: time.Now}
}

func (m *Manager) now() time.Time {
	if m.Now == nil {
		return time.Now().UTC()
	}
	return m.Now().UTC()
}

func (m *Manager) window() time.Duration {
	if m.Window <= 0 {
		return DefaultWindow
	}
	return m.Window
}

func (m *Manager) logger() *logrus.Logger {
	if m.Logger == nil {
		return logrus.StandardLogger()
	}
	return m.Logger
}

// Login authenticates through the IR API and opens a session
func (m *Manager) Login(ctx context.Context, username, password string) (models.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return models.Session{}, ErrInvalidCredentials
	}

	user, err := m.Auth.Login(ctx, username, password)
	if err != nil {
		m.logger().WithFields(logrus.Fields{
			"operation": "Login",
			"username":  username,
			"error":     err.Error(),
		}).Warn("Login failed")
		return models.Session{}, fmt.Errorf("login failed: %w", err)
	}

	now := m.now()
	session := models.Session{
		ID:           uuid.New().String(),
		User:         user,
		CreatedAt:    now,
		LastActivity: now,
	}
	if err := m.Storage.Save(ctx, session); err != nil {
		return models.Session{}, fmt.Errorf("failed to save session: %w", err)
	}
	if _, err := m.Storage.SystemStartTime(ctx, now); err != nil {
		m.logger().WithFields(logrus.Fields{
			"operation": "Login",
			"error":     err.Error(),
		}).Warn("Failed to stamp system start time")
	}
	m.prune(ctx, now)

	m.logger().WithFields(logrus.Fields{
		"operation": "Login",
		"username":  user.Username,
		"role":      user.Role,
	}).Info("Session opened")
	return session, nil
}

// prune drops sessions whose window lapsed when the storage supports it
func (m *Manager) prune(ctx context.Context, now time.Time) {
	pruner, ok := m.Storage.(Pruner)
	if !ok {
		return
	}
	removed, err := pruner.DeleteExpired(ctx, now.Add(-m.window()))
	if err != nil {
		m.logger().WithFields(logrus.Fields{
			"operation": "prune",
			"error":     err.Error(),
		}).Warn("Failed to delete expired sessions")
		return
	}
	if removed > 0 {
		m.logger().WithFields(logrus.Fields{
			"operation": "prune",
			"removed":   removed,
		}).Debug("Deleted expired sessions")
	}
}

// Authorize loads a session, enforces the inactivity window and, when roles are
// given, the caller's role. A successful call slides the window forward.
func (m *Manager) Authorize(ctx context.Context, id string, roles ...string) (models.Session, error) {
	if strings.TrimSpace(id) == "" {
		return models.Session{}, &RedirectError{Reason: ErrNotFound, Path: LoginPath}
	}

	session, err := m.Storage.Load(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return models.Session{}, &RedirectError{Reason: ErrNotFound, Path: LoginPath}
	}
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to load session: %w", err)
	}

	now := m.now()
	if now.Sub(session.LastActivity) > m.window() {
		m.drop(ctx, id)
		return models.Session{}, &RedirectError{Reason: ErrSessionExpired, Path: LoginPath}
	}

	home, known := HomePath(session.User.Role)
	if !known {
		m.drop(ctx, id)
		return models.Session{}, &RedirectError{Reason: ErrForbidden, Path: LoginPath}
	}
	if len(roles) > 0 && !hasRole(session.User.Role, roles) {
		return models.Session{}, &RedirectError{Reason: ErrForbidden, Path: home}
	}

	session.LastActivity = now
	if err := m.Storage.Save(ctx, session); err != nil {
		return models.Session{}, fmt.Errorf("failed to touch session: %w", err)
	}
	return session, nil
}

func hasRole(role string, allowed []string) bool {
	for _, r := range allowed {
		if strings.EqualFold(role, r) {
			return true
		}
	}
	return false
}

func (m *Manager) drop(ctx context.Context, id string) {
	if err := m.Storage.Delete(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
		m.logger().WithFields(logrus.Fields{
			"operation":  "Authorize",
			"session_id": id,
			"error":      err.Error(),
		}).Warn("Failed to delete session")
	}
}

// Logout ends a session. Unknown sessions are not an error.
func (m *Manager) Logout(ctx context.Context, id string) error {
	if err := m.Storage.Delete(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// ExpiresAt is when a session lapses without further activity
func (m *Manager) ExpiresAt(session models.Session) time.Time {
	return session.LastActivity.Add(m.window())
}

// Uptime is the time elapsed since the first session was ever opened
func (m *Manager) Uptime(ctx context.Context) (time.Duration, error) {
	now := m.now()
	start, err := m.Storage.SystemStartTime(ctx, now)
	if err != nil {
		return 0, err
	}
	return now.Sub(start), nil
}

// Response renders a session for the session endpoints
func (m *Manager) Response(ctx context.Context, session models.Session) models.SessionResponse {
	home, _ := HomePath(session.User.Role)
	uptime, _ := m.Uptime(ctx)
	return models.SessionResponse{
		SessionID:     session.ID,
		User:          session.User,
		HomePath:      home,
		ExpiresAt:     m.ExpiresAt(session).Format(time.RFC3339),
		UptimeSeconds: int64(uptime.Seconds()),
	}
}
