package models

import "time"

// Session is the server-side replacement of the browser's user / last_activity pair
type Session struct {
	ID           string    `json:"session_id"`
	User         User      `json:"user"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// SessionResponse is returned by the session endpoints
type SessionResponse struct {
	SessionID     string `json:"session_id"`
	User          User   `json:"user"`
	HomePath      string `json:"home_path"`
	ExpiresAt     string `json:"expires_at"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}
