package models

// Role values understood by the IR API
const (
	RoleEngineer = "engineer"
	RoleDC       = "dc"
	RoleHead     = "head"
	RoleAdmin    = "admin"
)

// User represents an IR API account, keyed by username
type User struct {
	Username   string `json:"username"`
	Fullname   string `json:"fullname"`
	Department string `json:"department"`
	Role       string `json:"role"`
}

// UpsertUserRequest represents the payload of POST /users (create or update by username)
type UpsertUserRequest struct {
	Username   string `json:"username" validate:"required,min=2,max=50"`
	Fullname   string `json:"fullname" validate:"required,max=100"`
	Department string `json:"department" validate:"required"`
	Role       string `json:"role" validate:"required,oneof=engineer dc head admin"`
	Password   string `json:"password,omitempty" validate:"omitempty,min=4"` // Write-only; empty keeps the current password
}

// UsersResponse is the body of GET /users
type UsersResponse struct {
	Users []User `json:"users"`
}

// LoginRequest is the body of POST /login
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is the body returned by POST /login
type LoginResponse struct {
	User User `json:"user"`
}
