package domain

import (
	"errors"
	"time"
)

// Role defines the authorization level of an operator account.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleAnalyst Role = "analyst" // can trigger analysis and recalculation
	RoleViewer  Role = "viewer"  // read-only access to associations and assessments
)

var (
	ErrInvalidRole   = errors.New("invalid user role")
	ErrEmptyUsername = errors.New("username cannot be empty")
)

// IsValid checks if the role is a recognized system role.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleAnalyst, RoleViewer:
		return true
	}
	return false
}

// User represents an operator account.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // never exposed in JSON
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	LastLogin    time.Time `json:"last_login"`
}

// Validate ensures the user entity is in a valid state.
func (u *User) Validate() error {
	if u.Username == "" {
		return ErrEmptyUsername
	}
	if !u.Role.IsValid() {
		return ErrInvalidRole
	}
	return nil
}

// CanTriggerAnalysis reports whether the role may start analysis runs.
func (u *User) CanTriggerAnalysis() bool {
	return u.Role == RoleAdmin || u.Role == RoleAnalyst
}

// Credentials is the login request body.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
