package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/kdblegal/kdbweb/pkg"
)

type Role string

const (
	RoleSuper  Role = "super"
	RoleEditor Role = "editor"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrAdminNotFound      = errors.New("admin not found")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrBootstrapDone      = errors.New("bootstrap already done")
	ErrSessionNotFound    = errors.New("session not found")
)

func ParseRole(s string) (Role, error) {
	switch r := Role(strings.TrimSpace(s)); r {
	case RoleSuper, RoleEditor:
		return r, nil
	default:
		return "", pkg.NewValidationError("invalid role: %q", s)
	}
}

type Admin struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Profile is the public view of an admin, never carrying the password hash.
type Profile struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Active   bool   `json:"active"`
}

func (a *Admin) Profile() Profile {
	return Profile{
		ID:       a.ID,
		Username: a.Username,
		Role:     a.Role,
		Active:   a.Active,
	}
}

func (a *Admin) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

type Session struct {
	ID        int
	AdminID   int
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Valid reports whether the session is still usable at the given moment.
// A session expiring exactly at now is already invalid.
func (s *Session) Valid(now time.Time) bool {
	return s.ExpiresAt.After(now)
}

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Admin     Profile   `json:"admin"`
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c Credentials) normalized() (Credentials, error) {
	c.Username = strings.TrimSpace(c.Username)
	c.Password = strings.TrimSpace(c.Password)
	if c.Username == "" || c.Password == "" {
		return c, pkg.NewValidationError("username and password are required")
	}
	return c, nil
}

type CreateAdminParams struct {
	Username string        `json:"username"`
	Password string        `json:"password"`
	Role     string        `json:"role"`
	Active   *pkg.FlexBool `json:"active"`
}

// UpdateAdminParams holds a partial update, nil fields are left unchanged.
type UpdateAdminParams struct {
	Username *string       `json:"username"`
	Role     *string       `json:"role"`
	Active   *pkg.FlexBool `json:"active"`
	Password *string       `json:"password"`
}
