// Package user defines the user domain model for authentication and authorization.
package user

import (
	"regexp"
	"strings"
	"time"

	"github.com/Strob0t/crm/internal/domain"
)

// Role represents the authorization level of a user.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ValidRoles is the set of all valid user roles.
var ValidRoles = map[Role]bool{
	RoleUser:  true,
	RoleAdmin: true,
}

// User is a registered account.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never serialized
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity is the authenticated caller decoded from a bearer token.
type Identity struct {
	UserID int64 `json:"id"`
	Role   Role  `json:"role"`
}

// IsAdmin reports whether the identity carries the admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// MaxPasswordBytes is the longest password bcrypt can hash.
const MaxPasswordBytes = 72

// ValidatePassword rejects passwords that are empty or too long to hash.
func ValidatePassword(password string) error {
	if password == "" {
		return domain.Validationf("password is required")
	}
	if len(password) > MaxPasswordBytes {
		return domain.Validationf("password must be at most %d bytes", MaxPasswordBytes)
	}
	return nil
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidEmail reports whether s has the shape local@host.tld.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// NormalizeEmail trims surrounding whitespace and lowercases the address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// RegisterRequest is the input for creating an account.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"` //nolint:gosec // request field, not a hardcoded secret
	Role     Role   `json:"-"`        // set by admin tooling only
}

// Validate checks required fields and the email shape, normalizing the email in place.
func (r *RegisterRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = NormalizeEmail(r.Email)
	if r.Name == "" || r.Email == "" || r.Password == "" {
		return domain.Validationf("name, email, password required")
	}
	if !ValidEmail(r.Email) {
		return domain.Validationf("invalid email")
	}
	if err := ValidatePassword(r.Password); err != nil {
		return err
	}
	if r.Role == "" {
		r.Role = RoleUser
	}
	if !ValidRoles[r.Role] {
		return domain.Validationf("invalid role: must be USER or ADMIN")
	}
	return nil
}

// LoginRequest is the input for user authentication.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"` //nolint:gosec // request field, not a hardcoded secret
}

// Validate checks that both credentials are present.
func (r *LoginRequest) Validate() error {
	r.Email = NormalizeEmail(r.Email)
	if r.Email == "" || r.Password == "" {
		return domain.Validationf("email and password required")
	}
	return nil
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}
