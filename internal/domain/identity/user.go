package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/meditrack/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// UserStatus represents the status of a user
type UserStatus string

const (
	UserStatusActive      UserStatus = "active"
	UserStatusDeactivated UserStatus = "deactivated"
)

// UserRole represents the role assigned to a user
type UserRole string

const (
	RoleAdmin      UserRole = "admin"
	RolePharmacist UserRole = "pharmacist"
	RoleCashier    UserRole = "cashier"
)

// Password cost for bcrypt
const bcryptCost = 12

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// User represents a staff account. The password hash is local-only: the
// cloud payload never carries it, so users are never created from a pull.
type User struct {
	shared.BaseEntity
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Role         UserRole
	BranchID     *uuid.UUID
	Status       UserStatus
	LastLoginAt  *time.Time
}

// NewUser creates a new user with a hashed password
func NewUser(name, email, password string, role UserRole) (*User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return nil, shared.NewDomainError("INVALID_USER_NAME", "User name is required")
	}
	if !emailPattern.MatchString(email) {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Email address is not valid")
	}
	if len(password) < 8 {
		return nil, shared.NewDomainError("WEAK_PASSWORD", "Password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	return &User{
		BaseEntity:   shared.NewBaseEntity(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Status:       UserStatusActive,
	}, nil
}

// CheckPassword verifies a plaintext password against the stored hash
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// IsAdmin returns true if the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsActive returns true if the user may log in
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}
