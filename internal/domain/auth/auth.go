// Package auth manages shopper accounts and the bearer tokens that identify
// them.
package auth

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Role is an account role.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

var (
	// ErrNotFound is returned when a user does not exist.
	ErrNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("email already exists")
	// ErrCredentialsRequired is returned when email or password is missing.
	ErrCredentialsRequired = errors.New("email and password required")
	// ErrInvalidCredentials is returned when login fails. It deliberately does
	// not say which of email or password was wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrWeakPassword is returned for passwords shorter than MinPasswordLength.
	ErrWeakPassword = errors.New("password too short")
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// User is a registered account.
type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	Role         Role
	Profile
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Profile holds the user-editable account details.
type Profile struct {
	FirstName  string
	LastName   string
	Phone      string
	Address    string
	City       string
	PostalCode string
}

// Repository persists users.
type Repository interface {
	// Create stores a new user. It returns ErrEmailTaken on a duplicate email.
	Create(ctx context.Context, u *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	UpdateProfile(ctx context.Context, id string, p Profile) (*User, error)
}
