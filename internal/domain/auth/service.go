package auth

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Session is the result of a successful register or login.
type Session struct {
	User  *User
	Token string
}

// Service implements account registration, login and profile management.
type Service struct {
	users  Repository
	tokens *TokenIssuer
	cost   int
	now    func() time.Time
}

// NewService creates a Service. A zero bcryptCost means bcrypt.DefaultCost.
func NewService(users Repository, tokens *TokenIssuer, bcryptCost int) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{users: users, tokens: tokens, cost: bcryptCost, now: time.Now}
}

// RegisterRequest holds sign-up input.
type RegisterRequest struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Register creates a customer account and returns a session for it.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, ErrCredentialsRequired
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, errors.Wrap(ErrCredentialsRequired, "malformed email")
	}
	if len(req.Password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	now := s.now().UTC()
	u := &User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		Role:         RoleCustomer,
		Profile: Profile{
			FirstName: strings.TrimSpace(req.FirstName),
			LastName:  strings.TrimSpace(req.LastName),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, errors.Wrap(err, "create user")
	}
	return s.session(u)
}

// Login checks credentials and returns a session.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrCredentialsRequired
	}

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "find user")
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.session(u)
}

// Profile returns the user's account.
func (s *Service) Profile(ctx context.Context, userID string) (*User, error) {
	return s.users.FindByID(ctx, userID)
}

// UpdateProfile replaces the user's editable details.
func (s *Service) UpdateProfile(ctx context.Context, userID string, p Profile) (*User, error) {
	p = Profile{
		FirstName:  strings.TrimSpace(p.FirstName),
		LastName:   strings.TrimSpace(p.LastName),
		Phone:      strings.TrimSpace(p.Phone),
		Address:    strings.TrimSpace(p.Address),
		City:       strings.TrimSpace(p.City),
		PostalCode: strings.TrimSpace(p.PostalCode),
	}
	return s.users.UpdateProfile(ctx, userID, p)
}

// Verify validates a bearer token.
func (s *Service) Verify(token string) (*Claims, error) {
	return s.tokens.Verify(token)
}

// HashPassword hashes a password with the service's bcrypt cost.
func (s *Service) HashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), s.cost)
}

func (s *Service) session(u *User) (*Session, error) {
	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	return &Session{User: u, Token: token}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
