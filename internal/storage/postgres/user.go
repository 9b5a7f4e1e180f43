package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/groceasy/groceasy-api/internal/domain/auth"
)

const (
	userColumns = `id::text, email, password_hash, role,
		first_name, last_name, phone, address, city, postal_code,
		created_at, updated_at`

	insertUserSQL = `INSERT INTO users
		(id, email, password_hash, role, first_name, last_name, phone, address, city, postal_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`

	findUserByEmailSQL = `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	findUserByIDSQL = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	updateProfileSQL = `UPDATE users SET
			first_name = $2, last_name = $3, phone = $4,
			address = $5, city = $6, postal_code = $7,
			updated_at = now()
		WHERE id = $1
		RETURNING ` + userColumns
)

var _ auth.Repository = (*UserRepository)(nil)

// UserRepository implements auth.Repository backed by PostgreSQL.
type UserRepository struct {
	db DB
}

// NewUserRepository returns a UserRepository that uses db.
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create stores a new user.
func (r *UserRepository) Create(ctx context.Context, u *auth.User) error {
	_, err := r.db.Exec(ctx, insertUserSQL,
		u.ID, u.Email, u.PasswordHash, string(u.Role),
		u.FirstName, u.LastName, u.Phone, u.Address, u.City, u.PostalCode,
		u.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return auth.ErrEmailTaken
		}
		return errors.Wrap(err, "insert user")
	}
	return nil
}

// FindByEmail looks a user up by normalized email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	return r.findOne(ctx, findUserByEmailSQL, email)
}

// FindByID looks a user up by ID.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*auth.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, auth.ErrNotFound
	}
	return r.findOne(ctx, findUserByIDSQL, id)
}

// UpdateProfile replaces the profile fields of a user and returns the result.
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, p auth.Profile) (*auth.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, auth.ErrNotFound
	}
	return r.findOne(ctx, updateProfileSQL,
		id, p.FirstName, p.LastName, p.Phone, p.Address, p.City, p.PostalCode,
	)
}

func (r *UserRepository) findOne(ctx context.Context, sql string, args ...any) (*auth.User, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query user")
	}
	u, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrNotFound
		}
		return nil, errors.Wrap(err, "scan user")
	}
	return &u, nil
}

func scanUser(row pgx.CollectableRow) (auth.User, error) {
	var (
		u    auth.User
		role string
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &role,
		&u.FirstName, &u.LastName, &u.Phone, &u.Address, &u.City, &u.PostalCode,
		&u.CreatedAt, &u.UpdatedAt,
	)
	u.Role = auth.Role(role)
	return u, err
}
