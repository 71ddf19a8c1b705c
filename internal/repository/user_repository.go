package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"tableizer/api/internal/models"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
	ErrEmailTaken    = errors.New("email already registered")
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// mapUniqueViolation turns the store's 23505 errors into the conflict
// sentinels the registration flow reports to the user.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch {
		case strings.Contains(pgErr.ConstraintName, "email"):
			return ErrEmailTaken
		case strings.Contains(pgErr.ConstraintName, "username"):
			return ErrUsernameTaken
		}
	}
	return err
}

func (r *UserRepository) Create(ctx context.Context, user models.User) error {
	const query = `
		INSERT INTO users (
			id, username, email, password_hash, bio, last_seen_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, NOW(), NOW(), NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Bio,
	)
	if err != nil {
		return mapUniqueViolation(err)
	}
	return nil
}

const userColumns = `id, username, email, password_hash, bio, last_seen_at, created_at, updated_at`

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Bio,
		&user.LastSeenAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(r.pool.QueryRow(ctx, query, username))
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, username string, bio *string) error {
	const query = `
		UPDATE users SET username = $2, bio = $3, updated_at = NOW() WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, id, username, bio)
	if err != nil {
		return mapUniqueViolation(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id string, passwordHash []byte) error {
	const query = `
		UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, id, passwordHash)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// TouchLastSeen records activity; called from the auth middleware on every
// authenticated request.
func (r *UserRepository) TouchLastSeen(ctx context.Context, id string) error {
	const query = `
		UPDATE users SET last_seen_at = NOW() WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}
