package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dtroode/session-server/internal/model"
)

const uniqueViolation = "23505"

const userColumns = `id, username, email, full_name, avatar_url, cover_image_url,
	password_hash, refresh_token_hash, created_at, updated_at`

var _ model.UserStore = (*UserRepository)(nil)

// querier is the subset of *pgxpool.Pool the repository uses.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

type UserRepository struct {
	db querier
}

func NewUserRepository(db *Connection) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

// FindByIdentifier resolves a username or email through user_identifiers,
// where each identifier belongs to at most one user.
func (r *UserRepository) FindByIdentifier(ctx context.Context, identifier string) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
			  WHERE id = (SELECT user_id FROM user_identifiers WHERE identifier = $1)`

	user, err := scanUser(r.db.QueryRow(ctx, query, identifier))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by identifier: %w", err)
	}

	return user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

// CompareAndSetRefreshToken swaps the stored refresh token hash in a single
// conditional UPDATE. A nil expectedOld matches a user with no session.
func (r *UserRepository) CompareAndSetRefreshToken(ctx context.Context, id uuid.UUID, expectedOld, newValue []byte) (bool, error) {
	const query = `
        UPDATE users SET refresh_token_hash = $3, updated_at = NOW()
        WHERE id = $1 AND refresh_token_hash IS NOT DISTINCT FROM $2
    `

	tag, err := r.db.Exec(ctx, query, id, nullable(expectedOld), nullable(newValue))
	if err != nil {
		return false, fmt.Errorf("failed to swap refresh token: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *UserRepository) SetRefreshToken(ctx context.Context, id uuid.UUID, value []byte) error {
	const query = `UPDATE users SET refresh_token_hash = $2, updated_at = NOW() WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, nullable(value))
	if err != nil {
		return fmt.Errorf("failed to set refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *UserRepository) SetPasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	const query = `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, hash)
	if err != nil {
		return fmt.Errorf("failed to set password hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// Create inserts the user and claims its username and email in the same
// statement. A claim held by anyone else fails the whole insert.
func (r *UserRepository) Create(ctx context.Context, user model.User) (model.User, error) {
	query := `WITH created AS (
				  INSERT INTO users (id, username, email, full_name, avatar_url, cover_image_url, password_hash)
				  VALUES ($1, $2, $3, $4, $5, $6, $7)
				  RETURNING ` + userColumns + `
			  ), claimed AS (
				  INSERT INTO user_identifiers (identifier, user_id)
				  SELECT username, id FROM created
				  UNION
				  SELECT email, id FROM created
			  )
			  SELECT ` + userColumns + ` FROM created`

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	saved, err := scanUser(r.db.QueryRow(ctx, query,
		user.ID, user.Username, user.Email, user.FullName, user.AvatarURL, user.CoverImageURL, user.PasswordHash,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return model.User{}, model.ErrAlreadyExists
		}
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return saved, nil
}

// UpdateAccount claims the new email before releasing the old one. The old
// email is kept when it doubles as the username or is unchanged.
func (r *UserRepository) UpdateAccount(ctx context.Context, id uuid.UUID, email, fullName string) (model.User, error) {
	query := `WITH previous AS (
				  SELECT username, email FROM users WHERE id = $1
			  ), claimed AS (
				  INSERT INTO user_identifiers (identifier, user_id)
				  SELECT $2::text, $1::uuid FROM previous
				  WHERE NOT EXISTS (
					  SELECT 1 FROM user_identifiers WHERE identifier = $2::text AND user_id = $1::uuid
				  )
			  ), released AS (
				  DELETE FROM user_identifiers
				  USING previous
				  WHERE user_identifiers.user_id = $1::uuid
					AND user_identifiers.identifier = previous.email
					AND previous.email <> previous.username
					AND previous.email <> $2::text
			  )
			  UPDATE users SET email = $2, full_name = $3, updated_at = NOW()
			  WHERE id = $1 RETURNING ` + userColumns

	return r.updateReturning(ctx, "account", query, id, email, fullName)
}

func (r *UserRepository) SetAvatar(ctx context.Context, id uuid.UUID, url string) (model.User, error) {
	query := `UPDATE users SET avatar_url = $2, updated_at = NOW() WHERE id = $1 RETURNING ` + userColumns

	return r.updateReturning(ctx, "avatar", query, id, url)
}

func (r *UserRepository) SetCoverImage(ctx context.Context, id uuid.UUID, url string) (model.User, error) {
	query := `UPDATE users SET cover_image_url = $2, updated_at = NOW() WHERE id = $1 RETURNING ` + userColumns

	return r.updateReturning(ctx, "cover image", query, id, url)
}

func (r *UserRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func (r *UserRepository) updateReturning(ctx context.Context, what, query string, args ...any) (model.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return model.User{}, model.ErrNotFound
		case isUniqueViolation(err):
			return model.User{}, model.ErrAlreadyExists
		}
		return model.User{}, fmt.Errorf("failed to update %s: %w", what, err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.FullName, &user.AvatarURL, &user.CoverImageURL,
		&user.PasswordHash, &user.RefreshTokenHash, &user.CreatedAt, &user.UpdatedAt,
	)
	return user, err
}

// nullable maps an empty hash to SQL NULL so "no session" has one encoding.
func nullable(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
