package sqlite

import (
	"context"
	"fmt"

	"github.com/example/meeting-coordinator/internal/persistence"
)

// UserRepository stores user accounts.
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a user repository backed by db.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser inserts a new account.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	_, err := r.db.sql.ExecContext(ctx,
		`INSERT INTO users (id, email, display_name, password_hash, is_admin, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.DisplayName, user.PasswordHash, user.IsAdmin,
		formatTime(user.CreatedAt), formatTime(user.UpdatedAt))
	if err != nil {
		return fmt.Errorf("create user: %w", mapError(err))
	}
	return nil
}

// GetUser returns the user with the given id.
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	return r.getUser(ctx, "id = ?", id)
}

// GetUserByEmail returns the user registered with the given email.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	return r.getUser(ctx, "email = ?", email)
}

func (r *UserRepository) getUser(ctx context.Context, where string, arg any) (persistence.User, error) {
	row := r.db.sql.QueryRowContext(ctx,
		"SELECT id, email, display_name, password_hash, is_admin, created_at, updated_at FROM users WHERE "+where,
		arg)
	user, err := scanUser(row)
	if err != nil {
		return persistence.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// ListUsers returns every account ordered by display name.
func (r *UserRepository) ListUsers(ctx context.Context) ([]persistence.User, error) {
	rows, err := r.db.sql.QueryContext(ctx,
		"SELECT id, email, display_name, password_hash, is_admin, created_at, updated_at FROM users ORDER BY display_name, id")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", mapError(err))
	}
	defer rows.Close()

	users := []persistence.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func scanUser(row rowScanner) (persistence.User, error) {
	var user persistence.User
	var created, updated string
	err := row.Scan(&user.ID, &user.Email, &user.DisplayName, &user.PasswordHash,
		&user.IsAdmin, &created, &updated)
	if err != nil {
		return persistence.User{}, mapError(err)
	}
	if user.CreatedAt, err = parseTime(created); err != nil {
		return persistence.User{}, err
	}
	if user.UpdatedAt, err = parseTime(updated); err != nil {
		return persistence.User{}, err
	}
	return user, nil
}
