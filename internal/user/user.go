// Package user owns user accounts. Accounts are referenced by username from
// keyword and index memberships; this package only stores the account record
// itself.
package user

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alex1431999/keyword-monitor/internal/identity"
	"github.com/alex1431999/keyword-monitor/pkg/postgres"
)

// User is one account record. PasswordHash is stored as provided; hashing
// happens upstream of this layer.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Registry provides user persistence operations.
type Registry struct {
	db     *postgres.Client
	logger *slog.Logger
}

// NewRegistry creates a user registry.
func NewRegistry(db *postgres.Client) *Registry {
	return &Registry{
		db:     db,
		logger: slog.Default().With("component", "user-registry"),
	}
}

// Add creates a new user account.
func (r *Registry) Add(ctx context.Context, username, passwordHash string) (*User, error) {
	u := User{
		ID:           identity.New(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := r.db.DB.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at)
		 VALUES ($1, $2, $3, $4)`,
		u.ID, u.Username, u.PasswordHash, u.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting user: %w", err)
	}
	r.logger.Info("user created", "username", username)
	return &u, nil
}

// Get returns the user with the given username, or nil when none exists.
func (r *Registry) Get(ctx context.Context, username string) (*User, error) {
	var u User
	err := r.db.DB.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = $1`,
		username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading user: %w", err)
	}
	return &u, nil
}
