package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pasmino/internal/domain"
	apperrors "pasmino/internal/errors"
)

type MySQLRepository struct {
	db *sql.DB
}

func NewMySQLRepository(db *sql.DB) *MySQLRepository {
	return &MySQLRepository{db: db}
}

func (r *MySQLRepository) FindByClerkID(ctx context.Context, clerkID string) (*domain.User, error) {
	query := `
		SELECT id, clerk_id, email, name, role, created_at, updated_at
		FROM users
		WHERE clerk_id = ?`

	var u domain.User
	err := r.db.QueryRowContext(ctx, query, clerkID).Scan(
		&u.ID, &u.ClerkID, &u.Email, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("user %s not found", clerkID))
	}
	if err != nil {
		return nil, fmt.Errorf("querying user by clerk id: %w", err)
	}
	return &u, nil
}

// Upsert inserts the user or refreshes email and name. The stored role is
// never overwritten by a sync.
func (r *MySQLRepository) Upsert(ctx context.Context, u domain.User) (*domain.User, error) {
	query := `
		INSERT INTO users (clerk_id, email, name, role)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE email = VALUES(email), name = VALUES(name)`

	role := u.Role
	if role == "" {
		role = domain.RoleCustomer
	}

	if _, err := r.db.ExecContext(ctx, query, u.ClerkID, u.Email, u.Name, role); err != nil {
		return nil, fmt.Errorf("upserting user: %w", err)
	}

	return r.FindByClerkID(ctx, u.ClerkID)
}
