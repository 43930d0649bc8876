package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/onair-media/be-editorial-workflow/internal/database"
	"github.com/onair-media/be-editorial-workflow/internal/workflow"
)

// UserRepository is the read-only directory collaborator. Account management
// lives in a separate service; this repository only resolves users for
// authorization and assignment.
type UserRepository struct {
	db *database.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetUser retrieves a user by ID.
func (r *UserRepository) GetUser(ctx context.Context, id string) (*User, error) {
	query := `
		SELECT id, display_name, email, role, is_active, created_at
		FROM users
		WHERE id = $1
	`
	u := &User{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&u.ID,
		&u.DisplayName,
		&u.Email,
		&u.Role,
		&u.IsActive,
		&u.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, workflow.NotFound("user", id)
	}
	if err != nil {
		return nil, workflow.Wrap(err, workflow.CodeInternal, "failed to get user")
	}
	return u, nil
}

// ListByRoles returns active users holding any of the given roles, for
// eligible-assignee pickers.
func (r *UserRepository) ListByRoles(ctx context.Context, roles []workflow.Role) ([]*User, error) {
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, string(role))
	}

	query := `
		SELECT id, display_name, email, role, is_active, created_at
		FROM users
		WHERE role = ANY($1) AND is_active
		ORDER BY display_name ASC
	`
	rows, err := r.db.Query(ctx, query, names)
	if err != nil {
		return nil, workflow.Wrap(err, workflow.CodeInternal, "failed to list users by role")
	}
	defer rows.Close()

	users := make([]*User, 0)
	for rows.Next() {
		u := &User{}
		err := rows.Scan(&u.ID, &u.DisplayName, &u.Email, &u.Role, &u.IsActive, &u.CreatedAt)
		if err != nil {
			return nil, workflow.Wrap(err, workflow.CodeInternal, "failed to scan user")
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
