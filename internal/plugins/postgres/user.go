package postgres

import (
	"context"
	"database/sql"

	"github.com/Viargos/Backend-sub000/internal/core/domain"
)

// UserRepo resolves user identities for the router. Read-only: the
// messaging core never mutates profiles.
type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Exists(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *UserRepo) Get(ctx context.Context, id string) (*domain.UserSummary, error) {
	if id == "" {
		return nil, domain.ErrUserNotFound
	}
	user := &domain.UserSummary{ID: id}
	err := r.db.QueryRowContext(ctx,
		`SELECT username FROM users WHERE id = $1`, id,
	).Scan(&user.Username)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
