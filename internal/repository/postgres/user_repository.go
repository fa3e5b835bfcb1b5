package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"futuresend/internal/model"
	"futuresend/internal/repository"
)

var _ repository.UserRepository = (*UserRepository)(nil)

// UserRepository provides PostgreSQL backed user lookups.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new repository instance.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID retrieves a single user.
func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	var user model.User
	err := r.db.QueryRowContext(ctx, `
        SELECT id, first_name, last_name, available_messages
        FROM users
        WHERE id = $1`, id).
		Scan(&user.ID, &user.FirstName, &user.LastName, &user.AvailableMessages)
	if err == sql.ErrNoRows {
		return model.User{}, repository.ErrUserNotFound
	}
	return user, err
}
