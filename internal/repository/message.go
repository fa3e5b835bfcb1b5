package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"futuresend/internal/model"
)

// ErrMessageNotFound is returned when no message matches the given id.
var ErrMessageNotFound = errors.New("message not found")

// ErrUserNotFound is returned when no user matches the given id.
var ErrUserNotFound = errors.New("user not found")

// ErrQuotaExhausted is returned when a user has no messages left to create.
var ErrQuotaExhausted = errors.New("message quota exhausted")

// MessageRepository defines the database operations required for messages.
type MessageRepository interface {
	// CreateConsumingQuota decrements the submitting user's quota and inserts
	// the message in a single transaction. Returns ErrQuotaExhausted without
	// persisting anything when the quota is already spent.
	CreateConsumingQuota(ctx context.Context, msg model.Message, userID uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (model.Message, error)
	CountDue(ctx context.Context, now time.Time) (int, error)
	FindDue(ctx context.Context, now time.Time, limit int) ([]model.Message, error)
	MarkSent(ctx context.Context, ids []uuid.UUID, sentAt time.Time) error
	ListSent(ctx context.Context, offset, limit int) ([]model.Message, int, error)
}

// UserRepository defines the database operations required for users.
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (model.User, error)
}
