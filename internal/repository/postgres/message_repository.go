package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"futuresend/internal/model"
	"futuresend/internal/repository"
)

var _ repository.MessageRepository = (*MessageRepository)(nil)

// MessageRepository provides PostgreSQL backed message operations.
type MessageRepository struct {
	db *sql.DB
}

// NewMessageRepository creates a new repository instance.
func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

const messageColumns = `id, content, destinatary, sender, is_anonymous, sending_date, sent, sent_at, created_at`

// CreateConsumingQuota inserts the message and spends one unit of the user's
// quota inside a single transaction, so a failed insert never consumes quota.
func (r *MessageRepository) CreateConsumingQuota(ctx context.Context, msg model.Message, userID uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `
        UPDATE users
        SET available_messages = available_messages - 1
        WHERE id = $1 AND available_messages > 0`, userID)
	if err != nil {
		tx.Rollback()
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return err
	}
	if affected == 0 {
		tx.Rollback()
		var exists bool
		if err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return repository.ErrUserNotFound
		}
		return repository.ErrQuotaExhausted
	}

	if _, err := tx.ExecContext(ctx, `
        INSERT INTO messages (id, content, destinatary, sender, is_anonymous, sending_date, sent, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, false, $7)`,
		msg.ID, msg.Content, msg.Destinatary, msg.Sender, msg.IsAnonymous, msg.SendingDate, msg.CreatedAt); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// FindByID retrieves a single message.
func (r *MessageRepository) FindByID(ctx context.Context, id uuid.UUID) (model.Message, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT `+messageColumns+`
        FROM messages
        WHERE id = $1`, id)

	msg, err := scanMessage(row)
	if err == sql.ErrNoRows {
		return model.Message{}, repository.ErrMessageNotFound
	}
	return msg, err
}

// CountDue counts messages whose sending date has passed and which are still
// unsent.
func (r *MessageRepository) CountDue(ctx context.Context, now time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
        SELECT COUNT(1)
        FROM messages
        WHERE sending_date <= $1 AND sent = false`, now).Scan(&count)
	return count, err
}

// FindDue retrieves up to limit due unsent messages.
func (r *MessageRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]model.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT `+messageColumns+`
        FROM messages
        WHERE sending_date <= $1 AND sent = false
        ORDER BY sending_date ASC
        LIMIT $2`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

// MarkSent flips the whole batch to sent in one statement.
func (r *MessageRepository) MarkSent(ctx context.Context, ids []uuid.UUID, sentAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	idStrings := make([]string, 0, len(ids))
	for _, id := range ids {
		idStrings = append(idStrings, id.String())
	}
	idList := "{" + strings.Join(idStrings, ",") + "}"

	_, err := r.db.ExecContext(ctx, `
        UPDATE messages
        SET sent = true, sent_at = $2
        WHERE id = ANY($1::uuid[])`, idList, sentAt)
	return err
}

// ListSent lists dispatched messages with pagination and counts the total.
func (r *MessageRepository) ListSent(ctx context.Context, offset, limit int) ([]model.Message, int, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT `+messageColumns+`
        FROM messages
        WHERE sent = true
        ORDER BY sent_at DESC NULLS LAST, created_at DESC
        OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, 0, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM messages WHERE sent = true`).Scan(&total); err != nil {
		return nil, 0, err
	}

	return messages, total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (model.Message, error) {
	var msg model.Message
	var sentAt sql.NullTime
	if err := row.Scan(&msg.ID, &msg.Content, &msg.Destinatary, &msg.Sender,
		&msg.IsAnonymous, &msg.SendingDate, &msg.Sent, &sentAt, &msg.CreatedAt); err != nil {
		return model.Message{}, err
	}
	if sentAt.Valid {
		ts := sentAt.Time
		msg.SentAt = &ts
	}
	return msg, nil
}
