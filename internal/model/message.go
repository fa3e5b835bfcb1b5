package model

import (
	"time"

	"github.com/google/uuid"
)

// Message represents the data stored in PostgreSQL about messages scheduled
// for future delivery. Sender stays empty for anonymous messages.
type Message struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	Content     string     `db:"content" json:"content"`
	Destinatary string     `db:"destinatary" json:"destinatary"`
	Sender      string     `db:"sender" json:"sender,omitempty"`
	IsAnonymous bool       `db:"is_anonymous" json:"is_anonymous"`
	SendingDate time.Time  `db:"sending_date" json:"sending_date"`
	Sent        bool       `db:"sent" json:"sent"`
	SentAt      *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// Due reports whether the message is eligible for dispatch at the given time.
func (m Message) Due(now time.Time) bool {
	return !m.Sent && !m.SendingDate.After(now)
}
