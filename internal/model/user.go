package model

import "github.com/google/uuid"

// User is the account that submits messages. AvailableMessages is the
// remaining quota, decremented once per created message.
type User struct {
	ID                uuid.UUID `db:"id" json:"id"`
	FirstName         string    `db:"first_name" json:"first_name"`
	LastName          string    `db:"last_name" json:"last_name"`
	AvailableMessages int       `db:"available_messages" json:"available_messages"`
}

// FullName returns the display label used as a non-anonymous message sender.
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}
