package model

import (
	"time"

	"github.com/google/uuid"
)

// User represents an application user record as stored in the `users`
// table. Users are created only by confirming a registration token.
//
// Fields:
//
//	UUID         – primary key, immutable once created.
//	Email        – unique address, stored lower-cased.
//	PasswordHash – bcrypt hash; the plaintext is never stored.
//	FirstName    – given name.
//	LastName     – family name.
//	CreatedAt    – timestamp of creation (UTC).
type User struct {
	UUID         uuid.UUID
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	CreatedAt    time.Time
}

// FullName joins first and last name the way the access listing shows it.
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Accessor is a user holding access to a list, as returned by the access listing.
type Accessor struct {
	UUID  uuid.UUID
	Name  string
	Email string
}
