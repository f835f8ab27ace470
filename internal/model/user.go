package model

import "time"

// User represents an application user record as stored in the
// `users` table. PasswordHash is never serialized.
type User struct {
	ID           uint64    `json:"id"`         // users.id
	Username     string    `json:"username"`   // users.username (unique, case-sensitive)
	PasswordHash string    `json:"-"`          // users.password_hash (bcrypt)
	Role         string    `json:"role"`       // users.role
	CreatedAt    time.Time `json:"created_at"` // users.created_at
}

// RoleAuthor is the only role assigned at registration.
const RoleAuthor = "author"
