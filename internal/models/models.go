package models

import (
	"time"
)

// Role distinguishes administrators from regular users. Stored as text in
// the users table so a truthy-int bug can't silently grant admin.
type Role string

const (
	RoleRegular Role = "regular"
	RoleAdmin   Role = "admin"
)

// User represents an authenticated user of the system. PasswordHash is empty
// for accounts provisioned through federated login; those accounts cannot
// log in with a password.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         Role      `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Chat is one conversation owned by exactly one user.
type Chat struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Message holds one exchange inside a chat: what the user sent and what the
// model answered. Immutable once written, except for admin deletion.
type Message struct {
	ID       int64  `db:"id" json:"id"`
	ChatID   int64  `db:"chat_id" json:"chat_id"`
	Content  string `db:"content" json:"content"`
	Response string `db:"response" json:"response"`
}
