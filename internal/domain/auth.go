// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"strings"
	"time"
)

// User represents an account. The lower-cased handle doubles as the storage
// key, which is what enforces handle uniqueness. An account with no Hash/Salt
// is passwordless: presenting the handle alone authenticates as that user.
type User struct {
	ID     string `json:"id"`
	Handle string `json:"handle"`
	Hash   string `json:"hash,omitempty"`
	Salt   string `json:"salt,omitempty"`
}

// HasPassword reports whether the account requires password verification.
func (u *User) HasPassword() bool {
	return u.Hash != "" && u.Salt != ""
}

// NormalizeHandle canonicalizes a handle for storage and comparison.
func NormalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimSpace(handle))
}

// Session is a capability token: possession of the token string is sufficient
// proof of identity until the store expires the entry.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	Handle    string    `json:"handle"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserRepository defines the port for user persistence operations.
// Lookups return (nil, nil) when the handle is unknown.
type UserRepository interface {
	GetByHandle(ctx context.Context, handle string) (*User, error)
	Put(ctx context.Context, u *User) error
	// Rename migrates the user document from its current handle key to
	// newHandle. It fails with ErrConflict if newHandle is taken and mutates
	// u.Handle on success. Rewriting the ownerHandle cached on the user's
	// decks is the caller's responsibility.
	Rename(ctx context.Context, u *User, newHandle string) error
	Delete(ctx context.Context, handle string) error
}

// SessionRepository defines the port for session persistence operations.
type SessionRepository interface {
	Put(ctx context.Context, s *Session, ttl time.Duration) error
	GetByToken(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
}
