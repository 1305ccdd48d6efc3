package kvstore

import (
	"context"
	"encoding/json"
	"fmt"

	"mitocards/internal/domain"
	"mitocards/internal/kv"
)

// Users persists user documents keyed by lower-cased handle. Keying by handle
// is what enforces handle uniqueness.
type Users struct {
	store kv.Store
}

// NewUsers wraps a kv.Store as a domain.UserRepository.
func NewUsers(store kv.Store) *Users {
	return &Users{store: store}
}

// Ensure the interface is met.
var _ domain.UserRepository = (*Users)(nil)

// GetByHandle retrieves a user, or (nil, nil) if the handle is unknown.
func (u *Users) GetByHandle(ctx context.Context, handle string) (*domain.User, error) {
	raw, err := u.store.Get(ctx, userKey(domain.NormalizeHandle(handle)))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("decode user %q: %w", handle, err)
	}
	return &user, nil
}

// Put writes the user document under its normalized handle key.
func (u *Users) Put(ctx context.Context, user *domain.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return u.store.Set(ctx, userKey(domain.NormalizeHandle(user.Handle)), raw, 0)
}

// Rename migrates the user document to a new handle key: check the target is
// free, delete the old key, write the new one. Not atomic; a crash after the
// delete loses the document until the write retries, which the design accepts
// (see package comment).
func (u *Users) Rename(ctx context.Context, user *domain.User, newHandle string) error {
	newHandle = domain.NormalizeHandle(newHandle)

	existing, err := u.store.Get(ctx, userKey(newHandle))
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("handle %q: %w", newHandle, domain.ErrConflict)
	}

	if err := u.store.Del(ctx, userKey(domain.NormalizeHandle(user.Handle))); err != nil {
		return err
	}
	user.Handle = newHandle
	return u.Put(ctx, user)
}

// Delete removes the user document. Idempotent.
func (u *Users) Delete(ctx context.Context, handle string) error {
	return u.store.Del(ctx, userKey(domain.NormalizeHandle(handle)))
}
