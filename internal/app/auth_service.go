// Package app holds the application services and business logic.
package app

import (
	"context"
	"fmt"
	"time"

	"mitocards/internal/domain"

	"github.com/google/uuid"
)

// SessionTTL bounds every minted session; the store expires the entry, no
// sweep needed.
const SessionTTL = 30 * 24 * time.Hour

// AuthService handles accounts, credentials and session management.
type AuthService struct {
	users    domain.UserRepository
	sessions domain.SessionRepository
	decks    domain.DeckRepository
	index    domain.DeckIndex
}

// NewAuthService creates a new authentication service. The deck repository
// and index are needed for the account-wide operations (handle rename
// fan-out, account deletion cascade).
func NewAuthService(users domain.UserRepository, sessions domain.SessionRepository, decks domain.DeckRepository, index domain.DeckIndex) *AuthService {
	return &AuthService{users: users, sessions: sessions, decks: decks, index: index}
}

// SignupOrLogin creates the account when the handle is unknown, otherwise
// behaves as Login. Either way a fresh session is minted. A signup without a
// password creates an open account.
func (s *AuthService) SignupOrLogin(ctx context.Context, handle, password string) (*domain.User, *domain.Session, error) {
	handle = domain.NormalizeHandle(handle)
	if handle == "" {
		return nil, nil, fmt.Errorf("handle: %w", domain.ErrInvalidInput)
	}

	user, err := s.users.GetByHandle(ctx, handle)
	if err != nil {
		return nil, nil, err
	}
	if user != nil {
		if err := checkPassword(user, password); err != nil {
			return nil, nil, err
		}
		sess, err := s.mint(ctx, user)
		return user, sess, err
	}

	user = &domain.User{ID: uuid.NewString(), Handle: handle}
	if password != "" {
		user.Hash, user.Salt, err = hashPassword(password)
		if err != nil {
			return nil, nil, err
		}
	}
	if err := s.users.Put(ctx, user); err != nil {
		return nil, nil, err
	}

	sess, err := s.mint(ctx, user)
	return user, sess, err
}

// Login authenticates an existing handle and mints a session. Unknown handles
// report ErrNotFound so clients can distinguish "no such user" from a wrong
// password.
func (s *AuthService) Login(ctx context.Context, handle, password string) (*domain.User, *domain.Session, error) {
	user, err := s.users.GetByHandle(ctx, handle)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, fmt.Errorf("handle %q: %w", handle, domain.ErrNotFound)
	}
	if err := checkPassword(user, password); err != nil {
		return nil, nil, err
	}

	sess, err := s.mint(ctx, user)
	return user, sess, err
}

// LoginVerified mints a session for an identity already verified out of band
// (SSO). The account is auto-provisioned passwordless when missing; no
// password gate applies.
func (s *AuthService) LoginVerified(ctx context.Context, handle string) (*domain.User, *domain.Session, error) {
	handle = domain.NormalizeHandle(handle)
	if handle == "" {
		return nil, nil, fmt.Errorf("handle: %w", domain.ErrInvalidInput)
	}

	user, err := s.users.GetByHandle(ctx, handle)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		user = &domain.User{ID: uuid.NewString(), Handle: handle}
		if err := s.users.Put(ctx, user); err != nil {
			return nil, nil, err
		}
	}

	sess, err := s.mint(ctx, user)
	return user, sess, err
}

// Logout revokes a session. Idempotent.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// Resolve looks up a session token, returning (nil, nil) when the token is
// unknown or expired.
func (s *AuthService) Resolve(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, nil
	}
	return s.sessions.GetByToken(ctx, token)
}

// ChangePassword sets a new password. Accounts that already have one must
// present the old password.
func (s *AuthService) ChangePassword(ctx context.Context, sess *domain.Session, oldPassword, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("newPassword: %w", domain.ErrInvalidInput)
	}

	user, err := s.sessionUser(ctx, sess)
	if err != nil {
		return err
	}
	if user.HasPassword() {
		if err := checkPassword(user, oldPassword); err != nil {
			return err
		}
	}

	user.Hash, user.Salt, err = hashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.users.Put(ctx, user)
}

// ChangeHandle renames the account. The user document is migrated to the new
// handle key, the ownerHandle cached on every owned deck is rewritten, and the
// current session is replaced (its handle is baked into the token payload).
// The steps are not atomic: a crash mid-fan-out leaves some decks with a stale
// ownerHandle, still resolvable through the owner id.
func (s *AuthService) ChangeHandle(ctx context.Context, sess *domain.Session, newHandle, password string) (*domain.User, *domain.Session, error) {
	newHandle = domain.NormalizeHandle(newHandle)
	if newHandle == "" {
		return nil, nil, fmt.Errorf("newHandle: %w", domain.ErrInvalidInput)
	}
	if newHandle == sess.Handle {
		return nil, nil, fmt.Errorf("newHandle unchanged: %w", domain.ErrInvalidInput)
	}

	user, err := s.sessionUser(ctx, sess)
	if err != nil {
		return nil, nil, err
	}
	if user.HasPassword() {
		if err := checkPassword(user, password); err != nil {
			return nil, nil, err
		}
	}

	if err := s.users.Rename(ctx, user, newHandle); err != nil {
		return nil, nil, err
	}

	ids, err := s.index.OwnerDeckIDs(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	for _, id := range ids {
		deck, err := s.decks.Get(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		if deck == nil {
			continue
		}
		deck.OwnerHandle = newHandle
		if err := s.decks.Put(ctx, deck); err != nil {
			return nil, nil, err
		}
	}

	if err := s.sessions.Delete(ctx, sess.Token); err != nil {
		return nil, nil, err
	}
	next, err := s.mint(ctx, user)
	return user, next, err
}

// DeleteAccount removes the user, every owned deck and all index memberships,
// then revokes the session. It returns the number of decks deleted. The
// cascade is sequential and unrolled-back: a failure partway leaves the
// remaining decks intact for a retry.
func (s *AuthService) DeleteAccount(ctx context.Context, sess *domain.Session, password string, confirm bool) (int, error) {
	if !confirm {
		return 0, fmt.Errorf("confirm: %w", domain.ErrInvalidInput)
	}

	user, err := s.sessionUser(ctx, sess)
	if err != nil {
		return 0, err
	}
	if user.HasPassword() {
		if err := checkPassword(user, password); err != nil {
			return 0, err
		}
	}

	ids, err := s.index.OwnerDeckIDs(ctx, user.ID)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		if err := s.decks.Delete(ctx, id); err != nil {
			return 0, err
		}
		if err := s.index.DeckDeleted(ctx, user.ID, id); err != nil {
			return 0, err
		}
	}
	if err := s.index.DropOwner(ctx, user.ID); err != nil {
		return 0, err
	}

	if err := s.users.Delete(ctx, user.Handle); err != nil {
		return 0, err
	}
	if err := s.sessions.Delete(ctx, sess.Token); err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (s *AuthService) mint(ctx context.Context, user *domain.User) (*domain.Session, error) {
	token, err := newSessionToken()
	if err != nil {
		return nil, err
	}
	sess := &domain.Session{
		Token:     token,
		UserID:    user.ID,
		Handle:    user.Handle,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.sessions.Put(ctx, sess, SessionTTL); err != nil {
		return nil, err
	}
	return sess, nil
}

// sessionUser re-resolves the session's user document. The session caches the
// handle, so a stale session (user deleted or renamed concurrently) fails the
// id check here.
func (s *AuthService) sessionUser(ctx context.Context, sess *domain.Session) (*domain.User, error) {
	user, err := s.users.GetByHandle(ctx, sess.Handle)
	if err != nil {
		return nil, err
	}
	if user == nil || user.ID != sess.UserID {
		return nil, fmt.Errorf("user %q: %w", sess.Handle, domain.ErrNotFound)
	}
	return user, nil
}

// checkPassword applies the password gate: open accounts (no stored hash)
// accept anything, including the empty string.
func checkPassword(user *domain.User, password string) error {
	if !user.HasPassword() {
		return nil
	}
	if password == "" {
		return fmt.Errorf("password required: %w", domain.ErrUnauthenticated)
	}
	if !verifyPassword(password, user.Hash, user.Salt) {
		return fmt.Errorf("password incorrect: %w", domain.ErrUnauthenticated)
	}
	return nil
}
