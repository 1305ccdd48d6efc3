package kvstore

import (
	"context"
	"encoding/json"
	"time"

	"mitocards/internal/domain"
	"mitocards/internal/kv"
)

// Sessions persists session documents under sess:{token} with a store-enforced
// TTL. Expiry needs no sweep: the store simply stops returning the key.
type Sessions struct {
	store kv.Store
}

// NewSessions wraps a kv.Store as a domain.SessionRepository.
func NewSessions(store kv.Store) *Sessions {
	return &Sessions{store: store}
}

// Ensure the interface is met.
var _ domain.SessionRepository = (*Sessions)(nil)

// Put stores the session with the given TTL.
func (s *Sessions) Put(ctx context.Context, sess *domain.Session, ttl time.Duration) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, sessionKey(sess.Token), raw, ttl)
}

// GetByToken resolves a token, or (nil, nil) if missing or expired.
func (s *Sessions) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	raw, err := s.store.Get(ctx, sessionKey(token))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	var sess domain.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Delete revokes the session. Idempotent.
func (s *Sessions) Delete(ctx context.Context, token string) error {
	return s.store.Del(ctx, sessionKey(token))
}
