package kvstore

import (
	"context"
	"encoding/json"
	"fmt"

	"mitocards/internal/domain"
	"mitocards/internal/kv"
)

// Decks persists deck documents under deck:{id}.
type Decks struct {
	store kv.Store
}

// NewDecks wraps a kv.Store as a domain.DeckRepository.
func NewDecks(store kv.Store) *Decks {
	return &Decks{store: store}
}

// Ensure the interface is met.
var _ domain.DeckRepository = (*Decks)(nil)

// Get retrieves a deck, or (nil, nil) if the id is unknown.
func (d *Decks) Get(ctx context.Context, id string) (*domain.Deck, error) {
	raw, err := d.store.Get(ctx, deckKey(id))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	var deck domain.Deck
	if err := json.Unmarshal(raw, &deck); err != nil {
		return nil, fmt.Errorf("decode deck %q: %w", id, err)
	}
	return &deck, nil
}

// GetMany fetches deck documents in a single mget, dropping ids whose
// document is gone. An index set can momentarily reference a deleted deck;
// filtering here keeps listings clean without repairing the set.
func (d *Decks) GetMany(ctx context.Context, ids []string) ([]*domain.Deck, error) {
	if len(ids) == 0 {
		return []*domain.Deck{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = deckKey(id)
	}
	raws, err := d.store.MGet(ctx, keys...)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Deck, 0, len(ids))
	for i, raw := range raws {
		if raw == nil {
			continue
		}
		var deck domain.Deck
		if err := json.Unmarshal(raw, &deck); err != nil {
			return nil, fmt.Errorf("decode deck %q: %w", ids[i], err)
		}
		out = append(out, &deck)
	}
	return out, nil
}

// Put writes the deck document.
func (d *Decks) Put(ctx context.Context, deck *domain.Deck) error {
	raw, err := json.Marshal(deck)
	if err != nil {
		return err
	}
	return d.store.Set(ctx, deckKey(deck.ID), raw, 0)
}

// Delete removes the deck document. Idempotent.
func (d *Decks) Delete(ctx context.Context, id string) error {
	return d.store.Del(ctx, deckKey(id))
}
