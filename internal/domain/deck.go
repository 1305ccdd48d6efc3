package domain

import (
	"context"
	"strings"
	"time"
)

// Visibility partitions decks into the publicly listed and the owner-only.
type Visibility string

// The two visibility states. Anything that is not Public is Private.
const (
	Public  Visibility = "public"
	Private Visibility = "private"
)

// ParseVisibility normalizes arbitrary input to a valid visibility.
func ParseVisibility(s string) Visibility {
	if strings.ToLower(s) == string(Public) {
		return Public
	}
	return Private
}

// Deck is an ordered, budget-constrained list of card identifiers.
// OwnerHandle caches the owner's handle at write time; it goes stale across a
// handle rename until the rename fan-out rewrites it, so re-derive from Owner
// when exactness matters.
type Deck struct {
	ID          string     `json:"id"`
	Owner       string     `json:"owner"`
	OwnerHandle string     `json:"ownerHandle"`
	Visibility  Visibility `json:"visibility"`
	Nombre      string     `json:"nombre"`
	XenoMax     int        `json:"xenoMax"`
	HuecosMax   int        `json:"huecosMax"`
	IDs         []string   `json:"ids"`
	Descripcion string     `json:"descripcion"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// NormalizeCardIDs lower-cases and trims card ids, preserving order.
func NormalizeCardIDs(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = strings.ToLower(strings.TrimSpace(id))
	}
	return out
}

// DeckRepository defines the port for deck document persistence.
// Get returns (nil, nil) when the id is unknown.
type DeckRepository interface {
	Get(ctx context.Context, id string) (*Deck, error)
	// GetMany fetches the given decks in one round trip, dropping ids that no
	// longer resolve to a document.
	GetMany(ctx context.Context, ids []string) ([]*Deck, error)
	Put(ctx context.Context, d *Deck) error
	Delete(ctx context.Context, id string) error
}

// DeckIndex keeps the derived sets (owner membership, visibility partitions,
// global public listing) synchronized with deck transitions. The sets have no
// independent identity; the deck documents are the source of truth.
type DeckIndex interface {
	DeckCreated(ctx context.Context, d *Deck) error
	VisibilityChanged(ctx context.Context, ownerID, deckID string, from, to Visibility) error
	DeckDeleted(ctx context.Context, ownerID, deckID string) error
	// DropOwner deletes the owner's index keys outright. Callers must have
	// already applied DeckDeleted for every member.
	DropOwner(ctx context.Context, ownerID string) error

	OwnerDeckIDs(ctx context.Context, ownerID string) ([]string, error)
	PublicDeckIDs(ctx context.Context) ([]string, error)
}
