package app

import (
	"context"
	"fmt"
	"time"

	"mitocards/internal/domain"

	"github.com/google/uuid"
)

// DeckService encapsulates deck use cases. Every mutation that affects
// visibility or existence reconciles the index sets before reporting success.
type DeckService struct {
	decks domain.DeckRepository
	index domain.DeckIndex
}

// NewDeckService creates a DeckService backed by the given repository and
// index.
func NewDeckService(decks domain.DeckRepository, index domain.DeckIndex) *DeckService {
	return &DeckService{decks: decks, index: index}
}

// DeckInput carries a create or partial-update request. Nil pointers mean
// "keep the current value" on update and "use the default" on create.
type DeckInput struct {
	Nombre      *string  `json:"nombre"`
	XenoMax     *int     `json:"xenoMax"`
	HuecosMax   *int     `json:"huecosMax"`
	IDs         []string `json:"ids"`
	Descripcion *string  `json:"descripcion"`
	Visibility  *string  `json:"visibility"`
}

// Create persists a new deck for the session's user and enrolls it in the
// index sets.
func (s *DeckService) Create(ctx context.Context, sess *domain.Session, in DeckInput) (*domain.Deck, error) {
	deck := &domain.Deck{
		ID:          uuid.NewString(),
		Owner:       sess.UserID,
		OwnerHandle: sess.Handle,
		Visibility:  domain.Private,
		Nombre:      "Mazo",
		IDs:         []string{},
		CreatedAt:   time.Now().UTC(),
	}
	if in.Visibility != nil {
		deck.Visibility = domain.ParseVisibility(*in.Visibility)
	}
	if in.Nombre != nil {
		deck.Nombre = *in.Nombre
	}
	if in.XenoMax != nil {
		deck.XenoMax = *in.XenoMax
	}
	if in.HuecosMax != nil {
		deck.HuecosMax = *in.HuecosMax
	}
	if in.IDs != nil {
		deck.IDs = domain.NormalizeCardIDs(in.IDs)
	}
	if in.Descripcion != nil {
		deck.Descripcion = *in.Descripcion
	}

	if err := s.decks.Put(ctx, deck); err != nil {
		return nil, err
	}
	if err := s.index.DeckCreated(ctx, deck); err != nil {
		return nil, err
	}
	return deck, nil
}

// Get returns a deck subject to the read rules: public decks are readable by
// anyone, private decks only by their owner.
func (s *DeckService) Get(ctx context.Context, id string, sess *domain.Session) (*domain.Deck, error) {
	deck, err := s.decks.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if deck == nil {
		return nil, fmt.Errorf("deck %q: %w", id, domain.ErrNotFound)
	}
	if deck.Visibility == domain.Public {
		return deck, nil
	}
	if sess == nil {
		return nil, domain.ErrUnauthenticated
	}
	if deck.Owner != sess.UserID {
		return nil, domain.ErrForbidden
	}
	return deck, nil
}

// PublicDeckIDs lists the global public deck ids.
func (s *DeckService) PublicDeckIDs(ctx context.Context) ([]string, error) {
	return s.index.PublicDeckIDs(ctx)
}

// OwnerDeckIDs lists the session user's deck ids.
func (s *DeckService) OwnerDeckIDs(ctx context.Context, sess *domain.Session) ([]string, error) {
	return s.index.OwnerDeckIDs(ctx, sess.UserID)
}

// Expand resolves deck ids to their documents in one store round trip,
// dropping ids whose document is gone.
func (s *DeckService) Expand(ctx context.Context, ids []string) ([]*domain.Deck, error) {
	return s.decks.GetMany(ctx, ids)
}

// Update applies a partial update to an owned deck. A visibility change
// reconciles the partition sets before the document is rewritten.
func (s *DeckService) Update(ctx context.Context, id string, sess *domain.Session, in DeckInput) (*domain.Deck, error) {
	deck, err := s.ownedDeck(ctx, id, sess)
	if err != nil {
		return nil, err
	}

	prev := deck.Visibility
	if in.Nombre != nil {
		deck.Nombre = *in.Nombre
	}
	if in.XenoMax != nil {
		deck.XenoMax = *in.XenoMax
	}
	if in.HuecosMax != nil {
		deck.HuecosMax = *in.HuecosMax
	}
	if in.IDs != nil {
		deck.IDs = domain.NormalizeCardIDs(in.IDs)
	}
	if in.Descripcion != nil {
		deck.Descripcion = *in.Descripcion
	}
	if in.Visibility != nil {
		deck.Visibility = domain.ParseVisibility(*in.Visibility)
	}

	if deck.Visibility != prev {
		if err := s.index.VisibilityChanged(ctx, deck.Owner, deck.ID, prev, deck.Visibility); err != nil {
			return nil, err
		}
	}
	if err := s.decks.Put(ctx, deck); err != nil {
		return nil, err
	}
	return deck, nil
}

// Delete removes an owned deck and drains its index memberships.
func (s *DeckService) Delete(ctx context.Context, id string, sess *domain.Session) error {
	deck, err := s.ownedDeck(ctx, id, sess)
	if err != nil {
		return err
	}
	if err := s.decks.Delete(ctx, deck.ID); err != nil {
		return err
	}
	return s.index.DeckDeleted(ctx, deck.Owner, deck.ID)
}

func (s *DeckService) ownedDeck(ctx context.Context, id string, sess *domain.Session) (*domain.Deck, error) {
	deck, err := s.decks.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if deck == nil {
		return nil, fmt.Errorf("deck %q: %w", id, domain.ErrNotFound)
	}
	if sess == nil {
		return nil, domain.ErrUnauthenticated
	}
	if deck.Owner != sess.UserID {
		return nil, domain.ErrForbidden
	}
	return deck, nil
}
