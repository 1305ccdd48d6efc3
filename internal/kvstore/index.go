package kvstore

import (
	"context"

	"mitocards/internal/domain"
	"mitocards/internal/kv"
)

// Index maintains the derived deck sets: per-owner membership, the
// public/private partitions, and the global public listing. Each transition is
// expressed as an explicit ordered list of set operations so the sequence can
// be inspected and tested without a store.
type Index struct {
	store kv.Store
}

// NewIndex wraps a kv.Store as a domain.DeckIndex.
func NewIndex(store kv.Store) *Index {
	return &Index{store: store}
}

// Ensure the interface is met.
var _ domain.DeckIndex = (*Index)(nil)

type opKind int

const (
	opAdd opKind = iota
	opRem
)

// setOp is one sadd/srem step of a transition.
type setOp struct {
	kind   opKind
	key    string
	member string
}

func add(key, member string) setOp { return setOp{kind: opAdd, key: key, member: member} }
func rem(key, member string) setOp { return setOp{kind: opRem, key: key, member: member} }

func (ix *Index) apply(ctx context.Context, ops []setOp) error {
	for _, op := range ops {
		var err error
		switch op.kind {
		case opAdd:
			err = ix.store.SAdd(ctx, op.key, op.member)
		case opRem:
			err = ix.store.SRem(ctx, op.key, op.member)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// deckCreatedOps enrolls a new deck: owner membership first, then the
// matching partition, then the global listing when public. The owner set is
// the superset, so it is written before anything that implies membership.
func deckCreatedOps(ownerID, deckID string, vis domain.Visibility) []setOp {
	ops := []setOp{add(ownerDecksKey(ownerID), deckID)}
	if vis == domain.Public {
		ops = append(ops,
			add(ownerPublicKey(ownerID), deckID),
			add(publicDecksKey, deckID),
		)
	} else {
		ops = append(ops, add(ownerPrivateKey(ownerID), deckID))
	}
	return ops
}

// visibilityChangedOps moves a deck between partitions. The old partition is
// drained before the new one is filled so the deck is never in both, and the
// global listing follows the partition it belongs to.
func visibilityChangedOps(ownerID, deckID string, from, to domain.Visibility) []setOp {
	if from == to {
		return nil
	}
	if to == domain.Public {
		return []setOp{
			rem(ownerPrivateKey(ownerID), deckID),
			add(ownerPublicKey(ownerID), deckID),
			add(publicDecksKey, deckID),
		}
	}
	return []setOp{
		rem(ownerPublicKey(ownerID), deckID),
		add(ownerPrivateKey(ownerID), deckID),
		rem(publicDecksKey, deckID),
	}
}

// deckDeletedOps removes a deck from all four sets regardless of its current
// visibility; removing from a set that does not contain the id is a no-op.
func deckDeletedOps(ownerID, deckID string) []setOp {
	return []setOp{
		rem(ownerDecksKey(ownerID), deckID),
		rem(ownerPublicKey(ownerID), deckID),
		rem(ownerPrivateKey(ownerID), deckID),
		rem(publicDecksKey, deckID),
	}
}

// DeckCreated enrolls a freshly written deck in the index sets.
func (ix *Index) DeckCreated(ctx context.Context, d *domain.Deck) error {
	return ix.apply(ctx, deckCreatedOps(d.Owner, d.ID, d.Visibility))
}

// VisibilityChanged reconciles the partitions after a visibility toggle.
func (ix *Index) VisibilityChanged(ctx context.Context, ownerID, deckID string, from, to domain.Visibility) error {
	return ix.apply(ctx, visibilityChangedOps(ownerID, deckID, from, to))
}

// DeckDeleted removes a deck from every set it could be a member of.
func (ix *Index) DeckDeleted(ctx context.Context, ownerID, deckID string) error {
	return ix.apply(ctx, deckDeletedOps(ownerID, deckID))
}

// DropOwner deletes the owner's three index keys. The global listing is not
// touched: callers drain it per deck via DeckDeleted before dropping.
func (ix *Index) DropOwner(ctx context.Context, ownerID string) error {
	return ix.store.Del(ctx,
		ownerDecksKey(ownerID),
		ownerPublicKey(ownerID),
		ownerPrivateKey(ownerID),
	)
}

// OwnerDeckIDs lists every deck id owned by ownerID.
func (ix *Index) OwnerDeckIDs(ctx context.Context, ownerID string) ([]string, error) {
	return ix.store.SMembers(ctx, ownerDecksKey(ownerID))
}

// PublicDeckIDs lists the global public deck ids.
func (ix *Index) PublicDeckIDs(ctx context.Context) ([]string, error) {
	return ix.store.SMembers(ctx, publicDecksKey)
}
