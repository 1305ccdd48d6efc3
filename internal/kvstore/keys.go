// Package kvstore implements the domain repositories and the deck index
// maintainer on top of the kv.Store primitives.
//
// The store offers no multi-key transactions, so every multi-key mutation is
// an ordered sequence of single-key operations. The ordering is chosen so a
// crash between steps never leaves a deck unreachable from every index, and
// never leaves it in both visibility partitions longer than a single step.
package kvstore

const (
	userPrefix    = "user:"
	sessionPrefix = "sess:"
	deckPrefix    = "deck:"

	// publicDecksKey is the global set of public deck ids.
	publicDecksKey = "decks:public"
)

func userKey(handle string) string   { return userPrefix + handle }
func sessionKey(token string) string { return sessionPrefix + token }
func deckKey(id string) string       { return deckPrefix + id }

// The per-owner index keys are derived from the immutable user id, never the
// handle, which is why a handle rename touches no index.
func ownerDecksKey(uid string) string   { return userPrefix + uid + ":decks" }
func ownerPublicKey(uid string) string  { return userPrefix + uid + ":decks:pub" }
func ownerPrivateKey(uid string) string { return userPrefix + uid + ":decks:priv" }
