package domain

import (
	"encoding/json"
	"os"
)

// Card is one catalog entry: an id and its xeno cost.
type Card struct {
	ID   string `json:"id"`
	Xeno int    `json:"xeno"`
}

// Catalog maps card id to xeno cost.
type Catalog map[string]int

// BuildCatalog indexes a card list by id. Later duplicates win.
func BuildCatalog(cards []Card) Catalog {
	c := make(Catalog, len(cards))
	for _, card := range cards {
		c[card.ID] = card.Xeno
	}
	return c
}

// LoadCatalog reads a JSON card list ([{"id": ..., "xeno": ...}, ...]) from
// disk.
func LoadCatalog(path string) (Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cards []Card
	if err := json.Unmarshal(raw, &cards); err != nil {
		return nil, err
	}
	return BuildCatalog(cards), nil
}
