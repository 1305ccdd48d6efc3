package domain

// DeckLimits carries the budget constraints a candidate list is checked
// against.
type DeckLimits struct {
	XenoMax   int `json:"xenoMax"`
	HuecosMax int `json:"huecosMax"`
}

// ValidationResult breaks a deck's validity down per rule. Valid holds exactly
// when the other three booleans do.
type ValidationResult struct {
	Full      bool `json:"full"`
	DupFree   bool `json:"dupFree"`
	XenoOk    bool `json:"xenoOk"`
	XenoTotal int  `json:"xenoTotal"`
	Valid     bool `json:"valid"`
}

// XenoTotal sums the xeno cost of each id. Ids absent from the catalog
// contribute 0 rather than failing; decks stay computable across catalog
// updates.
func XenoTotal(ids []string, catalog Catalog) int {
	total := 0
	for _, id := range ids {
		total += catalog[id]
	}
	return total
}

// Validate checks a candidate card list against the limits and catalog. It is
// a pure function with no storage access: callers normalize ids beforehand
// (see NormalizeCardIDs), so duplicate detection here is exact-match.
func Validate(ids []string, limits DeckLimits, catalog Catalog) ValidationResult {
	full := len(ids) == limits.HuecosMax
	for _, id := range ids {
		if id == "" {
			full = false
			break
		}
	}

	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	dupFree := len(seen) == len(ids)

	total := XenoTotal(ids, catalog)
	xenoOk := total <= limits.XenoMax

	return ValidationResult{
		Full:      full,
		DupFree:   dupFree,
		XenoOk:    xenoOk,
		XenoTotal: total,
		Valid:     full && dupFree && xenoOk,
	}
}
