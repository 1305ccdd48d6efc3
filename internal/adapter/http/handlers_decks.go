package adapthttp

import (
	"errors"
	"net/http"
	"strings"

	"mitocards/internal/app"
	"mitocards/internal/domain"
)

func (s *Server) handleDecks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListDecks(w, r)
	case http.MethodPost:
		s.handleCreateDeck(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleListDecks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	expand := boolQuery(r, "expand")

	var ids []string
	var err error
	if r.URL.Query().Get("scope") == "public" {
		ids, err = s.decks.PublicDeckIDs(ctx)
	} else {
		// Any other scope means "mine" and needs a session.
		var sess *domain.Session
		sess, err = s.requireSession(r)
		if err == nil {
			ids, err = s.decks.OwnerDeckIDs(ctx, sess)
		}
	}
	if err != nil {
		fail(w, err)
		return
	}

	if !expand {
		refs := make([]map[string]string, len(ids))
		for i, id := range ids {
			refs[i] = map[string]string{"id": id}
		}
		writeJSON(w, http.StatusOK, map[string]any{"decks": refs})
		return
	}

	decks, err := s.decks.Expand(ctx, ids)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"decks": decks})
}

func (s *Server) handleCreateDeck(w http.ResponseWriter, r *http.Request) {
	sess, err := s.requireSession(r)
	if err != nil {
		fail(w, err)
		return
	}

	var in app.DeckInput
	if err := parseJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	deck, err := s.decks.Create(r.Context(), sess, in)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "deck": deck})
}

func (s *Server) handleDeckByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/decks/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, errors.New("missing id"))
		return
	}

	sess, err := s.session(r)
	if err != nil {
		fail(w, err)
		return
	}
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		deck, err := s.decks.Get(ctx, id, sess)
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deck": deck})

	case http.MethodPut:
		var in app.DeckInput
		if err := parseJSON(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		deck, err := s.decks.Update(ctx, id, sess, in)
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "deck": deck})

	case http.MethodDelete:
		if err := s.decks.Delete(ctx, id, sess); err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleValidate checks a candidate card list against the configured catalog.
// It is pure and needs no session; clients use it to pre-check before saving.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		IDs       []string `json:"ids"`
		XenoMax   int      `json:"xenoMax"`
		HuecosMax int      `json:"huecosMax"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ids := domain.NormalizeCardIDs(body.IDs)
	result := domain.Validate(ids, domain.DeckLimits{XenoMax: body.XenoMax, HuecosMax: body.HuecosMax}, s.catalog)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.catalog == nil {
		writeError(w, http.StatusNotFound, errors.New("no catalog configured"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"catalog": s.catalog})
}
