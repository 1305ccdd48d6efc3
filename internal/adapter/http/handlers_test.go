package adapthttp_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	adapthttp "mitocards/internal/adapter/http"
	"mitocards/internal/adapter/memory"
	"mitocards/internal/app"
	"mitocards/internal/domain"
	"mitocards/internal/kvstore"
)

func newTestHandler(catalog domain.Catalog) http.Handler {
	store := memory.New()
	users := kvstore.NewUsers(store)
	sessions := kvstore.NewSessions(store)
	decks := kvstore.NewDecks(store)
	index := kvstore.NewIndex(store)
	auth := app.NewAuthService(users, sessions, decks, index)
	svc := app.NewDeckService(decks, index)
	return adapthttp.New(auth, svc, catalog, nil).Handler()
}

// do issues one request against the handler. A non-empty cookie is attached as
// the session cookie; the parsed JSON body (if any) and the response recorder
// come back.
func do(t *testing.T, h http.Handler, method, path, cookie string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: "mitocards.sid", Value: cookie})
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var parsed map[string]any
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &parsed); err != nil {
			t.Fatalf("unmarshal response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, parsed
}

// sessionToken extracts the session cookie set by a response.
func sessionToken(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "mitocards.sid" {
			return c.Value
		}
	}
	t.Fatal("expected a session cookie")
	return ""
}

func signup(t *testing.T, h http.Handler, handle, password string) string {
	t.Helper()
	rec, body := do(t, h, http.MethodPost, "/auth/signup", "", map[string]any{
		"handle": handle, "password": password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("signup %s: status %d body %v", handle, rec.Code, body)
	}
	return sessionToken(t, rec)
}

func TestHealth(t *testing.T) {
	h := newTestHandler(nil)
	rec, body := do(t, h, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if body["ok"] != true {
		t.Errorf("expected ok, got %v", body)
	}
}

func TestSignupAndMe(t *testing.T) {
	h := newTestHandler(nil)

	rec, body := do(t, h, http.MethodPost, "/auth/signup", "", map[string]any{"handle": "Alice"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body %v", rec.Code, body)
	}
	user := body["user"].(map[string]any)
	if user["handle"] != "alice" {
		t.Errorf("expected normalized handle, got %v", user["handle"])
	}

	cookie := rec.Result().Cookies()[0]
	if cookie.Name != "mitocards.sid" || !cookie.HttpOnly || cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("bad session cookie: %+v", cookie)
	}

	rec, body = do(t, h, http.MethodGet, "/auth/me", cookie.Value, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: status %d", rec.Code)
	}
	if rec.Header().Get("Cache-Control") != "no-store, private" {
		t.Errorf("me must not be cacheable, got %q", rec.Header().Get("Cache-Control"))
	}
	me := body["user"].(map[string]any)
	if me["handle"] != "alice" {
		t.Errorf("expected alice, got %v", me)
	}
}

func TestMe_NoSession(t *testing.T) {
	h := newTestHandler(nil)

	rec, body := do(t, h, http.MethodGet, "/auth/me", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if body["user"] != nil {
		t.Errorf("expected null user, got %v", body["user"])
	}

	// A garbage cookie behaves like no cookie.
	rec, body = do(t, h, http.MethodGet, "/auth/me", "bogus-token", nil)
	if rec.Code != http.StatusOK || body["user"] != nil {
		t.Errorf("expected anonymous response, got %d %v", rec.Code, body)
	}
}

func TestLogin_Statuses(t *testing.T) {
	h := newTestHandler(nil)
	signup(t, h, "alice", "secret")

	rec, _ := do(t, h, http.MethodPost, "/auth/login", "", map[string]any{"handle": "ghost", "password": ""})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown handle: expected 404, got %d", rec.Code)
	}

	rec, _ = do(t, h, http.MethodPost, "/auth/login", "", map[string]any{"handle": "alice", "password": "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password: expected 401, got %d", rec.Code)
	}

	rec, _ = do(t, h, http.MethodPost, "/auth/login", "", map[string]any{"handle": "ALICE", "password": "secret"})
	if rec.Code != http.StatusOK {
		t.Errorf("login: expected 200, got %d", rec.Code)
	}
}

func TestLogout(t *testing.T) {
	h := newTestHandler(nil)
	token := signup(t, h, "alice", "")

	rec, _ := do(t, h, http.MethodPost, "/auth/logout", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: status %d", rec.Code)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == "mitocards.sid" && c.MaxAge >= 0 {
			t.Error("expected cookie cleared")
		}
	}

	_, body := do(t, h, http.MethodGet, "/auth/me", token, nil)
	if body["user"] != nil {
		t.Errorf("expected session revoked, got %v", body["user"])
	}
}

func TestDeckCRUD(t *testing.T) {
	h := newTestHandler(nil)
	token := signup(t, h, "alice", "")

	rec, body := do(t, h, http.MethodPost, "/decks", token, map[string]any{
		"nombre": "Enjambre", "xenoMax": 20, "huecosMax": 2, "ids": []string{"larva", "drone"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d body %v", rec.Code, body)
	}
	deck := body["deck"].(map[string]any)
	id := deck["id"].(string)
	if deck["visibility"] != "private" || deck["ownerHandle"] != "alice" {
		t.Errorf("bad deck: %v", deck)
	}

	rec, body = do(t, h, http.MethodGet, "/decks/"+id, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status %d", rec.Code)
	}
	if body["deck"].(map[string]any)["nombre"] != "Enjambre" {
		t.Errorf("bad get: %v", body)
	}

	rec, body = do(t, h, http.MethodPut, "/decks/"+id, token, map[string]any{"descripcion": "rush"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status %d", rec.Code)
	}
	updated := body["deck"].(map[string]any)
	if updated["descripcion"] != "rush" || updated["nombre"] != "Enjambre" {
		t.Errorf("partial update broke fields: %v", updated)
	}

	rec, _ = do(t, h, http.MethodDelete, "/decks/"+id, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status %d", rec.Code)
	}
	rec, _ = do(t, h, http.MethodGet, "/decks/"+id, token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestDeckAccessControl(t *testing.T) {
	h := newTestHandler(nil)
	owner := signup(t, h, "alice", "")
	other := signup(t, h, "bob", "")

	_, body := do(t, h, http.MethodPost, "/decks", owner, map[string]any{"visibility": "private"})
	id := body["deck"].(map[string]any)["id"].(string)

	rec, _ := do(t, h, http.MethodGet, "/decks/"+id, "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous private read: expected 401, got %d", rec.Code)
	}
	rec, _ = do(t, h, http.MethodGet, "/decks/"+id, other, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-owner private read: expected 403, got %d", rec.Code)
	}
	rec, _ = do(t, h, http.MethodPut, "/decks/"+id, other, map[string]any{"nombre": "stolen"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-owner update: expected 403, got %d", rec.Code)
	}
	rec, _ = do(t, h, http.MethodDelete, "/decks/"+id, other, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-owner delete: expected 403, got %d", rec.Code)
	}

	// Missing beats unauthenticated.
	rec, _ = do(t, h, http.MethodGet, "/decks/does-not-exist", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing deck: expected 404, got %d", rec.Code)
	}

	// Publishing opens reads but not writes.
	do(t, h, http.MethodPut, "/decks/"+id, owner, map[string]any{"visibility": "public"})
	rec, _ = do(t, h, http.MethodGet, "/decks/"+id, "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("anonymous public read: expected 200, got %d", rec.Code)
	}
	rec, _ = do(t, h, http.MethodDelete, "/decks/"+id, other, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-owner delete of public deck: expected 403, got %d", rec.Code)
	}
}

func TestListDecks(t *testing.T) {
	h := newTestHandler(nil)
	alice := signup(t, h, "alice", "")
	bob := signup(t, h, "bob", "")

	_, body := do(t, h, http.MethodPost, "/decks", alice, map[string]any{"nombre": "pub", "visibility": "public"})
	pubID := body["deck"].(map[string]any)["id"].(string)
	do(t, h, http.MethodPost, "/decks", alice, map[string]any{"nombre": "priv", "visibility": "private"})

	// Listing without a session requires scope=public.
	rec, _ := do(t, h, http.MethodGet, "/decks", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous mine listing: expected 401, got %d", rec.Code)
	}

	rec, body = do(t, h, http.MethodGet, "/decks?scope=public", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("public listing: status %d", rec.Code)
	}
	refs := body["decks"].([]any)
	if len(refs) != 1 {
		t.Fatalf("expected 1 public deck, got %v", refs)
	}
	ref := refs[0].(map[string]any)
	if ref["id"] != pubID || len(ref) != 1 {
		t.Errorf("expected bare id ref, got %v", ref)
	}

	// Expanded listing returns full documents.
	rec, body = do(t, h, http.MethodGet, "/decks?scope=public&expand=true", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expanded listing: status %d", rec.Code)
	}
	full := body["decks"].([]any)[0].(map[string]any)
	if full["nombre"] != "pub" || full["ownerHandle"] != "alice" {
		t.Errorf("bad expanded deck: %v", full)
	}

	// Own listing covers both visibilities; bob sees none.
	_, body = do(t, h, http.MethodGet, "/decks", alice, nil)
	if got := len(body["decks"].([]any)); got != 2 {
		t.Errorf("expected 2 owned decks, got %d", got)
	}
	_, body = do(t, h, http.MethodGet, "/decks", bob, nil)
	if got := len(body["decks"].([]any)); got != 0 {
		t.Errorf("expected no decks for bob, got %d", got)
	}
}

func TestChangeHandle(t *testing.T) {
	h := newTestHandler(nil)
	alice := signup(t, h, "alice", "pw")
	signup(t, h, "bob", "")

	_, body := do(t, h, http.MethodPost, "/decks", alice, map[string]any{"visibility": "public"})
	id := body["deck"].(map[string]any)["id"].(string)

	rec, _ := do(t, h, http.MethodPost, "/auth/change-handle", alice, map[string]any{
		"newHandle": "bob", "password": "pw",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("taken handle: expected 409, got %d", rec.Code)
	}

	rec, body = do(t, h, http.MethodPost, "/auth/change-handle", alice, map[string]any{
		"newHandle": "Alicia", "password": "pw",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("change handle: status %d body %v", rec.Code, body)
	}
	if body["user"].(map[string]any)["handle"] != "alicia" {
		t.Errorf("expected alicia, got %v", body["user"])
	}
	fresh := sessionToken(t, rec)

	// Old session is dead, new one works, deck ownerHandle was rewritten.
	_, body = do(t, h, http.MethodGet, "/auth/me", alice, nil)
	if body["user"] != nil {
		t.Error("expected old session revoked")
	}
	_, body = do(t, h, http.MethodGet, "/auth/me", fresh, nil)
	if body["user"].(map[string]any)["handle"] != "alicia" {
		t.Errorf("expected fresh session for alicia, got %v", body)
	}
	_, body = do(t, h, http.MethodGet, "/decks/"+id, "", nil)
	if body["deck"].(map[string]any)["ownerHandle"] != "alicia" {
		t.Errorf("expected ownerHandle rewritten, got %v", body["deck"])
	}
}

func TestChangePassword(t *testing.T) {
	h := newTestHandler(nil)
	token := signup(t, h, "alice", "old")

	rec, _ := do(t, h, http.MethodPost, "/auth/change-password", token, map[string]any{
		"oldPassword": "wrong", "newPassword": "new",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong old password: expected 401, got %d", rec.Code)
	}

	rec, _ = do(t, h, http.MethodPost, "/auth/change-password", token, map[string]any{
		"oldPassword": "old", "newPassword": "new",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("change password: status %d", rec.Code)
	}

	rec, _ = do(t, h, http.MethodPost, "/auth/login", "", map[string]any{"handle": "alice", "password": "new"})
	if rec.Code != http.StatusOK {
		t.Errorf("login with new password: expected 200, got %d", rec.Code)
	}
}

func TestDeleteAccount(t *testing.T) {
	h := newTestHandler(nil)
	token := signup(t, h, "alice", "pw")

	do(t, h, http.MethodPost, "/decks", token, map[string]any{"visibility": "public"})
	do(t, h, http.MethodPost, "/decks", token, map[string]any{"visibility": "private"})

	rec, _ := do(t, h, http.MethodPost, "/auth/delete", token, map[string]any{"password": "pw"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing confirm: expected 400, got %d", rec.Code)
	}

	rec, body := do(t, h, http.MethodPost, "/auth/delete", token, map[string]any{
		"confirm": true, "password": "pw",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("delete account: status %d body %v", rec.Code, body)
	}
	if body["deletedDecks"] != float64(2) {
		t.Errorf("expected 2 deleted decks, got %v", body["deletedDecks"])
	}

	_, body = do(t, h, http.MethodGet, "/auth/me", token, nil)
	if body["user"] != nil {
		t.Error("expected session revoked")
	}
	rec, body = do(t, h, http.MethodGet, "/decks?scope=public", "", nil)
	if got := len(body["decks"].([]any)); got != 0 {
		t.Errorf("expected empty public listing, got %d", got)
	}
	rec, _ = do(t, h, http.MethodPost, "/auth/login", "", map[string]any{"handle": "alice", "password": "pw"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected account gone, got %d", rec.Code)
	}
}

func TestValidateEndpoint(t *testing.T) {
	catalog := domain.BuildCatalog([]domain.Card{
		{ID: "larva", Xeno: 2},
		{ID: "drone", Xeno: 3},
	})
	h := newTestHandler(catalog)

	rec, body := do(t, h, http.MethodPost, "/decks/validate", "", map[string]any{
		"ids": []string{"Larva", "drone"}, "xenoMax": 5, "huecosMax": 2,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("validate: status %d", rec.Code)
	}
	if body["valid"] != true || body["xenoTotal"] != float64(5) {
		t.Errorf("expected valid deck with total 5, got %v", body)
	}

	rec, body = do(t, h, http.MethodPost, "/decks/validate", "", map[string]any{
		"ids": []string{"larva", "larva"}, "xenoMax": 5, "huecosMax": 2,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("validate: status %d", rec.Code)
	}
	if body["dupFree"] != false || body["valid"] != false {
		t.Errorf("expected duplicate rejection, got %v", body)
	}
}

func TestCatalogEndpoint(t *testing.T) {
	h := newTestHandler(nil)
	rec, _ := do(t, h, http.MethodGet, "/catalog", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("no catalog configured: expected 404, got %d", rec.Code)
	}

	h = newTestHandler(domain.BuildCatalog([]domain.Card{{ID: "larva", Xeno: 2}}))
	rec, body := do(t, h, http.MethodGet, "/catalog", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("catalog: status %d", rec.Code)
	}
	cat := body["catalog"].(map[string]any)
	if cat["larva"] != float64(2) {
		t.Errorf("bad catalog: %v", cat)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestHandler(nil)
	rec, _ := do(t, h, http.MethodDelete, "/auth/signup", "", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}
