package adapthttp

import (
	"net/http"

	"mitocards/internal/app"
	"mitocards/internal/domain"
)

// sessionCookie carries the opaque session token; possession of the token is
// the whole credential.
const sessionCookie = "mitocards.sid"

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	auth    *app.AuthService
	decks   *app.DeckService
	catalog domain.Catalog
	oidc    *OIDCConfig
}

// New creates a Server wired to the given application services. catalog may
// be nil (validation then prices every card at zero) and oidc may be disabled.
func New(auth *app.AuthService, decks *app.DeckService, catalog domain.Catalog, oidc *OIDCConfig) *Server {
	if oidc == nil {
		oidc = &OIDCConfig{}
	}
	return &Server{auth: auth, decks: decks, catalog: catalog, oidc: oidc}
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	mux.HandleFunc("/auth/signup", s.handleSignup)
	mux.HandleFunc("/auth/login", s.handleLogin)
	mux.HandleFunc("/auth/logout", s.handleLogout)
	mux.HandleFunc("/auth/me", s.handleMe)
	mux.HandleFunc("/auth/change-password", s.handleChangePassword)
	mux.HandleFunc("/auth/change-handle", s.handleChangeHandle)
	mux.HandleFunc("/auth/delete", s.handleDeleteAccount)
	mux.HandleFunc("/auth/sso/login", s.handleSSOLogin)
	mux.HandleFunc("/auth/sso/callback", s.handleSSOCallback)

	mux.HandleFunc("/decks", s.handleDecks)
	// Registered before the catch-all /decks/ prefix; exact patterns win.
	mux.HandleFunc("/decks/validate", s.handleValidate)
	mux.HandleFunc("/decks/", s.handleDeckByID)

	mux.HandleFunc("/catalog", s.handleCatalog)

	return mux
}

// session resolves the request's session cookie, returning (nil, nil) when
// there is no cookie or the token no longer resolves.
func (s *Server) session(r *http.Request) (*domain.Session, error) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil, nil
	}
	return s.auth.Resolve(r.Context(), cookie.Value)
}

// requireSession is session plus the 401 when absent.
func (s *Server) requireSession(r *http.Request) (*domain.Session, error) {
	sess, err := s.session(r)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, domain.ErrUnauthenticated
	}
	return sess, nil
}

func setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(app.SessionTTL.Seconds()),
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
