// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"net/http"

	"mitocards/internal/domain"
)

func userPayload(u *domain.User) map[string]any {
	return map[string]any{"id": u.ID, "handle": u.Handle}
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		Handle   string `json:"handle"`
		Password string `json:"password"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	user, sess, err := s.auth.SignupOrLogin(r.Context(), body.Handle, body.Password)
	if err != nil {
		fail(w, err)
		return
	}

	setSessionCookie(w, sess.Token)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "user": userPayload(user)})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		Handle   string `json:"handle"`
		Password string `json:"password"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	user, sess, err := s.auth.Login(r.Context(), domain.NormalizeHandle(body.Handle), body.Password)
	if err != nil {
		fail(w, err)
		return
	}

	setSessionCookie(w, sess.Token)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "user": userPayload(user)})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if cookie, err := r.Cookie(sessionCookie); err == nil {
		if err := s.auth.Logout(r.Context(), cookie.Value); err != nil {
			fail(w, err)
			return
		}
	}

	clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	sess, err := s.session(r)
	if err != nil {
		fail(w, err)
		return
	}

	// Session state must never be cached or shared across cookies.
	w.Header().Set("Cache-Control", "no-store, private")
	w.Header().Set("Vary", "Cookie")

	var user map[string]any
	if sess != nil {
		user = map[string]any{"id": sess.UserID, "handle": sess.Handle}
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	sess, err := s.requireSession(r)
	if err != nil {
		fail(w, err)
		return
	}

	var body struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.auth.ChangePassword(r.Context(), sess, body.OldPassword, body.NewPassword); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleChangeHandle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	sess, err := s.requireSession(r)
	if err != nil {
		fail(w, err)
		return
	}

	var body struct {
		NewHandle string `json:"newHandle"`
		Password  string `json:"password"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	user, next, err := s.auth.ChangeHandle(r.Context(), sess, body.NewHandle, body.Password)
	if err != nil {
		fail(w, err)
		return
	}

	setSessionCookie(w, next.Token)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "user": userPayload(user)})
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	sess, err := s.requireSession(r)
	if err != nil {
		fail(w, err)
		return
	}

	var body struct {
		Confirm  any    `json:"confirm"`
		Password string `json:"password"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	deleted, err := s.auth.DeleteAccount(r.Context(), sess, body.Password, truthy(body.Confirm))
	if err != nil {
		fail(w, err)
		return
	}

	clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "deletedDecks": deleted})
}
