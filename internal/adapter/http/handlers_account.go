package adapthttp

import (
	"net/http"

	"physquiz/internal/domain"
)

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.accounts.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"user": currentUser(r)})
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	user := currentUser(r)
	ok, err := s.accounts.Rename(r.Context(), user.ID, body.Username)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, domain.ErrNotFound)
		return
	}
	updated, err := s.accounts.GetUser(r.Context(), user.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": updated})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Password string `json:"password"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ok, err := s.accounts.ChangePassword(r.Context(), currentUser(r).ID, []byte(body.Password))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, domain.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	sessions, err := s.rounds.ListSessions(r.Context(), user.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok, err := s.accounts.Delete(r.Context(), user.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	for _, gs := range sessions {
		s.challenges.drop(gs.ID)
	}
	clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{"deleted": ok})
}
