package adapthttp

import (
	"errors"
	"net/http"

	"physquiz/internal/domain"
)

var errRoundOver = errors.New("round is already completed")

// maxLeaderboardLimit caps the rows a single request can ask for.
const maxLeaderboardLimit = 100

type questionView struct {
	Index   int      `json:"index"`
	Text    string   `json:"text"`
	Options []string `json:"options,omitempty"`
}

func (s *Server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	mode, err := domain.ParseGameMode(r.PathValue("mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	qs, err := s.rounds.Questions(mode)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	views := make([]questionView, len(qs))
	for i, q := range qs {
		views[i] = questionView{Index: i, Text: q.Text, Options: q.Options}
	}
	writeJSON(w, http.StatusOK, map[string]any{"mode": mode, "questions": views})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	mode, err := domain.ParseGameMode(r.PathValue("mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	limit := min(intQuery(r, "limit", 10), maxLeaderboardLimit)
	rows, err := s.rounds.Leaderboard(r.Context(), mode, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"mode": mode, "rows": rows})
}

func (s *Server) handleHighScore(w http.ResponseWriter, r *http.Request) {
	mode, err := domain.ParseGameMode(r.PathValue("mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	best, ok, err := s.rounds.HighScore(r.Context(), currentUser(r).ID, mode)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var highScore any
	if ok {
		highScore = best
	}
	writeJSON(w, http.StatusOK, map[string]any{"mode": mode, "highScore": highScore})
}

func (s *Server) handleStartRound(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Mode string `json:"mode"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	mode, err := domain.ParseGameMode(body.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sess, err := s.rounds.StartRound(r.Context(), currentUser(r).ID, mode)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"session": sess})
}

func (s *Server) handleListRounds(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.rounds.ListSessions(r.Context(), currentUser(r).ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

// ownedSession loads the {id} session and checks it belongs to the caller.
// It writes the response and returns nil when the handler should stop.
func (s *Server) ownedSession(w http.ResponseWriter, r *http.Request) *domain.GameSession {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, domain.ErrNotFound)
		return nil
	}
	sess, err := s.rounds.Session(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return nil
	}
	if sess == nil || sess.UserID != currentUser(r).ID {
		writeError(w, http.StatusNotFound, domain.ErrNotFound)
		return nil
	}
	return sess
}

func (s *Server) handleGetRound(w http.ResponseWriter, r *http.Request) {
	sess := s.ownedSession(w, r)
	if sess == nil {
		return
	}
	_, pending := s.challenges.get(sess.ID)
	writeJSON(w, http.StatusOK, map[string]any{"session": sess, "targetPending": pending})
}

func (s *Server) handleDeleteRound(w http.ResponseWriter, r *http.Request) {
	sess := s.ownedSession(w, r)
	if sess == nil {
		return
	}
	ok, err := s.rounds.DeleteSession(r.Context(), sess.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.challenges.drop(sess.ID)
	writeJSON(w, http.StatusOK, map[string]any{"deleted": ok})
}

func (s *Server) handleFinish(w http.ResponseWriter, r *http.Request) {
	sess := s.ownedSession(w, r)
	if sess == nil {
		return
	}
	applied, err := s.rounds.FinishRound(r.Context(), sess.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondSnapshot(w, r, sess.ID, map[string]any{"applied": applied})
}

// respondSnapshot re-reads the session into body["session"], dropping any
// pending target once the round is over.
func (s *Server) respondSnapshot(w http.ResponseWriter, r *http.Request, id int64, body map[string]any) {
	sess, err := s.rounds.Session(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if sess == nil || sess.Completed {
		s.challenges.drop(id)
	}
	body["session"] = sess
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Index  int    `json:"index"`
		Answer string `json:"answer"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sess := s.ownedSession(w, r)
	if sess == nil {
		return
	}
	res, err := s.rounds.AnswerQuestion(r.Context(), sess.ID, body.Index, body.Answer)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if res.Session == nil || res.Session.Completed {
		s.challenges.drop(sess.ID)
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleTarget(w http.ResponseWriter, r *http.Request) {
	sess := s.ownedSession(w, r)
	if sess == nil {
		return
	}
	if sess.Mode != domain.ModeTarget {
		writeError(w, http.StatusBadRequest, domain.ErrModeMismatch)
		return
	}
	if sess.Completed {
		writeError(w, http.StatusConflict, errRoundOver)
		return
	}
	c, err := s.rounds.NewTargetChallenge()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.challenges.put(sess.ID, c)
	writeJSON(w, http.StatusOK, map[string]any{"challenge": c})
}

// handleShot judges a speed against the pending target. A hit consumes the
// target; a miss leaves it in place for another attempt.
func (s *Server) handleShot(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Speed float64 `json:"speed"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sess := s.ownedSession(w, r)
	if sess == nil {
		return
	}
	c, ok := s.challenges.get(sess.ID)
	if !ok {
		writeError(w, http.StatusBadRequest, errNoChallenge)
		return
	}
	res, err := s.rounds.FireShot(r.Context(), sess.ID, c, body.Speed)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if res.Hit || res.Session == nil || res.Session.Completed {
		s.challenges.drop(sess.ID)
	}
	writeJSON(w, http.StatusOK, res)
}
