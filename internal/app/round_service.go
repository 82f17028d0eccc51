package app

import (
	"context"
	"time"

	"physquiz/internal/domain"
	"physquiz/internal/physics"
)

// RoundService drives a round of play and forwards every outcome to the
// session store. It holds no session state of its own; each call names the
// session by id and the store decides whether the update applies.
type RoundService struct {
	users       domain.UserRepository
	sessions    domain.SessionRepository
	catalog     domain.QuestionCatalog
	leaderboard *LeaderboardService
	rng         physics.Source
	now         func() time.Time
}

// NewRoundService creates a RoundService. A nil now uses time.Now.
func NewRoundService(users domain.UserRepository, sessions domain.SessionRepository, catalog domain.QuestionCatalog, leaderboard *LeaderboardService, now func() time.Time) *RoundService {
	if now == nil {
		now = time.Now
	}
	return &RoundService{
		users:       users,
		sessions:    sessions,
		catalog:     catalog,
		leaderboard: leaderboard,
		rng:         physics.DefaultSource,
		now:         now,
	}
}

// WithSource replaces the random source used for TARGET challenges.
func (s *RoundService) WithSource(rng physics.Source) *RoundService {
	s.rng = rng
	return s
}

// AnswerResult is the outcome of one answered question.
type AnswerResult struct {
	Correct  bool                `json:"correct"`
	Expected string              `json:"expected"`
	Recorded bool                `json:"recorded"`
	Session  *domain.GameSession `json:"session"`
}

// ShotResult is the outcome of one TARGET shot.
type ShotResult struct {
	Hit          bool                `json:"hit"`
	Speed        float64             `json:"speed"`
	HeightAtWall float64             `json:"heightAtWall"`
	TargetHeight float64             `json:"targetHeight"`
	Recorded     bool                `json:"recorded"`
	Session      *domain.GameSession `json:"session"`
}

// StartRound opens a new active session for an existing user.
func (s *RoundService) StartRound(ctx context.Context, userID int64, mode domain.GameMode) (*domain.GameSession, error) {
	if !mode.Valid() {
		return nil, domain.ErrUnknownMode
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}
	return s.sessions.StartSession(ctx, userID, mode, s.now().UTC())
}

// Session returns the session with id, or nil.
func (s *RoundService) Session(ctx context.Context, id int64) (*domain.GameSession, error) {
	return s.sessions.GetSession(ctx, id)
}

// SubmitCorrect adds one point. It is a no-op on completed sessions.
func (s *RoundService) SubmitCorrect(ctx context.Context, sessionID int64) (bool, error) {
	return s.sessions.RecordCorrect(ctx, sessionID)
}

// SubmitWrong adds one strike, completing the session at the third.
func (s *RoundService) SubmitWrong(ctx context.Context, sessionID int64) (bool, error) {
	ok, err := s.sessions.RecordWrong(ctx, sessionID, s.now().UTC())
	if err != nil || !ok {
		return ok, err
	}
	s.evictIfCompleted(ctx, sessionID)
	return true, nil
}

// FinishRound completes the session. Finishing twice is harmless.
func (s *RoundService) FinishRound(ctx context.Context, sessionID int64) (bool, error) {
	ok, err := s.sessions.FinishSession(ctx, sessionID, s.now().UTC())
	if err != nil || !ok {
		return ok, err
	}
	s.evictIfCompleted(ctx, sessionID)
	return true, nil
}

// ListSessions returns a user's sessions, newest first.
func (s *RoundService) ListSessions(ctx context.Context, userID int64) ([]domain.GameSession, error) {
	return s.sessions.ListSessionsByUser(ctx, userID)
}

// DeleteSession removes a session.
func (s *RoundService) DeleteSession(ctx context.Context, sessionID int64) (bool, error) {
	sess, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil || sess == nil {
		return false, err
	}
	ok, err := s.sessions.DeleteSession(ctx, sessionID)
	if err != nil || !ok {
		return ok, err
	}
	if sess.Completed {
		s.leaderboard.Invalidate(ctx, sess.Mode)
	}
	return true, nil
}

// HighScore returns the user's best completed score in mode. The boolean is
// false when the user has no completed session there.
func (s *RoundService) HighScore(ctx context.Context, userID int64, mode domain.GameMode) (int, bool, error) {
	if !mode.Valid() {
		return 0, false, domain.ErrUnknownMode
	}
	return s.sessions.HighScore(ctx, userID, mode)
}

// Questions returns the question list for mode.
func (s *RoundService) Questions(mode domain.GameMode) ([]domain.Question, error) {
	return s.catalog.QuestionsFor(mode)
}

// AnswerQuestion judges an answer to question index of the session's mode and
// records the outcome.
func (s *RoundService) AnswerQuestion(ctx context.Context, sessionID int64, index int, answer string) (*AnswerResult, error) {
	sess, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, domain.ErrNotFound
	}
	questions, err := s.catalog.QuestionsFor(sess.Mode)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(questions) {
		return nil, domain.ErrInvalidQuestion
	}
	q := questions[index]

	res := &AnswerResult{Correct: domain.CheckAnswer(q, answer), Expected: q.Answer}
	if res.Correct {
		res.Recorded, err = s.SubmitCorrect(ctx, sessionID)
	} else {
		res.Recorded, err = s.SubmitWrong(ctx, sessionID)
	}
	if err != nil {
		return nil, err
	}
	if res.Session, err = s.sessions.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return res, nil
}

// NewTargetChallenge draws a fresh TARGET challenge.
func (s *RoundService) NewTargetChallenge() (physics.Challenge, error) {
	return physics.NewChallenge(s.rng)
}

// FireShot judges a launch speed against challenge and records a hit as a
// correct answer and a miss as a strike. Only TARGET sessions accept shots.
func (s *RoundService) FireShot(ctx context.Context, sessionID int64, challenge physics.Challenge, speed float64) (*ShotResult, error) {
	sess, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, domain.ErrNotFound
	}
	if sess.Mode != domain.ModeTarget {
		return nil, domain.ErrModeMismatch
	}
	hit, err := challenge.Judge(speed)
	if err != nil {
		return nil, err
	}

	res := &ShotResult{
		Hit:          hit,
		Speed:        speed,
		HeightAtWall: challenge.HeightAtWall(speed),
		TargetHeight: challenge.TargetHeight,
	}
	if hit {
		res.Recorded, err = s.SubmitCorrect(ctx, sessionID)
	} else {
		res.Recorded, err = s.SubmitWrong(ctx, sessionID)
	}
	if err != nil {
		return nil, err
	}
	if res.Session, err = s.sessions.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return res, nil
}

// Leaderboard ranks users in mode.
func (s *RoundService) Leaderboard(ctx context.Context, mode domain.GameMode, limit int) ([]domain.ScoreRow, error) {
	return s.leaderboard.Rank(ctx, mode, limit)
}

func (s *RoundService) evictIfCompleted(ctx context.Context, sessionID int64) {
	if s.leaderboard == nil {
		return
	}
	sess, err := s.sessions.GetSession(ctx, sessionID)
	if err == nil && sess != nil && sess.Completed {
		s.leaderboard.Invalidate(ctx, sess.Mode)
	}
}
