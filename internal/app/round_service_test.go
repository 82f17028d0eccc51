package app_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"physquiz/internal/app"
	"physquiz/internal/domain"
	"physquiz/internal/physics"
)

// fakeSessions is a minimal stateful session store built on mockSessionRepo.
func fakeSessions(sess *domain.GameSession) *mockSessionRepo {
	return &mockSessionRepo{
		getFn: func(_ context.Context, id int64) (*domain.GameSession, error) {
			if id != sess.ID {
				return nil, nil
			}
			cp := *sess
			return &cp, nil
		},
		correctFn: func(_ context.Context, id int64) (bool, error) {
			if id != sess.ID || sess.Completed {
				return false, nil
			}
			sess.Score++
			return true, nil
		},
		wrongFn: func(_ context.Context, id int64, at time.Time) (bool, error) {
			if id != sess.ID || sess.Completed {
				return false, nil
			}
			sess.Strikes++
			if sess.Strikes >= domain.MaxStrikes {
				sess.Completed = true
				sess.EndedAt = &at
			}
			return true, nil
		},
		finishFn: func(_ context.Context, id int64, at time.Time) (bool, error) {
			if id != sess.ID {
				return false, nil
			}
			sess.Completed = true
			sess.EndedAt = &at
			return true, nil
		},
	}
}

func questions(domain.GameMode) ([]domain.Question, error) {
	return []domain.Question{
		{Text: "2+2?", Answer: "4"},
		{Text: "Unit of force?", Answer: "Newton", Options: []string{"Joule", "Newton"}},
	}, nil
}

func newRounds(users *mockUserRepo, sessions *mockSessionRepo, cache *mockCache) *app.RoundService {
	var c domain.LeaderboardCache
	if cache != nil {
		c = cache
	}
	lb := app.NewLeaderboardService(&mockLeaderboardRepo{}, c)
	return app.NewRoundService(users, sessions, &mockCatalog{questionsFn: questions}, lb, clock)
}

func TestStartRound(t *testing.T) {
	users := &mockUserRepo{
		byIDFn: func(_ context.Context, id int64) (*domain.User, error) {
			if id == 1 {
				return &domain.User{ID: 1}, nil
			}
			return nil, nil
		},
	}
	sessions := &mockSessionRepo{
		startFn: func(_ context.Context, userID int64, mode domain.GameMode, at time.Time) (*domain.GameSession, error) {
			if !at.Equal(fixedNow) {
				t.Fatalf("expected start at %v, got %v", fixedNow, at)
			}
			return &domain.GameSession{ID: 7, UserID: userID, Mode: mode, StartedAt: at}, nil
		},
	}
	svc := newRounds(users, sessions, nil)

	s, err := svc.StartRound(context.Background(), 1, domain.ModeTrig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ID != 7 || s.Mode != domain.ModeTrig || s.Completed || s.Score != 0 || s.Strikes != 0 {
		t.Fatalf("unexpected session %+v", s)
	}

	if _, err := svc.StartRound(context.Background(), 2, domain.ModeTrig); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing user, got %v", err)
	}
	if _, err := svc.StartRound(context.Background(), 1, "CHESS"); !errors.Is(err, domain.ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
}

func TestSubmitWrong_EvictsOnCompletion(t *testing.T) {
	sess := &domain.GameSession{ID: 1, UserID: 1, Mode: domain.ModeBasics}
	evictions := 0
	cache := &mockCache{
		invalidateFn: func(_ context.Context, modes ...domain.GameMode) error {
			if len(modes) != 1 || modes[0] != domain.ModeBasics {
				t.Fatalf("unexpected eviction %v", modes)
			}
			evictions++
			return nil
		},
	}
	svc := newRounds(&mockUserRepo{}, fakeSessions(sess), cache)

	for i := 1; i <= 3; i++ {
		ok, err := svc.SubmitWrong(context.Background(), 1)
		if err != nil || !ok {
			t.Fatalf("strike %d: ok=%v err=%v", i, ok, err)
		}
	}
	if !sess.Completed || sess.EndedAt == nil {
		t.Fatalf("expected completion after third strike, got %+v", sess)
	}
	if evictions != 1 {
		t.Fatalf("expected one eviction, got %d", evictions)
	}

	ok, err := svc.SubmitWrong(context.Background(), 1)
	if err != nil || ok {
		t.Fatalf("expected fourth strike to be a no-op, got ok=%v err=%v", ok, err)
	}
	if sess.Strikes != 3 {
		t.Fatalf("expected strikes to stay at 3, got %d", sess.Strikes)
	}
}

func TestAnswerQuestion(t *testing.T) {
	sess := &domain.GameSession{ID: 1, UserID: 1, Mode: domain.ModeBasics}
	svc := newRounds(&mockUserRepo{}, fakeSessions(sess), nil)
	ctx := context.Background()

	res, err := svc.AnswerQuestion(ctx, 1, 0, " 4.004 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Correct || !res.Recorded || res.Session.Score != 1 {
		t.Fatalf("expected recorded correct answer, got %+v", res)
	}

	res, err = svc.AnswerQuestion(ctx, 1, 1, "joule")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Correct || res.Expected != "Newton" || res.Session.Strikes != 1 {
		t.Fatalf("expected recorded strike, got %+v", res)
	}

	if _, err := svc.AnswerQuestion(ctx, 1, 2, "x"); !errors.Is(err, domain.ErrInvalidQuestion) {
		t.Fatalf("expected ErrInvalidQuestion, got %v", err)
	}
	if _, err := svc.AnswerQuestion(ctx, 99, 0, "4"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAnswerQuestion_CompletedSessionUnchanged(t *testing.T) {
	sess := &domain.GameSession{ID: 1, UserID: 1, Mode: domain.ModeBasics, Score: 2, Completed: true}
	svc := newRounds(&mockUserRepo{}, fakeSessions(sess), nil)

	res, err := svc.AnswerQuestion(context.Background(), 1, 0, "4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Correct || res.Recorded || res.Session.Score != 2 {
		t.Fatalf("expected judged but unrecorded answer, got %+v", res)
	}
}

func TestFireShot(t *testing.T) {
	sess := &domain.GameSession{ID: 1, UserID: 1, Mode: domain.ModeTarget}
	svc := newRounds(&mockUserRepo{}, fakeSessions(sess), nil).
		WithSource(rand.New(rand.NewPCG(1, 2)))
	ctx := context.Background()

	c, err := svc.NewTargetChallenge()
	if err != nil {
		t.Fatalf("challenge: %v", err)
	}

	res, err := svc.FireShot(ctx, 1, c, c.CorrectSpeed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Hit || res.Session.Score != 1 {
		t.Fatalf("expected hit recorded as point, got %+v", res)
	}

	res, err = svc.FireShot(ctx, 1, c, c.CorrectSpeed*1.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Hit || res.Session.Strikes != 1 {
		t.Fatalf("expected miss recorded as strike, got %+v", res)
	}

	if _, err := svc.FireShot(ctx, 1, c, -3); !errors.Is(err, domain.ErrInvalidSpeed) {
		t.Fatalf("expected ErrInvalidSpeed, got %v", err)
	}
}

func TestFireShot_WrongMode(t *testing.T) {
	sess := &domain.GameSession{ID: 1, UserID: 1, Mode: domain.ModeTrig}
	svc := newRounds(&mockUserRepo{}, fakeSessions(sess), nil)
	c := physics.Challenge{AngleDeg: 45, Distance: physics.WallDistance, TargetHeight: 3, TargetRadius: physics.TargetRadius, Gravity: physics.Gravity}
	if _, err := svc.FireShot(context.Background(), 1, c, 12); !errors.Is(err, domain.ErrModeMismatch) {
		t.Fatalf("expected ErrModeMismatch, got %v", err)
	}
}

func TestDeleteSession_EvictsCompleted(t *testing.T) {
	sess := &domain.GameSession{ID: 1, UserID: 1, Mode: domain.ModeTrig, Completed: true}
	sessions := fakeSessions(sess)
	sessions.deleteFn = func(_ context.Context, id int64) (bool, error) { return id == 1, nil }
	evicted := false
	cache := &mockCache{
		invalidateFn: func(context.Context, ...domain.GameMode) error {
			evicted = true
			return nil
		},
	}
	svc := newRounds(&mockUserRepo{}, sessions, cache)

	ok, err := svc.DeleteSession(context.Background(), 1)
	if err != nil || !ok {
		t.Fatalf("unexpected result ok=%v err=%v", ok, err)
	}
	if !evicted {
		t.Fatal("expected leaderboard eviction")
	}
	ok, err = svc.DeleteSession(context.Background(), 5)
	if err != nil || ok {
		t.Fatalf("expected no-op for missing session, got ok=%v err=%v", ok, err)
	}
}

func TestHighScore_UnknownMode(t *testing.T) {
	svc := newRounds(&mockUserRepo{}, &mockSessionRepo{}, nil)
	if _, _, err := svc.HighScore(context.Background(), 1, "x"); !errors.Is(err, domain.ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
}
