package app_test

import (
	"context"
	"testing"
	"time"

	"physquiz/internal/domain"
)

type mockUserRepo struct {
	createFn     func(ctx context.Context, username, credential string, at time.Time) (*domain.User, error)
	createExtFn  func(ctx context.Context, username, externalID, credential string, at time.Time) (*domain.User, error)
	byNameFn     func(ctx context.Context, username string) (*domain.User, error)
	byExtFn      func(ctx context.Context, externalID string) (*domain.User, error)
	byIDFn       func(ctx context.Context, id int64) (*domain.User, error)
	renameFn     func(ctx context.Context, id int64, username string) (bool, error)
	credentialFn func(ctx context.Context, id int64, credential string) (bool, error)
	deleteFn     func(ctx context.Context, id int64) (bool, error)
	listFn       func(ctx context.Context) ([]domain.User, error)
}

func (m *mockUserRepo) CreateUser(ctx context.Context, username, credential string, at time.Time) (*domain.User, error) {
	if m.createFn != nil {
		return m.createFn(ctx, username, credential, at)
	}
	return &domain.User{ID: 1, Username: username, Credential: credential, RegisteredAt: at}, nil
}

func (m *mockUserRepo) CreateExternalUser(ctx context.Context, username, externalID, credential string, at time.Time) (*domain.User, error) {
	if m.createExtFn != nil {
		return m.createExtFn(ctx, username, externalID, credential, at)
	}
	return &domain.User{ID: 1, Username: username, Credential: credential, RegisteredAt: at, ExternalID: externalID}, nil
}

func (m *mockUserRepo) GetUserByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	if m.byExtFn != nil {
		return m.byExtFn(ctx, externalID)
	}
	return nil, nil
}

func (m *mockUserRepo) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.byNameFn != nil {
		return m.byNameFn(ctx, username)
	}
	return nil, nil
}

func (m *mockUserRepo) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	if m.byIDFn != nil {
		return m.byIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) RenameUser(ctx context.Context, id int64, username string) (bool, error) {
	if m.renameFn != nil {
		return m.renameFn(ctx, id, username)
	}
	return false, nil
}

func (m *mockUserRepo) UpdateCredential(ctx context.Context, id int64, credential string) (bool, error) {
	if m.credentialFn != nil {
		return m.credentialFn(ctx, id, credential)
	}
	return false, nil
}

func (m *mockUserRepo) DeleteUser(ctx context.Context, id int64) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return false, nil
}

func (m *mockUserRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

type mockSessionRepo struct {
	startFn   func(ctx context.Context, userID int64, mode domain.GameMode, at time.Time) (*domain.GameSession, error)
	getFn     func(ctx context.Context, id int64) (*domain.GameSession, error)
	correctFn func(ctx context.Context, id int64) (bool, error)
	wrongFn   func(ctx context.Context, id int64, at time.Time) (bool, error)
	finishFn  func(ctx context.Context, id int64, at time.Time) (bool, error)
	listFn    func(ctx context.Context, userID int64) ([]domain.GameSession, error)
	deleteFn  func(ctx context.Context, id int64) (bool, error)
	highFn    func(ctx context.Context, userID int64, mode domain.GameMode) (int, bool, error)
}

func (m *mockSessionRepo) StartSession(ctx context.Context, userID int64, mode domain.GameMode, at time.Time) (*domain.GameSession, error) {
	if m.startFn != nil {
		return m.startFn(ctx, userID, mode, at)
	}
	return &domain.GameSession{ID: 1, UserID: userID, Mode: mode, StartedAt: at}, nil
}

func (m *mockSessionRepo) GetSession(ctx context.Context, id int64) (*domain.GameSession, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, nil
}

func (m *mockSessionRepo) RecordCorrect(ctx context.Context, id int64) (bool, error) {
	if m.correctFn != nil {
		return m.correctFn(ctx, id)
	}
	return false, nil
}

func (m *mockSessionRepo) RecordWrong(ctx context.Context, id int64, at time.Time) (bool, error) {
	if m.wrongFn != nil {
		return m.wrongFn(ctx, id, at)
	}
	return false, nil
}

func (m *mockSessionRepo) FinishSession(ctx context.Context, id int64, at time.Time) (bool, error) {
	if m.finishFn != nil {
		return m.finishFn(ctx, id, at)
	}
	return false, nil
}

func (m *mockSessionRepo) ListSessionsByUser(ctx context.Context, userID int64) ([]domain.GameSession, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockSessionRepo) DeleteSession(ctx context.Context, id int64) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return false, nil
}

func (m *mockSessionRepo) HighScore(ctx context.Context, userID int64, mode domain.GameMode) (int, bool, error) {
	if m.highFn != nil {
		return m.highFn(ctx, userID, mode)
	}
	return 0, false, nil
}

type mockLeaderboardRepo struct {
	rankFn func(ctx context.Context, mode domain.GameMode, limit int) ([]domain.ScoreRow, error)
}

func (m *mockLeaderboardRepo) Leaderboard(ctx context.Context, mode domain.GameMode, limit int) ([]domain.ScoreRow, error) {
	if m.rankFn != nil {
		return m.rankFn(ctx, mode, limit)
	}
	return nil, nil
}

type mockCache struct {
	getFn        func(ctx context.Context, mode domain.GameMode, limit int) ([]domain.ScoreRow, bool, error)
	putFn        func(ctx context.Context, mode domain.GameMode, limit int, rows []domain.ScoreRow) error
	invalidateFn func(ctx context.Context, modes ...domain.GameMode) error
}

func (m *mockCache) Get(ctx context.Context, mode domain.GameMode, limit int) ([]domain.ScoreRow, bool, error) {
	if m.getFn != nil {
		return m.getFn(ctx, mode, limit)
	}
	return nil, false, nil
}

func (m *mockCache) Put(ctx context.Context, mode domain.GameMode, limit int, rows []domain.ScoreRow) error {
	if m.putFn != nil {
		return m.putFn(ctx, mode, limit, rows)
	}
	return nil
}

func (m *mockCache) Invalidate(ctx context.Context, modes ...domain.GameMode) error {
	if m.invalidateFn != nil {
		return m.invalidateFn(ctx, modes...)
	}
	return nil
}

type mockCatalog struct {
	questionsFn func(mode domain.GameMode) ([]domain.Question, error)
}

func (m *mockCatalog) QuestionsFor(mode domain.GameMode) ([]domain.Question, error) {
	if m.questionsFn != nil {
		return m.questionsFn(mode)
	}
	return nil, nil
}

// plainVerifier stores credentials as "hashed:<plaintext>" so tests stay fast.
type plainVerifier struct{}

func (plainVerifier) Hash(p []byte) (string, error) { return "hashed:" + string(p), nil }

func (plainVerifier) Verify(p []byte, credential string) bool {
	return credential == "hashed:"+string(p)
}

// countingVerifier wraps plainVerifier and records what it was asked.
type countingVerifier struct {
	plainVerifier
	hashes   int
	verified []string
}

func (v *countingVerifier) Hash(p []byte) (string, error) {
	v.hashes++
	return v.plainVerifier.Hash(p)
}

func (v *countingVerifier) Verify(p []byte, credential string) bool {
	v.verified = append(v.verified, credential)
	return v.plainVerifier.Verify(p, credential)
}

// assertCleared fails unless every byte of buf is zero.
func assertCleared(t *testing.T, buf []byte) {
	t.Helper()
	for i, b := range buf {
		if b != 0 {
			t.Fatalf("password buffer not cleared: byte %d is %#x", i, b)
		}
	}
}

var fixedNow = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

func clock() time.Time { return fixedNow }
