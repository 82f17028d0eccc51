// Package memory implements an in-memory store for development and testing.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"physquiz/internal/domain"
)

// DB implements every domain repository in process memory. A single mutex
// guards all state, so each method is one atomic step.
type DB struct {
	mu       sync.Mutex
	users    map[int64]*domain.User
	byKey    map[string]int64
	external map[string]int64
	sessions map[int64]*domain.GameSession

	userIDCounter    int64
	sessionIDCounter int64
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		users:    make(map[int64]*domain.User),
		byKey:    make(map[string]int64),
		external: make(map[string]int64),
		sessions: make(map[int64]*domain.GameSession),
	}
}

// Ensure interfaces are met.
var _ domain.Store = (*DB)(nil)

// Close is a no-op.
func (db *DB) Close() error { return nil }

// --- UserRepository ---

// CreateUser adds a user unless the folded username is taken.
func (db *DB) CreateUser(ctx context.Context, username, credential string, registeredAt time.Time) (*domain.User, error) {
	return db.createUser(username, "", credential, registeredAt)
}

// CreateExternalUser adds a user bound to an SSO identity unless the folded
// username or the identity is taken.
func (db *DB) CreateExternalUser(ctx context.Context, username, externalID, credential string, registeredAt time.Time) (*domain.User, error) {
	return db.createUser(username, externalID, credential, registeredAt)
}

func (db *DB) createUser(username, externalID, credential string, registeredAt time.Time) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	key := domain.UsernameKey(username)
	if _, taken := db.byKey[key]; taken {
		return nil, domain.ErrUsernameTaken
	}
	if _, bound := db.external[externalID]; externalID != "" && bound {
		return nil, domain.ErrUsernameTaken
	}
	db.userIDCounter++
	u := &domain.User{
		ID:           db.userIDCounter,
		Username:     username,
		Credential:   credential,
		RegisteredAt: registeredAt.UTC(),
		ExternalID:   externalID,
	}
	db.users[u.ID] = u
	db.byKey[key] = u.ID
	if externalID != "" {
		db.external[externalID] = u.ID
	}
	cp := *u
	return &cp, nil
}

// GetUserByExternalID returns the user bound to an SSO identity.
func (db *DB) GetUserByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	id, ok := db.external[externalID]
	if !ok || externalID == "" {
		return nil, nil
	}
	cp := *db.users[id]
	return &cp, nil
}

// GetUserByUsername looks a user up case-insensitively.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	id, ok := db.byKey[domain.UsernameKey(username)]
	if !ok {
		return nil, nil
	}
	cp := *db.users[id]
	return &cp, nil
}

// GetUserByID retrieves a user by id.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	u, ok := db.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

// RenameUser changes a username, keeping the folded index in sync.
func (db *DB) RenameUser(ctx context.Context, id int64, username string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	u, ok := db.users[id]
	if !ok {
		return false, nil
	}
	key := domain.UsernameKey(username)
	if owner, taken := db.byKey[key]; taken && owner != id {
		return false, domain.ErrUsernameTaken
	}
	delete(db.byKey, domain.UsernameKey(u.Username))
	u.Username = username
	db.byKey[key] = id
	return true, nil
}

// UpdateCredential replaces the stored credential hash.
func (db *DB) UpdateCredential(ctx context.Context, id int64, credential string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	u, ok := db.users[id]
	if !ok {
		return false, nil
	}
	u.Credential = credential
	return true, nil
}

// DeleteUser removes a user together with all of their sessions.
func (db *DB) DeleteUser(ctx context.Context, id int64) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	u, ok := db.users[id]
	if !ok {
		return false, nil
	}
	delete(db.byKey, domain.UsernameKey(u.Username))
	if u.ExternalID != "" {
		delete(db.external, u.ExternalID)
	}
	delete(db.users, id)
	for sid, s := range db.sessions {
		if s.UserID == id {
			delete(db.sessions, sid)
		}
	}
	return true, nil
}

// ListUsers returns all users ordered by username, then id.
func (db *DB) ListUsers(ctx context.Context) ([]domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]domain.User, 0, len(db.users))
	for _, u := range db.users {
		out = append(out, *u)
	}
	slices.SortFunc(out, func(a, b domain.User) int {
		return cmp.Or(cmp.Compare(a.Username, b.Username), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

// --- SessionRepository ---

// StartSession opens an active session for an existing user.
func (db *DB) StartSession(ctx context.Context, userID int64, mode domain.GameMode, startedAt time.Time) (*domain.GameSession, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.users[userID]; !ok {
		return nil, domain.ErrNotFound
	}
	db.sessionIDCounter++
	s := &domain.GameSession{
		ID:        db.sessionIDCounter,
		UserID:    userID,
		Mode:      mode,
		StartedAt: startedAt.UTC(),
	}
	db.sessions[s.ID] = s
	return copySession(s), nil
}

// GetSession retrieves a session by id.
func (db *DB) GetSession(ctx context.Context, id int64) (*domain.GameSession, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	s, ok := db.sessions[id]
	if !ok {
		return nil, nil
	}
	return copySession(s), nil
}

// RecordCorrect adds a point to an active session.
func (db *DB) RecordCorrect(ctx context.Context, id int64) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	s, ok := db.sessions[id]
	if !ok || s.Completed {
		return false, nil
	}
	s.Score++
	return true, nil
}

// RecordWrong adds a strike and completes the session on the final strike.
func (db *DB) RecordWrong(ctx context.Context, id int64, at time.Time) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	s, ok := db.sessions[id]
	if !ok || s.Completed {
		return false, nil
	}
	s.Strikes++
	if s.Strikes >= domain.MaxStrikes {
		complete(s, at)
	}
	return true, nil
}

// FinishSession completes a session.
func (db *DB) FinishSession(ctx context.Context, id int64, at time.Time) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	s, ok := db.sessions[id]
	if !ok {
		return false, nil
	}
	complete(s, at)
	return true, nil
}

// ListSessionsByUser returns the user's sessions newest first.
func (db *DB) ListSessionsByUser(ctx context.Context, userID int64) ([]domain.GameSession, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := []domain.GameSession{}
	for _, s := range db.sessions {
		if s.UserID == userID {
			out = append(out, *copySession(s))
		}
	}
	slices.SortFunc(out, func(a, b domain.GameSession) int {
		return cmp.Or(b.StartedAt.Compare(a.StartedAt), cmp.Compare(b.ID, a.ID))
	})
	return out, nil
}

// DeleteSession removes one session.
func (db *DB) DeleteSession(ctx context.Context, id int64) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.sessions[id]; !ok {
		return false, nil
	}
	delete(db.sessions, id)
	return true, nil
}

// HighScore returns the best completed score, or false when there is none.
func (db *DB) HighScore(ctx context.Context, userID int64, mode domain.GameMode) (int, bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	best, found := 0, false
	for _, s := range db.sessions {
		if s.UserID == userID && s.Mode == mode && s.Completed {
			if !found || s.Score > best {
				best = s.Score
			}
			found = true
		}
	}
	return best, found, nil
}

// --- LeaderboardRepository ---

// Leaderboard ranks users by their best completed score in mode.
func (db *DB) Leaderboard(ctx context.Context, mode domain.GameMode, limit int) ([]domain.ScoreRow, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	best := make(map[int64]int)
	for _, s := range db.sessions {
		if s.Mode != mode || !s.Completed {
			continue
		}
		if cur, ok := best[s.UserID]; !ok || s.Score > cur {
			best[s.UserID] = s.Score
		}
	}

	out := make([]domain.ScoreRow, 0, len(best))
	for uid, score := range best {
		out = append(out, domain.ScoreRow{
			UserID:    uid,
			Username:  db.users[uid].Username,
			Mode:      mode,
			HighScore: score,
		})
	}
	slices.SortFunc(out, func(a, b domain.ScoreRow) int {
		return cmp.Or(
			cmp.Compare(b.HighScore, a.HighScore),
			cmp.Compare(a.Username, b.Username),
			cmp.Compare(a.UserID, b.UserID),
		)
	})
	if limit = max(1, limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// complete marks s finished at, never earlier than its start.
func complete(s *domain.GameSession, at time.Time) {
	end := at.UTC()
	if end.Before(s.StartedAt) {
		end = s.StartedAt
	}
	s.Completed = true
	s.EndedAt = &end
}

func copySession(s *domain.GameSession) *domain.GameSession {
	cp := *s
	if s.EndedAt != nil {
		end := *s.EndedAt
		cp.EndedAt = &end
	}
	return &cp
}
