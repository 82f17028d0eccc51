package domain

import (
	"context"
	"strings"
	"time"
)

// GameMode identifies one of the fixed question sets.
type GameMode string

const (
	ModeBasics GameMode = "BASICS"
	ModeTrig   GameMode = "TRIG"
	ModeTarget GameMode = "TARGET"
)

// Modes lists every game mode in display order.
var Modes = []GameMode{ModeBasics, ModeTrig, ModeTarget}

// ParseGameMode accepts a mode name in any letter case.
func ParseGameMode(s string) (GameMode, error) {
	m := GameMode(strings.ToUpper(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", ErrUnknownMode
	}
	return m, nil
}

// Valid reports whether m is one of the known modes.
func (m GameMode) Valid() bool {
	switch m {
	case ModeBasics, ModeTrig, ModeTarget:
		return true
	}
	return false
}

// MaxStrikes is the number of wrong answers that ends a round.
const MaxStrikes = 3

// GameSession is one play-through of a mode by a user.
type GameSession struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"userId"`
	Mode      GameMode   `json:"mode"`
	StartedAt time.Time  `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt"`
	Score     int        `json:"score"`
	Strikes   int        `json:"strikes"`
	Completed bool       `json:"completed"`
}

// Active reports whether the session still accepts score and strike updates.
func (s GameSession) Active() bool {
	return !s.Completed
}

// ScoreRow is a computed leaderboard entry.
type ScoreRow struct {
	UserID    int64    `json:"userId"`
	Username  string   `json:"username"`
	Mode      GameMode `json:"mode"`
	HighScore int      `json:"highScore"`
}

// SessionRepository is the port for game session persistence.
//
// Mutations report whether a row changed. A missing id, or a completed session
// for RecordCorrect/RecordWrong, yields (false, nil).
type SessionRepository interface {
	StartSession(ctx context.Context, userID int64, mode GameMode, startedAt time.Time) (*GameSession, error)
	GetSession(ctx context.Context, id int64) (*GameSession, error)
	RecordCorrect(ctx context.Context, id int64) (bool, error)
	// RecordWrong adds a strike and, when the strike count reaches
	// MaxStrikes, completes the session stamped with at, in one atomic step.
	RecordWrong(ctx context.Context, id int64, at time.Time) (bool, error)
	FinishSession(ctx context.Context, id int64, at time.Time) (bool, error)
	ListSessionsByUser(ctx context.Context, userID int64) ([]GameSession, error)
	DeleteSession(ctx context.Context, id int64) (bool, error)
	HighScore(ctx context.Context, userID int64, mode GameMode) (int, bool, error)
}

// LeaderboardRepository ranks users by their best completed score in a mode.
type LeaderboardRepository interface {
	Leaderboard(ctx context.Context, mode GameMode, limit int) ([]ScoreRow, error)
}

// LeaderboardCache stores computed leaderboards keyed by mode and limit.
type LeaderboardCache interface {
	Get(ctx context.Context, mode GameMode, limit int) ([]ScoreRow, bool, error)
	Put(ctx context.Context, mode GameMode, limit int, rows []ScoreRow) error
	Invalidate(ctx context.Context, modes ...GameMode) error
}

// Store is a complete persistence backend.
type Store interface {
	UserRepository
	SessionRepository
	LeaderboardRepository
	Close() error
}
