package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"physquiz/internal/domain"
)

const sessionColumns = "id, user_id, mode, started_at, ended_at, score, strikes, completed"

func scanSession(row rowScanner) (*domain.GameSession, error) {
	var gs domain.GameSession
	var mode string
	var startedAt int64
	var endedAt sql.NullInt64
	var completed int
	if err := row.Scan(&gs.ID, &gs.UserID, &mode, &startedAt, &endedAt, &gs.Score, &gs.Strikes, &completed); err != nil {
		return nil, err
	}
	gs.Mode = domain.GameMode(mode)
	gs.StartedAt = fromMillis(startedAt)
	if endedAt.Valid {
		t := fromMillis(endedAt.Int64)
		gs.EndedAt = &t
	}
	gs.Completed = completed != 0
	return &gs, nil
}

// StartSession opens an active session. It fails with domain.ErrNotFound when
// the user does not exist.
func (s *Store) StartSession(ctx context.Context, userID int64, mode domain.GameMode, startedAt time.Time) (*domain.GameSession, error) {
	gs, err := scanSession(s.sqlDB.QueryRowContext(ctx,
		"INSERT INTO game_sessions (user_id, mode, started_at) VALUES (?, ?, ?) RETURNING "+sessionColumns,
		userID, string(mode), toMillis(startedAt)))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, domain.ErrNotFound
		}
		return nil, storageErr("start session", err)
	}
	return gs, nil
}

// GetSession retrieves a session by id.
func (s *Store) GetSession(ctx context.Context, id int64) (*domain.GameSession, error) {
	gs, err := scanSession(s.sqlDB.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM game_sessions WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get session", err)
	}
	return gs, nil
}

// RecordCorrect adds a point to an active session.
func (s *Store) RecordCorrect(ctx context.Context, id int64) (bool, error) {
	res, err := s.sqlDB.ExecContext(ctx,
		"UPDATE game_sessions SET score = score + 1 WHERE id = ? AND completed = 0", id)
	if err != nil {
		return false, storageErr("record correct", err)
	}
	return affected(res, "record correct")
}

// RecordWrong adds a strike and completes the session on the final strike.
// SET expressions see the pre-update row, so strikes + 1 is the new count.
func (s *Store) RecordWrong(ctx context.Context, id int64, at time.Time) (bool, error) {
	res, err := s.sqlDB.ExecContext(ctx, `
UPDATE game_sessions SET
    strikes = strikes + 1,
    completed = CASE WHEN strikes + 1 >= ? THEN 1 ELSE 0 END,
    ended_at = CASE WHEN strikes + 1 >= ? THEN MAX(?, started_at) ELSE ended_at END
WHERE id = ? AND completed = 0`,
		domain.MaxStrikes, domain.MaxStrikes, toMillis(at), id)
	if err != nil {
		return false, storageErr("record wrong", err)
	}
	return affected(res, "record wrong")
}

// FinishSession completes a session, restamping ended_at if it was already
// complete.
func (s *Store) FinishSession(ctx context.Context, id int64, at time.Time) (bool, error) {
	res, err := s.sqlDB.ExecContext(ctx,
		"UPDATE game_sessions SET completed = 1, ended_at = MAX(?, started_at) WHERE id = ?",
		toMillis(at), id)
	if err != nil {
		return false, storageErr("finish session", err)
	}
	return affected(res, "finish session")
}

// ListSessionsByUser returns the user's sessions newest first.
func (s *Store) ListSessionsByUser(ctx context.Context, userID int64) ([]domain.GameSession, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT "+sessionColumns+" FROM game_sessions WHERE user_id = ? ORDER BY started_at DESC, id DESC", userID)
	if err != nil {
		return nil, storageErr("list sessions", err)
	}
	defer rows.Close()

	out := []domain.GameSession{}
	for rows.Next() {
		gs, err := scanSession(rows)
		if err != nil {
			return nil, storageErr("list sessions", err)
		}
		out = append(out, *gs)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list sessions", err)
	}
	return out, nil
}

// DeleteSession removes one session.
func (s *Store) DeleteSession(ctx context.Context, id int64) (bool, error) {
	res, err := s.sqlDB.ExecContext(ctx, "DELETE FROM game_sessions WHERE id = ?", id)
	if err != nil {
		return false, storageErr("delete session", err)
	}
	return affected(res, "delete session")
}

// HighScore returns the best completed score, or false when there is none.
func (s *Store) HighScore(ctx context.Context, userID int64, mode domain.GameMode) (int, bool, error) {
	var best sql.NullInt64
	err := s.sqlDB.QueryRowContext(ctx,
		"SELECT MAX(score) FROM game_sessions WHERE user_id = ? AND mode = ? AND completed = 1",
		userID, string(mode)).Scan(&best)
	if err != nil {
		return 0, false, storageErr("high score", err)
	}
	if !best.Valid {
		return 0, false, nil
	}
	return int(best.Int64), true, nil
}

// Leaderboard ranks users by their best completed score in mode.
func (s *Store) Leaderboard(ctx context.Context, mode domain.GameMode, limit int) ([]domain.ScoreRow, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT u.id, u.username, MAX(gs.score) AS high_score
FROM game_sessions gs
JOIN users u ON u.id = gs.user_id
WHERE gs.mode = ? AND gs.completed = 1
GROUP BY u.id, u.username
ORDER BY high_score DESC, u.username ASC, u.id ASC
LIMIT ?`, string(mode), max(1, limit))
	if err != nil {
		return nil, storageErr("leaderboard", err)
	}
	defer rows.Close()

	out := []domain.ScoreRow{}
	for rows.Next() {
		r := domain.ScoreRow{Mode: mode}
		if err := rows.Scan(&r.UserID, &r.Username, &r.HighScore); err != nil {
			return nil, storageErr("leaderboard", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("leaderboard", err)
	}
	return out, nil
}
