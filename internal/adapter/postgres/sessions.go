package postgres

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
	var endedAt sql.NullTime
	if err := row.Scan(&gs.ID, &gs.UserID, &mode, &gs.StartedAt, &endedAt, &gs.Score, &gs.Strikes, &gs.Completed); err != nil {
		return nil, err
	}
	gs.Mode = domain.GameMode(mode)
	gs.StartedAt = gs.StartedAt.UTC()
	if endedAt.Valid {
		t := endedAt.Time.UTC()
		gs.EndedAt = &t
	}
	return &gs, nil
}

// StartSession opens an active session for an existing user.
func (d *DB) StartSession(ctx context.Context, userID int64, mode domain.GameMode, startedAt time.Time) (*domain.GameSession, error) {
	gs, err := scanSession(d.sql.QueryRowContext(ctx,
		"INSERT INTO game_sessions (user_id, mode, started_at) VALUES ($1, $2, $3) RETURNING "+sessionColumns,
		userID, string(mode), startedAt.UTC()))
	if err != nil {
		if hasCode(err, codeForeignKeyViolation) {
			return nil, domain.ErrNotFound
		}
		return nil, storageErr("start session", err)
	}
	return gs, nil
}

// GetSession retrieves a session by id.
func (d *DB) GetSession(ctx context.Context, id int64) (*domain.GameSession, error) {
	gs, err := scanSession(d.sql.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM game_sessions WHERE id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get session", err)
	}
	return gs, nil
}

// RecordCorrect adds a point to an active session.
func (d *DB) RecordCorrect(ctx context.Context, id int64) (bool, error) {
	res, err := d.sql.ExecContext(ctx,
		"UPDATE game_sessions SET score = score + 1 WHERE id = $1 AND NOT completed", id)
	if err != nil {
		return false, storageErr("record correct", err)
	}
	return affected(res, "record correct")
}

// RecordWrong adds a strike and completes the session on the final strike.
// The row lock taken by UPDATE serializes concurrent strikes.
func (d *DB) RecordWrong(ctx context.Context, id int64, at time.Time) (bool, error) {
	res, err := d.sql.ExecContext(ctx, `
UPDATE game_sessions SET
    strikes = strikes + 1,
    completed = strikes + 1 >= $1,
    ended_at = CASE WHEN strikes + 1 >= $1 THEN GREATEST($2::timestamptz, started_at) ELSE ended_at END
WHERE id = $3 AND NOT completed`,
		domain.MaxStrikes, at.UTC(), id)
	if err != nil {
		return false, storageErr("record wrong", err)
	}
	return affected(res, "record wrong")
}

// FinishSession completes a session.
func (d *DB) FinishSession(ctx context.Context, id int64, at time.Time) (bool, error) {
	res, err := d.sql.ExecContext(ctx,
		"UPDATE game_sessions SET completed = TRUE, ended_at = GREATEST($1::timestamptz, started_at) WHERE id = $2",
		at.UTC(), id)
	if err != nil {
		return false, storageErr("finish session", err)
	}
	return affected(res, "finish session")
}

// ListSessionsByUser returns the user's sessions newest first.
func (d *DB) ListSessionsByUser(ctx context.Context, userID int64) ([]domain.GameSession, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+sessionColumns+" FROM game_sessions WHERE user_id = $1 ORDER BY started_at DESC, id DESC", userID)
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
func (d *DB) DeleteSession(ctx context.Context, id int64) (bool, error) {
	res, err := d.sql.ExecContext(ctx, "DELETE FROM game_sessions WHERE id = $1", id)
	if err != nil {
		return false, storageErr("delete session", err)
	}
	return affected(res, "delete session")
}

// HighScore returns the best completed score, or false when there is none.
func (d *DB) HighScore(ctx context.Context, userID int64, mode domain.GameMode) (int, bool, error) {
	var best sql.NullInt64
	err := d.sql.QueryRowContext(ctx,
		"SELECT MAX(score) FROM game_sessions WHERE user_id = $1 AND mode = $2 AND completed",
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
func (d *DB) Leaderboard(ctx context.Context, mode domain.GameMode, limit int) ([]domain.ScoreRow, error) {
	rows, err := d.sql.QueryContext(ctx, `
SELECT u.id, u.username, MAX(gs.score) AS high_score
FROM game_sessions gs
JOIN users u ON u.id = gs.user_id
WHERE gs.mode = $1 AND gs.completed
GROUP BY u.id, u.username
ORDER BY high_score DESC, u.username COLLATE "C" ASC, u.id ASC
LIMIT $2`, string(mode), max(1, limit))
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
