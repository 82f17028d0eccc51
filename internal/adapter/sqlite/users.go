package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"physquiz/internal/domain"
)

const userColumns = "id, username, credential, registered_at, external_id"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	var registeredAt int64
	var externalID sql.NullString
	if err := row.Scan(&u.ID, &u.Username, &u.Credential, &registeredAt, &externalID); err != nil {
		return nil, err
	}
	u.RegisteredAt = fromMillis(registeredAt)
	u.ExternalID = externalID.String
	return &u, nil
}

// CreateUser inserts a user, failing with domain.ErrUsernameTaken when the
// folded username is already in use.
func (s *Store) CreateUser(ctx context.Context, username, credential string, registeredAt time.Time) (*domain.User, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		"INSERT INTO users (username, username_key, credential, registered_at) VALUES (?, ?, ?, ?) RETURNING "+userColumns,
		username, domain.UsernameKey(username), credential, toMillis(registeredAt),
	)
	u, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrUsernameTaken
		}
		return nil, storageErr("create user", err)
	}
	return u, nil
}

// CreateExternalUser inserts a user bound to an SSO identity.
func (s *Store) CreateExternalUser(ctx context.Context, username, externalID, credential string, registeredAt time.Time) (*domain.User, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		"INSERT INTO users (username, username_key, credential, registered_at, external_id) VALUES (?, ?, ?, ?, ?) RETURNING "+userColumns,
		username, domain.UsernameKey(username), credential, toMillis(registeredAt), externalID,
	)
	u, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrUsernameTaken
		}
		return nil, storageErr("create external user", err)
	}
	return u, nil
}

// GetUserByExternalID returns the user bound to an SSO identity.
func (s *Store) GetUserByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	u, err := scanUser(s.sqlDB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE external_id = ?", externalID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get user by external id", err)
	}
	return u, nil
}

// GetUserByUsername looks a user up case-insensitively.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	u, err := scanUser(s.sqlDB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username_key = ?", domain.UsernameKey(username)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get user by username", err)
	}
	return u, nil
}

// GetUserByID retrieves a user by id.
func (s *Store) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	u, err := scanUser(s.sqlDB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get user by id", err)
	}
	return u, nil
}

// RenameUser changes a username. Renaming to a different casing of the same
// name is allowed.
func (s *Store) RenameUser(ctx context.Context, id int64, username string) (bool, error) {
	res, err := s.sqlDB.ExecContext(ctx,
		"UPDATE users SET username = ?, username_key = ? WHERE id = ?",
		username, domain.UsernameKey(username), id)
	if err != nil {
		if isUniqueViolation(err) {
			return false, domain.ErrUsernameTaken
		}
		return false, storageErr("rename user", err)
	}
	return affected(res, "rename user")
}

// UpdateCredential replaces the stored credential hash.
func (s *Store) UpdateCredential(ctx context.Context, id int64, credential string) (bool, error) {
	res, err := s.sqlDB.ExecContext(ctx, "UPDATE users SET credential = ? WHERE id = ?", credential, id)
	if err != nil {
		return false, storageErr("update credential", err)
	}
	return affected(res, "update credential")
}

// DeleteUser removes a user; the foreign key cascades to their sessions.
func (s *Store) DeleteUser(ctx context.Context, id int64) (bool, error) {
	res, err := s.sqlDB.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return false, storageErr("delete user", err)
	}
	return affected(res, "delete user")
}

// ListUsers returns all users ordered by username, then id.
func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := s.sqlDB.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY username, id")
	if err != nil {
		return nil, storageErr("list users", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, storageErr("list users", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list users", err)
	}
	return users, nil
}

func affected(res sql.Result, op string) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, storageErr(op, err)
	}
	return n > 0, nil
}
