package postgres

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
	var externalID sql.NullString
	if err := row.Scan(&u.ID, &u.Username, &u.Credential, &u.RegisteredAt, &externalID); err != nil {
		return nil, err
	}
	u.RegisteredAt = u.RegisteredAt.UTC()
	u.ExternalID = externalID.String
	return &u, nil
}

// CreateUser creates a new user.
func (d *DB) CreateUser(ctx context.Context, username, credential string, registeredAt time.Time) (*domain.User, error) {
	u, err := scanUser(d.sql.QueryRowContext(ctx,
		"INSERT INTO users (username, username_key, credential, registered_at) VALUES ($1, $2, $3, $4) RETURNING "+userColumns,
		username, domain.UsernameKey(username), credential, registeredAt.UTC(),
	))
	if err != nil {
		if hasCode(err, codeUniqueViolation) {
			return nil, domain.ErrUsernameTaken
		}
		return nil, storageErr("create user", err)
	}
	return u, nil
}

// CreateExternalUser creates a user bound to an SSO identity.
func (d *DB) CreateExternalUser(ctx context.Context, username, externalID, credential string, registeredAt time.Time) (*domain.User, error) {
	u, err := scanUser(d.sql.QueryRowContext(ctx,
		"INSERT INTO users (username, username_key, credential, registered_at, external_id) VALUES ($1, $2, $3, $4, $5) RETURNING "+userColumns,
		username, domain.UsernameKey(username), credential, registeredAt.UTC(), externalID,
	))
	if err != nil {
		if hasCode(err, codeUniqueViolation) {
			return nil, domain.ErrUsernameTaken
		}
		return nil, storageErr("create external user", err)
	}
	return u, nil
}

// GetUserByExternalID retrieves the user bound to an SSO identity.
func (d *DB) GetUserByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	u, err := scanUser(d.sql.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE external_id = $1", externalID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get user by external id", err)
	}
	return u, nil
}

// GetUserByUsername retrieves a user by username, ignoring case.
func (d *DB) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	u, err := scanUser(d.sql.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username_key = $1", domain.UsernameKey(username)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get user by username", err)
	}
	return u, nil
}

// GetUserByID retrieves a user by ID.
func (d *DB) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	u, err := scanUser(d.sql.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get user by id", err)
	}
	return u, nil
}

// RenameUser changes a username.
func (d *DB) RenameUser(ctx context.Context, id int64, username string) (bool, error) {
	res, err := d.sql.ExecContext(ctx,
		"UPDATE users SET username = $1, username_key = $2 WHERE id = $3",
		username, domain.UsernameKey(username), id)
	if err != nil {
		if hasCode(err, codeUniqueViolation) {
			return false, domain.ErrUsernameTaken
		}
		return false, storageErr("rename user", err)
	}
	return affected(res, "rename user")
}

// UpdateCredential replaces the stored credential hash.
func (d *DB) UpdateCredential(ctx context.Context, id int64, credential string) (bool, error) {
	res, err := d.sql.ExecContext(ctx, "UPDATE users SET credential = $1 WHERE id = $2", credential, id)
	if err != nil {
		return false, storageErr("update credential", err)
	}
	return affected(res, "update credential")
}

// DeleteUser deletes a user and, by cascade, their sessions.
func (d *DB) DeleteUser(ctx context.Context, id int64) (bool, error) {
	res, err := d.sql.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return false, storageErr("delete user", err)
	}
	return affected(res, "delete user")
}

// ListUsers returns all users in byte order of username.
func (d *DB) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY username COLLATE "C", id`)
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
