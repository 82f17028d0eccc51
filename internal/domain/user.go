// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// User represents a registered player.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Credential   string    `json:"-"`
	RegisteredAt time.Time `json:"registeredAt"`
	// ExternalID binds an SSO identity to the user. Empty for accounts
	// created through registration.
	ExternalID string `json:"-"`
}

// ExternalKey returns the ExternalID of an SSO identity. OIDC only
// guarantees that a subject is unique within its issuer, so both form the key.
func ExternalKey(issuer, subject string) string {
	return issuer + "#" + subject
}

// MaxUsernameLength bounds the stored username in runes.
const MaxUsernameLength = 64

// UsernameKey returns the case-folded form used for uniqueness and lookups.
// Two usernames collide iff their keys are equal.
func UsernameKey(username string) string {
	return cases.Fold().String(strings.TrimSpace(username))
}

// ValidateUsername trims the username and checks it is usable.
func ValidateUsername(username string) (string, error) {
	name := strings.TrimSpace(username)
	if name == "" || len([]rune(name)) > MaxUsernameLength {
		return "", ErrInvalidUsername
	}
	return name, nil
}

// UserRepository defines the port for user persistence operations.
//
// Lookups return (nil, nil) when no user matches. Create and Rename fail with
// ErrUsernameTaken when another user already holds the same UsernameKey.
// CreateExternalUser also fails with ErrUsernameTaken when the external id is
// already bound.
type UserRepository interface {
	CreateUser(ctx context.Context, username, credential string, registeredAt time.Time) (*User, error)
	CreateExternalUser(ctx context.Context, username, externalID, credential string, registeredAt time.Time) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByExternalID(ctx context.Context, externalID string) (*User, error)
	GetUserByID(ctx context.Context, id int64) (*User, error)
	RenameUser(ctx context.Context, id int64, username string) (bool, error)
	UpdateCredential(ctx context.Context, id int64, credential string) (bool, error)
	DeleteUser(ctx context.Context, id int64) (bool, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// CredentialVerifier hashes and checks passwords. Implementations must not
// retain the plaintext.
type CredentialVerifier interface {
	Hash(plaintext []byte) (string, error)
	Verify(plaintext []byte, credential string) bool
}
