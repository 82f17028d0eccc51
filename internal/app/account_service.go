// Package app holds the application services and business logic.
package app

import (
	"context"
	"crypto/rand"
	"errors"
	"strings"
	"sync"
	"time"

	"physquiz/internal/domain"
)

// AccountService manages registered users and their credentials.
//
// Every method taking a password clears the caller's buffer before returning.
type AccountService struct {
	users       domain.UserRepository
	verifier    domain.CredentialVerifier
	leaderboard *LeaderboardService
	now         func() time.Time

	decoyOnce sync.Once
	decoy     string
}

// NewAccountService creates an AccountService. A nil now uses time.Now.
func NewAccountService(users domain.UserRepository, verifier domain.CredentialVerifier, now func() time.Time) *AccountService {
	if now == nil {
		now = time.Now
	}
	return &AccountService{users: users, verifier: verifier, now: now}
}

// WithLeaderboard makes renames and deletions evict cached leaderboards.
func (s *AccountService) WithLeaderboard(lb *LeaderboardService) *AccountService {
	s.leaderboard = lb
	return s
}

// Register creates a user. It fails with domain.ErrUsernameTaken when the
// name matches an existing user case-insensitively.
func (s *AccountService) Register(ctx context.Context, username string, password []byte) (*domain.User, error) {
	defer clear(password)

	name, err := domain.ValidateUsername(username)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	credential, err := s.verifier.Hash(password)
	if err != nil {
		return nil, err
	}
	return s.users.CreateUser(ctx, name, credential, s.now().UTC())
}

// Authenticate returns the user matching username and password, or nil when
// either the user does not exist or the password is wrong.
func (s *AccountService) Authenticate(ctx context.Context, username string, password []byte) (*domain.User, error) {
	defer clear(password)

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// An unknown name costs one verification, like a wrong password.
		s.verifier.Verify(password, s.decoyCredential())
		return nil, nil
	}
	if !s.verifier.Verify(password, user.Credential) {
		return nil, nil
	}
	return user, nil
}

// decoyCredential returns a credential hashed at the verifier's cost that no
// caller knows the password for.
func (s *AccountService) decoyCredential() string {
	s.decoyOnce.Do(func() {
		secret, err := randomSecret()
		if err != nil {
			return
		}
		defer clear(secret)
		s.decoy, _ = s.verifier.Hash(secret)
	})
	return s.decoy
}

func randomSecret() ([]byte, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}
	return secret, nil
}

// GetUser returns the user with id, or nil.
func (s *AccountService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetUserByID(ctx, id)
}

// Rename changes a username, enforcing the same uniqueness rule as Register.
func (s *AccountService) Rename(ctx context.Context, id int64, username string) (bool, error) {
	name, err := domain.ValidateUsername(username)
	if err != nil {
		return false, err
	}
	ok, err := s.users.RenameUser(ctx, id, name)
	if err != nil || !ok {
		return ok, err
	}
	s.evictLeaderboards(ctx)
	return true, nil
}

// ChangePassword replaces the stored credential.
func (s *AccountService) ChangePassword(ctx context.Context, id int64, password []byte) (bool, error) {
	defer clear(password)

	if err := validatePassword(password); err != nil {
		return false, err
	}
	credential, err := s.verifier.Hash(password)
	if err != nil {
		return false, err
	}
	return s.users.UpdateCredential(ctx, id, credential)
}

// Delete removes the user and, by cascade, all of their sessions.
func (s *AccountService) Delete(ctx context.Context, id int64) (bool, error) {
	ok, err := s.users.DeleteUser(ctx, id)
	if err != nil || !ok {
		return ok, err
	}
	s.evictLeaderboards(ctx)
	return true, nil
}

// List returns every user ordered by username.
func (s *AccountService) List(ctx context.Context) ([]domain.User, error) {
	return s.users.ListUsers(ctx)
}

// ProvisionExternal returns the user bound to the SSO identity (issuer,
// subject), creating one named username on its first login. The new user
// gets an unusable random password. An identity is never attached to an
// existing account: if username is already in use the call fails with
// domain.ErrUsernameTaken.
func (s *AccountService) ProvisionExternal(ctx context.Context, issuer, subject, username string) (*domain.User, error) {
	if strings.TrimSpace(issuer) == "" || strings.TrimSpace(subject) == "" {
		return nil, domain.ErrInvalidIdentity
	}
	externalID := domain.ExternalKey(issuer, subject)
	user, err := s.users.GetUserByExternalID(ctx, externalID)
	if err != nil || user != nil {
		return user, err
	}

	name, err := domain.ValidateUsername(username)
	if err != nil {
		return nil, err
	}
	secret, err := randomSecret()
	if err != nil {
		return nil, err
	}
	defer clear(secret)
	credential, err := s.verifier.Hash(secret)
	if err != nil {
		return nil, err
	}
	user, err = s.users.CreateExternalUser(ctx, name, externalID, credential, s.now().UTC())
	if errors.Is(err, domain.ErrUsernameTaken) {
		// A concurrent first login of the same identity won the insert.
		if bound, lookupErr := s.users.GetUserByExternalID(ctx, externalID); lookupErr != nil || bound != nil {
			return bound, lookupErr
		}
	}
	return user, err
}

func (s *AccountService) evictLeaderboards(ctx context.Context) {
	if s.leaderboard != nil {
		s.leaderboard.Invalidate(ctx, domain.Modes...)
	}
}
