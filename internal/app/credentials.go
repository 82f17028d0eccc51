package app

import (
	"golang.org/x/crypto/bcrypt"

	"physquiz/internal/domain"
)

// DefaultBcryptCost is the work factor used when none is configured.
const DefaultBcryptCost = 12

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

// BcryptVerifier hashes credentials with bcrypt.
type BcryptVerifier struct {
	cost int
}

var _ domain.CredentialVerifier = (*BcryptVerifier)(nil)

// NewBcryptVerifier returns a verifier using cost, or DefaultBcryptCost when
// cost is outside bcrypt's accepted range.
func NewBcryptVerifier(cost int) *BcryptVerifier {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &BcryptVerifier{cost: cost}
}

// Hash returns the bcrypt hash of plaintext.
func (v *BcryptVerifier) Hash(plaintext []byte) (string, error) {
	h, err := bcrypt.GenerateFromPassword(plaintext, v.cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Verify reports whether plaintext matches credential.
func (v *BcryptVerifier) Verify(plaintext []byte, credential string) bool {
	if credential == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(credential), plaintext) == nil
}

func validatePassword(password []byte) error {
	if len(password) == 0 || len(password) > maxPasswordBytes {
		return domain.ErrInvalidPassword
	}
	return nil
}
