package app_test

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"physquiz/internal/app"
	"physquiz/internal/domain"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := app.NewTokenIssuer([]byte("k1"), time.Hour, clock)
	tok, err := issuer.Issue(domain.User{ID: 42, Username: "alice"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	id, err := issuer.Parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if id != 42 {
		t.Fatalf("expected id 42, got %d", id)
	}
}

func TestTokenIssuer_Rejects(t *testing.T) {
	issuer := app.NewTokenIssuer([]byte("k1"), time.Hour, clock)
	tok, err := issuer.Issue(domain.User{ID: 42, Username: "alice"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	later := app.NewTokenIssuer([]byte("k1"), time.Hour, func() time.Time { return fixedNow.Add(2 * time.Hour) })
	otherKey := app.NewTokenIssuer([]byte("k2"), time.Hour, clock)
	unsigned, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Issuer:    "physquiz",
		Subject:   "42",
		ExpiresAt: jwt.NewNumericDate(fixedNow.Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name   string
		issuer *app.TokenIssuer
		token  string
	}{
		{"expired", later, tok},
		{"other key", otherKey, tok},
		{"garbage", issuer, "not-a-token"},
		{"alg none", issuer, unsigned},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.issuer.Parse(tc.token); !errors.Is(err, app.ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}
