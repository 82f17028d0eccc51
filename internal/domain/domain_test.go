package domain_test

import (
	"errors"
	"strings"
	"testing"

	"physquiz/internal/domain"
)

func TestUsernameKey(t *testing.T) {
	tests := []struct {
		a, b string
		same bool
	}{
		{"Alice", "alice", true},
		{"ALICE", "alice", true},
		{" alice ", "alice", true},
		{"alice", "alicia", false},
	}
	for _, tc := range tests {
		got := domain.UsernameKey(tc.a) == domain.UsernameKey(tc.b)
		if got != tc.same {
			t.Errorf("UsernameKey(%q) == UsernameKey(%q) = %v; want %v", tc.a, tc.b, got, tc.same)
		}
	}
}

func TestValidateUsername(t *testing.T) {
	if name, err := domain.ValidateUsername("  bob "); err != nil || name != "bob" {
		t.Fatalf("expected trimmed bob, got %q, %v", name, err)
	}
	for _, bad := range []string{"", "   ", strings.Repeat("x", domain.MaxUsernameLength+1)} {
		if _, err := domain.ValidateUsername(bad); !errors.Is(err, domain.ErrInvalidUsername) {
			t.Errorf("ValidateUsername(%q): expected ErrInvalidUsername, got %v", bad, err)
		}
	}
}

func TestParseGameMode(t *testing.T) {
	for _, in := range []string{"basics", "TRIG", " Target "} {
		m, err := domain.ParseGameMode(in)
		if err != nil {
			t.Fatalf("ParseGameMode(%q): %v", in, err)
		}
		if !m.Valid() {
			t.Errorf("ParseGameMode(%q) returned invalid mode %q", in, m)
		}
	}
	if _, err := domain.ParseGameMode("chess"); !errors.Is(err, domain.ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
}
