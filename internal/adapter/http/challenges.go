package adapthttp

import (
	"errors"
	"sync"

	"physquiz/internal/physics"
)

var errNoChallenge = errors.New("no pending target for this round")

// challengeBook remembers the target each TARGET round is currently aiming
// at, so the correct speed never leaves the server.
type challengeBook struct {
	mu      sync.Mutex
	pending map[int64]physics.Challenge
}

func newChallengeBook() *challengeBook {
	return &challengeBook{pending: make(map[int64]physics.Challenge)}
}

func (b *challengeBook) put(sessionID int64, c physics.Challenge) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending[sessionID] = c
}

func (b *challengeBook) get(sessionID int64) (physics.Challenge, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.pending[sessionID]
	return c, ok
}

func (b *challengeBook) drop(sessionID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.pending, sessionID)
}
