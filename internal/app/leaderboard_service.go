package app

import (
	"context"
	"log"
	"sync"

	"physquiz/internal/domain"
)

// LeaderboardService ranks users per mode, optionally through a cache.
//
// Each Invalidate bumps a per-mode generation. Rank only fills the cache when
// the generation it saw before reading the store is still current, so a
// completion that lands mid-read is not overwritten by the stale rows.
// Invalidations from other processes are only bounded by the cache TTL.
type LeaderboardService struct {
	repo  domain.LeaderboardRepository
	cache domain.LeaderboardCache

	mu  sync.Mutex
	gen map[domain.GameMode]uint64
}

// NewLeaderboardService creates a LeaderboardService. cache may be nil.
func NewLeaderboardService(repo domain.LeaderboardRepository, cache domain.LeaderboardCache) *LeaderboardService {
	return &LeaderboardService{repo: repo, cache: cache, gen: make(map[domain.GameMode]uint64)}
}

// Rank returns up to limit rows ordered by high score descending. Limits
// below one are treated as one. Cache failures fall through to the store.
func (s *LeaderboardService) Rank(ctx context.Context, mode domain.GameMode, limit int) ([]domain.ScoreRow, error) {
	if !mode.Valid() {
		return nil, domain.ErrUnknownMode
	}
	limit = max(1, limit)

	if s.cache != nil {
		rows, ok, err := s.cache.Get(ctx, mode, limit)
		if err != nil {
			log.Printf("leaderboard cache get %s/%d: %v", mode, limit, err)
		} else if ok {
			return rows, nil
		}
	}

	seen := s.generation(mode)
	rows, err := s.repo.Leaderboard(ctx, mode, limit)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []domain.ScoreRow{}
	}
	if s.cache != nil {
		s.fill(ctx, mode, limit, rows, seen)
	}
	return rows, nil
}

func (s *LeaderboardService) generation(mode domain.GameMode) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen[mode]
}

// fill caches rows unless mode was invalidated after generation seen. The
// lock is held across Put so an Invalidate cannot slip between check and
// write.
func (s *LeaderboardService) fill(ctx context.Context, mode domain.GameMode, limit int, rows []domain.ScoreRow, seen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen[mode] != seen {
		return
	}
	if err := s.cache.Put(ctx, mode, limit, rows); err != nil {
		log.Printf("leaderboard cache put %s/%d: %v", mode, limit, err)
	}
}

// Invalidate drops cached rankings for modes.
func (s *LeaderboardService) Invalidate(ctx context.Context, modes ...domain.GameMode) {
	if s == nil || s.cache == nil || len(modes) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range modes {
		s.gen[m]++
	}
	if err := s.cache.Invalidate(ctx, modes...); err != nil {
		log.Printf("leaderboard cache invalidate %v: %v", modes, err)
	}
}
