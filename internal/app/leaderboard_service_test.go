package app_test

import (
	"context"
	"errors"
	"testing"

	"physquiz/internal/app"
	"physquiz/internal/domain"
)

func TestRank_ClampsLimit(t *testing.T) {
	for _, limit := range []int{0, -5} {
		repo := &mockLeaderboardRepo{
			rankFn: func(_ context.Context, _ domain.GameMode, got int) ([]domain.ScoreRow, error) {
				if got != 1 {
					t.Fatalf("limit %d: expected clamp to 1, got %d", limit, got)
				}
				return []domain.ScoreRow{{UserID: 1, Username: "a", Mode: domain.ModeBasics, HighScore: 3}}, nil
			},
		}
		rows, err := app.NewLeaderboardService(repo, nil).Rank(context.Background(), domain.ModeBasics, limit)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rows) != 1 {
			t.Fatalf("expected one row, got %d", len(rows))
		}
	}
}

func TestRank_UnknownMode(t *testing.T) {
	svc := app.NewLeaderboardService(&mockLeaderboardRepo{}, nil)
	if _, err := svc.Rank(context.Background(), "CHESS", 10); !errors.Is(err, domain.ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
}

func TestRank_EmptyIsNotNil(t *testing.T) {
	rows, err := app.NewLeaderboardService(&mockLeaderboardRepo{}, nil).Rank(context.Background(), domain.ModeTrig, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows == nil || len(rows) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", rows)
	}
}

func TestRank_CacheHit(t *testing.T) {
	cached := []domain.ScoreRow{{UserID: 2, Username: "b", Mode: domain.ModeTrig, HighScore: 9}}
	repo := &mockLeaderboardRepo{
		rankFn: func(context.Context, domain.GameMode, int) ([]domain.ScoreRow, error) {
			t.Fatal("store must not be queried on a cache hit")
			return nil, nil
		},
	}
	cache := &mockCache{
		getFn: func(context.Context, domain.GameMode, int) ([]domain.ScoreRow, bool, error) {
			return cached, true, nil
		},
	}
	rows, err := app.NewLeaderboardService(repo, cache).Rank(context.Background(), domain.ModeTrig, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].HighScore != 9 {
		t.Fatalf("expected cached rows, got %+v", rows)
	}
}

func TestRank_CacheMissFillsCache(t *testing.T) {
	var put []domain.ScoreRow
	repo := &mockLeaderboardRepo{
		rankFn: func(context.Context, domain.GameMode, int) ([]domain.ScoreRow, error) {
			return []domain.ScoreRow{{UserID: 3, HighScore: 4}}, nil
		},
	}
	cache := &mockCache{
		getFn: func(context.Context, domain.GameMode, int) ([]domain.ScoreRow, bool, error) {
			return nil, false, errors.New("connection refused")
		},
		putFn: func(_ context.Context, _ domain.GameMode, limit int, rows []domain.ScoreRow) error {
			if limit != 10 {
				t.Fatalf("expected limit 10, got %d", limit)
			}
			put = rows
			return nil
		},
	}
	rows, err := app.NewLeaderboardService(repo, cache).Rank(context.Background(), domain.ModeBasics, 10)
	if err != nil {
		t.Fatalf("cache failure must not surface: %v", err)
	}
	if len(rows) != 1 || len(put) != 1 {
		t.Fatalf("expected store rows returned and cached, got rows=%v put=%v", rows, put)
	}
}

func TestRank_StoreError(t *testing.T) {
	repo := &mockLeaderboardRepo{
		rankFn: func(context.Context, domain.GameMode, int) ([]domain.ScoreRow, error) {
			return nil, domain.ErrStorage
		},
	}
	if _, err := app.NewLeaderboardService(repo, nil).Rank(context.Background(), domain.ModeBasics, 1); !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}

func TestRank_SkipsFillAfterConcurrentInvalidate(t *testing.T) {
	var svc *app.LeaderboardService
	reads, puts := 0, 0
	repo := &mockLeaderboardRepo{
		rankFn: func(ctx context.Context, mode domain.GameMode, _ int) ([]domain.ScoreRow, error) {
			reads++
			if reads == 1 {
				// A round completes while the stale board is being read.
				svc.Invalidate(ctx, mode)
			}
			return []domain.ScoreRow{{UserID: 1, HighScore: reads}}, nil
		},
	}
	cache := &mockCache{
		putFn: func(_ context.Context, _ domain.GameMode, _ int, rows []domain.ScoreRow) error {
			puts++
			if rows[0].HighScore != 2 {
				t.Fatalf("stale rows cached: %+v", rows)
			}
			return nil
		},
	}
	svc = app.NewLeaderboardService(repo, cache)

	if _, err := svc.Rank(context.Background(), domain.ModeBasics, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if puts != 0 {
		t.Fatalf("expected no fill after a concurrent invalidate, got %d puts", puts)
	}
	if _, err := svc.Rank(context.Background(), domain.ModeBasics, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if puts != 1 {
		t.Fatalf("expected the next read to fill the cache, got %d puts", puts)
	}
}

func TestRank_InvalidateOtherModeStillFills(t *testing.T) {
	var svc *app.LeaderboardService
	puts := 0
	repo := &mockLeaderboardRepo{
		rankFn: func(ctx context.Context, _ domain.GameMode, _ int) ([]domain.ScoreRow, error) {
			svc.Invalidate(ctx, domain.ModeTrig)
			return []domain.ScoreRow{}, nil
		},
	}
	cache := &mockCache{
		putFn: func(context.Context, domain.GameMode, int, []domain.ScoreRow) error {
			puts++
			return nil
		},
	}
	svc = app.NewLeaderboardService(repo, cache)
	if _, err := svc.Rank(context.Background(), domain.ModeBasics, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if puts != 1 {
		t.Fatalf("expected fill for an untouched mode, got %d puts", puts)
	}
}
