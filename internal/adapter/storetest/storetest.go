// Package storetest holds the behaviour every domain.Store must share. Each
// adapter calls Run from its own tests.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"physquiz/internal/domain"
)

// Opener returns an empty store. It is called once per subtest and should
// register any cleanup on t.
type Opener func(t *testing.T) domain.Store

var base = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

// Run executes the shared suite against stores produced by open.
func Run(t *testing.T, open Opener) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s domain.Store)
	}{
		{"UsernameUniqueIgnoringCase", testUsernameUnique},
		{"Rename", testRename},
		{"UpdateCredential", testUpdateCredential},
		{"ExternalIdentity", testExternalIdentity},
		{"ListUsersOrdered", testListUsers},
		{"StartSessionUnknownUser", testStartUnknownUser},
		{"StrikesCompleteOnThird", testStrikes},
		{"CorrectAfterCompletionIgnored", testCorrectAfterCompletion},
		{"FinishIdempotent", testFinish},
		{"MissingIDsAreNoOps", testMissingIDs},
		{"DeleteUserCascades", testCascade},
		{"DeleteSession", testDeleteSession},
		{"Leaderboard", testLeaderboard},
		{"HighScoreIgnoresActive", testHighScore},
		{"ListSessionsNewestFirst", testListOrder},
		{"ConcurrentWrongAnswers", testConcurrentWrong},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.fn(t, open(t))
		})
	}
}

func mustUser(t *testing.T, s domain.Store, name string) *domain.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), name, "cred-"+name, base)
	if err != nil {
		t.Fatalf("create user %q: %v", name, err)
	}
	return u
}

func mustStart(t *testing.T, s domain.Store, userID int64, mode domain.GameMode, at time.Time) *domain.GameSession {
	t.Helper()
	gs, err := s.StartSession(context.Background(), userID, mode, at)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	return gs
}

func mustGet(t *testing.T, s domain.Store, id int64) *domain.GameSession {
	t.Helper()
	gs, err := s.GetSession(context.Background(), id)
	if err != nil {
		t.Fatalf("get session %d: %v", id, err)
	}
	if gs == nil {
		t.Fatalf("session %d not found", id)
	}
	return gs
}

// completed plays a session to the given score and finishes it.
func completed(t *testing.T, s domain.Store, userID int64, mode domain.GameMode, score int) *domain.GameSession {
	t.Helper()
	ctx := context.Background()
	gs := mustStart(t, s, userID, mode, base)
	for range score {
		if ok, err := s.RecordCorrect(ctx, gs.ID); err != nil || !ok {
			t.Fatalf("record correct: ok=%v err=%v", ok, err)
		}
	}
	if ok, err := s.FinishSession(ctx, gs.ID, base.Add(time.Minute)); err != nil || !ok {
		t.Fatalf("finish: ok=%v err=%v", ok, err)
	}
	return gs
}

func testUsernameUnique(t *testing.T, s domain.Store) {
	ctx := context.Background()
	alice := mustUser(t, s, "Alice")
	if alice.ID == 0 || alice.Username != "Alice" || !alice.RegisteredAt.Equal(base) {
		t.Fatalf("unexpected user %+v", alice)
	}

	if _, err := s.CreateUser(ctx, "alice", "x", base); !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	got, err := s.GetUserByUsername(ctx, "ALICE")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got == nil || got.ID != alice.ID || got.Username != "Alice" || got.Credential != "cred-Alice" {
		t.Fatalf("expected case-insensitive match, got %+v", got)
	}

	missing, err := s.GetUserByUsername(ctx, "bob")
	if err != nil || missing != nil {
		t.Fatalf("expected no match, got %+v err=%v", missing, err)
	}
}

func testRename(t *testing.T, s domain.Store) {
	ctx := context.Background()
	alice := mustUser(t, s, "alice")
	mustUser(t, s, "bob")

	if ok, err := s.RenameUser(ctx, alice.ID, "Alice"); err != nil || !ok {
		t.Fatalf("recasing own name: ok=%v err=%v", ok, err)
	}
	if _, err := s.RenameUser(ctx, alice.ID, "BOB"); !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
	if ok, err := s.RenameUser(ctx, alice.ID, "Carol"); err != nil || !ok {
		t.Fatalf("rename: ok=%v err=%v", ok, err)
	}
	got, err := s.GetUserByID(ctx, alice.ID)
	if err != nil || got == nil || got.Username != "Carol" {
		t.Fatalf("expected renamed user, got %+v err=%v", got, err)
	}
	if old, _ := s.GetUserByUsername(ctx, "alice"); old != nil {
		t.Fatalf("old name still resolves to %+v", old)
	}
	if _, err := s.CreateUser(ctx, "ALICE", "x", base); err != nil {
		t.Fatalf("freed name should be reusable: %v", err)
	}
}

func testUpdateCredential(t *testing.T, s domain.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "dora")
	if ok, err := s.UpdateCredential(ctx, u.ID, "new-cred"); err != nil || !ok {
		t.Fatalf("update: ok=%v err=%v", ok, err)
	}
	got, err := s.GetUserByID(ctx, u.ID)
	if err != nil || got.Credential != "new-cred" {
		t.Fatalf("expected new credential, got %+v err=%v", got, err)
	}
}

func testExternalIdentity(t *testing.T, s domain.Store) {
	ctx := context.Background()
	local := mustUser(t, s, "Alice")
	if local.ExternalID != "" {
		t.Fatalf("registered user has external id %q", local.ExternalID)
	}
	if got, err := s.GetUserByExternalID(ctx, ""); err != nil || got != nil {
		t.Fatalf("empty external id matched %+v err=%v", got, err)
	}

	const ext = "https://idp.example#1234"
	if _, err := s.CreateExternalUser(ctx, "alice", ext, "cred", base); !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("identity must not take a local name, got %v", err)
	}
	sso, err := s.CreateExternalUser(ctx, "erin", ext, "cred", base)
	if err != nil {
		t.Fatalf("create external user: %v", err)
	}
	if sso.ID == local.ID || sso.ExternalID != ext {
		t.Fatalf("unexpected external user %+v", sso)
	}
	if _, err := s.CreateExternalUser(ctx, "erin2", ext, "cred", base); !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("identity bound twice, got %v", err)
	}

	got, err := s.GetUserByExternalID(ctx, ext)
	if err != nil || got == nil || got.ID != sso.ID {
		t.Fatalf("lookup by external id: got %+v err=%v", got, err)
	}
	if got, err := s.GetUserByExternalID(ctx, "https://idp.example#9999"); err != nil || got != nil {
		t.Fatalf("unknown identity matched %+v err=%v", got, err)
	}

	if ok, err := s.DeleteUser(ctx, sso.ID); err != nil || !ok {
		t.Fatalf("delete: ok=%v err=%v", ok, err)
	}
	if got, err := s.GetUserByExternalID(ctx, ext); err != nil || got != nil {
		t.Fatalf("deleted user still bound: %+v err=%v", got, err)
	}
	if _, err := s.CreateExternalUser(ctx, "erin", ext, "cred", base); err != nil {
		t.Fatalf("identity must be reusable after delete: %v", err)
	}
}

func testListUsers(t *testing.T, s domain.Store) {
	for _, n := range []string{"carol", "Bob", "alice"} {
		mustUser(t, s, n)
	}
	users, err := s.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"Bob", "alice", "carol"}
	if len(users) != len(want) {
		t.Fatalf("expected %d users, got %d", len(want), len(users))
	}
	for i, u := range users {
		if u.Username != want[i] {
			t.Fatalf("position %d: expected %q, got %q", i, want[i], u.Username)
		}
	}
}

func testStartUnknownUser(t *testing.T, s domain.Store) {
	if _, err := s.StartSession(context.Background(), 424242, domain.ModeBasics, base); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func testStrikes(t *testing.T, s domain.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "erin")
	gs := mustStart(t, s, u.ID, domain.ModeTrig, base)
	if gs.Completed || gs.EndedAt != nil || gs.Score != 0 || gs.Strikes != 0 || !gs.StartedAt.Equal(base) {
		t.Fatalf("unexpected new session %+v", gs)
	}

	for i := 1; i <= 2; i++ {
		if ok, err := s.RecordWrong(ctx, gs.ID, base.Add(time.Duration(i)*time.Second)); err != nil || !ok {
			t.Fatalf("strike %d: ok=%v err=%v", i, ok, err)
		}
		got := mustGet(t, s, gs.ID)
		if got.Strikes != i || got.Completed || got.EndedAt != nil {
			t.Fatalf("after strike %d: %+v", i, got)
		}
	}

	third := base.Add(3 * time.Second)
	if ok, err := s.RecordWrong(ctx, gs.ID, third); err != nil || !ok {
		t.Fatalf("strike 3: ok=%v err=%v", ok, err)
	}
	got := mustGet(t, s, gs.ID)
	if got.Strikes != domain.MaxStrikes || !got.Completed || got.EndedAt == nil || !got.EndedAt.Equal(third) {
		t.Fatalf("expected completion at third strike, got %+v", got)
	}

	for i := 4; i <= 5; i++ {
		if ok, err := s.RecordWrong(ctx, gs.ID, base.Add(time.Hour)); err != nil || ok {
			t.Fatalf("strike %d should be a no-op: ok=%v err=%v", i, ok, err)
		}
	}
	got = mustGet(t, s, gs.ID)
	if got.Strikes != domain.MaxStrikes || !got.EndedAt.Equal(third) {
		t.Fatalf("completed session changed: %+v", got)
	}
}

func testCorrectAfterCompletion(t *testing.T, s domain.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "fay")
	gs := completed(t, s, u.ID, domain.ModeBasics, 2)

	if ok, err := s.RecordCorrect(ctx, gs.ID); err != nil || ok {
		t.Fatalf("expected no-op, got ok=%v err=%v", ok, err)
	}
	if got := mustGet(t, s, gs.ID); got.Score != 2 {
		t.Fatalf("expected score 2, got %d", got.Score)
	}
}

func testFinish(t *testing.T, s domain.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "gus")
	gs := mustStart(t, s, u.ID, domain.ModeTarget, base)

	for i := range 2 {
		if ok, err := s.FinishSession(ctx, gs.ID, base.Add(time.Minute)); err != nil || !ok {
			t.Fatalf("finish %d: ok=%v err=%v", i, ok, err)
		}
	}
	got := mustGet(t, s, gs.ID)
	if !got.Completed || got.EndedAt == nil || !got.EndedAt.Equal(base.Add(time.Minute)) {
		t.Fatalf("unexpected finished session %+v", got)
	}

	// A clock behind startedAt must not produce endedAt < startedAt.
	skewed := mustStart(t, s, u.ID, domain.ModeTarget, base)
	if _, err := s.FinishSession(ctx, skewed.ID, base.Add(-time.Hour)); err != nil {
		t.Fatalf("finish skewed: %v", err)
	}
	got = mustGet(t, s, skewed.ID)
	if got.EndedAt == nil || got.EndedAt.Before(got.StartedAt) {
		t.Fatalf("endedAt before startedAt: %+v", got)
	}
}

func testMissingIDs(t *testing.T, s domain.Store) {
	ctx := context.Background()
	const missing = int64(987654)

	checks := []struct {
		name string
		fn   func() (bool, error)
	}{
		{"record correct", func() (bool, error) { return s.RecordCorrect(ctx, missing) }},
		{"record wrong", func() (bool, error) { return s.RecordWrong(ctx, missing, base) }},
		{"finish", func() (bool, error) { return s.FinishSession(ctx, missing, base) }},
		{"delete session", func() (bool, error) { return s.DeleteSession(ctx, missing) }},
		{"delete user", func() (bool, error) { return s.DeleteUser(ctx, missing) }},
		{"rename user", func() (bool, error) { return s.RenameUser(ctx, missing, "nobody") }},
		{"update credential", func() (bool, error) { return s.UpdateCredential(ctx, missing, "x") }},
	}
	for _, c := range checks {
		if ok, err := c.fn(); err != nil || ok {
			t.Fatalf("%s: expected (false, nil), got (%v, %v)", c.name, ok, err)
		}
	}
	if gs, err := s.GetSession(ctx, missing); err != nil || gs != nil {
		t.Fatalf("get session: expected (nil, nil), got (%+v, %v)", gs, err)
	}
	if u, err := s.GetUserByID(ctx, missing); err != nil || u != nil {
		t.Fatalf("get user: expected (nil, nil), got (%+v, %v)", u, err)
	}
}

func testCascade(t *testing.T, s domain.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "hal")
	other := mustUser(t, s, "ivy")
	a := mustStart(t, s, u.ID, domain.ModeBasics, base)
	mustStart(t, s, u.ID, domain.ModeTrig, base.Add(time.Second))
	kept := mustStart(t, s, other.ID, domain.ModeBasics, base)

	if ok, err := s.DeleteUser(ctx, u.ID); err != nil || !ok {
		t.Fatalf("delete user: ok=%v err=%v", ok, err)
	}
	list, err := s.ListSessionsByUser(ctx, u.ID)
	if err != nil || len(list) != 0 {
		t.Fatalf("expected no sessions after delete, got %d err=%v", len(list), err)
	}
	if gs, _ := s.GetSession(ctx, a.ID); gs != nil {
		t.Fatalf("session %d survived its user", a.ID)
	}
	mustGet(t, s, kept.ID)
}

func testDeleteSession(t *testing.T, s domain.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "jo")
	gs := mustStart(t, s, u.ID, domain.ModeBasics, base)

	if ok, err := s.DeleteSession(ctx, gs.ID); err != nil || !ok {
		t.Fatalf("delete: ok=%v err=%v", ok, err)
	}
	if ok, err := s.DeleteSession(ctx, gs.ID); err != nil || ok {
		t.Fatalf("second delete: ok=%v err=%v", ok, err)
	}
	if got, err := s.GetUserByID(ctx, u.ID); err != nil || got == nil {
		t.Fatalf("owner must survive session delete: %+v err=%v", got, err)
	}
}

func testLeaderboard(t *testing.T, s domain.Store) {
	ctx := context.Background()
	a := mustUser(t, s, "A")
	b := mustUser(t, s, "B")
	completed(t, s, a.ID, domain.ModeBasics, 1)
	completed(t, s, a.ID, domain.ModeBasics, 3)
	completed(t, s, b.ID, domain.ModeBasics, 2)
	completed(t, s, b.ID, domain.ModeTrig, 9)

	active := mustStart(t, s, b.ID, domain.ModeBasics, base)
	for range 5 {
		if _, err := s.RecordCorrect(ctx, active.ID); err != nil {
			t.Fatalf("record correct: %v", err)
		}
	}

	rows, err := s.Leaderboard(ctx, domain.ModeBasics, 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	want := []domain.ScoreRow{
		{UserID: a.ID, Username: "A", Mode: domain.ModeBasics, HighScore: 3},
		{UserID: b.ID, Username: "B", Mode: domain.ModeBasics, HighScore: 2},
	}
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %+v", len(want), rows)
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Fatalf("row %d: expected %+v, got %+v", i, want[i], rows[i])
		}
	}

	top, err := s.Leaderboard(ctx, domain.ModeBasics, 1)
	if err != nil {
		t.Fatalf("leaderboard limit 1: %v", err)
	}
	if len(top) != 1 || top[0] != want[0] {
		t.Fatalf("expected only %+v, got %+v", want[0], top)
	}

	clamped, err := s.Leaderboard(ctx, domain.ModeBasics, 0)
	if err != nil || len(clamped) != 1 {
		t.Fatalf("expected limit 0 clamped to 1, got %+v err=%v", clamped, err)
	}

	empty, err := s.Leaderboard(ctx, domain.ModeTarget, 10)
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty TARGET board, got %+v err=%v", empty, err)
	}
}

func testHighScore(t *testing.T, s domain.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "kim")

	if _, ok, err := s.HighScore(ctx, u.ID, domain.ModeTrig); err != nil || ok {
		t.Fatalf("expected absent high score, got ok=%v err=%v", ok, err)
	}

	completed(t, s, u.ID, domain.ModeTrig, 4)
	completed(t, s, u.ID, domain.ModeTrig, 2)
	active := mustStart(t, s, u.ID, domain.ModeTrig, base)
	for range 7 {
		if _, err := s.RecordCorrect(ctx, active.ID); err != nil {
			t.Fatalf("record correct: %v", err)
		}
	}

	best, ok, err := s.HighScore(ctx, u.ID, domain.ModeTrig)
	if err != nil || !ok || best != 4 {
		t.Fatalf("expected high score 4, got %d ok=%v err=%v", best, ok, err)
	}
	if _, ok, _ := s.HighScore(ctx, u.ID, domain.ModeBasics); ok {
		t.Fatal("high score leaked across modes")
	}
}

func testListOrder(t *testing.T, s domain.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "lee")
	older := mustStart(t, s, u.ID, domain.ModeBasics, base.Add(-time.Hour))
	first := mustStart(t, s, u.ID, domain.ModeBasics, base)
	second := mustStart(t, s, u.ID, domain.ModeTrig, base)

	list, err := s.ListSessionsByUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []int64{second.ID, first.ID, older.ID}
	if len(list) != len(want) {
		t.Fatalf("expected %d sessions, got %d", len(want), len(list))
	}
	for i, id := range want {
		if list[i].ID != id {
			t.Fatalf("position %d: expected session %d, got %d", i, id, list[i].ID)
		}
	}
}

func testConcurrentWrong(t *testing.T, s domain.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "max")
	gs := mustStart(t, s, u.ID, domain.ModeBasics, base)

	const workers = 12
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		applied int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.RecordWrong(ctx, gs.ID, base.Add(time.Second))
			if err != nil {
				t.Errorf("record wrong: %v", err)
				return
			}
			if ok {
				mu.Lock()
				applied++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if applied != domain.MaxStrikes {
		t.Fatalf("expected exactly %d applied strikes, got %d", domain.MaxStrikes, applied)
	}
	got := mustGet(t, s, gs.ID)
	if got.Strikes != domain.MaxStrikes || !got.Completed || got.EndedAt == nil {
		t.Fatalf("expected completed session with 3 strikes, got %+v", got)
	}
}
