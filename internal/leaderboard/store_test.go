package leaderboard

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/placechase/placechase-api/internal/models"
)

// stubRemote simulates the remote tier: readiness can fail, and each
// operation can be forced to error after readiness succeeded.
type stubRemote struct {
	awaitErr error
	opErr    error
	entries  []models.LeaderboardEntry
	upserts  int
}

func (r *stubRemote) Await(ctx context.Context) error { return r.awaitErr }

func (r *stubRemote) UpsertBest(ctx context.Context, playerName string, totalDistance float64, rounds int) (models.UpsertOutcome, error) {
	if r.opErr != nil {
		return models.UpsertOutcome{}, r.opErr
	}
	r.upserts++
	return models.UpsertOutcome{Status: models.UpsertInserted, Rank: 1, TopScore: true}, nil
}

func (r *stubRemote) FetchRanked(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if r.opErr != nil {
		return nil, r.opErr
	}
	return r.entries, nil
}

func (r *stubRemote) RemoveDuplicatesByName(ctx context.Context) (models.DedupResult, error) {
	if r.opErr != nil {
		return models.DedupResult{}, r.opErr
	}
	return models.DedupResult{}, nil
}

func testStore(t *testing.T, remote remoteTier) *Store {
	t.Helper()
	local := NewLocalStore(filepath.Join(t.TempDir(), "highscores.json"), zap.NewNop())
	return newForTesting(remote, local, 50*time.Millisecond, zap.NewNop())
}

func TestStoreUsesRemoteWhenReady(t *testing.T) {
	remote := &stubRemote{entries: []models.LeaderboardEntry{
		{ID: "r1", PlayerName: "Remote", TotalDistance: 100},
	}}
	s := testStore(t, remote)
	ctx := context.Background()

	outcome, err := s.UpsertBest(ctx, "Kim", 500, 3)
	if err != nil {
		t.Fatalf("UpsertBest error: %v", err)
	}
	if outcome.Status != models.UpsertInserted || remote.upserts != 1 {
		t.Errorf("remote not used: outcome=%+v upserts=%d", outcome, remote.upserts)
	}

	entries, err := s.FetchRanked(ctx, 10)
	if err != nil {
		t.Fatalf("FetchRanked error: %v", err)
	}
	if len(entries) != 1 || entries[0].PlayerName != "Remote" {
		t.Errorf("entries = %+v, want the remote view", entries)
	}
}

func TestStoreFallsBackWhenRemoteNotReady(t *testing.T) {
	remote := &stubRemote{awaitErr: ErrRemoteNotReady}
	s := testStore(t, remote)
	ctx := context.Background()

	if _, err := s.UpsertBest(ctx, "Kim", 500, 3); err != nil {
		t.Fatalf("UpsertBest error: %v", err)
	}
	if remote.upserts != 0 {
		t.Error("unready remote received an upsert")
	}

	entries, err := s.FetchRanked(ctx, 10)
	if err != nil {
		t.Fatalf("FetchRanked error: %v", err)
	}
	if len(entries) != 1 || entries[0].PlayerName != "Kim" {
		t.Errorf("entries = %+v, want the local write", entries)
	}
}

func TestStoreFallsBackOnRemoteError(t *testing.T) {
	remote := &stubRemote{opErr: errors.New("connection reset")}
	s := testStore(t, remote)
	ctx := context.Background()

	if _, err := s.UpsertBest(ctx, "Kim", 500, 3); err != nil {
		t.Fatalf("UpsertBest error: %v", err)
	}
	entries, err := s.FetchRanked(ctx, 10)
	if err != nil {
		t.Fatalf("FetchRanked error: %v", err)
	}
	if len(entries) != 1 || entries[0].PlayerName != "Kim" {
		t.Errorf("entries = %+v, want the local fallback write", entries)
	}

	if _, err := s.RemoveDuplicatesByName(ctx); err != nil {
		t.Fatalf("RemoveDuplicatesByName error: %v", err)
	}
}

func TestStoreWithoutRemote(t *testing.T) {
	local := NewLocalStore(filepath.Join(t.TempDir(), "highscores.json"), zap.NewNop())
	s := New(Config{Local: local, Logger: zap.NewNop()})
	ctx := context.Background()

	if s.RemoteReady(ctx) {
		t.Error("RemoteReady true with no remote configured")
	}
	if _, err := s.UpsertBest(ctx, "Kim", 500, 3); err != nil {
		t.Fatalf("UpsertBest error: %v", err)
	}
}

func TestIsQualifying(t *testing.T) {
	remote := &stubRemote{}
	for i := 0; i < DefaultDisplayLimit; i++ {
		remote.entries = append(remote.entries, models.LeaderboardEntry{
			TotalDistance: float64(100 * (i + 1)),
		})
	}
	s := testStore(t, remote)
	ctx := context.Background()

	if !s.IsQualifying(ctx, 950) {
		t.Error("950 should beat the worst entry at 1000")
	}
	if s.IsQualifying(ctx, 1000) {
		t.Error("equal to the worst entry must not qualify")
	}

	// Partially filled table accepts anything.
	remote.entries = remote.entries[:3]
	if !s.IsQualifying(ctx, 1e9) {
		t.Error("short table should accept any distance")
	}
}
