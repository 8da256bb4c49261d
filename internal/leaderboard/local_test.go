package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/placechase/placechase-api/internal/models"
)

func testLocalStore(t *testing.T) *LocalStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "highscores.json")
	return NewLocalStore(path, zap.NewNop())
}

func TestLocalUpsertKeepsBest(t *testing.T) {
	s := testLocalStore(t)
	ctx := context.Background()

	outcome, err := s.UpsertBest(ctx, "Kim", 500, 3)
	if err != nil {
		t.Fatalf("UpsertBest error: %v", err)
	}
	if outcome.Status != models.UpsertInserted || outcome.Rank != 1 || !outcome.TopScore {
		t.Fatalf("first upsert outcome = %+v", outcome)
	}

	// Same player, better distance, different case: improve in place.
	outcome, err = s.UpsertBest(ctx, "kim", 300, 3)
	if err != nil {
		t.Fatalf("UpsertBest error: %v", err)
	}
	if outcome.Status != models.UpsertImproved {
		t.Fatalf("improving upsert status = %s", outcome.Status)
	}
	if outcome.OldDistance != 500 || outcome.NewDistance != 300 {
		t.Errorf("improve distances = %v -> %v, want 500 -> 300", outcome.OldDistance, outcome.NewDistance)
	}

	// Worse run must not overwrite the record.
	outcome, err = s.UpsertBest(ctx, "Kim", 900, 3)
	if err != nil {
		t.Fatalf("UpsertBest error: %v", err)
	}
	if outcome.Status != models.UpsertRejected {
		t.Fatalf("worse upsert status = %s", outcome.Status)
	}

	entries, err := s.FetchRanked(ctx, 0)
	if err != nil {
		t.Fatalf("FetchRanked error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entry count = %d, want 1", len(entries))
	}
	if entries[0].PlayerName != "Kim" || entries[0].TotalDistance != 300 {
		t.Errorf("kept entry = %+v, want Kim at 300", entries[0])
	}
}

func TestLocalFetchRankedOrderAndCap(t *testing.T) {
	s := testLocalStore(t)
	ctx := context.Background()

	// Insert in shuffled distance order.
	for i, d := range []float64{900, 150, 1200, 300, 600, 1050, 450, 750, 50, 1350, 1500, 250, 850, 950, 1100} {
		if _, err := s.UpsertBest(ctx, fmt.Sprintf("Player%d", i), d, 3); err != nil {
			t.Fatalf("UpsertBest error: %v", err)
		}
	}

	entries, err := s.FetchRanked(ctx, 10)
	if err != nil {
		t.Fatalf("FetchRanked error: %v", err)
	}
	if len(entries) != 10 {
		t.Fatalf("fetched %d entries, want 10", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].TotalDistance < entries[i-1].TotalDistance {
			t.Fatalf("entries out of order at %d: %v after %v",
				i, entries[i].TotalDistance, entries[i-1].TotalDistance)
		}
	}
	if entries[0].TotalDistance != 50 {
		t.Errorf("best entry distance = %v, want 50", entries[0].TotalDistance)
	}

	all, err := s.FetchRanked(ctx, 0)
	if err != nil {
		t.Fatalf("FetchRanked error: %v", err)
	}
	if len(all) != 15 {
		t.Errorf("unlimited fetch returned %d entries, want 15", len(all))
	}
}

func TestLocalDedupIdempotent(t *testing.T) {
	s := testLocalStore(t)
	ctx := context.Background()

	// Seed the blob with duplicates directly, the shape an older writer
	// could have left behind.
	scores := models.LocalScores{HighScores: []models.LeaderboardEntry{
		{ID: "a", PlayerName: "Kim", TotalDistance: 500, Rounds: 3},
		{ID: "b", PlayerName: "kim", TotalDistance: 300, Rounds: 3},
		{ID: "c", PlayerName: "KIM", TotalDistance: 700, Rounds: 3},
		{ID: "d", PlayerName: "Ana", TotalDistance: 400, Rounds: 3},
	}}
	raw, err := json.Marshal(scores)
	if err != nil {
		t.Fatalf("marshal seed: %v", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	result, err := s.RemoveDuplicatesByName(ctx)
	if err != nil {
		t.Fatalf("RemoveDuplicatesByName error: %v", err)
	}
	if result.RemovedCount != 2 {
		t.Fatalf("removed %d entries, want 2", result.RemovedCount)
	}

	entries, err := s.FetchRanked(ctx, 0)
	if err != nil {
		t.Fatalf("FetchRanked error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("kept %d entries, want 2", len(entries))
	}
	if entries[0].TotalDistance != 300 || entries[0].ID != "b" {
		t.Errorf("kept entry for Kim = %+v, want the 300m run", entries[0])
	}

	// Second pass finds nothing.
	result, err = s.RemoveDuplicatesByName(ctx)
	if err != nil {
		t.Fatalf("second RemoveDuplicatesByName error: %v", err)
	}
	if result.RemovedCount != 0 {
		t.Errorf("second pass removed %d entries, want 0", result.RemovedCount)
	}
}

func TestLocalBlobShape(t *testing.T) {
	s := testLocalStore(t)
	ctx := context.Background()

	if _, err := s.UpsertBest(ctx, "Kim", 500, 3); err != nil {
		t.Fatalf("UpsertBest error: %v", err)
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		t.Fatalf("read blob: %v", err)
	}
	var blob map[string]json.RawMessage
	if err := json.Unmarshal(raw, &blob); err != nil {
		t.Fatalf("decode blob: %v", err)
	}
	for _, key := range []string{"highScores", "lastUpdated"} {
		if _, ok := blob[key]; !ok {
			t.Errorf("blob missing %q key", key)
		}
	}
}

func TestLocalLoadMissingFile(t *testing.T) {
	s := testLocalStore(t)

	entries, err := s.FetchRanked(context.Background(), 10)
	if err != nil {
		t.Fatalf("FetchRanked on missing file error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("missing file yielded %d entries", len(entries))
	}
}
