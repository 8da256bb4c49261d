package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/placechase/placechase-api/internal/models"
)

// LocalStore is the on-device fallback tier. The whole table lives in a
// single JSON blob that is replaced wholesale on every write; there are no
// partial or append writes. A mutex serializes the load-modify-save cycle.
type LocalStore struct {
	path   string
	mu     sync.Mutex
	logger *zap.SugaredLogger
}

// NewLocalStore returns a local tier persisting to path. The file is created
// lazily on first write.
func NewLocalStore(path string, logger *zap.Logger) *LocalStore {
	return &LocalStore{path: path, logger: logger.Sugar()}
}

func (s *LocalStore) load() (*models.LocalScores, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &models.LocalScores{}, nil
		}
		return nil, fmt.Errorf("read local scores: %w", err)
	}

	var scores models.LocalScores
	if err := json.Unmarshal(raw, &scores); err != nil {
		return nil, fmt.Errorf("decode local scores: %w", err)
	}
	return &scores, nil
}

func (s *LocalStore) save(scores *models.LocalScores) error {
	scores.LastUpdated = time.Now().UTC()

	raw, err := json.MarshalIndent(scores, "", "  ")
	if err != nil {
		return fmt.Errorf("encode local scores: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create local scores dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write local scores: %w", err)
	}
	return nil
}

func sortByDistance(entries []models.LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TotalDistance < entries[j].TotalDistance
	})
}

// UpsertBest inserts a new entry, improves an existing one in place when the
// new distance is strictly better, or rejects the write otherwise. Name
// matching is case-insensitive.
func (s *LocalStore) UpsertBest(ctx context.Context, playerName string, totalDistance float64, rounds int) (models.UpsertOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	scores, err := s.load()
	if err != nil {
		return models.UpsertOutcome{}, err
	}

	playerName = strings.TrimSpace(playerName)
	outcome := models.UpsertOutcome{}

	idx := -1
	for i, e := range scores.HighScores {
		if strings.EqualFold(e.PlayerName, playerName) {
			idx = i
			break
		}
	}

	switch {
	case idx < 0:
		scores.HighScores = append(scores.HighScores, models.LeaderboardEntry{
			ID:            uuid.NewString(),
			PlayerName:    playerName,
			TotalDistance: totalDistance,
			RecordedAt:    time.Now().UTC(),
			Rounds:        rounds,
		})
		outcome.Status = models.UpsertInserted
		outcome.NewDistance = totalDistance
	case totalDistance < scores.HighScores[idx].TotalDistance:
		outcome.Status = models.UpsertImproved
		outcome.OldDistance = scores.HighScores[idx].TotalDistance
		outcome.NewDistance = totalDistance
		scores.HighScores[idx].TotalDistance = totalDistance
		scores.HighScores[idx].Rounds = rounds
		scores.HighScores[idx].RecordedAt = time.Now().UTC()
	default:
		// Existing result is at least as good; leave it untouched.
		return models.UpsertOutcome{
			Status:      models.UpsertRejected,
			OldDistance: scores.HighScores[idx].TotalDistance,
			NewDistance: totalDistance,
			Rank:        rankOf(scores.HighScores, scores.HighScores[idx].ID),
		}, nil
	}

	sortByDistance(scores.HighScores)
	if err := s.save(scores); err != nil {
		return models.UpsertOutcome{}, err
	}

	id := entryIDByName(scores.HighScores, playerName)
	outcome.Rank = rankOf(scores.HighScores, id)
	outcome.TopScore = outcome.Rank == 1
	return outcome, nil
}

// FetchRanked returns entries ascending by distance, stable on ties.
// A limit <= 0 returns the full table (maintenance scans).
func (s *LocalStore) FetchRanked(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	scores, err := s.load()
	if err != nil {
		return nil, err
	}

	entries := make([]models.LeaderboardEntry, len(scores.HighScores))
	copy(entries, scores.HighScores)
	sortByDistance(entries)

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// RemoveDuplicatesByName keeps only the lowest-distance entry per player
// name and deletes the rest. Running it twice finds nothing the second time.
func (s *LocalStore) RemoveDuplicatesByName(ctx context.Context) (models.DedupResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	scores, err := s.load()
	if err != nil {
		return models.DedupResult{}, err
	}

	sortByDistance(scores.HighScores)

	seen := make(map[string]bool, len(scores.HighScores))
	kept := scores.HighScores[:0]
	result := models.DedupResult{RemovedEntries: []models.LeaderboardEntry{}}
	for _, e := range scores.HighScores {
		key := strings.ToLower(strings.TrimSpace(e.PlayerName))
		if seen[key] {
			result.RemovedCount++
			result.RemovedEntries = append(result.RemovedEntries, e)
			continue
		}
		seen[key] = true
		kept = append(kept, e)
	}

	if result.RemovedCount == 0 {
		return result, nil
	}

	scores.HighScores = kept
	if err := s.save(scores); err != nil {
		return models.DedupResult{}, err
	}
	s.logger.Infow("Removed duplicate local entries", "count", result.RemovedCount)
	return result, nil
}

func entryIDByName(entries []models.LeaderboardEntry, name string) string {
	for _, e := range entries {
		if strings.EqualFold(e.PlayerName, name) {
			return e.ID
		}
	}
	return ""
}

func rankOf(entries []models.LeaderboardEntry, id string) int {
	for i, e := range entries {
		if e.ID == id {
			return i + 1
		}
	}
	return 0
}
