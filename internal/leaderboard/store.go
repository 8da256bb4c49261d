// Package leaderboard implements durable ranked storage of best-distance
// per player over two tiers: a remote Postgres backend attempted first and
// a local JSON-blob fallback that becomes the system of record for any call
// the remote cannot serve. The tiers are not synced; a reader may see
// results from either depending on remote availability at call time.
package leaderboard

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/placechase/placechase-api/internal/models"
)

// DefaultDisplayLimit caps the leaderboard view shown to players.
const DefaultDisplayLimit = 10

// DefaultReadyWait bounds how long an operation waits for remote
// initialization before falling back to the local tier.
const DefaultReadyWait = 5 * time.Second

var (
	fallbackOps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "placechase_leaderboard_fallback_total",
		Help: "Operations served by the local fallback tier",
	})

	upsertOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "placechase_leaderboard_upserts_total",
		Help: "Upsert-best calls by outcome",
	}, []string{"status"})
)

// tier is the operation set both storage tiers implement.
type tier interface {
	UpsertBest(ctx context.Context, playerName string, totalDistance float64, rounds int) (models.UpsertOutcome, error)
	FetchRanked(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
	RemoveDuplicatesByName(ctx context.Context) (models.DedupResult, error)
}

// remoteTier adds the readiness gate of the asynchronous remote backend.
type remoteTier interface {
	tier
	Await(ctx context.Context) error
}

// Store is the two-tier leaderboard. All operations try the remote tier
// first (after a bounded readiness wait) and transparently fall back to
// the local tier on any remote failure. A failing remote call is not
// retried; the local result stands for that call.
type Store struct {
	remote    remoteTier // nil when no remote backend is configured
	local     *LocalStore
	cache     *Cache // nil when no cache is configured
	readyWait time.Duration
	logger    *zap.SugaredLogger
}

// Config assembles a Store. Remote and Cache may be nil.
type Config struct {
	Remote    *Remote
	Local     *LocalStore
	Cache     *Cache
	ReadyWait time.Duration
	Logger    *zap.Logger
}

// New builds the tiered store.
func New(cfg Config) *Store {
	if cfg.ReadyWait <= 0 {
		cfg.ReadyWait = DefaultReadyWait
	}
	s := &Store{
		local:     cfg.Local,
		cache:     cfg.Cache,
		readyWait: cfg.ReadyWait,
		logger:    cfg.Logger.Sugar(),
	}
	if cfg.Remote != nil {
		s.remote = cfg.Remote
	}
	return s
}

// newForTesting wires an arbitrary remote tier behind the store.
func newForTesting(remote remoteTier, local *LocalStore, readyWait time.Duration, logger *zap.Logger) *Store {
	return &Store{
		remote:    remote,
		local:     local,
		readyWait: readyWait,
		logger:    logger.Sugar(),
	}
}

// useRemote reports whether the remote tier is configured and became ready
// within the bounded wait.
func (s *Store) useRemote(ctx context.Context) bool {
	if s.remote == nil {
		return false
	}
	waitCtx, cancel := context.WithTimeout(ctx, s.readyWait)
	defer cancel()
	if err := s.remote.Await(waitCtx); err != nil {
		s.logger.Warnw("Remote leaderboard not available, using local tier", "error", err)
		return false
	}
	return true
}

// UpsertBest records a finished game, keeping only each player's best
// (lowest) total distance.
func (s *Store) UpsertBest(ctx context.Context, playerName string, totalDistance float64, rounds int) (models.UpsertOutcome, error) {
	s.invalidateCache(ctx)

	if s.useRemote(ctx) {
		outcome, err := s.remote.UpsertBest(ctx, playerName, totalDistance, rounds)
		if err == nil {
			upsertOutcomes.WithLabelValues(string(outcome.Status)).Inc()
			return outcome, nil
		}
		s.logger.Warnw("Remote upsert failed, falling back to local tier",
			"player", playerName, "error", err)
	}

	fallbackOps.Inc()
	outcome, err := s.local.UpsertBest(ctx, playerName, totalDistance, rounds)
	if err != nil {
		return models.UpsertOutcome{}, err
	}
	upsertOutcomes.WithLabelValues(string(outcome.Status)).Inc()
	return outcome, nil
}

// FetchRanked returns the table ascending by distance, truncated to limit
// when limit > 0. Cached views are served when a cache is configured.
func (s *Store) FetchRanked(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if entries, ok := s.cachedRanked(ctx, limit); ok {
		return entries, nil
	}

	if s.useRemote(ctx) {
		entries, err := s.remote.FetchRanked(ctx, limit)
		if err == nil {
			s.storeRanked(ctx, limit, entries)
			return entries, nil
		}
		s.logger.Warnw("Remote fetch failed, falling back to local tier", "error", err)
	}

	fallbackOps.Inc()
	return s.local.FetchRanked(ctx, limit)
}

// RemoveDuplicatesByName runs the dedup maintenance pass against whichever
// tier is currently the system of record.
func (s *Store) RemoveDuplicatesByName(ctx context.Context) (models.DedupResult, error) {
	s.invalidateCache(ctx)

	if s.useRemote(ctx) {
		result, err := s.remote.RemoveDuplicatesByName(ctx)
		if err == nil {
			return result, nil
		}
		s.logger.Warnw("Remote dedup failed, falling back to local tier", "error", err)
	}

	fallbackOps.Inc()
	return s.local.RemoveDuplicatesByName(ctx)
}

// RemoteReady reports, without blocking, whether the remote tier finished
// initializing successfully. Used by readiness probes.
func (s *Store) RemoteReady(ctx context.Context) bool {
	if s.remote == nil {
		return false
	}
	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	return s.remote.Await(probeCtx) == nil
}

// IsQualifying reports whether a total distance would make the capped table.
func (s *Store) IsQualifying(ctx context.Context, totalDistance float64) bool {
	entries, err := s.FetchRanked(ctx, DefaultDisplayLimit)
	if err != nil {
		return false
	}
	if len(entries) < DefaultDisplayLimit {
		return true
	}
	return totalDistance < entries[len(entries)-1].TotalDistance
}

func (s *Store) cachedRanked(ctx context.Context, limit int) ([]models.LeaderboardEntry, bool) {
	if s.cache == nil {
		return nil, false
	}
	return s.cache.GetRanked(ctx, limit)
}

func (s *Store) storeRanked(ctx context.Context, limit int, entries []models.LeaderboardEntry) {
	if s.cache != nil {
		s.cache.SetRanked(ctx, limit, entries)
	}
}

func (s *Store) invalidateCache(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}
