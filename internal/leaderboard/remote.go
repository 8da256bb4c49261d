package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/placechase/placechase-api/internal/models"
)

// ErrRemoteNotReady is returned when the remote backend did not finish
// initializing within the bounded readiness wait.
var ErrRemoteNotReady = errors.New("remote leaderboard backend not ready")

const schema = `
CREATE TABLE IF NOT EXISTS high_scores (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	player_name TEXT NOT NULL,
	total_distance DOUBLE PRECISION NOT NULL,
	rounds INT NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_high_scores_name ON high_scores (lower(player_name));
CREATE INDEX IF NOT EXISTS idx_high_scores_distance ON high_scores (total_distance);
`

// Remote is the Postgres tier. Construction is asynchronous: NewRemote
// returns immediately and connects in the background, closing the ready
// channel once the pool is pingable and migrated. Callers gate operations
// on Await with their own deadline.
type Remote struct {
	url    string
	logger *zap.SugaredLogger

	ready   chan struct{}
	pool    *pgxpool.Pool
	initErr error
}

// NewRemote starts connecting to databaseURL in the background.
func NewRemote(ctx context.Context, databaseURL string, logger *zap.Logger) *Remote {
	r := &Remote{
		url:    databaseURL,
		logger: logger.Sugar(),
		ready:  make(chan struct{}),
	}
	go r.init(ctx)
	return r
}

func (r *Remote) init(ctx context.Context) {
	defer close(r.ready)

	pool, err := pgxpool.New(ctx, r.url)
	if err != nil {
		r.initErr = fmt.Errorf("connect postgres: %w", err)
		r.logger.Errorw("Remote leaderboard init failed", "error", err)
		return
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		r.initErr = fmt.Errorf("ping postgres: %w", err)
		r.logger.Errorw("Remote leaderboard unreachable", "error", err)
		return
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		r.initErr = fmt.Errorf("migrate high_scores: %w", err)
		r.logger.Errorw("Remote leaderboard migration failed", "error", err)
		return
	}

	r.pool = pool
	r.logger.Infow("Remote leaderboard ready")
}

// Await blocks until initialization finished or ctx expires. It returns
// ErrRemoteNotReady on timeout and the init error if initialization failed.
func (r *Remote) Await(ctx context.Context) error {
	select {
	case <-r.ready:
		if r.initErr != nil {
			return r.initErr
		}
		return nil
	case <-ctx.Done():
		return ErrRemoteNotReady
	}
}

// Close releases the connection pool if it was established.
func (r *Remote) Close() {
	<-r.ready
	if r.pool != nil {
		r.pool.Close()
	}
}

// UpsertBest applies the insert-or-improve-or-reject contract inside one
// transaction, matching names case-insensitively.
func (r *Remote) UpsertBest(ctx context.Context, playerName string, totalDistance float64, rounds int) (models.UpsertOutcome, error) {
	playerName = strings.TrimSpace(playerName)

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.UpsertOutcome{}, fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		existingID       string
		existingDistance float64
	)
	err = tx.QueryRow(ctx, `
		SELECT id, total_distance
		FROM high_scores
		WHERE lower(player_name) = lower($1)
		ORDER BY total_distance ASC, recorded_at ASC
		LIMIT 1
	`, playerName).Scan(&existingID, &existingDistance)

	outcome := models.UpsertOutcome{}
	switch {
	case err == pgx.ErrNoRows:
		err = tx.QueryRow(ctx, `
			INSERT INTO high_scores (player_name, total_distance, rounds)
			VALUES ($1, $2, $3)
			RETURNING id
		`, playerName, totalDistance, rounds).Scan(&existingID)
		if err != nil {
			return models.UpsertOutcome{}, fmt.Errorf("insert high score: %w", err)
		}
		outcome.Status = models.UpsertInserted
		outcome.NewDistance = totalDistance
	case err != nil:
		return models.UpsertOutcome{}, fmt.Errorf("lookup high score: %w", err)
	case totalDistance < existingDistance:
		_, err = tx.Exec(ctx, `
			UPDATE high_scores
			SET total_distance = $1, rounds = $2, recorded_at = now()
			WHERE id = $3
		`, totalDistance, rounds, existingID)
		if err != nil {
			return models.UpsertOutcome{}, fmt.Errorf("update high score: %w", err)
		}
		outcome.Status = models.UpsertImproved
		outcome.OldDistance = existingDistance
		outcome.NewDistance = totalDistance
	default:
		outcome.Status = models.UpsertRejected
		outcome.OldDistance = existingDistance
		outcome.NewDistance = totalDistance
	}

	var rank int
	err = tx.QueryRow(ctx, `
		SELECT count(*) + 1 FROM high_scores
		WHERE total_distance < (SELECT total_distance FROM high_scores WHERE id = $1)
	`, existingID).Scan(&rank)
	if err != nil {
		return models.UpsertOutcome{}, fmt.Errorf("rank high score: %w", err)
	}
	outcome.Rank = rank
	outcome.TopScore = outcome.Status != models.UpsertRejected && rank == 1

	if err := tx.Commit(ctx); err != nil {
		return models.UpsertOutcome{}, fmt.Errorf("commit upsert: %w", err)
	}
	return outcome, nil
}

// FetchRanked returns entries ascending by distance. A limit <= 0 scans the
// full table.
func (r *Remote) FetchRanked(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	query := `
		SELECT id, player_name, total_distance, rounds, recorded_at
		FROM high_scores
		ORDER BY total_distance ASC, recorded_at ASC
	`
	var (
		rows pgx.Rows
		err  error
	)
	if limit > 0 {
		rows, err = r.pool.Query(ctx, query+" LIMIT $1", limit)
	} else {
		rows, err = r.pool.Query(ctx, query)
	}
	if err != nil {
		return nil, fmt.Errorf("query high scores: %w", err)
	}
	defer rows.Close()

	entries := make([]models.LeaderboardEntry, 0)
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.ID, &e.PlayerName, &e.TotalDistance, &e.Rounds, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan high score: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read high scores: %w", err)
	}
	return entries, nil
}

// RemoveDuplicatesByName deletes every entry that is not its player's best,
// keeping the lowest distance (oldest on ties). Idempotent.
func (r *Remote) RemoveDuplicatesByName(ctx context.Context) (models.DedupResult, error) {
	rows, err := r.pool.Query(ctx, `
		DELETE FROM high_scores h
		USING (
			SELECT id, row_number() OVER (
				PARTITION BY lower(player_name)
				ORDER BY total_distance ASC, recorded_at ASC
			) AS rn
			FROM high_scores
		) ranked
		WHERE h.id = ranked.id AND ranked.rn > 1
		RETURNING h.id, h.player_name, h.total_distance, h.rounds, h.recorded_at
	`)
	if err != nil {
		return models.DedupResult{}, fmt.Errorf("dedup high scores: %w", err)
	}
	defer rows.Close()

	result := models.DedupResult{RemovedEntries: []models.LeaderboardEntry{}}
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.ID, &e.PlayerName, &e.TotalDistance, &e.Rounds, &e.RecordedAt); err != nil {
			return models.DedupResult{}, fmt.Errorf("scan removed entry: %w", err)
		}
		result.RemovedCount++
		result.RemovedEntries = append(result.RemovedEntries, e)
	}
	if err := rows.Err(); err != nil {
		return models.DedupResult{}, fmt.Errorf("read removed entries: %w", err)
	}
	return result, nil
}
