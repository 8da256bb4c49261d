package game

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/placechase/placechase-api/internal/models"
)

// ErrSessionNotFound is returned for unknown or reaped session IDs.
var ErrSessionNotFound = errors.New("game session not found")

var activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "placechase_active_sessions",
	Help: "Game sessions currently held in memory",
})

// Persister is the single leaderboard operation the orchestrator needs at
// game end.
type Persister interface {
	UpsertBest(ctx context.Context, playerName string, totalDistance float64, rounds int) (models.UpsertOutcome, error)
}

// ManagerConfig tunes the session registry.
type ManagerConfig struct {
	Machine Config
	// SessionTTL reaps sessions with no activity for this long.
	SessionTTL time.Duration
	// TickInterval drives the countdown; one second in production,
	// shortened in tests.
	TickInterval time.Duration
}

type session struct {
	machine    *Machine
	lastActive time.Time
	cancel     context.CancelFunc
}

// Manager owns the live game sessions: it creates them, runs their
// countdown tickers, routes name submission to the leaderboard and reaps
// abandoned sessions.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*session
	cfg      ManagerConfig
	store    Persister
	logger   *zap.SugaredLogger
}

// NewManager builds a session registry persisting finished games to store.
func NewManager(cfg ManagerConfig, store Persister, logger *zap.Logger) *Manager {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	return &Manager{
		sessions: make(map[string]*session),
		cfg:      cfg,
		store:    store,
		logger:   logger.Sugar(),
	}
}

// Create starts a new session and its countdown runner.
func (mgr *Manager) Create(ctx context.Context) (models.GameSnapshot, error) {
	id := uuid.NewString()
	machine := NewMachine(id, mgr.cfg.Machine)
	snap, err := machine.Start()
	if err != nil {
		return models.GameSnapshot{}, err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	sess := &session{machine: machine, lastActive: time.Now(), cancel: cancel}

	mgr.mu.Lock()
	mgr.sessions[id] = sess
	activeSessions.Set(float64(len(mgr.sessions)))
	mgr.mu.Unlock()

	go mgr.runCountdown(runCtx, machine)

	mgr.logger.Infow("Game session created", "game", id)
	return snap, nil
}

// runCountdown posts one tick per interval into the machine until the
// session is removed. Ticks outside an open round are no-ops, so the
// runner never applies effects to a round it does not own.
func (mgr *Manager) runCountdown(ctx context.Context, machine *Machine) {
	ticker := time.NewTicker(mgr.cfg.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			machine.Tick()
		}
	}
}

// Get returns the session's machine and refreshes its activity stamp.
func (mgr *Manager) Get(id string) (*Machine, error) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	sess, ok := mgr.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.lastActive = time.Now()
	return sess.machine, nil
}

// Restart resets a session in place for a new playthrough.
func (mgr *Manager) Restart(id string) (models.GameSnapshot, error) {
	machine, err := mgr.Get(id)
	if err != nil {
		return models.GameSnapshot{}, err
	}
	machine.Reset()
	return machine.Start()
}

// SubmitName finishes the game and persists the result. Persistence failure
// is non-fatal: the game reaches its terminal state regardless and the
// caller is told the save did not happen.
func (mgr *Manager) SubmitName(ctx context.Context, id, playerName string) (models.SubmitPlayerResponse, error) {
	machine, err := mgr.Get(id)
	if err != nil {
		return models.SubmitPlayerResponse{}, err
	}

	totalDistance, rounds, err := machine.Finish(playerName)
	if err != nil {
		return models.SubmitPlayerResponse{}, err
	}

	outcome, err := mgr.store.UpsertBest(ctx, playerName, totalDistance, rounds)
	if err != nil {
		mgr.logger.Errorw("High score save failed on both tiers",
			"game", id, "player", playerName, "error", err)
		return models.SubmitPlayerResponse{
			Saved:   false,
			Warning: "high score could not be saved",
		}, nil
	}

	return models.SubmitPlayerResponse{Saved: true, Outcome: &outcome}, nil
}

// Remove drops a session and stops its countdown runner.
func (mgr *Manager) Remove(id string) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	mgr.removeLocked(id)
}

func (mgr *Manager) removeLocked(id string) {
	if sess, ok := mgr.sessions[id]; ok {
		sess.cancel()
		delete(mgr.sessions, id)
		activeSessions.Set(float64(len(mgr.sessions)))
	}
}

// RunJanitor reaps sessions idle past the TTL until ctx is cancelled.
func (mgr *Manager) RunJanitor(ctx context.Context) error {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			mgr.Close()
			return ctx.Err()
		case <-ticker.C:
			mgr.reapIdle()
		}
	}
}

func (mgr *Manager) reapIdle() {
	cutoff := time.Now().Add(-mgr.cfg.SessionTTL)

	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	for id, sess := range mgr.sessions {
		if sess.lastActive.Before(cutoff) {
			mgr.logger.Infow("Reaping idle game session", "game", id)
			mgr.removeLocked(id)
		}
	}
}

// Close stops every session runner.
func (mgr *Manager) Close() {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	for id := range mgr.sessions {
		mgr.removeLocked(id)
	}
}
