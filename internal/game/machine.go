// Package game implements the round orchestrator: a state machine driving
// location selection, the countdown, guess acceptance, scoring and game
// completion. Every event handler runs to completion under the machine
// mutex, so timer ticks and player actions never interleave mid-mutation.
package game

import (
	"errors"
	"math/rand"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/placechase/placechase-api/internal/geo"
	"github.com/placechase/placechase-api/internal/models"
)

var (
	// ErrNotGuessing rejects round events while no round is open.
	ErrNotGuessing = errors.New("no round is accepting guesses")
	// ErrNoGuess rejects confirmation with no pin placed. The action is a
	// no-op; the round keeps running.
	ErrNoGuess = errors.New("no guess placed")
	// ErrNotResolved rejects advancing before the round is scored.
	ErrNotResolved = errors.New("round not resolved yet")
	// ErrNotComplete rejects name submission before the last round is scored.
	ErrNotComplete = errors.New("game not complete")
	// ErrAlreadyStarted rejects starting a game twice.
	ErrAlreadyStarted = errors.New("game already started")
	// ErrStaleRound marks provider callbacks for a round that already ended.
	ErrStaleRound = errors.New("stale round callback")
)

var (
	roundsScored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "placechase_rounds_scored_total",
		Help: "Rounds scored, by confirmation or timeout",
	})

	roundTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "placechase_round_timeouts_total",
		Help: "Rounds that expired with no guess placed",
	})

	degradedRounds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "placechase_degraded_rounds_total",
		Help: "Rounds scored against the requested point because the provider never resolved imagery",
	})

	gamesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "placechase_games_completed_total",
		Help: "Games that reached the complete state",
	})
)

// Config tunes one game session.
type Config struct {
	Rounds        int
	RoundSeconds  int
	PenaltyMeters float64
	// DriftWarnMeters flags large gaps between the requested point and the
	// imagery the provider actually rendered.
	DriftWarnMeters float64
	Box             geo.Box
	Rand            *rand.Rand
	Logger          *zap.Logger
}

func (c *Config) applyDefaults() {
	if c.Rounds <= 0 {
		c.Rounds = 3
	}
	if c.RoundSeconds <= 0 {
		c.RoundSeconds = 30
	}
	if c.PenaltyMeters <= 0 {
		c.PenaltyMeters = 2000
	}
	if c.DriftWarnMeters <= 0 {
		c.DriftWarnMeters = 50
	}
	if c.Box == (geo.Box{}) {
		c.Box = geo.PlayArea
	}
}

// Machine is one playthrough's state machine.
type Machine struct {
	mu     sync.Mutex
	cfg    Config
	id     string
	rng    *rand.Rand
	logger *zap.SugaredLogger

	state    models.GameState
	round    int
	timeLeft int

	requested  *geo.Point
	resolved   *geo.Point
	unresolved bool
	guess      *geo.Point

	lastResult    *models.RoundResult
	totalScore    int
	totalDistance float64
	history       []models.RoundResult
	playerName    string
}

// NewMachine builds an idle machine; Start begins round one.
func NewMachine(id string, cfg Config) *Machine {
	cfg.applyDefaults()
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Machine{
		cfg:     cfg,
		id:      id,
		rng:     rng,
		logger:  cfg.Logger.Sugar().With("game", id),
		state:   models.StateIdle,
		history: []models.RoundResult{},
	}
}

// ID returns the session identifier.
func (m *Machine) ID() string { return m.id }

// Start begins the first round. Only valid from idle.
func (m *Machine) Start() (models.GameSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != models.StateIdle {
		return m.snapshotLocked(), ErrAlreadyStarted
	}
	m.round = 1
	m.startRoundLocked()
	return m.snapshotLocked(), nil
}

// startRoundLocked samples a fresh target and opens the round. The countdown
// budget resets here; ticks count down whether or not the provider has
// resolved imagery yet.
func (m *Machine) startRoundLocked() {
	target := geo.SamplePoint(m.rng, m.cfg.Box)
	m.requested = &target
	m.resolved = nil
	m.unresolved = false
	m.guess = nil
	m.lastResult = nil
	m.timeLeft = m.cfg.RoundSeconds
	m.state = models.StateAwaitingLocation

	m.logger.Infow("Round started",
		"round", m.round,
		"lat", m.requested.Lat,
		"lng", m.requested.Lng,
	)
}

func (m *Machine) roundOpenLocked() bool {
	return m.state == models.StateAwaitingLocation || m.state == models.StateGuessing
}

// ResolveLocation records where the provider actually rendered imagery for
// a round. It may arrive repeatedly as the provider refines its pick; the
// freshest value wins at scoring time. Callbacks for a round that already
// ended are ignored.
func (m *Machine) ResolveLocation(round int, p geo.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if round != m.round || !m.roundOpenLocked() {
		return ErrStaleRound
	}

	m.resolved = &geo.Point{Lat: p.Lat, Lng: p.Lng}
	m.unresolved = false
	m.state = models.StateGuessing

	if drift := geo.DistanceMeters(*m.requested, p); drift > m.cfg.DriftWarnMeters {
		m.logger.Warnw("Large resolution drift",
			"round", m.round,
			"driftMeters", drift,
		)
	}
	return nil
}

// MarkUnresolved records that the provider found no imagery near the
// requested point. The round proceeds against the requested point and its
// result will be flagged as degraded.
func (m *Machine) MarkUnresolved(round int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if round != m.round || !m.roundOpenLocked() {
		return ErrStaleRound
	}
	if m.resolved == nil {
		m.unresolved = true
	}
	m.state = models.StateGuessing
	m.logger.Warnw("Location unresolved, round continues on requested point", "round", m.round)
	return nil
}

// SubmitGuess places or replaces the player's pin. The last submission
// before confirmation or expiry wins.
func (m *Machine) SubmitGuess(p geo.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.roundOpenLocked() {
		return ErrNotGuessing
	}
	m.guess = &geo.Point{Lat: p.Lat, Lng: p.Lng}
	return nil
}

// ConfirmGuess stops the countdown and scores the round. With no guess
// placed it is a rejected no-op and the round keeps running.
func (m *Machine) ConfirmGuess() (models.RoundResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.roundOpenLocked() {
		return models.RoundResult{}, ErrNotGuessing
	}
	if m.guess == nil {
		return models.RoundResult{}, ErrNoGuess
	}
	return m.scoreRoundLocked(false), nil
}

// Tick advances the countdown by one second. Ticks outside an open round
// are no-ops, which is what makes stale timers harmless.
func (m *Machine) Tick() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.roundOpenLocked() {
		return
	}
	m.timeLeft--
	if m.timeLeft > 0 {
		return
	}
	m.scoreRoundLocked(true)
}

// scoreRoundLocked computes the round result against the freshest resolved
// target, falling back to the requested point (flagged degraded) when the
// provider never resolved one. Expiry with no guess costs the fixed penalty
// distance and zero points.
func (m *Machine) scoreRoundLocked(timedOut bool) models.RoundResult {
	result := models.RoundResult{Round: m.round, TimedOut: timedOut}

	if m.guess == nil {
		result.DistanceMeters = m.cfg.PenaltyMeters
		result.Score = 0
		roundTimeouts.Inc()
	} else {
		target := m.resolved
		if target == nil {
			target = m.requested
			result.Degraded = true
			degradedRounds.Inc()
		}
		result.DistanceMeters = geo.DistanceMeters(*m.guess, *target)
		result.Score = geo.Score(result.DistanceMeters)
	}

	m.history = append(m.history, result)
	m.totalScore += result.Score
	m.totalDistance += result.DistanceMeters
	m.lastResult = &result
	m.state = models.StateResolved
	roundsScored.Inc()

	m.logger.Infow("Round scored",
		"round", result.Round,
		"distanceMeters", result.DistanceMeters,
		"score", result.Score,
		"timedOut", result.TimedOut,
		"degraded", result.Degraded,
	)
	return result
}

// Advance moves to the next round, or to complete after the last one.
func (m *Machine) Advance() (models.GameSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != models.StateResolved {
		return m.snapshotLocked(), ErrNotResolved
	}
	if m.round < m.cfg.Rounds {
		m.round++
		m.startRoundLocked()
	} else {
		m.state = models.StateComplete
		gamesCompleted.Inc()
		m.logger.Infow("Game complete",
			"totalScore", m.totalScore,
			"totalDistanceMeters", m.totalDistance,
		)
	}
	return m.snapshotLocked(), nil
}

// Finish records the player name and moves to the terminal display state.
// Persistence happens outside the machine; its outcome never blocks this
// transition.
func (m *Machine) Finish(playerName string) (totalDistance float64, rounds int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != models.StateComplete {
		return 0, 0, ErrNotComplete
	}
	m.playerName = playerName
	m.state = models.StateFinished
	return m.totalDistance, m.cfg.Rounds, nil
}

// Reset returns the machine to idle for a new playthrough.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = models.StateIdle
	m.round = 0
	m.timeLeft = 0
	m.requested = nil
	m.resolved = nil
	m.unresolved = false
	m.guess = nil
	m.lastResult = nil
	m.totalScore = 0
	m.totalDistance = 0
	m.history = []models.RoundResult{}
	m.playerName = ""
}

// Snapshot returns the UI-visible projection of the session.
func (m *Machine) Snapshot() models.GameSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Machine) snapshotLocked() models.GameSnapshot {
	snap := models.GameSnapshot{
		ID:                  m.id,
		State:               m.state,
		Round:               m.round,
		TotalRounds:         m.cfg.Rounds,
		TimeLeft:            m.timeLeft,
		TotalScore:          m.totalScore,
		TotalDistanceMeters: m.totalDistance,
		History:             append([]models.RoundResult{}, m.history...),
	}
	if m.requested != nil {
		p := *m.requested
		snap.Target = &p
	}
	if m.resolved != nil {
		p := *m.resolved
		snap.Resolved = &p
	}
	if m.guess != nil {
		p := *m.guess
		snap.Guess = &p
	}
	if m.lastResult != nil {
		r := *m.lastResult
		snap.LastResult = &r
	}
	return snap
}
