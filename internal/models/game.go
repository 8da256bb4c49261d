package models

import "github.com/placechase/placechase-api/internal/geo"

// GameState enumerates the round orchestrator's states.
type GameState string

const (
	// StateIdle is the pre-game state before the first round starts.
	StateIdle GameState = "idle"
	// StateAwaitingLocation means a target was sampled and handed to the
	// map provider, which has not resolved imagery yet.
	StateAwaitingLocation GameState = "awaiting_location"
	// StateGuessing means the countdown is running and guesses are accepted.
	StateGuessing GameState = "guessing"
	// StateResolved means the current round has been scored.
	StateResolved GameState = "resolved"
	// StateComplete means all rounds are played and a player name is awaited.
	StateComplete GameState = "complete"
	// StateFinished is the terminal display state after name submission.
	StateFinished GameState = "finished"
)

// RoundResult is the immutable outcome of one scored round.
type RoundResult struct {
	Round          int     `json:"round"`
	DistanceMeters float64 `json:"distanceMeters"`
	Score          int     `json:"score"`
	TimedOut       bool    `json:"timedOut"`
	// Degraded marks rounds scored against the requested point because the
	// provider never resolved imagery; their distance is biased.
	Degraded bool `json:"degraded,omitempty"`
}

// GameSnapshot is the UI-visible projection of a session.
type GameSnapshot struct {
	ID          string    `json:"id"`
	State       GameState `json:"state"`
	Round       int       `json:"round"`
	TotalRounds int       `json:"totalRounds"`
	TimeLeft    int       `json:"timeLeft"`

	Target   *geo.Point `json:"target,omitempty"`
	Resolved *geo.Point `json:"resolved,omitempty"`
	Guess    *geo.Point `json:"guess,omitempty"`

	LastResult *RoundResult `json:"lastResult,omitempty"`

	TotalScore          int           `json:"totalScore"`
	TotalDistanceMeters float64       `json:"totalDistanceMeters"`
	History             []RoundResult `json:"history"`
}
