package models

// ResolveLocationRequest is the provider callback reporting where street
// imagery actually rendered for a round. Unresolved marks the "no imagery
// near the point" case; Lat/Lng are ignored then.
type ResolveLocationRequest struct {
	Round      int     `json:"round"`
	Lat        float64 `json:"lat" validate:"omitempty,latitude"`
	Lng        float64 `json:"lng" validate:"omitempty,longitude"`
	Unresolved bool    `json:"unresolved"`
}

// GuessRequest places or replaces the player's pin for the current round.
type GuessRequest struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lng float64 `json:"lng" validate:"longitude"`
}

// SubmitPlayerRequest carries the name entered at game end.
type SubmitPlayerRequest struct {
	PlayerName string `json:"playerName" validate:"required,max=20"`
}

// SetupRequest carries the map-provider credential entered in the setup
// dialog when none was configured at startup.
type SetupRequest struct {
	APIKey string `json:"apiKey" validate:"required"`
}

// SetupStatusResponse tells the UI whether a usable map credential exists.
type SetupStatusResponse struct {
	Configured bool `json:"configured"`
}

// SubmitPlayerResponse reports persistence of a finished game. Saved is
// false only when both storage tiers failed; the game is finished either way.
type SubmitPlayerResponse struct {
	Saved      bool           `json:"saved"`
	Outcome    *UpsertOutcome `json:"outcome,omitempty"`
	HighScores []RankedEntry  `json:"highScores,omitempty"`
	Warning    string         `json:"warning,omitempty"`
}
